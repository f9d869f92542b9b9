package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slmtnm/s4fs/internal/config"
	"github.com/slmtnm/s4fs/internal/store"
	"github.com/slmtnm/s4fs/internal/store/azure"
	"github.com/slmtnm/s4fs/internal/store/memory"
	"github.com/slmtnm/s4fs/internal/store/minio"
	s3store "github.com/slmtnm/s4fs/internal/store/s3"
)

// openStore creates the backend selected in s.
func openStore(ctx context.Context, cmd *cobra.Command, s *config.Settings, bucket string) (store.Store, error) {
	switch s.Backend {
	case config.BackendMemory:
		return memory.New(bucket), nil

	case config.BackendAzure:
		return azure.New(s.Azure.ContainerURL)

	case config.BackendS3, config.BackendMinio:
		cfg, err := loadCredentials(cmd, s.Profile)
		if err != nil {
			return nil, err
		}
		if s.Backend == config.BackendMinio {
			return minio.New(cfg, bucket)
		}
		return s3store.New(ctx, cfg, bucket)
	}
	return nil, fmt.Errorf("unknown backend '%s'", s.Backend)
}

// loadCredentials reads the .s3cfg profile and offers the interactive
// setup when no file exists yet.
func loadCredentials(cmd *cobra.Command, profile string) (*config.S3Config, error) {
	if _, err := config.FindS3Config(); err != nil {
		out := cmd.ErrOrStderr()
		fmt.Fprintf(out, "No S3 configuration found: %s\n\n", err)

		cfg, err := config.InteractiveS3Setup(cmd.InOrStdin(), out)
		if err != nil {
			fmt.Fprintln(out, "\nPlease create a .s3cfg file manually in one of these locations:")
			fmt.Fprintln(out, "  - Current directory: .s3cfg")
			fmt.Fprintln(out, "  - Home directory: ~/.s3cfg")
			fmt.Fprintln(out, "  - System directory: /etc/s3cfg")
			return nil, fmt.Errorf("setup cancelled or failed: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadS3Config(profile)
	if err != nil {
		if path, findErr := config.FindS3Config(); findErr == nil {
			if profiles, listErr := config.Profiles(path); listErr == nil && !slices.Contains(profiles, profile) {
				return nil, fmt.Errorf("%w (available profiles: %s)", err, strings.Join(profiles, ", "))
			}
		}
		return nil, err
	}
	return cfg, nil
}
