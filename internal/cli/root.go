// Package cli provides the command-line interface for s4.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/slmtnm/s4fs/internal/batch"
	"github.com/slmtnm/s4fs/internal/config"
	"github.com/slmtnm/s4fs/internal/logging"
	"github.com/slmtnm/s4fs/internal/ops"
	"github.com/slmtnm/s4fs/internal/store"
)

// Version is set at build time.
var Version = "dev"

// app holds what every command shares: flags, settings and the way a
// store is opened.
type app struct {
	cfgFile string
	verbose bool

	v        *viper.Viper
	settings *config.Settings

	// openStore is replaced in tests.
	openStore func(ctx context.Context, cmd *cobra.Command, s *config.Settings, bucket string) (store.Store, error)
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{openStore: openStore})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "s4 [bucket]",
		Short: "S4 - browse and manage S3-compatible buckets",
		Long: `S4 is a TUI (Terminal User Interface) for browsing S3 buckets.
It reads credentials from a .s3cfg file (compatible with s3cmd) and
settings from s4.yaml or S4_* environment variables.

Run "s4 <bucket>" to open the browser, or use the subcommands for
scripted transfers.`,
		Example:       "  s4 my-bucket\n  s4 ls my-bucket photos/\n  s4 put my-bucket backups/ -r ./data",
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadSettings(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.browse(cmd, args[0])
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "Settings file (default: s4.yaml in ., $XDG_CONFIG_HOME/s4, ~/.config/s4)")
	flags.String("profile", config.DefaultProfile, ".s3cfg profile to use")
	flags.String("backend", config.BackendS3, "Storage backend: s3, minio, azure or memory")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	_ = rootCmd.RegisterFlagCompletionFunc("profile", completeProfiles)

	rootCmd.AddCommand(
		newBrowseCmd(a),
		newLsCmd(a),
		newPutCmd(a),
		newGetCmd(a),
		newRmCmd(a),
		newMvCmd(a),
		newMkdirCmd(a),
		newProfilesCmd(a),
	)
	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

func (a *app) loadSettings(cmd *cobra.Command) error {
	a.v = config.NewViper(a.cfgFile)
	if err := bindFlags(a.v, cmd.Root().PersistentFlags(), "profile", "backend"); err != nil {
		return err
	}

	settings, err := config.LoadSettings(a.v)
	if err != nil {
		return err
	}
	if a.verbose {
		settings.Log.Level = "debug"
	}
	a.settings = settings
	return nil
}

// bindFlags lets the named flags override the settings file, but only when
// they were set on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// logger builds the logger for one command. Batch commands log to the
// console; the TUI owns the terminal and only logs to the file.
func (a *app) logger(console bool, out io.Writer) (zerolog.Logger, error) {
	l := a.settings.Log
	return logging.New(logging.Options{
		Level:      l.Level,
		Console:    console,
		Out:        out,
		File:       l.File,
		MaxSize:    l.MaxSize,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAge,
		Compress:   l.Compress,
	})
}

// service opens bucket, checks it is reachable and returns a service whose
// executor reports to sink.
func (a *app) service(ctx context.Context, cmd *cobra.Command, bucket string, sink batch.Sink, log zerolog.Logger) (*ops.Service, error) {
	st, err := a.openStore(ctx, cmd, a.settings, bucket)
	if err != nil {
		return nil, err
	}

	exec := batch.NewExecutor(sink, log,
		batch.WithPollInterval(a.settings.PollInterval),
		batch.WithItemTimeout(a.settings.ItemTimeout),
	)
	svc := ops.New(st, exec, log)
	if err := svc.Connect(ctx); err != nil {
		out := cmd.ErrOrStderr()
		fmt.Fprintln(out, "Please check:")
		fmt.Fprintln(out, "  - Bucket name is correct")
		fmt.Fprintln(out, "  - Your credentials have access to this bucket")
		fmt.Fprintln(out, "  - Your endpoint configuration is correct")
		return nil, fmt.Errorf("error accessing bucket '%s': %w", bucket, err)
	}
	return svc, nil
}
