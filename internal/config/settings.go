package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by the "backend" setting.
const (
	BackendS3     = "s3"
	BackendMinio  = "minio"
	BackendAzure  = "azure"
	BackendMemory = "memory"
)

const (
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultItemTimeout   = 5 * time.Minute
	DefaultStatusTimeout = 3 * time.Second
)

// LogSettings configures logging output.
type LogSettings struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AzureSettings configures the azure backend.
type AzureSettings struct {
	// ContainerURL is a container URL carrying a SAS token.
	ContainerURL string `mapstructure:"container_url"`
}

// Settings are the application settings read from s4.yaml, S4_* env vars
// and command-line flags.
type Settings struct {
	Backend       string        `mapstructure:"backend"`
	Profile       string        `mapstructure:"profile"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	ItemTimeout   time.Duration `mapstructure:"item_timeout"`
	StatusTimeout time.Duration `mapstructure:"status_timeout"`
	DownloadDir   string        `mapstructure:"download_dir"`
	Log           LogSettings   `mapstructure:"log"`
	Azure         AzureSettings `mapstructure:"azure"`
}

// SettingsPaths returns the directories searched for s4.yaml.
func SettingsPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "s4"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "s4"))
	}
	return paths
}

// NewViper returns a viper instance with defaults, env binding and search
// paths configured. path, when set, is used instead of searching.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("S4")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("s4")
		v.SetConfigType("yaml")
		for _, p := range SettingsPaths() {
			v.AddConfigPath(p)
		}
	}
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendS3)
	v.SetDefault("profile", DefaultProfile)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("item_timeout", DefaultItemTimeout)
	v.SetDefault("status_timeout", DefaultStatusTimeout)
	v.SetDefault("download_dir", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("azure.container_url", "")
}

// LoadSettings reads the settings file if one exists and unmarshals the
// merged result. A missing file is not an error.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks setting values that viper cannot.
func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendS3, BackendMinio, BackendMemory:
	case BackendAzure:
		if s.Azure.ContainerURL == "" {
			return fmt.Errorf("azure backend requires azure.container_url")
		}
	default:
		return fmt.Errorf("unknown backend '%s'", s.Backend)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", s.PollInterval)
	}
	if s.ItemTimeout < 0 {
		return fmt.Errorf("item_timeout must not be negative, got %s", s.ItemTimeout)
	}
	return nil
}
