// Package config loads credentials from s3cmd-style .s3cfg files and
// application settings from s4.yaml.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultProfile is the .s3cfg section used when no profile is selected.
const DefaultProfile = "default"

// S3Config holds the S3 configuration parsed from .s3cfg
type S3Config struct {
	Profile     string
	AccessKey   string
	SecretKey   string
	HostBase    string
	HostBucket  string
	UseHTTPS    bool
	SignatureV2 bool
	Region      string
}

// ConfigPaths lists the locations searched for .s3cfg, in order.
func ConfigPaths() []string {
	paths := []string{".s3cfg"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".s3cfg"))
	}
	return append(paths, "/etc/s3cfg")
}

// FindS3Config returns the first existing .s3cfg path.
func FindS3Config() (string, error) {
	for _, path := range ConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf(".s3cfg file not found in any of the standard locations")
}

// LoadS3Config loads the given profile from the first .s3cfg found.
func LoadS3Config(profile string) (*S3Config, error) {
	path, err := FindS3Config()
	if err != nil {
		return nil, err
	}
	return LoadS3ConfigFrom(path, profile)
}

// LoadS3ConfigFrom loads one profile section from path.
func LoadS3ConfigFrom(path, profile string) (*S3Config, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load .s3cfg: %w", err)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile '%s' not found in %s", profile, path)
	}

	config := &S3Config{
		Profile:     profile,
		AccessKey:   section.Key("access_key").String(),
		SecretKey:   section.Key("secret_key").String(),
		HostBase:    section.Key("host_base").MustString("s3.amazonaws.com"),
		HostBucket:  section.Key("host_bucket").MustString("%(bucket)s.s3.amazonaws.com"),
		UseHTTPS:    section.Key("use_https").MustBool(true),
		SignatureV2: section.Key("signature_v2").MustBool(false),
		Region:      section.Key("bucket_location").MustString("us-east-1"),
	}

	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("access_key and secret_key must be specified in profile '%s'", profile)
	}

	return config, nil
}

// Profiles lists the sections of the .s3cfg at path. The default profile,
// when present, comes first.
func Profiles(path string) ([]string, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load .s3cfg: %w", err)
	}

	var profiles []string
	for _, name := range cfg.SectionStrings() {
		switch name {
		case ini.DefaultSection:
			continue
		case DefaultProfile:
			profiles = append([]string{name}, profiles...)
		default:
			profiles = append(profiles, name)
		}
	}
	return profiles, nil
}

// GetEndpointURL returns the endpoint URL for the S3 service
func (c *S3Config) GetEndpointURL() string {
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}

// InteractiveS3Setup asks for credentials on in, echoing prompts to out,
// and saves the result as the default profile.
func InteractiveS3Setup(in io.Reader, out io.Writer) (*S3Config, error) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "S4 Interactive Setup")
	fmt.Fprintln(out, "====================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "No .s3cfg configuration file found.")
	fmt.Fprintln(out, "Would you like to create one interactively? (y/N)")

	fmt.Fprint(out, "> ")
	if !scanner.Scan() {
		return nil, fmt.Errorf("failed to read input")
	}

	response := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if response != "y" && response != "yes" {
		return nil, fmt.Errorf("setup declined by user")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Common configurations:")
	fmt.Fprintln(out, "  • AWS S3: Use your AWS credentials and s3.amazonaws.com")
	fmt.Fprintln(out, "  • MinIO local: Use minioadmin/minioadmin123 and localhost:9000")
	fmt.Fprintln(out, "  • Other S3-compatible: Use your service's endpoint and credentials")
	fmt.Fprintln(out)

	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", fmt.Errorf("failed to read input")
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	config := &S3Config{Profile: DefaultProfile}

	var err error
	if config.AccessKey, err = ask("Access Key ID: "); err != nil {
		return nil, err
	}
	if config.AccessKey == "" {
		return nil, fmt.Errorf("access key cannot be empty")
	}

	if config.SecretKey, err = ask("Secret Access Key: "); err != nil {
		return nil, err
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("secret key cannot be empty")
	}

	hostBase, err := ask("S3 Endpoint (default: s3.amazonaws.com): ")
	if err != nil {
		return nil, err
	}
	config.HostBase = orDefault(hostBase, "s3.amazonaws.com")

	if config.HostBase == "s3.amazonaws.com" {
		config.HostBucket = "%(bucket)s.s3.amazonaws.com"
	} else {
		config.HostBucket = config.HostBase + "/%(bucket)s"
	}

	region, err := ask("Region (default: us-east-1): ")
	if err != nil {
		return nil, err
	}
	config.Region = orDefault(region, "us-east-1")

	config.UseHTTPS = !strings.Contains(config.HostBase, "localhost") && !strings.Contains(config.HostBase, "127.0.0.1")

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration summary:\n")
	fmt.Fprintf(out, "  Endpoint: %s\n", config.GetEndpointURL())
	fmt.Fprintf(out, "  Region: %s\n", config.Region)
	fmt.Fprintf(out, "  HTTPS: %t\n", config.UseHTTPS)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Where would you like to save this configuration?")
	fmt.Fprintln(out, "1. Current directory (.s3cfg)")
	fmt.Fprintln(out, "2. Home directory (~/.s3cfg)")
	choice, err := ask("Choice (1-2, default: 2): ")
	if err != nil {
		return nil, err
	}

	var configPath string
	switch choice {
	case "1":
		configPath = ".s3cfg"
	case "", "2":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".s3cfg")
	default:
		return nil, fmt.Errorf("invalid choice")
	}

	if err := SaveS3Config(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration saved to: %s\n\n", configPath)
	return config, nil
}

// SaveS3Config writes config as a profile section of path, keeping any
// other profiles already stored there.
func SaveS3Config(config *S3Config, path string) error {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return fmt.Errorf("failed to load .s3cfg: %w", err)
	}

	profile := config.Profile
	if profile == "" {
		profile = DefaultProfile
	}
	section := cfg.Section(profile)

	section.Key("access_key").SetValue(config.AccessKey)
	section.Key("secret_key").SetValue(config.SecretKey)
	section.Key("host_base").SetValue(config.HostBase)
	section.Key("host_bucket").SetValue(config.HostBucket)
	section.Key("use_https").SetValue(pythonBool(config.UseHTTPS))
	section.Key("signature_v2").SetValue(pythonBool(config.SignatureV2))
	section.Key("bucket_location").SetValue(config.Region)

	return cfg.SaveTo(path)
}

// s3cmd writes booleans Python style
func pythonBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
