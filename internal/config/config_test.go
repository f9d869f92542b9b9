package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleS3cfg = `[default]
access_key = AKIA
secret_key = SECRET
host_base = localhost:9000
use_https = False
bucket_location = eu-west-1

[work]
access_key = WORK
secret_key = WORKSECRET
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadS3ConfigFrom_Default(t *testing.T) {
	path := writeFile(t, ".s3cfg", sampleS3cfg)

	cfg, err := LoadS3ConfigFrom(path, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, cfg.Profile)
	assert.Equal(t, "AKIA", cfg.AccessKey)
	assert.Equal(t, "SECRET", cfg.SecretKey)
	assert.False(t, cfg.UseHTTPS)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "http://localhost:9000", cfg.GetEndpointURL())
}

func TestLoadS3ConfigFrom_ProfileDefaults(t *testing.T) {
	path := writeFile(t, ".s3cfg", sampleS3cfg)

	cfg, err := LoadS3ConfigFrom(path, "work")
	require.NoError(t, err)
	assert.Equal(t, "WORK", cfg.AccessKey)
	assert.Equal(t, "s3.amazonaws.com", cfg.HostBase)
	assert.True(t, cfg.UseHTTPS)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoadS3ConfigFrom_Errors(t *testing.T) {
	path := writeFile(t, ".s3cfg", sampleS3cfg)
	_, err := LoadS3ConfigFrom(path, "missing")
	assert.ErrorContains(t, err, "profile 'missing' not found")

	noKeys := writeFile(t, ".s3cfg", "[default]\nhost_base = example.com\n")
	_, err = LoadS3ConfigFrom(noKeys, "")
	assert.ErrorContains(t, err, "access_key and secret_key")
}

func TestProfiles_DefaultFirst(t *testing.T) {
	path := writeFile(t, ".s3cfg", "[zeta]\naccess_key=a\n[default]\naccess_key=b\n[alpha]\naccess_key=c\n")

	profiles, err := Profiles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "zeta", "alpha"}, profiles)
}

func TestSaveS3Config_KeepsOtherProfiles(t *testing.T) {
	path := writeFile(t, ".s3cfg", sampleS3cfg)

	err := SaveS3Config(&S3Config{
		Profile:   "new",
		AccessKey: "NEW",
		SecretKey: "NEWSECRET",
		HostBase:  "minio.local",
		UseHTTPS:  true,
		Region:    "us-east-1",
	}, path)
	require.NoError(t, err)

	profiles, err := Profiles(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "work", "new"}, profiles)

	cfg, err := LoadS3ConfigFrom(path, "new")
	require.NoError(t, err)
	assert.Equal(t, "NEW", cfg.AccessKey)
	assert.True(t, cfg.UseHTTPS)
}

func TestInteractiveS3Setup_Declined(t *testing.T) {
	var out strings.Builder
	_, err := InteractiveS3Setup(strings.NewReader("n\n"), &out)
	assert.ErrorContains(t, err, "declined")
	assert.Contains(t, out.String(), "No .s3cfg configuration file found.")
}

func TestInteractiveS3Setup_SavesToCurrentDirectory(t *testing.T) {
	chdirForTest(t, t.TempDir())

	input := "y\nAK\nSK\nlocalhost:9000\n\n1\n"
	var out strings.Builder
	cfg, err := InteractiveS3Setup(strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.False(t, cfg.UseHTTPS)
	assert.Equal(t, "us-east-1", cfg.Region)

	loaded, err := LoadS3ConfigFrom(".s3cfg", "")
	require.NoError(t, err)
	assert.Equal(t, "AK", loaded.AccessKey)
	assert.Equal(t, "localhost:9000", loaded.HostBase)
}

func TestLoadSettings_Defaults(t *testing.T) {
	chdirForTest(t, t.TempDir())

	s, err := LoadSettings(NewViper(""))
	require.NoError(t, err)
	assert.Equal(t, BackendS3, s.Backend)
	assert.Equal(t, DefaultPollInterval, s.PollInterval)
	assert.Equal(t, DefaultItemTimeout, s.ItemTimeout)
	assert.Equal(t, "info", s.Log.Level)
}

func TestLoadSettings_FileAndEnv(t *testing.T) {
	path := writeFile(t, "s4.yaml", `
backend: memory
poll_interval: 250ms
log:
  level: debug
  file: /tmp/s4.log
`)
	t.Setenv("S4_ITEM_TIMEOUT", "30s")

	s, err := LoadSettings(NewViper(path))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, s.Backend)
	assert.Equal(t, 250*time.Millisecond, s.PollInterval)
	assert.Equal(t, 30*time.Second, s.ItemTimeout)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "/tmp/s4.log", s.Log.File)
}

func TestSettings_Validate(t *testing.T) {
	base := Settings{Backend: BackendS3, PollInterval: time.Second}
	assert.NoError(t, base.Validate())

	bad := base
	bad.Backend = "ftp"
	assert.ErrorContains(t, bad.Validate(), "unknown backend")

	azure := base
	azure.Backend = BackendAzure
	assert.ErrorContains(t, azure.Validate(), "container_url")

	noPoll := base
	noPoll.PollInterval = 0
	assert.Error(t, noPoll.Validate())
}

// chdirForTest changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
