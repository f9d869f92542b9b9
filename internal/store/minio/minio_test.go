package minio

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slmtnm/s4fs/internal/config"
)

func TestEndpointOf(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.S3Config
		wantHost   string
		wantSecure bool
	}{
		{"bare host", config.S3Config{HostBase: "play.min.io", UseHTTPS: true}, "play.min.io", true},
		{"bare host plain", config.S3Config{HostBase: "localhost:9000"}, "localhost:9000", false},
		{"scheme wins", config.S3Config{HostBase: "http://minio.local:9000", UseHTTPS: true}, "minio.local:9000", false},
		{"https scheme", config.S3Config{HostBase: "https://s3.example.com"}, "s3.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure := endpointOf(&tt.cfg)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNew(t *testing.T) {
	st, err := New(&config.S3Config{HostBase: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Region: "us-east-1"}, "photos")
	require.NoError(t, err)
	assert.Equal(t, "photos", st.Bucket())
}

func TestStore_ErrorsNameTheFailedCall(t *testing.T) {
	st, err := New(&config.S3Config{HostBase: "127.0.0.1:1", AccessKey: "ak", SecretKey: "sk", Region: "us-east-1"}, "photos")
	require.NoError(t, err)

	err = st.Put(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), "a.txt")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to put object a.txt: "), err.Error())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = st.Check(ctx)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to access bucket 'photos': "), err.Error())
}
