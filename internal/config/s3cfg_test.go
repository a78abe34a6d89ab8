package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadS3Config(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s3cfg", `[default]
access_key = AKIA
secret_key = SECRET
host_base = s3.eu-central-1.wasabisys.com
bucket_location = eu-central-1
`)

	cfg, err := LoadS3Config(filepath.Join(dir, "absent"), path)
	require.NoError(t, err)
	assert.Equal(t, "AKIA", cfg.AccessKey)
	assert.Equal(t, "SECRET", cfg.SecretKey)
	assert.Equal(t, "eu-central-1", cfg.Region)
	assert.True(t, cfg.UseHTTPS)
	assert.Equal(t, "https://s3.eu-central-1.wasabisys.com", cfg.EndpointURL())
}

func TestLoadS3Config_MissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s3cfg", "[default]\nhost_base = localhost:9000\n")

	_, err := LoadS3Config(path)
	assert.Error(t, err)
}

func TestLoadS3Config_NotFound(t *testing.T) {
	_, err := LoadS3Config(filepath.Join(t.TempDir(), "none"))
	assert.ErrorIs(t, err, ErrS3ConfigNotFound)
}

func TestS3Config_EndpointURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", (&S3Config{HostBase: "localhost:9000"}).EndpointURL())
	assert.Equal(t, "https://s3.amazonaws.com", (&S3Config{HostBase: "s3.amazonaws.com", UseHTTPS: true}).EndpointURL())
	assert.Equal(t, "http://minio:9000", (&S3Config{HostBase: "http://minio:9000", UseHTTPS: true}).EndpointURL())
}
