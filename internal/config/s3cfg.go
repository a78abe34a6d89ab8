package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrS3ConfigNotFound is returned when none of the searched paths exists.
var ErrS3ConfigNotFound = errors.New(".s3cfg file not found in any of the standard locations")

// S3Config holds the S3 configuration parsed from .s3cfg
type S3Config struct {
	AccessKey string
	SecretKey string
	HostBase  string
	UseHTTPS  bool
	Region    string
}

// DefaultS3ConfigPaths lists where s3cmd looks for its config.
func DefaultS3ConfigPaths() []string {
	paths := []string{".s3cfg"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".s3cfg"))
	}
	return append(paths, "/etc/s3cfg")
}

// LoadS3Config loads the [default] section of the first existing file in
// paths, or of DefaultS3ConfigPaths when paths is empty.
func LoadS3Config(paths ...string) (*S3Config, error) {
	if len(paths) == 0 {
		paths = DefaultS3ConfigPaths()
	}

	var configPath string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}
	if configPath == "" {
		return nil, ErrS3ConfigNotFound
	}

	cfg, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load .s3cfg: %w", err)
	}

	section := cfg.Section("default")
	config := &S3Config{
		AccessKey: section.Key("access_key").String(),
		SecretKey: section.Key("secret_key").String(),
		HostBase:  section.Key("host_base").MustString("s3.amazonaws.com"),
		UseHTTPS:  section.Key("use_https").MustBool(true),
		Region:    section.Key("bucket_location").MustString("us-east-1"),
	}

	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("access_key and secret_key must be specified in %s", configPath)
	}
	return config, nil
}

// EndpointURL returns the endpoint URL for the S3 service
func (c *S3Config) EndpointURL() string {
	if strings.Contains(c.HostBase, "://") {
		return c.HostBase
	}
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}
