// Package config loads settings for the API server and the explorer CLI from
// an optional YAML file and EXPLORER_* environment variables, falling back to
// an s3cmd .s3cfg file for store credentials.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damacus/iron-explorer/internal/browser"
	"github.com/damacus/iron-explorer/internal/services"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// EXPLORER_SERVER_LISTEN for server.listen.
const EnvPrefix = "EXPLORER"

// Config is the full configuration tree.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Log    LogConfig    `mapstructure:"log"`
}

// StoreConfig describes the S3-compatible endpoint and the credentials used
// to reach it.
type StoreConfig struct {
	Provider     string `mapstructure:"provider"`
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	// S3Cfg points at an s3cmd config file. Empty searches the usual places.
	S3Cfg string `mapstructure:"s3cfg"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Listen     string        `mapstructure:"listen"`
	SessionKey string        `mapstructure:"session_key"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// ClientConfig holds explorer CLI settings.
type ClientConfig struct {
	APIURL string `mapstructure:"api_url"`
	Bucket string `mapstructure:"bucket"`
	// Direct signs URLs locally with the store credentials instead of
	// going through the API server.
	Direct      bool          `mapstructure:"direct"`
	Concurrency int           `mapstructure:"concurrency"`
	Scope       string        `mapstructure:"scope"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.provider", services.ProviderMinIO)
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.region", "")
	v.SetDefault("store.access_key", "")
	v.SetDefault("store.secret_key", "")
	v.SetDefault("store.session_token", "")
	v.SetDefault("store.s3cfg", "")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.session_key", "")
	v.SetDefault("server.presign_ttl", services.DefaultPresignTTL)

	v.SetDefault("client.api_url", "http://localhost:8080")
	v.SetDefault("client.bucket", "")
	v.SetDefault("client.direct", false)
	v.SetDefault("client.concurrency", browser.DefaultConcurrency)
	v.SetDefault("client.scope", string(browser.ScopeRoot))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads path (if non-empty) and the environment into a Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.applyS3Cfg(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyS3Cfg fills missing store credentials from a .s3cfg file. A missing
// file is only an error when one was named explicitly.
func (c *Config) applyS3Cfg() error {
	if c.Store.AccessKey != "" && c.Store.SecretKey != "" {
		return nil
	}

	var paths []string
	if c.Store.S3Cfg != "" {
		paths = []string{c.Store.S3Cfg}
	}
	s3cfg, err := LoadS3Config(paths...)
	if err != nil {
		if errors.Is(err, ErrS3ConfigNotFound) && c.Store.S3Cfg == "" {
			return nil
		}
		return err
	}

	c.Store.AccessKey = s3cfg.AccessKey
	c.Store.SecretKey = s3cfg.SecretKey
	if c.Store.Endpoint == "" {
		// minio-go wants a bare host; the AWS SDK takes a URL
		c.Store.Endpoint = s3cfg.HostBase
		if c.Store.Provider == services.ProviderS3 {
			c.Store.Endpoint = s3cfg.EndpointURL()
		}
	}
	if c.Store.Region == "" {
		c.Store.Region = s3cfg.Region
	}
	return nil
}

func (c *Config) normalize() error {
	switch c.Store.Provider {
	case services.ProviderMinIO, services.ProviderS3:
	case "":
		c.Store.Provider = services.ProviderMinIO
	default:
		return fmt.Errorf("unknown store provider %q", c.Store.Provider)
	}

	switch browser.Scope(c.Client.Scope) {
	case browser.ScopeRoot, browser.ScopePath:
	case "":
		c.Client.Scope = string(browser.ScopeRoot)
	default:
		return fmt.Errorf("unknown catalog scope %q (want root or path)", c.Client.Scope)
	}

	c.Server.PresignTTL = services.ClampTTL(c.Server.PresignTTL, services.DefaultPresignTTL)
	if c.Client.Concurrency <= 0 {
		c.Client.Concurrency = browser.DefaultConcurrency
	}
	return nil
}

// Credentials returns the store credentials as the services layer expects them.
func (c *Config) Credentials() services.Credentials {
	return services.Credentials{
		Endpoint:     c.Store.Endpoint,
		Region:       c.Store.Region,
		AccessKey:    c.Store.AccessKey,
		SecretKey:    c.Store.SecretKey,
		SessionToken: c.Store.SessionToken,
	}
}
