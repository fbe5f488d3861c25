package tripdata

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config mirrors the optional YAML configuration file. Zero values defer to
// the Fetcher defaults.
type Config struct {
	BaseURL               string `yaml:"baseURL" validate:"omitempty,url"`
	DataDir               string `yaml:"dataDir"`
	StartMonth            string `yaml:"startMonth"`
	PublicationLagDays    int    `yaml:"publicationLagDays" validate:"gte=0"`
	TimeoutSec            int    `yaml:"timeoutSec" validate:"gte=0"`
	MaxRetries            int    `yaml:"maxRetries" validate:"gte=0"`
	MaxConcurrentDownload int64  `yaml:"maxConcurrentDownload" validate:"gte=0"`
	KeepZip               bool   `yaml:"keepZip"`
	UserAgent             string `yaml:"userAgent"`
}

// LoadConfig loads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if cfg.StartMonth != "" {
		if _, err := ParseMonth(cfg.StartMonth); err != nil {
			return nil, errors.Wrap(err, "invalid config")
		}
	}
	return &cfg, nil
}

// NewFetcher builds a Fetcher from the configuration. The caller may still
// override fields before running Validate.
func (c *Config) NewFetcher() *Fetcher {
	f := &Fetcher{
		BaseURL:               c.BaseURL,
		DataDir:               c.DataDir,
		PublicationLagDays:    c.PublicationLagDays,
		UserAgent:             c.UserAgent,
		KeepZip:               c.KeepZip,
		RequestTimeout:        time.Duration(c.TimeoutSec) * time.Second,
		MaxRetries:            c.MaxRetries,
		MaxConcurrentDownload: c.MaxConcurrentDownload,
	}
	if c.StartMonth != "" {
		// Already checked by LoadConfig
		f.StartMonth, _ = ParseMonth(c.StartMonth)
	}
	return f
}
