package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const prefix = "SOILSTAB"

// Database holds history store configuration. An empty config disables
// history.
type Database struct {
	URL       string `envconfig:"DATABASE_URL"`
	AuthToken string `envconfig:"AUTH_TOKEN"`
	Path      string `envconfig:"DATABASE_PATH"`
	Enabled   bool   `envconfig:"HISTORY_ENABLED" default:"true"`
}

// Configured reports whether history should be recorded.
func (d Database) Configured() bool {
	return d.Enabled && (d.URL != "" || d.Path != "")
}

// OTel holds the OTLP metrics exporter configuration.
type OTel struct {
	Enabled  bool   `envconfig:"OTEL_ENABLED"`
	Endpoint string `envconfig:"OTEL_ENDPOINT"`
	Insecure bool   `envconfig:"OTEL_INSECURE"`
}

// App holds everything the soilstab binaries read from the environment.
// Database and OTel are embedded so their keys share the SOILSTAB_ prefix
// without an extra segment.
type App struct {
	Port       int    `envconfig:"PORT" default:"8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ParamsFile string `envconfig:"PARAMS_FILE"`
	Database
	OTel
}

// Load reads SOILSTAB_* environment variables.
func Load() (*App, error) {
	var cfg App
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid %s_PORT: %d", prefix, cfg.Port)
	}
	return &cfg, nil
}
