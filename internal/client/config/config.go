package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the scrumlink CLI.
//
// Fields:
//   - ServerURL: base URL of the scrum-planning API, without the /api suffix.
//   - Username: default user offered by the connect prompt.
//   - RefreshToken: token used by "resume" to restore a session without a password.
//   - RequestTimeout: per-request timeout of the HTTP transport.
//   - LogLevel: one of debug, info, warn, error.
type Config struct {
	ServerURL      string        `env:"SERVER_URL"`
	Username       string        `env:"USERNAME"`
	RefreshToken   string        `env:"REFRESH_TOKEN"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel       string        `env:"LOG_LEVEL"`
}

// EnvPrefix is prepended to every environment variable name read by parseEnv.
const EnvPrefix = "SCRUMLINK_"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8500"
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the JSON file named by -c/-config,
// SCRUMLINK_* environment variables and finally command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
