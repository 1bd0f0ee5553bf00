package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/scrumlink/internal/flagx"
	"github.com/dmitrijs2005/scrumlink/internal/timex"
)

// JSONConfig is the on-disk shape of the config file. Durations use
// timex.Duration, so "30s" and integer nanoseconds are both accepted.
type JSONConfig struct {
	ServerURL      string         `json:"server_url"`
	Username       string         `json:"username"`
	RefreshToken   string         `json:"refresh_token"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LogLevel       string         `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c or -config. Absent keys
// keep the value already in cfg; no flag means no file is read.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.Username != "" {
		cfg.Username = jc.Username
	}
	if jc.RefreshToken != "" {
		cfg.RefreshToken = jc.RefreshToken
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
