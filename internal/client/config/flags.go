package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/scrumlink/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string     server base URL
//	-u string     username
//	-t duration   request timeout (e.g. 10s)
//	-l string     log level
//
// Only these flags are looked at; -c/-config belongs to parseJSON.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-u", "-t", "-l"})

	fs := flag.NewFlagSet("scrumlink", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "username")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	return fs.Parse(args)
}
