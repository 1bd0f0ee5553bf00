// Package config loads runtime configuration for the scrumlink CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables prefixed with SCRUMLINK_ (SERVER_URL, USERNAME,
//     REFRESH_TOKEN, REQUEST_TIMEOUT, LOG_LEVEL).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     server base URL
//	-u string     username
//	-t duration   request timeout
//	-l string     log level
//
// # JSON schema
//
//	{
//	  "server_url": "https://scrum.example.com",
//	  "username": "alice",
//	  "refresh_token": "…",
//	  "request_timeout": "15s",
//	  "log_level": "debug"
//	}
package config
