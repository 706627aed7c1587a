// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Built-in defaults — the service runs with no config file at all,
//     listening on the default port against a local MongoDB.
//
// The parsed values are returned as a *Config pointer so the struct is
// shared by reference rather than copied everywhere.
package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden by
// the corresponding environment variable (env:"...").
//
// env-default supplies the fixed defaults: unlike a required field, a
// missing value never stops the process from starting.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// Mongo and HTTPServer are embedded (not pointers) so their fields
	// are accessible directly on Config after promotion.
	Mongo      `yaml:"mongo"`
	HTTPServer `yaml:"http_server"`
}

// Mongo holds the document-store connection settings.
type Mongo struct {
	// URI is the MongoDB connection string. The server does not have
	// to be reachable at startup; reads degrade until it is.
	URI string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`

	Database   string `yaml:"database" env:"MONGO_DATABASE" env-default:"studentdb"`
	Collection string `yaml:"collection" env:"MONGO_COLLECTION" env-default:"students"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Port is the TCP port the server tries first.
	Port int `yaml:"port" env:"HTTP_SERVER_PORT" env-default:"3000"`

	// FallbackPort is bound instead when Port is already in use,
	// rather than failing startup.
	FallbackPort int `yaml:"fallback_port" env:"HTTP_SERVER_FALLBACK_PORT" env-default:"3001"`
}

// MustLoad reads, validates, and returns the application config.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to fatal on failure. Callers do not need to check
// a returned error — if this function returns, the config is usable.
func MustLoad() *Config {
	var cfg Config

	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	// ── Source 3: no file at all — env vars + defaults ───────────────
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err.Error())
		}
		return &cfg
	}

	// A path WAS given, so a missing file is a misconfiguration worth
	// stopping for — silently ignoring it would hide typos.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	// cleanenv.ReadConfig reads the YAML file, then applies env:"..."
	// overrides and env-default fallbacks.
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return &cfg
}
