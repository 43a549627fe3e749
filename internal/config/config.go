// Package config loads adapter configuration from an optional YAML file
// and ASA_-prefixed environment variables, env taking precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Agent   AgentConfig   `koanf:"agent"`
	GraphQL GraphQLConfig `koanf:"graphql"`
	Audit   AuditConfig   `koanf:"audit"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// Timeout bounds one resolver invocation, in seconds. It is the
	// only backstop against a stream that never terminates.
	Timeout int `koanf:"timeout"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

type AgentConfig struct {
	ID       string `koanf:"id"`
	Alias    string `koanf:"alias"`
	Endpoint string `koanf:"endpoint"`
}

type GraphQLConfig struct {
	Endpoint string `koanf:"endpoint"`
}

type AuditConfig struct {
	// Path of the local trace audit database. Empty disables auditing.
	Path string `koanf:"path"`
}

// Load reads configuration. path may be empty or point at a YAML file;
// a missing file is not an error, env alone is enough.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("ASA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ASA_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.timeout") {
		k.Set("server.timeout", 900)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
