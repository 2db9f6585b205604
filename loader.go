package wsbridge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// connectionsFile is the YAML schema for LoadConfigs. Durations are
// plain millisecond integers; pointer fields distinguish absent from
// zero so explicit zeros survive defaulting.
type connectionsFile struct {
	Connections map[string]connectionEntry `yaml:"connections"`
}

type connectionEntry struct {
	URL                  string            `yaml:"url"`
	Headers              map[string]string `yaml:"headers,omitempty"`
	Protocols            []string          `yaml:"protocols,omitempty"`
	AutoReconnect        *bool             `yaml:"auto_reconnect,omitempty"`
	ReconnectIntervalMs  *int              `yaml:"reconnect_interval_ms,omitempty"`
	MaxReconnectAttempts *int              `yaml:"max_reconnect_attempts,omitempty"`
	HandshakeTimeoutMs   *int              `yaml:"handshake_timeout_ms,omitempty"`
	WriteTimeoutMs       *int              `yaml:"write_timeout_ms,omitempty"`
	PingIntervalMs       *int              `yaml:"ping_interval_ms,omitempty"`
}

// LoadConfigs reads a YAML connections file, expands ${VAR} environment
// variables, applies defaults and validates every entry. The map keys of
// the connections section become connection keys.
func LoadConfigs(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var file connectionsFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if len(file.Connections) == 0 {
		return nil, fmt.Errorf("config file %s: no connections defined", path)
	}

	configs := make(map[string]Config, len(file.Connections))
	for key, entry := range file.Connections {
		cfg := entry.toConfig(key)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("connection %q: %w", key, err)
		}
		configs[key] = cfg
	}
	return configs, nil
}

// toConfig resolves an entry against DefaultConfig.
func (e connectionEntry) toConfig(key string) Config {
	cfg := DefaultConfig()
	cfg.URL = e.URL
	cfg.Key = key
	cfg.Headers = e.Headers
	cfg.Protocols = e.Protocols

	if e.AutoReconnect != nil {
		cfg.AutoReconnect = *e.AutoReconnect
	}
	if e.ReconnectIntervalMs != nil {
		cfg.ReconnectInterval = time.Duration(*e.ReconnectIntervalMs) * time.Millisecond
	}
	if e.MaxReconnectAttempts != nil {
		cfg.MaxReconnectAttempts = *e.MaxReconnectAttempts
	}
	if e.HandshakeTimeoutMs != nil {
		cfg.HandshakeTimeout = time.Duration(*e.HandshakeTimeoutMs) * time.Millisecond
	}
	if e.WriteTimeoutMs != nil {
		cfg.WriteTimeout = time.Duration(*e.WriteTimeoutMs) * time.Millisecond
	}
	if e.PingIntervalMs != nil {
		cfg.PingInterval = time.Duration(*e.PingIntervalMs) * time.Millisecond
	}
	return cfg
}
