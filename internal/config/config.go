// Package config provides YAML-based server configuration loading, in
// the search-order/embedded-default style of the teacher's
// internal/config package (config.go/loader.go/defaults.go), adapted
// from per-game physics tuning (FlappyConfig, DinoConfig) to the tag
// server's process settings: where to listen and the three fixed
// timing constants spec.md §5 names.
package config

import "time"

// ServerConfig is the tag server's full process configuration.
type ServerConfig struct {
	Listen  ListenConfig  `yaml:"listen"`
	Timing  TimingConfig  `yaml:"timing"`
	Logging LoggingConfig `yaml:"logging"`
}

// ListenConfig controls the WebSocket HTTP listener.
type ListenConfig struct {
	Address            string `yaml:"address"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// TimingConfig holds the three fixed intervals spec.md §5 and §4.3 name,
// expressed in seconds the way the teacher's FlappyPhysics/DinoPhysics
// structs express their own tunables as plain float64 fields rather
// than richer unmarshalable types.
type TimingConfig struct {
	HeartbeatIntervalSeconds float64 `yaml:"heartbeat_interval_seconds"`
	ClientTimeoutSeconds     float64 `yaml:"client_timeout_seconds"`
	UpdateIntervalSeconds    float64 `yaml:"update_interval_seconds"`
}

// HeartbeatInterval is how often the server pings an idle connection.
func (t TimingConfig) HeartbeatInterval() time.Duration {
	return time.Duration(t.HeartbeatIntervalSeconds * float64(time.Second))
}

// ClientTimeout is how long the server waits for a pong before dropping
// the connection.
func (t TimingConfig) ClientTimeout() time.Duration {
	return time.Duration(t.ClientTimeoutSeconds * float64(time.Second))
}

// UpdateInterval is the per-game scoring tick period.
func (t TimingConfig) UpdateInterval() time.Duration {
	return time.Duration(t.UpdateIntervalSeconds * float64(time.Second))
}

// LoggingConfig controls the charmbracelet/log logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}
