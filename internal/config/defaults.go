package config

import (
	_ "embed"
)

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultServerConfig returns the hardcoded fallback configuration,
// used when the embedded YAML itself fails to parse.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen: ListenConfig{
			Address:            ":8080",
			InsecureSkipVerify: false,
		},
		Timing: TimingConfig{
			HeartbeatIntervalSeconds: 5,
			ClientTimeoutSeconds:     10,
			UpdateIntervalSeconds:    1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetDefaultYAML returns the embedded default configuration document.
func GetDefaultYAML() []byte {
	return defaultServerYAML
}
