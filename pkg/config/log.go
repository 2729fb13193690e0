package config

import "fmt"

// LogConfig selects the minimum slog level.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Validate accepts the levels understood by bootstrap.NewLogger; empty means info.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %q", c.Level)
	}
}
