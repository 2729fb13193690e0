package config

import (
	"fmt"
	"strconv"
)

// GrpcServerConfig configures the gRPC listener serving the health protocol.
type GrpcServerConfig struct {
	Port              string `koanf:"port"`
	ReflectionEnabled bool   `koanf:"reflection"`
}

// Addr is the listen address for the configured port on all interfaces.
func (c *GrpcServerConfig) Addr() string {
	return ":" + c.Port
}

func (c *GrpcServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("gRPC port is not configured")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid gRPC port: %s", c.Port)
	}
	return nil
}
