package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigKey is the viper key the HTTP server settings live under.
const ConfigKey = "server"

// Config holds the HTTP server settings.
type Config struct {
	// Host is the listen address; empty means all interfaces.
	Host string `mapstructure:"host"`

	// Port is the listen port.
	Port int `mapstructure:"port"`

	// Debug switches gin into debug mode with verbose request logging.
	Debug bool `mapstructure:"debug"`
}

// NewConfig reads server settings from viper, applying defaults.
func NewConfig(v *viper.Viper) (*Config, error) {
	config := &Config{Port: 8080}
	if err := v.UnmarshalKey(ConfigKey, config); err != nil {
		return nil, fmt.Errorf("unmarshal %s config: %w", ConfigKey, err)
	}
	if config.Port <= 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", config.Port)
	}
	return config, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
