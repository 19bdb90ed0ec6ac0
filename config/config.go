package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ARTM2000/grove/logger"
)

// Config is the root configuration of a grove application.
type Config struct {
	Name      string          `yaml:"name" mapstructure:"name" validate:"required"`
	Container ContainerConfig `yaml:"container" mapstructure:"container"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
}

// ContainerConfig holds the builder-wide policies of a container.
type ContainerConfig struct {
	// DefaultLifetime applies to registrations without an explicit lifetime.
	DefaultLifetime string `yaml:"default_lifetime" mapstructure:"default_lifetime" validate:"oneof=transient singleton"`
	// DuplicatePolicy decides what happens when a key is registered twice.
	DuplicatePolicy string `yaml:"duplicate_policy" mapstructure:"duplicate_policy" validate:"oneof=last-wins reject"`
	// Tracing enables spans and metrics through the global OpenTelemetry
	// providers.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults fills empty fields with their default values.
func (c *Config) ApplyDefaults() {
	c.Container.ApplyDefaults()
	c.Logging.ApplyDefaults()
}

// ApplyDefaults fills empty fields with their default values.
func (c *ContainerConfig) ApplyDefaults() {
	if c.DefaultLifetime == "" {
		c.DefaultLifetime = "transient"
	}
	if c.DuplicatePolicy == "" {
		c.DuplicatePolicy = "last-wins"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct tags and the logging
// rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
