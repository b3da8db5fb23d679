package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Default values applied by Config.Defaults.
const (
	// DefaultMaxStep is the per-rank synchronization step bound, in
	// simulated time units.
	DefaultMaxStep = 1.0

	// DefaultInitialValue seeds the engine state when no explicit value is
	// given (resting membrane potential, mV).
	DefaultInitialValue = -65.0
)

// Config holds the run configuration for a managed simulation.
// The zero value is not usable; call Defaults and Validate first.
type Config struct {
	// Horizon is the total simulated-time target.
	Horizon float64 `yaml:"horizon"`

	// Step is the per-step simulated-time increment.
	Step float64 `yaml:"step"`

	// Cadence is the simulated-time interval between progress updates.
	// Defaults to Step.
	Cadence float64 `yaml:"cadence"`

	// Order is the numerical-integration order. Zero leaves the engine's
	// default in place.
	Order int `yaml:"order"`

	// MaxStep bounds how far one rank may run ahead of the others.
	// Defaults to DefaultMaxStep.
	MaxStep float64 `yaml:"maxstep"`
}

// Defaults fills unset fields with their default values.
func (c *Config) Defaults() {
	if c.Step == 0 {
		c.Step = 1.0
	}
	if c.Cadence == 0 {
		c.Cadence = c.Step
	}
	if c.MaxStep == 0 {
		c.MaxStep = DefaultMaxStep
	}
}

// Validate checks the configuration for a runnable simulation. It requires
// a positive horizon and step, and a cadence no larger than the horizon so
// that at least one scheduled update can fire.
func (c *Config) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("config: horizon must be positive, got %v", c.Horizon)
	}
	if c.Step <= 0 {
		return fmt.Errorf("config: step must be positive, got %v", c.Step)
	}
	if c.Cadence <= 0 {
		return fmt.Errorf("config: cadence must be positive, got %v", c.Cadence)
	}
	if c.Cadence > c.Horizon {
		return fmt.Errorf("config: cadence %v exceeds horizon %v, no update would fire", c.Cadence, c.Horizon)
	}
	if c.MaxStep < 0 {
		return fmt.Errorf("config: maxstep must not be negative, got %v", c.MaxStep)
	}
	return nil
}

// LoadConfig reads a YAML run configuration from path, applies defaults,
// and validates it.
func LoadConfig(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	c.Defaults()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
