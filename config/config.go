// Package config loads named decode profiles from TOML. A default profile
// set is embedded in the binary; a user file replaces it entirely.
package config

import (
	"errors"
	"fmt"

	_ "embed"

	"github.com/BurntSushi/toml"

	"fluxdec/adaptive"
)

//go:embed fluxdec.toml
var defaultConfigData string

// Profile is one named set of decode parameters.
type Profile struct {
	Name        string `toml:"name"`
	Decoder     string `toml:"decoder"`
	HighDensity bool   `toml:"high_density"`

	// CellNs overrides the nominal bit-cell width of the continuous loop.
	CellNs float64 `toml:"cell_ns"`

	// Adaptive switches clock recovery to the threshold classifier.
	Adaptive        bool      `toml:"adaptive"`
	Thresholds      []float64 `toml:"thresholds"`
	Window          float64   `toml:"window"`
	RateOfChange    float64   `toml:"rate_of_change"`
	SmoothingRadius int       `toml:"smoothing_radius"`
}

// Config is the decoded profile file.
type Config struct {
	Default  string    `toml:"default"`
	Profiles []Profile `toml:"profile"`
}

// Load parses and validates a profile file. An empty path loads the
// embedded defaults.
func Load(path string) (*Config, error) {
	var conf Config
	var err error
	if path == "" {
		_, err = toml.Decode(defaultConfigData, &conf)
	} else {
		_, err = toml.DecodeFile(path, &conf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML profiles: %w", err)
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) validate() error {
	if len(c.Profiles) == 0 {
		return errors.New("no profiles defined")
	}
	if c.Default == "" {
		return errors.New("`default` key is missing or empty")
	}
	seen := make(map[string]bool)
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.Name == "" {
			return fmt.Errorf("profile %d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Decoder == "" {
			return fmt.Errorf("profile %q names no decoder", p.Name)
		}
		if p.RateOfChange != 0 && (p.RateOfChange < 1 || p.RateOfChange > 16) {
			return fmt.Errorf("profile %q has rate_of_change %g, must be within 1..16", p.Name, p.RateOfChange)
		}
		if len(p.Thresholds) != 0 && len(p.Thresholds) != 3 {
			return fmt.Errorf("profile %q needs exactly 3 thresholds, got %d", p.Name, len(p.Thresholds))
		}
		if p.Window < 0 || p.Window > 255 {
			return fmt.Errorf("profile %q has window %g, must be within 0..255", p.Name, p.Window)
		}
		if p.SmoothingRadius < 0 || p.SmoothingRadius > 1024 {
			return fmt.Errorf("profile %q has smoothing_radius %d, must be within 0..1024", p.Name, p.SmoothingRadius)
		}
	}
	if !seen[c.Default] {
		return fmt.Errorf("default profile %q not found", c.Default)
	}
	return nil
}

// Profile returns the named profile, or the default one for an empty name.
func (c *Config) Profile(name string) (*Profile, error) {
	if name == "" {
		name = c.Default
	}
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile %q not found in configuration", name)
}

// AdaptiveConfig maps the profile onto classifier settings.
func (p *Profile) AdaptiveConfig() adaptive.Config {
	cfg := adaptive.Config{
		Window:          p.Window,
		RateOfChange:    p.RateOfChange,
		SmoothingRadius: p.SmoothingRadius,
	}
	if len(p.Thresholds) == 3 {
		copy(cfg.Thresholds[:], p.Thresholds)
	}
	return cfg
}
