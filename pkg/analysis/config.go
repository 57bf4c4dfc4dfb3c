package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/urbanmorph/axialnet/pkg/dist"
)

// ConfigVersion is the descriptor version this package reads and
// writes. A mismatched version is a hard error.
const ConfigVersion = 1

// RadiiConfig is the YAML form of a dist.Radii: absent fields mean an
// unbounded metric.
type RadiiConfig struct {
	Straight *float64 `yaml:"straight,omitempty"`
	Walking  *float64 `yaml:"walking,omitempty"`
	Steps    *int     `yaml:"steps,omitempty"`
	Angular  *float64 `yaml:"angular,omitempty"`
	Axmeter  *float64 `yaml:"axmeter,omitempty"`
}

// Radii converts the config form into a dist.Radii.
func (c RadiiConfig) Radii() dist.Radii {
	var r dist.Radii
	if c.Straight != nil {
		r.SetStraight(*c.Straight)
	}
	if c.Walking != nil {
		r.SetWalking(*c.Walking)
	}
	if c.Steps != nil {
		r.SetSteps(*c.Steps)
	}
	if c.Angular != nil {
		r.SetAngular(*c.Angular)
	}
	if c.Axmeter != nil {
		r.SetAxmeter(*c.Axmeter)
	}
	return r
}

// RadiiConfigFrom converts a dist.Radii into its YAML form.
func RadiiConfigFrom(r dist.Radii) RadiiConfig {
	var c RadiiConfig
	if r.HasStraight() {
		v := r.Straight()
		c.Straight = &v
	}
	if r.HasWalking() {
		v := r.Walking()
		c.Walking = &v
	}
	if r.HasSteps() {
		v := r.Steps()
		c.Steps = &v
	}
	if r.HasAngular() {
		v := r.Angular()
		c.Angular = &v
	}
	if r.HasAxmeter() {
		v := r.Axmeter()
		c.Axmeter = &v
	}
	return c
}

// Config is a stored analysis parameter set. Research pipelines keep
// these on disk so runs are repeatable.
type Config struct {
	Version        int         `yaml:"version"`
	Analysis       string      `yaml:"analysis"`
	DistanceType   string      `yaml:"distance_type"`
	Radii          RadiiConfig `yaml:"radii,omitempty"`
	WeighByLength  bool        `yaml:"weigh_by_length,omitempty"`
	AngleThreshold float64     `yaml:"angle_threshold,omitempty"`
	AnglePrecision int         `yaml:"angle_precision,omitempty"`
}

// ParseDistanceType resolves the config's distance type name.
func (c *Config) ParseDistanceType() (dist.Type, error) {
	for t := dist.Straight; int(t) < dist.TypeCount; t++ {
		if t.String() == c.DistanceType {
			return t, nil
		}
	}
	return dist.Undefined, fmt.Errorf("analysis: unknown distance type %q", c.DistanceType)
}

// LoadConfig reads a YAML analysis config, rejecting unknown versions.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("analysis: parsing %s: %w", path, err)
	}
	if c.Version != ConfigVersion {
		return nil, fmt.Errorf("analysis: config version mismatch: got %d, expected %d", c.Version, ConfigVersion)
	}
	return &c, nil
}

// SaveConfig writes the config as YAML.
func SaveConfig(path string, c *Config) error {
	c.Version = ConfigVersion
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
