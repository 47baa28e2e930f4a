// Config is the TOML-configured surface for the reference render
// harness: image dimensions, the time-parameter sweep, and initial
// memory-slot contents, per SPEC_FULL.md §2.3/§4.3. Struct shape and
// the default-then-override Load pattern follow
// lookbusy1344-arm_emulator/config.Config/DefaultConfig/LoadFrom.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Image struct {
		Width  int `toml:"width"`
		Height int `toml:"height"`
	} `toml:"image"`

	Time struct {
		Start float64 `toml:"start"`
		End   float64 `toml:"end"`
		Steps int     `toml:"steps"`
		Dt    float64 `toml:"dt"`
	} `toml:"time"`

	// Memory seeds Vars.Memory[i] = Memory[i] for every configured
	// index below shaderforth.MemoryCapacity before each pixel runs.
	Memory []float64 `toml:"memory"`
}

// DefaultConfig returns a Config describing one 256x256 frame at t=0.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Image.Width = 256
	cfg.Image.Height = 256
	cfg.Time.Start = 0
	cfg.Time.End = 0
	cfg.Time.Steps = 1
	cfg.Time.Dt = 1.0 / 60.0
	return cfg
}

// LoadConfig reads path over DefaultConfig's values. A path that does
// not exist yields the unmodified defaults, the same permissive
// behavior as lookbusy1344-arm_emulator/config.LoadFrom.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Time.Steps < 1 {
		cfg.Time.Steps = 1
	}
	return cfg, nil
}

// timeSteps returns the t value for each frame the sweep describes.
func (c *Config) timeSteps() []float64 {
	if c.Time.Steps <= 1 {
		return []float64{c.Time.Start}
	}
	out := make([]float64, c.Time.Steps)
	span := c.Time.End - c.Time.Start
	for i := range out {
		out[i] = c.Time.Start + span*float64(i)/float64(c.Time.Steps-1)
	}
	return out
}
