package config

import (
	"sort"

	"github.com/san-kum/trajfit/internal/fit"
)

type Preset struct {
	Description string
	Build       func() *Config
}

var Presets = map[string]Preset{
	"baseline": {
		Description: "25 m baseline drive in 1.359 s with drag",
		Build:       DefaultConfig,
	},
	"spin": {
		Description: "baseline shot with light topspin (20 rad/s)",
		Build: func() *Config {
			c := DefaultConfig()
			c.Model = "spin"
			return c
		},
	},
	"vacuum": {
		Description: "baseline shot without air",
		Build: func() *Config {
			c := DefaultConfig()
			c.Model = "vacuum"
			return c
		},
	},
	"topspin": {
		Description: "baseline shot with heavy topspin (60 rad/s)",
		Build: func() *Config {
			c := DefaultConfig()
			c.Model = "spin"
			c.Spin.Rate = 60
			return c
		},
	},
	"slice": {
		Description: "baseline shot hit with backspin",
		Build: func() *Config {
			c := DefaultConfig()
			c.Model = "spin"
			c.Spin.Direction = -1
			return c
		},
	},
	"lob": {
		Description: "20 m defensive lob in 2.2 s",
		Build: func() *Config {
			c := DefaultConfig()
			c.Observation = fit.Observation{Hit: [3]float64{0, 0, 1}, Bounce: [3]float64{20, 0, 0}, Seconds: 2.2}
			return c
		},
	},
	"drive": {
		Description: "23 m cross-court drive in 0.9 s",
		Build: func() *Config {
			c := DefaultConfig()
			c.Observation = fit.Observation{Hit: [3]float64{0, 0, 1}, Bounce: [3]float64{21, 9.15, 0}, Seconds: 0.9}
			return c
		},
	},
}

// GetPreset builds a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
