package config

import (
	"slices"

	"github.com/san-kum/lvsim/internal/physics"
)

type Preset struct {
	Title    string
	Params   physics.Params
	Prey     float64
	Predator float64
	Horizon  float64
}

var Presets = map[string]Preset{
	"default": {
		Title:    "Default",
		Params:   physics.Params{Alpha: 0.1, Beta: 0.1, Gamma: 0.1, Delta: 0.1},
		Prey:     5,
		Predator: 10,
		Horizon:  100,
	},
	"wolves_vs_elk": {
		Title:    "Wolves vs Elk",
		Params:   physics.Params{Alpha: 0.1, Beta: 0.02, Gamma: 0.05, Delta: 0.01},
		Prey:     10,
		Predator: 10,
		Horizon:  200,
	},
	"foxes_vs_hares": {
		Title:    "Foxes vs Hares",
		Params:   physics.Params{Alpha: 1.0, Beta: 0.2, Gamma: 1.0, Delta: 0.1},
		Prey:     5,
		Predator: 10,
		Horizon:  50,
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
