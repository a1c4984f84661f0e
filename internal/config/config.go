package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lvsim/internal/integrators"
	"github.com/san-kum/lvsim/internal/physics"
	"github.com/san-kum/lvsim/internal/sim"
)

// Operating envelope of the dashboard controls.
const (
	MinCoefficient = 0.01
	MaxCoefficient = 2.0
	MinPopulation  = 1
	MaxPopulation  = 20
	MaxSamples     = 1000
)

var Horizons = []float64{15, 50, 100, 200}

const (
	DefaultCoefficient = 0.1
	DefaultPrey        = 5.0
	DefaultPredator    = 10.0
	DefaultHorizon     = 100.0
	DefaultSubsteps    = 10
)

type Config struct {
	Preset       string         `yaml:"preset,omitempty"`
	Params       physics.Params `yaml:",inline"`
	Prey         float64        `yaml:"prey"`
	Predator     float64        `yaml:"predator"`
	Horizon      float64        `yaml:"horizon"`
	Samples      int            `yaml:"samples"`
	Method       string         `yaml:"method"`
	Substeps     int            `yaml:"substeps"`
	RelTol       float64        `yaml:"rtol"`
	AbsTol       float64        `yaml:"atol"`
	MinStep      float64        `yaml:"min_step"`
	MaxSteps     int            `yaml:"max_steps"`
	MaxMagnitude float64        `yaml:"max_magnitude"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset: "default",
		Params: physics.Params{
			Alpha: DefaultCoefficient,
			Beta:  DefaultCoefficient,
			Gamma: DefaultCoefficient,
			Delta: DefaultCoefficient,
		},
		Prey:         DefaultPrey,
		Predator:     DefaultPredator,
		Horizon:      DefaultHorizon,
		Samples:      sim.DefaultSamples,
		Method:       string(sim.MethodDormandPrince),
		Substeps:     DefaultSubsteps,
		RelTol:       integrators.DefaultRelTol,
		AbsTol:       integrators.DefaultAbsTol,
		MinStep:      integrators.DefaultMinStep,
		MaxSteps:     integrators.DefaultMaxSteps,
		MaxMagnitude: integrators.DefaultMaxMagnitude,
	}
}

// Load reads a YAML file over the defaults. When the file names a preset,
// the preset is applied first and the file's own fields override it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if head.Preset != "" {
		if err := cfg.ApplyPreset(head.Preset); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyPreset copies the named preset's model fields into c. Numerical
// settings are left alone.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset: %s", name)
	}
	c.Preset = name
	c.Params = p.Params
	c.Prey = p.Prey
	c.Predator = p.Predator
	c.Horizon = p.Horizon
	return nil
}

// Clamp forces the model fields into the operating envelope: coefficients
// into [0.01, 2], populations to whole numbers in [1, 20], the horizon to
// the nearest of 15, 50, 100 and 200, and samples to at most 1000. It
// returns a note for every field it changed.
func (c *Config) Clamp() []string {
	var notes []string
	clamp := func(name string, v *float64, lo, hi float64) {
		old := *v
		n := math.Min(hi, math.Max(lo, old))
		if math.IsNaN(old) {
			n = lo
		}
		if n != old {
			*v = n
			notes = append(notes, fmt.Sprintf("%s %g -> %g", name, old, n))
		}
	}

	clamp("alpha", &c.Params.Alpha, MinCoefficient, MaxCoefficient)
	clamp("beta", &c.Params.Beta, MinCoefficient, MaxCoefficient)
	clamp("gamma", &c.Params.Gamma, MinCoefficient, MaxCoefficient)
	clamp("delta", &c.Params.Delta, MinCoefficient, MaxCoefficient)

	for _, pop := range []struct {
		name string
		v    *float64
	}{{"prey", &c.Prey}, {"predator", &c.Predator}} {
		if r := math.Round(*pop.v); r != *pop.v && !math.IsNaN(r) {
			notes = append(notes, fmt.Sprintf("%s %g -> %g", pop.name, *pop.v, r))
			*pop.v = r
		}
		clamp(pop.name, pop.v, MinPopulation, MaxPopulation)
	}

	if h := nearestHorizon(c.Horizon); h != c.Horizon {
		notes = append(notes, fmt.Sprintf("horizon %g -> %g", c.Horizon, h))
		c.Horizon = h
	}

	if c.Samples < 1 || c.Samples > MaxSamples {
		n := min(max(c.Samples, 1), MaxSamples)
		notes = append(notes, fmt.Sprintf("samples %d -> %d", c.Samples, n))
		c.Samples = n
	}
	return notes
}

func nearestHorizon(h float64) float64 {
	if math.IsNaN(h) {
		return DefaultHorizon
	}
	best := Horizons[0]
	for _, v := range Horizons[1:] {
		if math.Abs(v-h) < math.Abs(best-h) {
			best = v
		}
	}
	return best
}

// Validate checks the numerical settings. Model fields are left to Clamp.
func (c *Config) Validate() error {
	if _, err := sim.ParseMethod(c.Method); err != nil {
		return err
	}
	if c.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", c.Samples)
	}
	if !(c.Horizon > 0) {
		return fmt.Errorf("horizon must be positive, got %g", c.Horizon)
	}
	if c.Substeps < 1 {
		return fmt.Errorf("substeps must be at least 1, got %d", c.Substeps)
	}
	return c.Options().Validate()
}

func (c *Config) Options() integrators.Options {
	opts := integrators.DefaultOptions()
	opts.RelTol = c.RelTol
	opts.AbsTol = c.AbsTol
	opts.MinStep = c.MinStep
	opts.MaxSteps = c.MaxSteps
	opts.MaxMagnitude = c.MaxMagnitude
	opts.NonNegative = true
	return opts
}

func (c *Config) SimConfig() sim.Config {
	m, err := sim.ParseMethod(c.Method)
	if err != nil {
		m = sim.Method(c.Method)
	}
	return sim.Config{
		Method:   m,
		Options:  c.Options(),
		Substeps: c.Substeps,
	}
}

func (c *Config) Initial() sim.Populations {
	return sim.Populations{Prey: c.Prey, Predator: c.Predator}
}

func (c *Config) Grid() []float64 {
	return integrators.Linspace(0, c.Horizon, c.Samples)
}

func (c *Config) Scenario() sim.Scenario {
	name := c.Preset
	if name == "" {
		name = "custom"
	}
	return sim.Scenario{
		Name:    name,
		Params:  c.Params,
		Initial: c.Initial(),
		Horizon: c.Horizon,
		Samples: c.Samples,
	}
}
