package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/lvsim/internal/integrators"
	"github.com/san-kum/lvsim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Params.Alpha != 0.1 || cfg.Params.Delta != 0.1 {
		t.Errorf("expected all coefficients 0.1, got %s", cfg.Params)
	}
	if cfg.Prey != 5 || cfg.Predator != 10 {
		t.Errorf("expected populations (5, 10), got (%g, %g)", cfg.Prey, cfg.Predator)
	}
	if cfg.Horizon != 100 {
		t.Errorf("expected horizon 100, got %g", cfg.Horizon)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if notes := cfg.Clamp(); len(notes) != 0 {
		t.Errorf("default config should already be in range, got %v", notes)
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("foxes_vs_hares")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	if p.Params.Beta != 0.2 || p.Horizon != 50 {
		t.Errorf("unexpected foxes_vs_hares preset: %+v", p)
	}

	p.Horizon = 1
	if Presets["foxes_vs_hares"].Horizon != 50 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	want := []string{"default", "foxes_vs_hares", "wolves_vs_elk"}
	if got := ListPresets(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestApplyPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RelTol = 1e-8

	if err := cfg.ApplyPreset("wolves_vs_elk"); err != nil {
		t.Fatal(err)
	}
	if cfg.Params.Gamma != 0.05 || cfg.Prey != 10 || cfg.Horizon != 200 {
		t.Errorf("preset not applied: %+v", cfg)
	}
	if cfg.RelTol != 1e-8 {
		t.Error("numerical settings should survive a preset")
	}
	if err := cfg.ApplyPreset("bogus"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Params.Alpha = 5
	cfg.Params.Beta = 0
	cfg.Prey = 0.4
	cfg.Predator = 7.6
	cfg.Horizon = 70
	cfg.Samples = 5000

	notes := cfg.Clamp()

	if cfg.Params.Alpha != MaxCoefficient || cfg.Params.Beta != MinCoefficient {
		t.Errorf("coefficients not clamped: %s", cfg.Params)
	}
	if cfg.Prey != 1 || cfg.Predator != 8 {
		t.Errorf("populations not clamped: (%g, %g)", cfg.Prey, cfg.Predator)
	}
	if cfg.Horizon != 50 {
		t.Errorf("expected horizon snapped to 50, got %g", cfg.Horizon)
	}
	if cfg.Samples != MaxSamples {
		t.Errorf("expected samples %d, got %d", MaxSamples, cfg.Samples)
	}
	// alpha, beta, prey (round then clamp), predator, horizon, samples
	if len(notes) != 7 {
		t.Errorf("expected 7 notes, got %d: %v", len(notes), notes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown method", func(c *Config) { c.Method = "verlet" }},
		{"no samples", func(c *Config) { c.Samples = 0 }},
		{"zero horizon", func(c *Config) { c.Horizon = 0 }},
		{"no substeps", func(c *Config) { c.Substeps = 0 }},
		{"negative tolerance", func(c *Config) { c.RelTol = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := DefaultConfig()
	cfg.Params.Alpha = 1.5
	cfg.Method = "rk4"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadPresetThenOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := "preset: foxes_vs_hares\nalpha: 0.5\nsamples: 200\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params.Alpha != 0.5 {
		t.Errorf("file should override preset alpha, got %g", cfg.Params.Alpha)
	}
	if cfg.Params.Beta != 0.2 || cfg.Horizon != 50 {
		t.Errorf("preset fields missing: %+v", cfg)
	}
	if cfg.Samples != 200 || cfg.RelTol != integrators.DefaultRelTol {
		t.Errorf("defaults or overrides wrong: %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("preset: nope\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown preset in file")
	}
}

func TestScenario(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyPreset("foxes_vs_hares"); err != nil {
		t.Fatal(err)
	}
	sc := cfg.Scenario()
	if sc.Name != "foxes_vs_hares" || sc.Horizon != 50 || sc.Samples != sim.DefaultSamples {
		t.Errorf("unexpected scenario %+v", sc)
	}
	if got := cfg.Grid(); len(got) != cfg.Samples || got[len(got)-1] != 50 {
		t.Errorf("unexpected grid end %v", got[len(got)-1])
	}
	if !cfg.Options().NonNegative {
		t.Error("options should keep populations non-negative")
	}
	if sc := cfg.SimConfig(); sc.Method != sim.MethodDormandPrince || sc.Substeps != DefaultSubsteps {
		t.Errorf("unexpected sim config %+v", sc)
	}
}
