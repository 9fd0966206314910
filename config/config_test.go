package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	if cfg.Pool.Capacity != 25000 {
		t.Errorf("expected capacity 25000, got %d", cfg.Pool.Capacity)
	}
	if cfg.Images.Preferred != "darksouls1.jpg" {
		t.Errorf("expected preferred darksouls1.jpg, got %q", cfg.Images.Preferred)
	}
	if len(cfg.Modes.Humanity.Accents) != 2 || len(cfg.Modes.Ember.Accents) != 1 {
		t.Errorf("unexpected accent counts %d/%d", len(cfg.Modes.Humanity.Accents), len(cfg.Modes.Ember.Accents))
	}
	if cfg.Derived.ScreenW32 != 1280 || cfg.Derived.ScreenH32 != 720 {
		t.Errorf("unexpected derived screen %vx%v", cfg.Derived.ScreenW32, cfg.Derived.ScreenH32)
	}
	if cfg.Derived.DT32 != float32(cfg.Physics.DT) {
		t.Errorf("DT32 %v does not match dt %v", cfg.Derived.DT32, cfg.Physics.DT)
	}
}

func TestLoad_OverlayKeepsUnsetFields(t *testing.T) {
	path := writeFile(t, "pool:\n  capacity: 500\nmotion:\n  enter_threshold: 0.1\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load overlay: %v", err)
	}
	if cfg.Pool.Capacity != 500 {
		t.Errorf("expected capacity 500, got %d", cfg.Pool.Capacity)
	}
	if cfg.Motion.EnterThreshold != 0.1 {
		t.Errorf("expected enter threshold 0.1, got %v", cfg.Motion.EnterThreshold)
	}
	if cfg.Motion.ExitThreshold != 0.03 {
		t.Errorf("expected default exit threshold 0.03, got %v", cfg.Motion.ExitThreshold)
	}
	if cfg.Screen.Width != 1280 {
		t.Errorf("expected default width, got %d", cfg.Screen.Width)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"zero capacity", "pool:\n  capacity: 0\n", "pool.capacity"},
		{"screen", "screen:\n  width: 0\n", "screen size"},
		{"edge thresholds", "edge:\n  low_threshold: 0.5\n  high_threshold: 0.2\n", "edge.low_threshold"},
		{"motion thresholds", "motion:\n  exit_threshold: 0.2\n", "motion.exit_threshold"},
		{"fade order", "fade:\n  fade_in: 0.6\n  fade_out: 0.4\n", "fade fractions"},
		{"syntax", "pool: [\n", "parsing config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_DerivedFallbacks(t *testing.T) {
	path := writeFile(t, "edge:\n  process_width: 0\nmotion:\n  window: 0\nimages:\n  extensions: []\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Edge.ProcessWidth != 240 {
		t.Errorf("expected process width 240, got %d", cfg.Edge.ProcessWidth)
	}
	if cfg.Motion.Window != 1 {
		t.Errorf("expected motion window 1, got %d", cfg.Motion.Window)
	}
	if len(cfg.Images.Extensions) == 0 {
		t.Error("expected default extensions")
	}
}

func TestWriteYAML_Reload(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	cfg.Edge.LowThreshold = 0.07
	cfg.Auto.EmberDwell = 5

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Edge.LowThreshold != 0.07 || got.Auto.EmberDwell != 5 {
		t.Errorf("values lost in round trip: %+v %+v", got.Edge, got.Auto)
	}
}

func TestCfg_PanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Cfg()
}
