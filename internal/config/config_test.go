package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/LdDl/censor-go/censor"
	"github.com/LdDl/censor-go/internal/render"
)

const testYAML = `
defaults:
  censors:
    - effect: blur
      strength: 8
  margin: 0.1
parts:
  face:
    state: protected
  feet:
    state: revealed
    censors: []
  left_hand:
    margin_width: 0.5
  right_hand: {}
enabled_parts: [face, feet, left_hand, right_hand]
merge_groups:
  hands: [left_hand, right_hand]
persistence_groups:
  limbs: [left_hand, right_hand, feet]
resolution:
  score_dominance: true
tracker:
  hold_seconds: 1.5
  tolerance: 0.5
cache:
  backend: memory
detectors:
  - name: nudenet
    kind: sidecar
    suffix: .json
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(testYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	face, ok := cfg.Policies.Lookup("face")
	if !ok {
		t.Fatal("Expected face policy")
	}
	if face.State != censor.StateProtected {
		t.Errorf("Expected protected face, got %s", face.State)
	}
	if len(face.Censors) != 1 || face.Censors[0].Effect != "blur" || face.Censors[0].Strength != 8 {
		t.Errorf("Face must inherit default censors, got %+v", face.Censors)
	}
	feet, _ := cfg.Policies.Lookup("feet")
	if len(feet.Censors) != 0 || feet.PersistenceGroupID != "limbs" {
		t.Errorf("Unexpected feet policy: %+v", feet)
	}
	left, _ := cfg.Policies.Lookup("left_hand")
	if left.MarginWidth != 0.5 || left.MarginHeight != 0.1 || left.MergeGroupID != "hands" {
		t.Errorf("Unexpected left hand policy: %+v", left)
	}
	if *cfg.Tracker.Tolerance != 0.5 || *cfg.Tracker.HoldSeconds != 1.5 {
		t.Errorf("Unexpected tracker config: %+v", cfg.Tracker)
	}
	if cfg.Cache.Capacity != defaultCacheCapacity || cfg.Cache.TTLSeconds != defaultCacheTTL {
		t.Errorf("Cache defaults are not applied: %+v", cfg.Cache)
	}
	if len(cfg.Detectors) != 1 || cfg.Detectors[0].Suffix != ".json" {
		t.Errorf("Unexpected detectors: %+v", cfg.Detectors)
	}

	tracker, err := cfg.NewTracker(10)
	if err != nil {
		t.Fatal(err)
	}
	if tracker.HoldLimit() != 15 {
		t.Errorf("Expected hold limit 15, got %d", tracker.HoldLimit())
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("parts:\n  face: {}\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("Expected none cache backend, got %q", cfg.Cache.Backend)
	}
	if *cfg.Tracker.Tolerance != defaultTolerance {
		t.Errorf("Expected default tolerance, got %f", *cfg.Tracker.Tolerance)
	}
	if _, ok := cfg.Policies.Lookup("face"); !ok {
		t.Error("Labels of parts section must be enabled when enabled_parts is empty")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"state", "parts:\n  face:\n    state: hidden\n", censor.ErrUnknownState},
		{"margin", "parts:\n  face:\n    margin: -2\n", censor.ErrInvalidMargin},
		{"tolerance", "tracker:\n  tolerance: 0\n", censor.ErrInvalidTolerance},
		{"effect", "parts:\n  face:\n    censors:\n      - effect: swirl\n", render.ErrUnknownEffect},
		{"shape", "parts:\n  face:\n    shape: star\n", censor.ErrUnknownShape},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.doc))
		if !errors.Is(err, tt.want) {
			t.Errorf("[%s] Expected %v, got %v", tt.name, tt.want, err)
		}
	}
	if _, err := Parse([]byte("cache:\n  backend: memcached\n")); err == nil {
		t.Error("Expected error for unknown cache backend")
	}
	// Misspelled keys must not be ignored
	for _, doc := range []string{
		"merge_group:\n  hands: [left_hand, right_hand]\n",
		"parts:\n  face:\n    censor:\n      - effect: blur\n",
		"tracker:\n  hold: 2\n",
	} {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("Expected error for unknown key in %q", doc)
		}
	}
	if _, err := Parse(nil); err != nil {
		t.Errorf("Empty document must fall back to defaults, got %v", err)
	}
}

func TestResolverFromConfig(t *testing.T) {
	cfg, err := Parse([]byte("resolution:\n  disabled: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	resolver := cfg.NewResolver()
	parts := resolver.Resolve(nil)
	if len(parts) != 0 || resolver.Comparisons() != 0 {
		t.Error("Disabled resolver must not compare anything")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "censor.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CENSOR_HOLD_SECONDS", "-1")
	t.Setenv("CENSOR_CACHE_BACKEND", "Redis")
	t.Setenv("CENSOR_REDIS_ADDR", "localhost:6380")
	t.Setenv("CENSOR_WORKERS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6380" {
		t.Errorf("Cache overrides are not applied: %+v", cfg.Cache)
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Workers)
	}
	tracker, err := cfg.NewTracker(25)
	if err != nil {
		t.Fatal(err)
	}
	if tracker.HoldLimit() != censor.HoldForever {
		t.Errorf("Expected hold forever, got %d", tracker.HoldLimit())
	}

	t.Setenv("CENSOR_WORKERS", "many")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed CENSOR_WORKERS")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "censor.example.yaml"))
	if err != nil {
		t.Fatalf("Example config must load: %v", err)
	}
	left, _ := cfg.Policies.Lookup("left_hand")
	if left.MergeGroupID != "hands" || left.PersistenceGroupID != "limbs" {
		t.Errorf("Unexpected left hand policy: %+v", left)
	}
	eyes, _ := cfg.Policies.Lookup("eyes")
	if eyes.ShapeName() != "bar" {
		t.Errorf("Expected bar shape for eyes, got %q", eyes.ShapeName())
	}
}
