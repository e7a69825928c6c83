package config

import (
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the default hyperparameters match the fitter
// defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Fuzzy.Clusters != 3 {
		t.Errorf("Expected 3 fuzzy clusters, got %d", cfg.Fuzzy.Clusters)
	}
	if cfg.Fuzzy.Fuzziness != 2 {
		t.Errorf("Expected fuzziness 2, got %g", cfg.Fuzzy.Fuzziness)
	}
	if cfg.Fuzzy.Tolerance != 0.005 {
		t.Errorf("Expected fuzzy tolerance 0.005, got %g", cfg.Fuzzy.Tolerance)
	}
	if cfg.Fuzzy.MaxIterations != 50 {
		t.Errorf("Expected 50 fuzzy iterations, got %d", cfg.Fuzzy.MaxIterations)
	}

	if cfg.Mixture.Components != 3 {
		t.Errorf("Expected 3 mixture components, got %d", cfg.Mixture.Components)
	}

	if cfg.Contrast != "t1" {
		t.Errorf("Expected default contrast t1, got %q", cfg.Contrast)
	}
}

// TestLoadConfigMissingFile verifies that a missing config file yields
// defaults rather than an error
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Fuzzy.Clusters != 3 {
		t.Errorf("Expected default config, got %d clusters", cfg.Fuzzy.Clusters)
	}
}

// TestSaveLoadRoundTrip verifies that a saved configuration loads back
// unchanged
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Fuzzy.Clusters = 4
	cfg.Mixture.MaxIterations = 25
	cfg.Contrast = "t2"
	cfg.Output.HardSeg = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Fuzzy.Clusters != 4 {
		t.Errorf("Expected 4 clusters after round trip, got %d", loaded.Fuzzy.Clusters)
	}
	if loaded.Mixture.MaxIterations != 25 {
		t.Errorf("Expected 25 mixture iterations, got %d", loaded.Mixture.MaxIterations)
	}
	if loaded.Contrast != "t2" {
		t.Errorf("Expected contrast t2, got %q", loaded.Contrast)
	}
	if !loaded.Output.HardSeg {
		t.Error("Expected hardSeg true after round trip")
	}
}

// TestOptionsConversion verifies the config to engine options mapping,
// including the shared hardSeg flag
func TestOptionsConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.HardSeg = true

	fo := cfg.FuzzyOptions()
	if fo.Clusters != cfg.Fuzzy.Clusters || !fo.HardSeg {
		t.Errorf("Unexpected fuzzy options: %+v", fo)
	}

	mo := cfg.MixtureOptions()
	if mo.Components != cfg.Mixture.Components || !mo.HardSeg {
		t.Errorf("Unexpected mixture options: %+v", mo)
	}
}
