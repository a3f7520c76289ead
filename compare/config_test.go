package compare

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("missing env file: %v", err)
	}
	want := DefaultConfig()
	if cfg.Strike != want.Strike || cfg.Rate != want.Rate || cfg.Paths != want.Paths {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	if len(cfg.Spots) != 3 || len(cfg.Rates) != 3 {
		t.Errorf("grid %v × %v", cfg.Spots, cfg.Rates)
	}
	if cfg.Workers < 1 {
		t.Errorf("workers %d", cfg.Workers)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv(EnvSpots, "90, 100,110")
	t.Setenv(EnvRates, "2")
	t.Setenv(EnvVola, "0.3")
	t.Setenv(EnvSeed, "42")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvProgress, "false")
	t.Setenv(EnvReport, " out.json ")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Spots) != 3 || cfg.Spots[1] != 100 || cfg.Spots[2] != 110 {
		t.Errorf("spots %v", cfg.Spots)
	}
	if len(cfg.Rates) != 1 || cfg.Rates[0] != 2 {
		t.Errorf("rates %v", cfg.Rates)
	}
	if cfg.Vola != 0.3 || cfg.Seed != 42 || cfg.Workers != 3 || cfg.Progress || cfg.Report != "out.json" {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadConfigDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("INSTALLMENT_STRIKE=95\nINSTALLMENT_PATHS=500\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv(EnvStrike)
		os.Unsetenv(EnvPaths)
	})
	// the process environment wins over the file
	t.Setenv(EnvPaths, "800")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strike != 95 || cfg.Paths != 800 {
		t.Errorf("strike %v, paths %v", cfg.Strike, cfg.Paths)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvSpots, "100,abc"},
		{EnvStrike, "x"},
		{EnvSeed, "-1"},
		{EnvPaths, "1"},
		{EnvWorkers, "0"},
		{EnvProgress, "maybe"},
		{EnvRates, ""},
		{EnvVola, "0"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("%s=%q accepted", tc.key, tc.value)
			}
		})
	}
}
