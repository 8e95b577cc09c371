package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	// keep tuning lookup away from any real matching.yaml
	setEnv(t, "MATCHING_YAML_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()

	if cfg.RadiusKm != 80 {
		t.Errorf("RadiusKm = %v, want 80", cfg.RadiusKm)
	}
	if cfg.StreetScoreCutoff != 80 {
		t.Errorf("StreetScoreCutoff = %d, want 80", cfg.StreetScoreCutoff)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.KafkaTopic != "identity-claims" {
		t.Errorf("KafkaTopic = %q", cfg.KafkaTopic)
	}
	if cfg.ReportTimeout != 10*time.Second {
		t.Errorf("ReportTimeout = %v, want 10s", cfg.ReportTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setEnv(t, "MATCHING_YAML_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	setEnv(t, "PROXIMITY_RADIUS_KM", "120.5")
	setEnv(t, "STREET_SCORE_CUTOFF", "90")
	setEnv(t, "KAFKA_BROKERS", "b1:9092, b2:9092")

	cfg := Load()

	if cfg.RadiusKm != 120.5 {
		t.Errorf("RadiusKm = %v, want 120.5", cfg.RadiusKm)
	}
	if cfg.StreetScoreCutoff != 90 {
		t.Errorf("StreetScoreCutoff = %d, want 90", cfg.StreetScoreCutoff)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "b1:9092" || cfg.KafkaBrokers[1] != "b2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
}

func TestTuningFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matching.yaml")
	if err := os.WriteFile(path, []byte("radius_km: 50\nstreet_score_cutoff: 85\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	setEnv(t, "MATCHING_YAML_PATH", path)

	cfg := Load()

	if cfg.RadiusKm != 50 {
		t.Errorf("RadiusKm = %v, want 50 from tuning file", cfg.RadiusKm)
	}
	if cfg.StreetScoreCutoff != 85 {
		t.Errorf("StreetScoreCutoff = %d, want 85 from tuning file", cfg.StreetScoreCutoff)
	}
}

func TestTuningFileMalformedIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matching.yaml")
	if err := os.WriteFile(path, []byte(": not yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	setEnv(t, "MATCHING_YAML_PATH", path)

	cfg := Load()

	if cfg.RadiusKm != 80 || cfg.StreetScoreCutoff != 80 {
		t.Errorf("malformed tuning changed thresholds: radius=%v cutoff=%d",
			cfg.RadiusKm, cfg.StreetScoreCutoff)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DatabaseURL:       "user:pass@tcp(localhost:3306)/ref",
			ReportAPIURL:      "https://api.example.com/report",
			KafkaBrokers:      []string{"localhost:9092"},
			RadiusKm:          80,
			StreetScoreCutoff: 80,
			WorkerCount:       4,
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"missing report api", func(c *Config) { c.ReportAPIURL = "" }},
		{"no brokers", func(c *Config) { c.KafkaBrokers = nil }},
		{"zero radius", func(c *Config) { c.RadiusKm = 0 }},
		{"cutoff above 100", func(c *Config) { c.StreetScoreCutoff = 101 }},
		{"zero workers", func(c *Config) { c.WorkerCount = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
