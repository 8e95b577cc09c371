package config

import (
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// tuning holds optional threshold overrides loaded from matching.yaml.
// Ops can tighten or relax the matcher without a redeploy; env settings
// remain the baseline when no file is present.
type tuning struct {
	RadiusKm          *float64 `yaml:"radius_km"`
	StreetScoreCutoff *int     `yaml:"street_score_cutoff"`
}

// applyTuning looks for matching.yaml at MATCHING_YAML_PATH, then in the
// working directory. A missing file is fine; a malformed one is logged
// and ignored so a bad edit cannot take the service down.
func applyTuning(cfg *Config) {
	var path string
	if envPath := os.Getenv("MATCHING_YAML_PATH"); envPath != "" {
		path = envPath
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return
		}
		path = filepath.Join(cwd, "matching.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Warning] cannot read %s: %v", path, err)
		}
		return
	}

	var t tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		log.Printf("[Warning] ignoring malformed %s: %v", path, err)
		return
	}

	if t.RadiusKm != nil && *t.RadiusKm > 0 {
		cfg.RadiusKm = *t.RadiusKm
	}
	if t.StreetScoreCutoff != nil && *t.StreetScoreCutoff >= 0 && *t.StreetScoreCutoff <= 100 {
		cfg.StreetScoreCutoff = *t.StreetScoreCutoff
	}
	log.Printf("Applied matching tuning from %s", path)
}
