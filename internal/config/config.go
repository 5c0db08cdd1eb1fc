// Package config handles loading and validation of ltcfsync.yaml project
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ugrc/ltcfsync/internal/provider/feature"
	"github.com/ugrc/ltcfsync/pkg/types"
)

// FileName is the project configuration file looked up in the project dir.
const FileName = "ltcfsync.yaml"

// providerConfigs is a helper struct used for a second YAML unmarshal pass
// to decode provider-specific config sections into their concrete types.
type providerConfigs struct {
	Feature *feature.Config `yaml:"feature,omitempty"`
}

// Load reads and parses ltcfsync.yaml from the given directory.
func Load(dir string) (*types.ProjectConfig, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Second pass: decode provider-specific sections into concrete types.
	var raw providerConfigs
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing provider config: %w", err)
	}
	if raw.Feature != nil {
		cfg.Feature = raw.Feature
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *types.ProjectConfig) {
	if cfg.Provider == "" {
		cfg.Provider = "feature"
	}
	if cfg.Geocoder.AcceptScore == 0 {
		cfg.Geocoder.AcceptScore = 70
	}
	if cfg.Geocoder.SpatialReference == 0 {
		cfg.Geocoder.SpatialReference = 3857
	}
	if cfg.Geocoder.RatePerSecond == 0 {
		cfg.Geocoder.RatePerSecond = 4
	}
	if cfg.Geocoder.Concurrency == 0 {
		cfg.Geocoder.Concurrency = 2
	}
}

func validate(cfg *types.ProjectConfig) error {
	switch cfg.Provider {
	case "feature":
		fc, _ := cfg.Feature.(*feature.Config)
		if fc == nil {
			return fmt.Errorf("feature config is required when provider is feature")
		}
		if fc.FacilityURL == "" {
			return fmt.Errorf("feature.facilityURL is required")
		}
		if fc.SnapshotURL == "" {
			return fmt.Errorf("feature.snapshotURL is required")
		}
	case "memory":
		// No backend settings.
	default:
		return fmt.Errorf("unknown provider %q (want feature or memory)", cfg.Provider)
	}

	if cfg.Identity == "" {
		return fmt.Errorf("identity is required")
	}
	if cfg.Geocoder.URL == "" {
		return fmt.Errorf("geocoder.url is required")
	}
	if cfg.Geocoder.APIKey == "" {
		return fmt.Errorf("geocoder.apiKey is required")
	}
	if cfg.Input.UpdatesCSV == "" {
		return fmt.Errorf("input.updatesCSV is required")
	}
	return nil
}
