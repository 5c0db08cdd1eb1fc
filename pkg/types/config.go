package types

// ProjectConfig is the parsed ltcfsync.yaml project configuration.
type ProjectConfig struct {
	// Provider selects the store backend: "feature" (hosted feature service)
	// or "memory" (in-process, used for dry runs and tests).
	Provider string `yaml:"provider"`

	// Identity is appended to the Creator/Editor audit fields on inserts,
	// e.g. "ltcfsync <identity>".
	Identity string `yaml:"identity"`

	Geocoder GeocoderConfig `yaml:"geocoder"`
	Input    InputConfig    `yaml:"input"`
	Schema   SchemaConfig   `yaml:"schema"`

	// Feature holds the feature-service provider config. Decoded in a second
	// pass by the config loader to avoid an import cycle with the provider
	// package.
	Feature interface{} `yaml:"-"`
}

// GeocoderConfig configures the external geocoding web service.
type GeocoderConfig struct {
	URL              string  `yaml:"url"`
	APIKey           string  `yaml:"apiKey"`
	Referer          string  `yaml:"referer,omitempty"`
	AcceptScore      int     `yaml:"acceptScore,omitempty"`      // default 70
	SpatialReference int     `yaml:"spatialReference,omitempty"` // default 3857
	RatePerSecond    float64 `yaml:"ratePerSecond,omitempty"`    // default 4
	Concurrency      int     `yaml:"concurrency,omitempty"`      // default 2
}

// InputConfig locates the run's input files.
type InputConfig struct {
	UpdatesCSV           string `yaml:"updatesCSV"`
	CaseFatalityWorkbook string `yaml:"caseFatalityWorkbook,omitempty"`
}

// SchemaConfig toggles schema-variant fields. The live layer carries
// LastPos_Resident; older development layers do not.
type SchemaConfig struct {
	LastPosResident bool `yaml:"lastPosResident"`
}
