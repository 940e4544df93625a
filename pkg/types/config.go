package types

// CatalogConfig holds settings for the catalog store.
type CatalogConfig struct {
	// DataDir holds the *-dataset.yaml bundles read by ingest.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// DatabaseDir holds materials.db and the normalized exports.
	DatabaseDir string `json:"database_dir" yaml:"database_dir" mapstructure:"database_dir"`
}

// AnalysisConfig holds settings for the analysis service.
type AnalysisConfig struct {
	// SourceStrategy is the default normalization strategy (default auto).
	SourceStrategy SourceStrategy `json:"source_strategy" yaml:"source_strategy" mapstructure:"source_strategy"`

	// TopK is the default number of substitution candidates returned (default 10).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// LogLevel is one of debug, info, warn, error (default info).
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// EngineConfig groups all configuration sections.
type EngineConfig struct {
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
}
