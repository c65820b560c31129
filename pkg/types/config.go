package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "kscholar/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the collection stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of records per collector (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableKCI controls whether the KCI backend is queried.
	EnableKCI bool `json:"enable_kci" yaml:"enable_kci"`

	// EnableRISS controls whether the RISS backend is queried.
	EnableRISS bool `json:"enable_riss" yaml:"enable_riss"`

	// KCIAPIKey authenticates against the KCI open API.
	KCIAPIKey string `json:"kci_api_key,omitempty" yaml:"kci_api_key,omitempty"`

	// RISSAPIKey authenticates against the RISS open API.
	RISSAPIKey string `json:"riss_api_key,omitempty" yaml:"riss_api_key,omitempty"`

	// DocType is the RISS document type: "T" (thesis), "A" (domestic
	// article), or "F" (foreign article). Default "T".
	DocType string `json:"doc_type" yaml:"doc_type"`

	// FetchDetails enables the KCI detail-fetch pass that backfills
	// missing abstracts and keywords.
	FetchDetails bool `json:"fetch_details" yaml:"fetch_details"`

	// DetailWorkers bounds the detail-fetch worker pool (default 5).
	DetailWorkers int `json:"detail_workers" yaml:"detail_workers"`

	// InterBackendDelay is a polite pause between successive strategy
	// calls to the same backend. Zero disables it.
	InterBackendDelay time.Duration `json:"inter_backend_delay,omitempty" yaml:"inter_backend_delay,omitempty"`
}

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// NormalizerConfig holds settings for the query normalization stage.
type NormalizerConfig struct {
	AIConfig `yaml:",inline"`

	// TablePath locates the keyword mapping CSV (default "keyword_mapping.csv").
	TablePath string `json:"table_path" yaml:"table_path"`

	// MaxTerms caps the normalized term sequence (default 12).
	MaxTerms int `json:"max_terms" yaml:"max_terms"`

	// UseAI enables AI term suggestion for unmatched query residue.
	UseAI bool `json:"use_ai" yaml:"use_ai"`
}

// HistoryConfig holds settings for the search-history store.
type HistoryConfig struct {
	// Dir is the directory holding the history database (default ".kscholar").
	Dir string `json:"dir" yaml:"dir"`
}

// ServeConfig holds settings for the JSON API server.
type ServeConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Normalizer NormalizerConfig `json:"normalizer" yaml:"normalizer"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Serve      ServeConfig      `json:"serve" yaml:"serve"`
}
