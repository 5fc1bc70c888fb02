package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pmc-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// APIKey is an optional NCBI API key. Without one E-utilities allows
	// 3 requests/second; with one the limit rises to 10.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RateLimit is the maximum requests per second against E-utilities.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of identifiers to return (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// WindowDays is the size of the default publication-date window applied
	// when no explicit range is given (default 15, ending now).
	WindowDays int `json:"window_days" yaml:"window_days"`
}

// FetchConfig holds settings for the metadata fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`
}

// DownloadConfig holds settings for the full-text download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// SaveDir is the base directory for downloaded files; each article gets
	// a per-identifier subdirectory (default "downloads").
	SaveDir string `json:"save_dir" yaml:"save_dir"`

	// Delay is the pause between consecutive article downloads in a batch
	// (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// HarvestConfig groups all stage configurations.
type HarvestConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Download DownloadConfig `json:"download" yaml:"download"`
}
