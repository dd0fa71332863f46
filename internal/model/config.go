package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Chunk       ChunkConfig       `yaml:"chunk"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Store       StoreConfig       `yaml:"store"`
	Output      OutputConfig      `yaml:"output"`

	// SeverityThreshold drops issues ranked below it (low, medium, high)
	SeverityThreshold Severity `yaml:"severity_threshold"`
}

// ChunkConfig bounds manuscript segmentation
type ChunkConfig struct {
	MaxLen int `yaml:"max_len"` // maximum chunk length in runes
	MinLen int `yaml:"min_len"` // chunks below this merge into their predecessor
}

// OracleConfig configures the external semantic-classification service
type OracleConfig struct {
	Provider  string `yaml:"provider"` // openai, ollama, or "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // from env only, never persisted
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds, per call
	MaxTokens int    `yaml:"max_tokens"`
}

// ConcurrencyConfig bounds parallel oracle traffic
type ConcurrencyConfig struct {
	ProposalWorkers     int     `yaml:"proposal_workers"`
	ResolutionBatchSize int     `yaml:"resolution_batch_size"`
	OracleRPS           float64 `yaml:"oracle_rps"`
	OracleBurst         int     `yaml:"oracle_burst"`
}

// StoreConfig locates the canonical fact store
type StoreConfig struct {
	Path        string        `yaml:"path"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose"`
	JSONPath string `yaml:"json,omitempty"`
	MDPath   string `yaml:"md,omitempty"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			MaxLen: 2000,
			MinLen: 200,
		},
		Oracle: OracleConfig{
			Provider:  "",
			Model:     "",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Concurrency: ConcurrencyConfig{
			ProposalWorkers:     4,
			ResolutionBatchSize: 5,
			OracleRPS:           2,
			OracleBurst:         4,
		},
		Store: StoreConfig{
			Path:        "facts.json",
			SnapshotTTL: 30 * time.Second,
		},
		Output: OutputConfig{
			JSONPath: "report.json",
		},
		SeverityThreshold: SeverityMedium,
	}
}
