package model

import "time"

// Config is the complete leakprobe configuration
type Config struct {
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Reconcile  ReconcileConfig  `yaml:"reconcile" mapstructure:"reconcile"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Lexicon    LexiconConfig    `yaml:"lexicon" mapstructure:"lexicon"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ScoringConfig holds rule-based weights, caps and detector bounds
type ScoringConfig struct {
	OverlapWeight    float64 `yaml:"overlap_weight" mapstructure:"overlap_weight"`
	OverlapCap       float64 `yaml:"overlap_cap" mapstructure:"overlap_cap"`
	PhraseWeight     float64 `yaml:"phrase_weight" mapstructure:"phrase_weight"`
	EmbeddedWeight   float64 `yaml:"embedded_weight" mapstructure:"embedded_weight"`
	BannedWeight     float64 `yaml:"banned_weight" mapstructure:"banned_weight"`
	BannedCap        float64 `yaml:"banned_cap" mapstructure:"banned_cap"`
	TargetedDiscount float64 `yaml:"targeted_discount" mapstructure:"targeted_discount"`
	BroadDiscount    float64 `yaml:"broad_discount" mapstructure:"broad_discount"` // contextual and thematic
	MinPhraseWords   int     `yaml:"min_phrase_words" mapstructure:"min_phrase_words"`
	MaxPhraseWords   int     `yaml:"max_phrase_words" mapstructure:"max_phrase_words"`
	YesNoOverlap     float64 `yaml:"yes_no_overlap" mapstructure:"yes_no_overlap"`
	Aggregation      string  `yaml:"aggregation" mapstructure:"aggregation"` // "max" or "mean" across target claims
	Workers          int     `yaml:"workers" mapstructure:"workers"`
}

// ValidationConfig controls selection and batching for the semantic judge
type ValidationConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	TriggerThreshold  float64 `yaml:"trigger_threshold" mapstructure:"trigger_threshold"`
	BatchSize         int     `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables limiting
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// Tiers maps each confidence tier to a score bound
type Tiers struct {
	High   float64 `yaml:"high" mapstructure:"high"`
	Medium float64 `yaml:"medium" mapstructure:"medium"`
	Low    float64 `yaml:"low" mapstructure:"low"`
}

// ReconcileConfig holds the floors applied for LEAK and ceilings for OK verdicts
type ReconcileConfig struct {
	Floors   Tiers `yaml:"floors" mapstructure:"floors"`
	Ceilings Tiers `yaml:"ceilings" mapstructure:"ceilings"`
}

// ReportConfig controls aggregation
type ReportConfig struct {
	FlagThreshold float64 `yaml:"flag_threshold" mapstructure:"flag_threshold"`
}

// LLMConfig configures the semantic judge client
type LLMConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model          string        `yaml:"model" mapstructure:"model"`
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int           `yaml:"timeout" mapstructure:"timeout"` // seconds per call
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	HTTPProxy      string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the verdict cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"` // Disk layer, memory only when empty
}

// LexiconConfig points at a corpus-specific lexicon file
type LexiconConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"` // Embedded default when empty
}

// StoreConfig points at the optional SQLite result store
type StoreConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			OverlapWeight:    0.2,
			OverlapCap:       0.4,
			PhraseWeight:     0.35,
			EmbeddedWeight:   0.4,
			BannedWeight:     0.1,
			BannedCap:        0.3,
			TargetedDiscount: 1.0,
			BroadDiscount:    0.6,
			MinPhraseWords:   4,
			MaxPhraseWords:   6,
			YesNoOverlap:     0.5,
			Aggregation:      "max",
			Workers:          4,
		},
		Validation: ValidationConfig{
			Enabled:          true,
			TriggerThreshold: 0.1,
			BatchSize:        25,
			Concurrency:      1,
			Burst:            1,
		},
		Reconcile: ReconcileConfig{
			Floors:   Tiers{High: 0.6, Medium: 0.45, Low: 0.35},
			Ceilings: Tiers{High: 0.15, Medium: 0.25, Low: 0.30},
		},
		Report: ReportConfig{
			FlagThreshold: 0.3,
		},
		LLM: LLMConfig{
			Timeout:        30,
			MaxTokens:      2000,
			MaxRetries:     3,
			RetryBaseDelay: 500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
