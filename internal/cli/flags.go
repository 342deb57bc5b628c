package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/leakprobe/internal/model"
)

// runFlags are shared by score and batch
type runFlags struct {
	judge            string
	judgeModel       string
	noJudge          bool
	noCache          bool
	flagThreshold    float64
	triggerThreshold float64
	batchSize        int
	judgeConcurrency int
	aggregation      string
	workers          int
	lexiconPath      string
	dbPath           string
	metricsAddr      string
	timeout          time.Duration
}

func (f *runFlags) register(cmd *cobra.Command) {
	def := model.DefaultConfig()
	flags := cmd.Flags()

	// Judge flags
	flags.StringVar(&f.judge, "judge", "", "semantic judge provider (openai, anthropic, ollama, none)")
	flags.StringVar(&f.judgeModel, "model", "", "judge model name")
	flags.BoolVar(&f.noJudge, "no-judge", false, "rule-based scoring only")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the verdict cache")
	flags.IntVar(&f.batchSize, "batch-size", def.Validation.BatchSize, "questions per judge call")
	flags.IntVar(&f.judgeConcurrency, "judge-concurrency", def.Validation.Concurrency, "judge calls in flight")

	// Scoring flags
	flags.Float64Var(&f.flagThreshold, "flag-threshold", def.Report.FlagThreshold, "flag questions scoring above this")
	flags.Float64Var(&f.triggerThreshold, "trigger-threshold", def.Validation.TriggerThreshold, "judge questions scoring at or above this")
	flags.StringVar(&f.aggregation, "aggregation", def.Scoring.Aggregation, "combine multi-target scores by max or mean")
	flags.IntVar(&f.workers, "workers", def.Scoring.Workers, "parallel rule-scoring workers")
	flags.StringVar(&f.lexiconPath, "lexicon", "", "lexicon YAML file (default: built-in)")

	// Output flags
	flags.StringVar(&f.dbPath, "db", "", "SQLite file to record runs in")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Minute, "overall timeout")
}

// apply overrides cfg with the flags the user set
func (f *runFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	changed := cmd.Flags().Changed

	if changed("judge") {
		cfg.LLM.Provider = f.judge
	}
	if changed("model") {
		cfg.LLM.Model = f.judgeModel
	}
	if f.noJudge {
		cfg.Validation.Enabled = false
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if changed("batch-size") {
		cfg.Validation.BatchSize = f.batchSize
	}
	if changed("judge-concurrency") {
		cfg.Validation.Concurrency = f.judgeConcurrency
	}
	if changed("flag-threshold") {
		cfg.Report.FlagThreshold = f.flagThreshold
	}
	if changed("trigger-threshold") {
		cfg.Validation.TriggerThreshold = f.triggerThreshold
	}
	if changed("aggregation") {
		cfg.Scoring.Aggregation = f.aggregation
	}
	if changed("workers") {
		cfg.Scoring.Workers = f.workers
	}
	if changed("lexicon") {
		cfg.Lexicon.Path = f.lexiconPath
	}
	if changed("db") {
		cfg.Store.Path = f.dbPath
	}
}
