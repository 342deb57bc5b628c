package validate

import (
	"context"

	"github.com/ppiankov/leakprobe/internal/cache"
	"github.com/ppiankov/leakprobe/internal/logging"
	"github.com/ppiankov/leakprobe/internal/model"
	"github.com/ppiankov/leakprobe/internal/worker"
)

// Judge asks an external semantic judge for verdicts on a batch of items.
// Implementations perform their own retries; an error means the whole batch failed.
type Judge interface {
	Judge(ctx context.Context, items []model.JudgeItem) ([]model.ValidationVerdict, error)
}

// Config controls candidate selection and batching
type Config struct {
	TriggerThreshold float64 // Questions scoring at or above this are judged
	BatchSize        int     // Items per judge call
	Concurrency      int     // Judge calls in flight, 1 keeps batches sequential
}

// ConfigFromModel converts validation configuration
func ConfigFromModel(cfg model.ValidationConfig) Config {
	return Config{
		TriggerThreshold: cfg.TriggerThreshold,
		BatchSize:        cfg.BatchSize,
		Concurrency:      cfg.Concurrency,
	}
}

// Candidate is a rule-scored question offered to the judge
type Candidate struct {
	Item  model.JudgeItem
	Score float64
}

// Stats summarises one validation pass
type Stats struct {
	Selected      int // Candidates at or above the trigger threshold
	CacheHits     int
	Batches       int
	FailedBatches int
	Verdicts      int // Usable verdicts, cached ones included
	Dropped       int // Response entries that were unknown, duplicated or invalid
}

// Validator sends high-scoring questions to the judge in batches.
// It never fails a run: failed batches leave their items unvalidated.
type Validator struct {
	judge   Judge
	cfg     Config
	source  string
	cache   *cache.VerdictCache
	limiter *worker.Limiter
	logger  logging.Logger
}

// Option configures a Validator
type Option func(*Validator)

// WithCache consults and fills a verdict cache
func WithCache(c *cache.VerdictCache) Option {
	return func(v *Validator) { v.cache = c }
}

// WithLimiter waits on limiter before every judge call, under the given provider name
func WithLimiter(limiter *worker.Limiter, provider string) Option {
	return func(v *Validator) {
		v.limiter = limiter
		v.source = provider
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// NewValidator creates a validator. A nil judge makes Validate a no-op
// apart from cache lookups.
func NewValidator(judge Judge, cfg Config, opts ...Option) *Validator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	v := &Validator{
		judge:  judge,
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the usable verdicts keyed by question id
func (v *Validator) Validate(ctx context.Context, candidates []Candidate) (map[string]model.ValidationVerdict, Stats) {
	verdicts := make(map[string]model.ValidationVerdict)
	var stats Stats

	seen := make(map[string]bool, len(candidates))
	var pending []model.JudgeItem
	for _, c := range candidates {
		if c.Score < v.cfg.TriggerThreshold || seen[c.Item.QuestionID] {
			continue
		}
		seen[c.Item.QuestionID] = true
		stats.Selected++

		if cached, ok := v.cache.Get(c.Item); ok {
			verdicts[c.Item.QuestionID] = cached
			stats.CacheHits++
			continue
		}
		pending = append(pending, c.Item)
	}

	if v.judge == nil || len(pending) == 0 {
		stats.Verdicts = len(verdicts)
		return verdicts, stats
	}

	batches := chunk(pending, v.cfg.BatchSize)
	stats.Batches = len(batches)

	for _, out := range v.runBatches(ctx, batches) {
		if out.err != nil {
			stats.FailedBatches++
			v.logger.Warn("judge batch failed, items keep rule score",
				logging.Int("batch", out.index),
				logging.Int("items", len(batches[out.index])),
				logging.Err(out.err))
			continue
		}
		stats.Dropped += out.dropped
		for _, verdict := range out.verdicts {
			verdicts[verdict.QuestionID] = verdict
		}
	}

	stats.Verdicts = len(verdicts)
	return verdicts, stats
}

func (v *Validator) runBatches(ctx context.Context, batches [][]model.JudgeItem) []*batchOutcome {
	outcomes := make([]*batchOutcome, len(batches))

	if v.cfg.Concurrency <= 1 || len(batches) == 1 {
		for i, batch := range batches {
			outcomes[i] = v.runBatch(ctx, i, batch)
		}
		return outcomes
	}

	jobs := make([]worker.Job, len(batches))
	for i, batch := range batches {
		jobs[i] = &batchJob{index: i, items: batch, validator: v}
	}
	for _, r := range worker.NewPool(v.cfg.Concurrency).Run(ctx, jobs) {
		out := r.(*batchOutcome)
		outcomes[out.index] = out
	}

	for i, out := range outcomes {
		if out == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = &batchOutcome{index: i, err: err}
		}
	}
	return outcomes
}

type batchOutcome struct {
	index    int
	verdicts []model.ValidationVerdict
	dropped  int
	err      error
}

func (o *batchOutcome) GetError() error { return o.err }

type batchJob struct {
	index     int
	items     []model.JudgeItem
	validator *Validator
}

func (j *batchJob) Execute(ctx context.Context) worker.Result {
	return j.validator.runBatch(ctx, j.index, j.items)
}

// runBatch calls the judge once and keeps the entries that answer this batch
func (v *Validator) runBatch(ctx context.Context, index int, items []model.JudgeItem) *batchOutcome {
	out := &batchOutcome{index: index}

	if v.limiter != nil {
		if err := v.limiter.Wait(ctx, v.source); err != nil {
			out.err = err
			return out
		}
	}

	raw, err := v.judge.Judge(ctx, items)
	if err != nil {
		out.err = err
		return out
	}

	byID := make(map[string]model.JudgeItem, len(items))
	for _, item := range items {
		byID[item.QuestionID] = item
	}

	taken := make(map[string]bool, len(items))
	for _, entry := range raw {
		item, known := byID[entry.QuestionID]
		verdict, okVerdict := model.ParseVerdict(string(entry.Verdict))
		confidence, okConfidence := model.ParseConfidence(string(entry.Confidence))

		switch {
		case !known:
			v.logger.Debug("dropping verdict for unknown question", logging.String("question_id", entry.QuestionID))
		case taken[entry.QuestionID]:
			v.logger.Debug("dropping duplicate verdict", logging.String("question_id", entry.QuestionID))
		case !okVerdict || !okConfidence:
			v.logger.Debug("dropping invalid verdict",
				logging.String("question_id", entry.QuestionID),
				logging.String("verdict", string(entry.Verdict)),
				logging.String("confidence", string(entry.Confidence)))
		default:
			taken[entry.QuestionID] = true
			entry.Verdict = verdict
			entry.Confidence = confidence
			out.verdicts = append(out.verdicts, entry)
			if err := v.cache.Put(item, entry); err != nil {
				v.logger.Debug("verdict cache write failed", logging.Err(err))
			}
			continue
		}
		out.dropped++
	}

	if missing := len(items) - len(out.verdicts); missing > 0 {
		v.logger.Debug("judge left questions unanswered", logging.Int("batch", index), logging.Int("missing", missing))
	}
	return out
}

func chunk(items []model.JudgeItem, size int) [][]model.JudgeItem {
	var batches [][]model.JudgeItem
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
