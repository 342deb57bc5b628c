package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/leakprobe/internal/detect"
	"github.com/ppiankov/leakprobe/internal/lexicon"
	"github.com/ppiankov/leakprobe/internal/logging"
	"github.com/ppiankov/leakprobe/internal/metrics"
	"github.com/ppiankov/leakprobe/internal/model"
	"github.com/ppiankov/leakprobe/internal/report"
	"github.com/ppiankov/leakprobe/internal/score"
	"github.com/ppiankov/leakprobe/internal/validate"
)

// Recorder persists finalized runs
type Recorder interface {
	SaveRun(ctx context.Context, report *model.Report, outcomes []model.Outcome) error
}

// Options are the optional collaborators of a pipeline
type Options struct {
	Judge     validate.Judge // nil disables semantic validation
	Validator []validate.Option
	Store     Recorder
	Metrics   *metrics.Collector
	Logger    logging.Logger
}

// Pipeline orchestrates one scoring pass over a document
type Pipeline struct {
	scorer     *score.Scorer
	validator  *validate.Validator
	reconciler *validate.Reconciler
	aggregator *report.Aggregator
	store      Recorder
	metrics    *metrics.Collector
	logger     logging.Logger
	workers    int
	newID      func() string
}

// RunResult is the finalized outcome of a run. It is only handed to the
// caller once every question has been reconciled.
type RunResult struct {
	RunID      string           `json:"run_id"`
	DocumentID string           `json:"document_id"`
	Questions  []model.Question `json:"questions"`
	Outcomes   []model.Outcome  `json:"outcomes"`
	Report     *model.Report    `json:"report"`
	Judge      validate.Stats   `json:"-"`
	Elapsed    time.Duration    `json:"-"`
}

// New creates a pipeline from configuration and a loaded lexicon
func New(cfg *model.Config, lex lexicon.Lexicon, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	detector := detect.NewDetector(lexicon.NewClassifier(lex), detect.Options{
		MinPhraseWords: cfg.Scoring.MinPhraseWords,
		MaxPhraseWords: cfg.Scoring.MaxPhraseWords,
		YesNoOverlap:   cfg.Scoring.YesNoOverlap,
	})

	p := &Pipeline{
		scorer:     score.NewScorer(detector, score.WeightsFromConfig(cfg.Scoring), score.ParseAggregation(cfg.Scoring.Aggregation)),
		reconciler: validate.NewReconciler(cfg.Reconcile),
		aggregator: report.NewAggregator(cfg.Report.FlagThreshold),
		store:      opts.Store,
		metrics:    opts.Metrics,
		logger:     logger,
		workers:    cfg.Scoring.Workers,
		newID:      func() string { return uuid.New().String() },
	}

	if cfg.Validation.Enabled && opts.Judge != nil {
		vopts := append([]validate.Option{validate.WithLogger(logger.Named("validate"))}, opts.Validator...)
		p.validator = validate.NewValidator(opts.Judge, validate.ConfigFromModel(cfg.Validation), vopts...)
	}
	return p
}

// Run scores every question of doc. The document is not modified; scored
// copies of its questions are returned in the result. Only invalid input
// and store failures produce an error.
func (p *Pipeline) Run(ctx context.Context, doc *model.Document) (*RunResult, error) {
	start := time.Now()
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	runID := p.newID()
	docID := strings.TrimSpace(doc.ID)
	if docID == "" {
		docID = "doc-" + runID
	}
	log := p.logger.With(logging.String("run_id", runID), logging.String("document_id", docID))

	claims := p.indexClaims(doc.Claims, log)
	questions, err := normalizeQuestions(doc.Questions)
	if err != nil {
		return nil, err
	}

	// Rule-based pass, first score write
	results := p.scorer.ScoreAll(ctx, questions, claims, p.workers)
	outcomes := make([]model.Outcome, len(questions))
	for i, r := range results {
		questions[i].LeakageScore = r.Score
		outcomes[i] = model.Outcome{
			QuestionID: r.QuestionID,
			Style:      questions[i].Style,
			RuleScore:  r.Score,
			FinalScore: r.Score,
			State:      model.StateRuleScored,
			Signal:     r.Signal,
			Signals:    r.Signals,
		}
		if len(r.Unresolved) > 0 {
			log.Warn("question targets unknown claims",
				logging.String("question_id", r.QuestionID),
				logging.String("claim_ids", strings.Join(r.Unresolved, ",")))
		}
		p.metrics.ObserveRuleScore(questions[i].Style, r.Score)
	}

	// Semantic pass, second score write for validated questions
	var stats validate.Stats
	verdicts := map[string]model.ValidationVerdict{}
	if p.validator != nil {
		verdicts, stats = p.validator.Validate(ctx, candidates(questions, results, claims))
		p.metrics.ObserveJudge(stats.Batches, stats.FailedBatches, stats.CacheHits)
		log.Debug("validation pass done",
			logging.Int("selected", stats.Selected),
			logging.Int("cache_hits", stats.CacheHits),
			logging.Int("batches", stats.Batches),
			logging.Int("failed_batches", stats.FailedBatches),
			logging.Int("verdicts", stats.Verdicts))
	}

	for i := range outcomes {
		o := &outcomes[i]
		v, ok := verdicts[o.QuestionID]
		if !ok {
			o.State = model.StateUnvalidated
		} else {
			o.FinalScore = p.reconciler.Reconcile(o.RuleScore, v)
			o.Verdict = &v
			o.State = model.StateValidated
			o.Signals = append(o.Signals, verdictSignal(v, o.RuleScore, o.FinalScore))
			p.metrics.ObserveVerdict(v)
		}
		questions[i].LeakageScore = o.FinalScore
		o.State = model.StateFinalized
	}

	rep := p.aggregator.Aggregate(runID, docID, outcomes)
	rep.FailedBatches = stats.FailedBatches

	if p.store != nil {
		if err := p.store.SaveRun(ctx, &rep, outcomes); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	elapsed := time.Since(start)
	p.metrics.ObserveRun(&rep, outcomes, elapsed)
	log.Info("run finalized",
		logging.Int("questions", rep.Count),
		logging.Int("flagged", rep.FlaggedCount),
		logging.Int("validated", rep.ValidatedCount),
		logging.Float64("average_score", rep.AverageScore),
		logging.Duration("elapsed", elapsed))

	return &RunResult{
		RunID:      runID,
		DocumentID: docID,
		Questions:  questions,
		Outcomes:   outcomes,
		Report:     &rep,
		Judge:      stats,
		Elapsed:    elapsed,
	}, nil
}

// RunFile loads and scores one document file
func (p *Pipeline) RunFile(ctx context.Context, path string) (*model.Report, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	result, err := p.Run(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result.Report, nil
}

// indexClaims keys normalized claims by id. Claims without an id are
// skipped and the first of duplicated ids wins.
func (p *Pipeline) indexClaims(claims []model.Claim, log logging.Logger) map[string]model.Claim {
	index := make(map[string]model.Claim, len(claims))
	for _, c := range claims {
		c = c.Normalize()
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			log.Debug("skipping claim without id")
			continue
		}
		if _, dup := index[c.ID]; dup {
			log.Warn("duplicate claim id, keeping first", logging.String("claim_id", c.ID))
			continue
		}
		index[c.ID] = c
	}
	return index
}

func normalizeQuestions(in []model.Question) ([]model.Question, error) {
	out := make([]model.Question, len(in))
	seen := make(map[string]bool, len(in))
	for i, q := range in {
		q = q.Normalize()
		q.ID = strings.TrimSpace(q.ID)
		if q.ID == "" {
			return nil, fmt.Errorf("question %d has no id", i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		q.TargetClaimIDs = append([]string(nil), q.TargetClaimIDs...)
		q.BannedTerms = append([]string(nil), q.BannedTerms...)
		q.AllowedHints = append([]string(nil), q.AllowedHints...)
		q.LeakageScore = 0
		out[i] = q
	}
	return out, nil
}

// candidates pairs each question with the text of its highest-scoring claim.
// Questions with no resolved claim have nothing to judge against.
func candidates(questions []model.Question, results []score.Result, claims map[string]model.Claim) []validate.Candidate {
	out := make([]validate.Candidate, 0, len(results))
	for i, r := range results {
		if r.ClaimID == "" {
			continue
		}
		out = append(out, validate.Candidate{
			Item: model.JudgeItem{
				QuestionID:   questions[i].ID,
				QuestionText: questions[i].Text,
				ClaimText:    claims[r.ClaimID].Text,
				Style:        questions[i].Style,
			},
			Score: r.Score,
		})
	}
	return out
}

func verdictSignal(v model.ValidationVerdict, before, after float64) model.Signal {
	sig := model.Signal{
		Type:        model.SignalSemanticOK,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Judge verdict OK (%s confidence)", v.Confidence),
	}
	if v.Verdict == model.VerdictLeak {
		sig.Type = model.SignalSemanticLeak
		sig.Severity = model.SeverityCritical
		sig.Description = fmt.Sprintf("Judge verdict LEAK (%s confidence)", v.Confidence)
	}
	sig.Data = map[string]interface{}{
		"confidence": string(v.Confidence),
		"reason":     v.Reason,
		"rule_score": before,
		"score":      after,
	}
	return sig
}
