package score

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/leakprobe/internal/detect"
	"github.com/ppiankov/leakprobe/internal/model"
	"github.com/ppiankov/leakprobe/internal/worker"
)

// Weights are the per-signal contributions and caps of the rule-based score
type Weights struct {
	OverlapPer       float64
	OverlapCap       float64
	Phrase           float64
	Embedded         float64
	BannedPer        float64
	BannedCap        float64
	TargetedDiscount float64
	BroadDiscount    float64
}

// DefaultWeights returns the standard weights
func DefaultWeights() Weights {
	return WeightsFromConfig(model.DefaultConfig().Scoring)
}

// WeightsFromConfig converts scoring configuration to weights
func WeightsFromConfig(cfg model.ScoringConfig) Weights {
	return Weights{
		OverlapPer:       cfg.OverlapWeight,
		OverlapCap:       cfg.OverlapCap,
		Phrase:           cfg.PhraseWeight,
		Embedded:         cfg.EmbeddedWeight,
		BannedPer:        cfg.BannedWeight,
		BannedCap:        cfg.BannedCap,
		TargetedDiscount: cfg.TargetedDiscount,
		BroadDiscount:    cfg.BroadDiscount,
	}
}

// Aggregation combines per-claim scores of a multi-target question
type Aggregation string

const (
	AggregateMax  Aggregation = "max"
	AggregateMean Aggregation = "mean"
)

// ParseAggregation returns AggregateMean for "mean" and AggregateMax otherwise
func ParseAggregation(s string) Aggregation {
	if strings.EqualFold(strings.TrimSpace(s), string(AggregateMean)) {
		return AggregateMean
	}
	return AggregateMax
}

// Result is the rule-based outcome for one question
type Result struct {
	QuestionID string
	RawScore   float64 // Aggregated across targets, before the style discount
	Score      float64 // After the style discount, in [0,1]
	ClaimID    string  // Highest-scoring resolved target
	Signal     model.LeakageSignal
	Signals    []model.Signal
	Unresolved []string // Target ids with no matching claim
}

// Scorer calculates rule-based leakage scores
type Scorer struct {
	detector    *detect.Detector
	weights     Weights
	aggregation Aggregation
}

// NewScorer creates a new scorer
func NewScorer(detector *detect.Detector, weights Weights, aggregation Aggregation) *Scorer {
	if aggregation == "" {
		aggregation = AggregateMax
	}
	return &Scorer{
		detector:    detector,
		weights:     weights,
		aggregation: aggregation,
	}
}

// ScorePair scores a question against a single claim, without style discount
func (s *Scorer) ScorePair(q model.Question, c model.Claim) (float64, model.LeakageSignal) {
	sig := model.LeakageSignal{ClaimID: c.ID}

	sig.SpecificOverlap, sig.MatchedEntities = s.detector.SpecificOverlap(q.Text, c.Entities)
	sig.Phrase, sig.DistinctivePhrase = s.detector.DistinctivePhrase(detect.Words(q.Text), detect.Words(c.Text))
	sig.EmbeddedReason, sig.AnswerEmbedded = s.detector.AnswerEmbedding(q.Text, c.Text)
	sig.BannedTerms, _ = s.detector.BannedTerms(q.Text, q.BannedTerms)

	return s.combine(sig), sig
}

func (s *Scorer) combine(sig model.LeakageSignal) float64 {
	total := math.Min(s.weights.OverlapCap, float64(sig.SpecificOverlap)*s.weights.OverlapPer)
	if sig.DistinctivePhrase {
		total += s.weights.Phrase
	}
	if sig.AnswerEmbedded {
		total += s.weights.Embedded
	}
	total += math.Min(s.weights.BannedCap, float64(sig.BannedTerms)*s.weights.BannedPer)
	return clamp(total)
}

// ScoreQuestion scores a question against each of its target claims,
// aggregates the per-claim scores and applies the style discount.
// Unresolved targets contribute nothing; with no resolved target the score is 0.
func (s *Scorer) ScoreQuestion(q model.Question, claims map[string]model.Claim) Result {
	res := Result{QuestionID: q.ID}

	best := -1.0
	sum := 0.0
	resolved := 0
	for _, id := range q.TargetClaimIDs {
		c, ok := claims[id]
		if !ok {
			res.Unresolved = append(res.Unresolved, id)
			continue
		}
		pair, sig := s.ScorePair(q, c)
		resolved++
		sum += pair
		// First maximum wins ties
		if pair > best {
			best = pair
			res.ClaimID = c.ID
			res.Signal = sig
		}
	}

	switch {
	case resolved == 0:
		res.RawScore = 0
	case s.aggregation == AggregateMean:
		res.RawScore = sum / float64(resolved)
	default:
		res.RawScore = best
	}

	discount := s.discount(q.Style)
	res.Score = clamp(res.RawScore * discount)
	res.Signals = s.signals(q, res, discount)
	return res
}

func (s *Scorer) discount(style model.QuestionStyle) float64 {
	if style.IsBroad() {
		return s.weights.BroadDiscount
	}
	return s.weights.TargetedDiscount
}

// ScoreAll scores every question, in parallel when workers > 1.
// Results are returned in input order.
func (s *Scorer) ScoreAll(ctx context.Context, questions []model.Question, claims map[string]model.Claim, workers int) []Result {
	results := make([]Result, len(questions))
	if len(questions) == 0 {
		return results
	}

	if workers <= 1 {
		for i, q := range questions {
			results[i] = s.ScoreQuestion(q, claims)
		}
		return results
	}

	jobs := make([]worker.Job, len(questions))
	for i, q := range questions {
		jobs[i] = &scoreJob{index: i, question: q, claims: claims, scorer: s}
	}

	done := make([]bool, len(questions))
	for _, r := range worker.NewPool(workers).Run(ctx, jobs) {
		sr := r.(*scoreResult)
		results[sr.index] = sr.result
		done[sr.index] = true
	}

	// A cancelled pool drops queued jobs; scoring is cheap, so finish inline
	for i, ok := range done {
		if !ok {
			results[i] = s.ScoreQuestion(questions[i], claims)
		}
	}
	return results
}

type scoreJob struct {
	index    int
	question model.Question
	claims   map[string]model.Claim
	scorer   *Scorer
}

func (j *scoreJob) Execute(ctx context.Context) worker.Result {
	return &scoreResult{index: j.index, result: j.scorer.ScoreQuestion(j.question, j.claims)}
}

type scoreResult struct {
	index  int
	result Result
}

func (r *scoreResult) GetError() error { return nil }

// signals builds the transparent breakdown for the winning target
func (s *Scorer) signals(q model.Question, res Result, discount float64) []model.Signal {
	var signals []model.Signal
	sig := res.Signal

	if sig.SpecificOverlap > 0 {
		contribution := math.Min(s.weights.OverlapCap, float64(sig.SpecificOverlap)*s.weights.OverlapPer)
		signals = append(signals, model.Signal{
			Type:        model.SignalSpecificOverlap,
			Severity:    severityFor(contribution),
			Description: fmt.Sprintf("%d specific claim entities appear in the question", sig.SpecificOverlap),
			Data: map[string]interface{}{
				"claim_id":     sig.ClaimID,
				"entities":     sig.MatchedEntities,
				"contribution": contribution,
				"formula":      fmt.Sprintf("min(%.2f, count * %.2f)", s.weights.OverlapCap, s.weights.OverlapPer),
			},
		})
	}

	if sig.DistinctivePhrase {
		signals = append(signals, model.Signal{
			Type:        model.SignalDistinctivePhrase,
			Severity:    severityFor(s.weights.Phrase),
			Description: fmt.Sprintf("Question shares the phrase %q with the claim", sig.Phrase),
			Data: map[string]interface{}{
				"claim_id":     sig.ClaimID,
				"phrase":       sig.Phrase,
				"words":        len(strings.Fields(sig.Phrase)),
				"contribution": s.weights.Phrase,
			},
		})
	}

	if sig.AnswerEmbedded {
		signals = append(signals, model.Signal{
			Type:        model.SignalAnswerEmbedded,
			Severity:    severityFor(s.weights.Embedded),
			Description: sig.EmbeddedReason,
			Data: map[string]interface{}{
				"claim_id":     sig.ClaimID,
				"contribution": s.weights.Embedded,
			},
		})
	}

	if sig.BannedTerms > 0 {
		contribution := math.Min(s.weights.BannedCap, float64(sig.BannedTerms)*s.weights.BannedPer)
		signals = append(signals, model.Signal{
			Type:        model.SignalBannedTerms,
			Severity:    severityFor(contribution),
			Description: fmt.Sprintf("%d banned terms appear in the question", sig.BannedTerms),
			Data: map[string]interface{}{
				"count":        sig.BannedTerms,
				"contribution": contribution,
				"formula":      fmt.Sprintf("min(%.2f, count * %.2f)", s.weights.BannedCap, s.weights.BannedPer),
			},
		})
	}

	if q.Style.IsBroad() && res.RawScore > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalStyleDiscount,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("%s question discounted x%.2f", q.Style, discount),
			Data: map[string]interface{}{
				"raw_score":   res.RawScore,
				"discount":    discount,
				"score":       res.Score,
				"aggregation": string(s.aggregation),
			},
		})
	}

	if len(res.Unresolved) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalUnresolvedClaim,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d target claims could not be resolved", len(res.Unresolved)),
			Data:        map[string]interface{}{"claim_ids": res.Unresolved},
		})
	}

	return signals
}

func severityFor(contribution float64) model.SignalSeverity {
	switch {
	case contribution >= 0.35:
		return model.SeverityCritical
	case contribution >= 0.2:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// clamp bounds a score into [0,1]; NaN becomes 0
func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp is exported for the reconciler and aggregator
func Clamp(v float64) float64 {
	return clamp(v)
}
