package validate

import (
	"github.com/ppiankov/leakprobe/internal/model"
	"github.com/ppiankov/leakprobe/internal/score"
)

// Reconciler folds a judge verdict into a rule-based score.
// LEAK raises the score to at least the confidence floor; OK lowers it to at
// most the confidence ceiling.
type Reconciler struct {
	Floors   model.Tiers
	Ceilings model.Tiers
}

// NewReconciler creates a reconciler from configuration
func NewReconciler(cfg model.ReconcileConfig) *Reconciler {
	return &Reconciler{Floors: cfg.Floors, Ceilings: cfg.Ceilings}
}

// DefaultReconciler returns the reconciler with the standard bounds
func DefaultReconciler() *Reconciler {
	return NewReconciler(model.DefaultConfig().Reconcile)
}

// Reconcile returns the final score. Verdicts with an unknown verdict or
// confidence leave the score unchanged.
func (r *Reconciler) Reconcile(ruleScore float64, v model.ValidationVerdict) float64 {
	verdict, ok := model.ParseVerdict(string(v.Verdict))
	if !ok {
		return score.Clamp(ruleScore)
	}
	confidence, ok := model.ParseConfidence(string(v.Confidence))
	if !ok {
		return score.Clamp(ruleScore)
	}

	switch verdict {
	case model.VerdictLeak:
		return score.Clamp(max(ruleScore, tier(r.Floors, confidence)))
	default:
		return score.Clamp(min(ruleScore, tier(r.Ceilings, confidence)))
	}
}

func tier(t model.Tiers, c model.Confidence) float64 {
	switch c {
	case model.ConfidenceHigh:
		return t.High
	case model.ConfidenceMedium:
		return t.Medium
	default:
		return t.Low
	}
}
