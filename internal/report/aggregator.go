// Package report summarises the finalized scores of a run.
package report

import (
	"sort"
	"time"

	"github.com/ppiankov/leakprobe/internal/model"
)

// Aggregator builds run reports
type Aggregator struct {
	threshold float64
	now       func() time.Time
}

// NewAggregator creates an aggregator. Questions scoring strictly above
// threshold are flagged.
func NewAggregator(threshold float64) *Aggregator {
	return &Aggregator{
		threshold: threshold,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate is a shorthand for NewAggregator(threshold).Aggregate
func Aggregate(runID, documentID string, outcomes []model.Outcome, threshold float64) model.Report {
	return NewAggregator(threshold).Aggregate(runID, documentID, outcomes)
}

// Aggregate summarises outcomes. An empty run has an average score of 0.
func (a *Aggregator) Aggregate(runID, documentID string, outcomes []model.Outcome) model.Report {
	rep := model.Report{
		RunID:         runID,
		DocumentID:    documentID,
		GeneratedAt:   a.now(),
		Count:         len(outcomes),
		FlagThreshold: a.threshold,
		Flagged:       []model.FlaggedQuestion{},
	}

	total := 0.0
	for _, o := range outcomes {
		total += o.FinalScore
		if o.Verdict != nil {
			rep.ValidatedCount++
		}
		if o.FinalScore > a.threshold {
			rep.Flagged = append(rep.Flagged, flag(o))
		}
	}

	if len(outcomes) > 0 {
		rep.AverageScore = total / float64(len(outcomes))
	}
	rep.FlaggedCount = len(rep.Flagged)

	sort.SliceStable(rep.Flagged, func(i, j int) bool {
		if rep.Flagged[i].Score != rep.Flagged[j].Score {
			return rep.Flagged[i].Score > rep.Flagged[j].Score
		}
		return rep.Flagged[i].QuestionID < rep.Flagged[j].QuestionID
	})

	return rep
}

func flag(o model.Outcome) model.FlaggedQuestion {
	signals := o.Signal.Fired()
	if o.Verdict != nil && o.Verdict.Verdict == model.VerdictLeak && o.FinalScore > o.RuleScore {
		signals = append(signals, string(model.SignalSemanticLeak))
	}
	if signals == nil {
		signals = []string{}
	}

	return model.FlaggedQuestion{
		QuestionID: o.QuestionID,
		Score:      o.FinalScore,
		RuleScore:  o.RuleScore,
		Signals:    signals,
		Phrase:     o.Signal.Phrase,
		Reason:     o.Signal.EmbeddedReason,
		Verdict:    o.Verdict,
	}
}
