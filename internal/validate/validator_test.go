package validate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/leakprobe/internal/cache"
	"github.com/ppiankov/leakprobe/internal/logging"
	"github.com/ppiankov/leakprobe/internal/model"
	"github.com/ppiankov/leakprobe/internal/worker"
)

// fakeJudge answers from a responder and records every batch it receives
type fakeJudge struct {
	mu      sync.Mutex
	calls   [][]model.JudgeItem
	respond func(items []model.JudgeItem) ([]model.ValidationVerdict, error)
}

func (f *fakeJudge) Judge(ctx context.Context, items []model.JudgeItem) ([]model.ValidationVerdict, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]model.JudgeItem(nil), items...))
	f.mu.Unlock()
	if f.respond == nil {
		return allVerdict(items, model.VerdictOK, model.ConfidenceHigh), nil
	}
	return f.respond(items)
}

func (f *fakeJudge) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func allVerdict(items []model.JudgeItem, v model.Verdict, c model.Confidence) []model.ValidationVerdict {
	out := make([]model.ValidationVerdict, len(items))
	for i, item := range items {
		out[i] = model.ValidationVerdict{QuestionID: item.QuestionID, Verdict: v, Confidence: c}
	}
	return out
}

func candidates(scores ...float64) []Candidate {
	out := make([]Candidate, len(scores))
	for i, s := range scores {
		id := fmt.Sprintf("q%d", i+1)
		out[i] = Candidate{
			Item: model.JudgeItem{
				QuestionID:   id,
				QuestionText: "question " + id,
				ClaimText:    "claim " + id,
				Style:        model.StyleTargeted,
			},
			Score: s,
		}
	}
	return out
}

func ids(items []model.JudgeItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.QuestionID
	}
	return out
}

func TestValidate_SelectsAtThreshold(t *testing.T) {
	judge := &fakeJudge{}
	v := NewValidator(judge, Config{TriggerThreshold: 0.1, BatchSize: 25})

	verdicts, stats := v.Validate(context.Background(), candidates(0.05, 0.1, 0.8, 0))

	require.Equal(t, 1, judge.callCount())
	assert.Equal(t, []string{"q2", "q3"}, ids(judge.calls[0]))
	assert.Equal(t, 2, stats.Selected)
	assert.Len(t, verdicts, 2)
	assert.NotContains(t, verdicts, "q1")
}

func TestValidate_BatchesInInputOrder(t *testing.T) {
	judge := &fakeJudge{}
	v := NewValidator(judge, Config{TriggerThreshold: 0.1, BatchSize: 2})

	_, stats := v.Validate(context.Background(), candidates(0.5, 0.5, 0.5, 0.5, 0.5))

	require.Equal(t, 3, judge.callCount())
	assert.Equal(t, []string{"q1", "q2"}, ids(judge.calls[0]))
	assert.Equal(t, []string{"q3", "q4"}, ids(judge.calls[1]))
	assert.Equal(t, []string{"q5"}, ids(judge.calls[2]))
	assert.Equal(t, 3, stats.Batches)
	assert.Equal(t, 5, stats.Verdicts)
}

func TestValidate_FailedBatchIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	judge := &fakeJudge{respond: func(items []model.JudgeItem) ([]model.ValidationVerdict, error) {
		if items[0].QuestionID == "q3" {
			return nil, errors.New("judge unavailable")
		}
		return allVerdict(items, model.VerdictLeak, model.ConfidenceMedium), nil
	}}
	v := NewValidator(judge, Config{TriggerThreshold: 0.1, BatchSize: 2}, WithLogger(logging.FromZap(zap.New(core))))

	verdicts, stats := v.Validate(context.Background(), candidates(0.5, 0.5, 0.5, 0.5, 0.5))

	assert.Equal(t, 3, judge.callCount(), "remaining batches still run")
	assert.Equal(t, 1, stats.FailedBatches)
	assert.Contains(t, verdicts, "q1")
	assert.Contains(t, verdicts, "q2")
	assert.NotContains(t, verdicts, "q3")
	assert.NotContains(t, verdicts, "q4")
	assert.Contains(t, verdicts, "q5")

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "judge batch failed")
}

func TestValidate_FiltersResponseEntries(t *testing.T) {
	judge := &fakeJudge{respond: func(items []model.JudgeItem) ([]model.ValidationVerdict, error) {
		return []model.ValidationVerdict{
			{QuestionID: "q1", Verdict: "leak", Confidence: "HIGH", Reason: "restates"},
			{QuestionID: "q1", Verdict: model.VerdictOK, Confidence: model.ConfidenceHigh},
			{QuestionID: "q99", Verdict: model.VerdictLeak, Confidence: model.ConfidenceHigh},
			{QuestionID: "q2", Verdict: "MAYBE", Confidence: model.ConfidenceHigh},
			{QuestionID: "q3", Verdict: model.VerdictOK, Confidence: "certain"},
		}, nil
	}}
	v := NewValidator(judge, Config{TriggerThreshold: 0.1})

	verdicts, stats := v.Validate(context.Background(), candidates(0.5, 0.5, 0.5, 0.5))

	require.Len(t, verdicts, 1)
	got := verdicts["q1"]
	assert.Equal(t, model.VerdictLeak, got.Verdict, "first entry wins")
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
	assert.Equal(t, "restates", got.Reason)
	assert.Equal(t, 4, stats.Dropped)
	assert.Zero(t, stats.FailedBatches)
}

func TestValidate_CacheHitsSkipJudge(t *testing.T) {
	vc := cache.NewVerdictCache(cache.NewMemoryCache(time.Hour, time.Minute), time.Hour)
	judge := &fakeJudge{respond: func(items []model.JudgeItem) ([]model.ValidationVerdict, error) {
		return allVerdict(items, model.VerdictLeak, model.ConfidenceLow), nil
	}}
	v := NewValidator(judge, Config{TriggerThreshold: 0.1}, WithCache(vc))

	first, _ := v.Validate(context.Background(), candidates(0.5, 0.5))
	require.Len(t, first, 2)
	require.Equal(t, 1, judge.callCount())

	second, stats := v.Validate(context.Background(), candidates(0.5, 0.5))
	assert.Equal(t, 1, judge.callCount(), "cached verdicts are not re-judged")
	assert.Equal(t, 2, stats.CacheHits)
	assert.Zero(t, stats.Batches)
	assert.Equal(t, first, second)
}

func TestValidate_NilJudge(t *testing.T) {
	v := NewValidator(nil, Config{TriggerThreshold: 0.1})
	verdicts, stats := v.Validate(context.Background(), candidates(0.9))
	assert.Empty(t, verdicts)
	assert.Equal(t, 1, stats.Selected)
	assert.Zero(t, stats.Batches)
}

func TestValidate_DuplicateCandidates(t *testing.T) {
	judge := &fakeJudge{}
	v := NewValidator(judge, Config{TriggerThreshold: 0.1})

	cs := candidates(0.5, 0.5)
	cs = append(cs, cs[0])
	_, stats := v.Validate(context.Background(), cs)

	assert.Equal(t, 2, stats.Selected)
	assert.Equal(t, []string{"q1", "q2"}, ids(judge.calls[0]))
}

func TestValidate_ConcurrentMatchesSequential(t *testing.T) {
	respond := func(items []model.JudgeItem) ([]model.ValidationVerdict, error) {
		if items[0].QuestionID == "q5" {
			return nil, errors.New("timeout")
		}
		return allVerdict(items, model.VerdictLeak, model.ConfidenceHigh), nil
	}
	scores := []float64{0.5, 0.2, 0.9, 0.4, 0.3, 0.6, 0.7, 0.1, 0.05}

	seq, seqStats := NewValidator(&fakeJudge{respond: respond}, Config{TriggerThreshold: 0.1, BatchSize: 2}).
		Validate(context.Background(), candidates(scores...))
	par, parStats := NewValidator(&fakeJudge{respond: respond}, Config{TriggerThreshold: 0.1, BatchSize: 2, Concurrency: 3}).
		Validate(context.Background(), candidates(scores...))

	assert.Equal(t, seq, par)
	assert.Equal(t, seqStats, parStats)
	assert.Equal(t, 1, parStats.FailedBatches)
}

func TestValidate_LimiterCancelled(t *testing.T) {
	limiter := worker.NewLimiter(0.001, 1)
	judge := &fakeJudge{}
	v := NewValidator(judge, Config{TriggerThreshold: 0.1, BatchSize: 1}, WithLimiter(limiter, "fake"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	verdicts, stats := v.Validate(ctx, candidates(0.5, 0.5))
	assert.Equal(t, 1, judge.callCount(), "second call waits on the limiter and is abandoned")
	assert.Len(t, verdicts, 1)
	assert.Equal(t, 1, stats.FailedBatches)
}

func TestReconcile(t *testing.T) {
	r := DefaultReconciler()

	tests := []struct {
		name       string
		score      float64
		verdict    model.Verdict
		confidence model.Confidence
		want       float64
	}{
		{"ok high caps score", 0.5, model.VerdictOK, model.ConfidenceHigh, 0.15},
		{"ok medium caps score", 0.5, model.VerdictOK, model.ConfidenceMedium, 0.25},
		{"ok low caps score", 0.5, model.VerdictOK, model.ConfidenceLow, 0.30},
		{"ok keeps lower score", 0.1, model.VerdictOK, model.ConfidenceHigh, 0.1},
		{"leak high raises score", 0.2, model.VerdictLeak, model.ConfidenceHigh, 0.6},
		{"leak medium raises score", 0.2, model.VerdictLeak, model.ConfidenceMedium, 0.45},
		{"leak low raises score", 0.2, model.VerdictLeak, model.ConfidenceLow, 0.35},
		{"leak keeps higher score", 0.9, model.VerdictLeak, model.ConfidenceHigh, 0.9},
		{"case-folded values", 0.5, "ok", "High", 0.15},
		{"unknown confidence ignored", 0.5, model.VerdictOK, "certain", 0.5},
		{"unknown verdict ignored", 0.5, "MAYBE", model.ConfidenceHigh, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Reconcile(tt.score, model.ValidationVerdict{QuestionID: "q", Verdict: tt.verdict, Confidence: tt.confidence})
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestReconcile_Bounds(t *testing.T) {
	r := DefaultReconciler()
	confidences := []model.Confidence{model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow}

	for i := 0; i <= 20; i++ {
		s := float64(i) / 20
		for _, c := range confidences {
			floor := tier(r.Floors, c)
			ceiling := tier(r.Ceilings, c)

			leak := r.Reconcile(s, model.ValidationVerdict{Verdict: model.VerdictLeak, Confidence: c})
			assert.GreaterOrEqual(t, leak, floor)
			assert.GreaterOrEqual(t, leak, s)
			assert.LessOrEqual(t, leak, 1.0)

			ok := r.Reconcile(s, model.ValidationVerdict{Verdict: model.VerdictOK, Confidence: c})
			assert.LessOrEqual(t, ok, ceiling)
			assert.LessOrEqual(t, ok, s)
			assert.GreaterOrEqual(t, ok, 0.0)
		}
	}
}
