package model

import (
	"reflect"
	"testing"
)

func TestParseStyle(t *testing.T) {
	tests := map[string]QuestionStyle{
		"targeted":     StyleTargeted,
		" Contextual ": StyleContextual,
		"THEMATIC":     StyleThematic,
		"sweeping":     StyleTargeted,
		"":             StyleTargeted,
	}
	for in, want := range tests {
		if got := ParseStyle(in); got != want {
			t.Errorf("ParseStyle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsBroad(t *testing.T) {
	if StyleTargeted.IsBroad() {
		t.Error("targeted should not be broad")
	}
	if !StyleContextual.IsBroad() || !StyleThematic.IsBroad() {
		t.Error("contextual and thematic should be broad")
	}
}

func TestQuestionNormalize(t *testing.T) {
	q := Question{ID: "q1", Style: "Thematic", AnswerType: "NUMERIC"}.Normalize()
	if q.Style != StyleThematic || q.AnswerType != AnswerNumeric {
		t.Errorf("unexpected normalisation: %+v", q)
	}

	q = Question{ID: "q2", AnswerType: "which"}.Normalize()
	if q.Style != StyleTargeted || q.AnswerType != AnswerWhat {
		t.Errorf("unknown values should coerce: %+v", q)
	}
}

func TestClaimNormalize(t *testing.T) {
	tests := []struct {
		in       Claim
		wantType ClaimType
		wantImp  int
	}{
		{Claim{Type: "Event", Importance: 4}, ClaimTypeEvent, 4},
		{Claim{Type: "rumour"}, ClaimTypeOther, 3},
		{Claim{Type: "plan", Importance: 9}, ClaimTypePlan, 5},
		{Claim{Type: "", Importance: -2}, ClaimTypeOther, 3},
	}
	for _, tt := range tests {
		got := tt.in.Normalize()
		if got.Type != tt.wantType || got.Importance != tt.wantImp {
			t.Errorf("Normalize(%+v) = %s/%d, want %s/%d", tt.in, got.Type, got.Importance, tt.wantType, tt.wantImp)
		}
	}
}

func TestParseVerdictAndConfidence(t *testing.T) {
	if v, ok := ParseVerdict(" leak "); !ok || v != VerdictLeak {
		t.Errorf("ParseVerdict(leak) = %q, %v", v, ok)
	}
	if _, ok := ParseVerdict("MAYBE"); ok {
		t.Error("MAYBE should not parse")
	}
	if c, ok := ParseConfidence("High"); !ok || c != ConfidenceHigh {
		t.Errorf("ParseConfidence(High) = %q, %v", c, ok)
	}
	if _, ok := ParseConfidence("certain"); ok {
		t.Error("certain should not parse")
	}
}

func TestValidationVerdictValid(t *testing.T) {
	tests := []struct {
		v    ValidationVerdict
		want bool
	}{
		{ValidationVerdict{QuestionID: "q1", Verdict: "ok", Confidence: "low"}, true},
		{ValidationVerdict{Verdict: VerdictOK, Confidence: ConfidenceLow}, false},
		{ValidationVerdict{QuestionID: "q1", Verdict: "unsure", Confidence: ConfidenceLow}, false},
		{ValidationVerdict{QuestionID: "q1", Verdict: VerdictLeak}, false},
	}
	for i, tt := range tests {
		if got := tt.v.Valid(); got != tt.want {
			t.Errorf("case %d: Valid() = %v, want %v", i, got, tt.want)
		}
	}
}

func TestLeakageSignalFired(t *testing.T) {
	sig := LeakageSignal{SpecificOverlap: 2, AnswerEmbedded: true}
	want := []string{"specific_overlap", "answer_embedded"}
	if got := sig.Fired(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fired() = %v, want %v", got, want)
	}
	if got := (LeakageSignal{}).Fired(); got != nil {
		t.Errorf("empty signal fired %v", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Validation.TriggerThreshold <= 0 || cfg.Validation.BatchSize <= 0 {
		t.Errorf("validation defaults unset: %+v", cfg.Validation)
	}
	if cfg.Scoring.BroadDiscount >= cfg.Scoring.TargetedDiscount {
		t.Errorf("broad discount %.2f should be below targeted %.2f", cfg.Scoring.BroadDiscount, cfg.Scoring.TargetedDiscount)
	}
}
