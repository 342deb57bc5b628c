package model

import "strings"

// Verdict is the semantic judge's decision for a single question
type Verdict string

const (
	VerdictOK   Verdict = "OK"
	VerdictLeak Verdict = "LEAK"
)

// ParseVerdict case-folds a judge value. The second return is false for
// anything other than OK or LEAK.
func ParseVerdict(s string) (Verdict, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OK":
		return VerdictOK, true
	case "LEAK":
		return VerdictLeak, true
	default:
		return "", false
	}
}

// Confidence is the judge's self-reported certainty tier
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence case-folds a judge value. The second return is false for
// anything other than high, medium or low.
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, true
	default:
		return "", false
	}
}

// ValidationVerdict is one parsed entry from a semantic judge response
type ValidationVerdict struct {
	QuestionID string     `json:"question_id"`
	Verdict    Verdict    `json:"verdict"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason,omitempty"`
}

// Valid reports whether the verdict is usable for reconciliation
func (v ValidationVerdict) Valid() bool {
	if v.QuestionID == "" {
		return false
	}
	if _, ok := ParseVerdict(string(v.Verdict)); !ok {
		return false
	}
	_, ok := ParseConfidence(string(v.Confidence))
	return ok
}

// JudgeItem is one (question, claim) pair sent to the semantic judge
type JudgeItem struct {
	QuestionID   string        `json:"question_id"`
	QuestionText string        `json:"question_text"`
	ClaimText    string        `json:"claim_text"`
	Style        QuestionStyle `json:"question_style"`
}

// LeakageSignal holds the rule-based observations for one (question, claim) pair
type LeakageSignal struct {
	ClaimID           string   `json:"claim_id,omitempty"`
	SpecificOverlap   int      `json:"specific_overlap"`
	MatchedEntities   []string `json:"matched_entities,omitempty"`
	DistinctivePhrase bool     `json:"distinctive_phrase"`
	Phrase            string   `json:"phrase,omitempty"`
	AnswerEmbedded    bool     `json:"answer_embedded"`
	EmbeddedReason    string   `json:"embedded_reason,omitempty"`
	BannedTerms       int      `json:"banned_terms"`
}

// Fired returns the names of the signals that contributed to the score
func (s LeakageSignal) Fired() []string {
	var fired []string
	if s.SpecificOverlap > 0 {
		fired = append(fired, string(SignalSpecificOverlap))
	}
	if s.DistinctivePhrase {
		fired = append(fired, string(SignalDistinctivePhrase))
	}
	if s.AnswerEmbedded {
		fired = append(fired, string(SignalAnswerEmbedded))
	}
	if s.BannedTerms > 0 {
		fired = append(fired, string(SignalBannedTerms))
	}
	return fired
}
