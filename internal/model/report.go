package model

import "time"

// Report summarizes the finalized scores of one document run
type Report struct {
	RunID          string            `json:"run_id"`
	DocumentID     string            `json:"document_id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Count          int               `json:"count"`
	FlaggedCount   int               `json:"flagged_count"`
	ValidatedCount int               `json:"validated_count"`
	FailedBatches  int               `json:"failed_batches"`
	AverageScore   float64           `json:"average_score"`
	FlagThreshold  float64           `json:"flag_threshold"`
	Flagged        []FlaggedQuestion `json:"flagged"`
}

// FlaggedQuestion is a question whose final score exceeded the flag threshold
type FlaggedQuestion struct {
	QuestionID string             `json:"question_id"`
	Score      float64            `json:"score"`
	RuleScore  float64            `json:"rule_score"`
	Signals    []string           `json:"signals"`          // Which detectors fired
	Phrase     string             `json:"phrase,omitempty"` // Matched distinctive phrase
	Reason     string             `json:"reason,omitempty"` // Answer-embedding reason
	Verdict    *ValidationVerdict `json:"verdict,omitempty"`
}

// Outcome is the per-question trace of a scoring run
type Outcome struct {
	QuestionID string             `json:"question_id"`
	Style      QuestionStyle      `json:"style"`
	RuleScore  float64            `json:"rule_score"`
	FinalScore float64            `json:"final_score"`
	State      QuestionState      `json:"state"`
	Signal     LeakageSignal      `json:"signal"`
	Signals    []Signal           `json:"signals,omitempty"`
	Verdict    *ValidationVerdict `json:"verdict,omitempty"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalSpecificOverlap   SignalType = "specific_overlap"   // Non-generic claim entities in the question
	SignalDistinctivePhrase SignalType = "distinctive_phrase" // Shared 4-6 word phrase
	SignalAnswerEmbedded    SignalType = "answer_embedded"    // Number, percentage or yes/no restatement
	SignalBannedTerms       SignalType = "banned_terms"       // Generator-flagged terms present
	SignalStyleDiscount     SignalType = "style_discount"     // Broad-style multiplier applied
	SignalUnresolvedClaim   SignalType = "unresolved_claim"   // Target claim id not found
	SignalSemanticLeak      SignalType = "semantic_leak"      // Judge verdict LEAK
	SignalSemanticOK        SignalType = "semantic_ok"        // Judge verdict OK
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
