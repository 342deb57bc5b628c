package model

import "strings"

// Question is a retrieval query meant to probe one or more claims without
// stating their answer. LeakageScore is the only field the engine writes.
type Question struct {
	ID             string        `json:"id" yaml:"id"`
	TargetClaimIDs []string      `json:"target_claim_ids" yaml:"target_claim_ids"`
	Text           string        `json:"text" yaml:"text"`
	Style          QuestionStyle `json:"style" yaml:"style"`
	AnswerType     AnswerType    `json:"answer_type,omitempty" yaml:"answer_type,omitempty"`
	AllowedHints   []string      `json:"allowed_hints,omitempty" yaml:"allowed_hints,omitempty"`
	BannedTerms    []string      `json:"banned_terms,omitempty" yaml:"banned_terms,omitempty"`
	LeakageScore   float64       `json:"leakage_score" yaml:"leakage_score"`
}

// QuestionStyle describes how narrowly a question targets its claims
type QuestionStyle string

const (
	StyleTargeted   QuestionStyle = "targeted"   // Exactly one target claim
	StyleContextual QuestionStyle = "contextual" // Broader, may span several claims
	StyleThematic   QuestionStyle = "thematic"   // Theme-level, may span several claims
)

// ParseStyle coerces an upstream value into a known style.
// Unknown values fall back to StyleTargeted so no discount is applied.
func ParseStyle(s string) QuestionStyle {
	switch st := QuestionStyle(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleTargeted, StyleContextual, StyleThematic:
		return st
	default:
		return StyleTargeted
	}
}

// IsBroad reports whether the style is intentionally broad (contextual or thematic)
func (s QuestionStyle) IsBroad() bool {
	return s == StyleContextual || s == StyleThematic
}

// AnswerType is the kind of answer the question expects
type AnswerType string

const (
	AnswerWho     AnswerType = "who"
	AnswerWhat    AnswerType = "what"
	AnswerWhen    AnswerType = "when"
	AnswerWhere   AnswerType = "where"
	AnswerWhy     AnswerType = "why"
	AnswerHow     AnswerType = "how"
	AnswerNumeric AnswerType = "numeric"
	AnswerList    AnswerType = "list"
)

// ParseAnswerType coerces an upstream value into a known answer type.
// Unknown values fall back to AnswerWhat.
func ParseAnswerType(s string) AnswerType {
	switch at := AnswerType(strings.ToLower(strings.TrimSpace(s))); at {
	case AnswerWho, AnswerWhat, AnswerWhen, AnswerWhere, AnswerWhy, AnswerHow, AnswerNumeric, AnswerList:
		return at
	default:
		return AnswerWhat
	}
}

// Normalize returns a copy of the question with enum values coerced
func (q Question) Normalize() Question {
	q.Style = ParseStyle(string(q.Style))
	q.AnswerType = ParseAnswerType(string(q.AnswerType))
	return q
}

// Document is the unit of one processing run: the claims extracted from a
// source document and the questions generated against them.
type Document struct {
	ID        string     `json:"document_id" yaml:"document_id"`
	Claims    []Claim    `json:"claims" yaml:"claims"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// QuestionState tracks a question through the scoring pass
type QuestionState string

const (
	StateGenerated   QuestionState = "generated"
	StateRuleScored  QuestionState = "rule_scored"
	StateValidated   QuestionState = "validated"
	StateUnvalidated QuestionState = "unvalidated"
	StateFinalized   QuestionState = "finalized"
)
