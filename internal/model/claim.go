package model

import "strings"

// Claim represents an atomic factual proposition extracted from a source document.
// Claims are produced upstream and never modified by the engine.
type Claim struct {
	ID         string      `json:"id" yaml:"id"`
	Text       string      `json:"text" yaml:"text"`
	Type       ClaimType   `json:"type" yaml:"type"`
	Entities   []string    `json:"entities,omitempty" yaml:"entities,omitempty"` // Ordered, not deduplicated
	Time       *TimeBounds `json:"time,omitempty" yaml:"time,omitempty"`
	Importance int         `json:"importance,omitempty" yaml:"importance,omitempty"` // 1 (low) - 5 (high)
}

// TimeBounds is an optional, possibly open-ended time range for a claim
type TimeBounds struct {
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeEvent        ClaimType = "event"
	ClaimTypeAssessment   ClaimType = "assessment"
	ClaimTypePlan         ClaimType = "plan"
	ClaimTypeRelationship ClaimType = "relationship"
	ClaimTypeLogistics    ClaimType = "logistics"
	ClaimTypeAttribution  ClaimType = "attribution"
	ClaimTypeOther        ClaimType = "other"
)

// ParseClaimType coerces an upstream value into a known claim type.
// Unknown values fall back to ClaimTypeOther.
func ParseClaimType(s string) ClaimType {
	switch t := ClaimType(strings.ToLower(strings.TrimSpace(s))); t {
	case ClaimTypeEvent, ClaimTypeAssessment, ClaimTypePlan, ClaimTypeRelationship,
		ClaimTypeLogistics, ClaimTypeAttribution, ClaimTypeOther:
		return t
	default:
		return ClaimTypeOther
	}
}

// Normalize returns a copy of the claim with enum values coerced and
// importance clamped into 1-5 (missing importance defaults to 3).
func (c Claim) Normalize() Claim {
	c.Type = ParseClaimType(string(c.Type))
	switch {
	case c.Importance <= 0:
		c.Importance = 3
	case c.Importance > 5:
		c.Importance = 5
	}
	return c
}
