package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/leakprobe/internal/model"
)

const judgeSystemPrompt = `You audit retrieval questions for answer leakage. A question leaks when a reader could state the target claim's answer from the question text alone, without retrieving the claim. Naming the topic, the period or generic actors is allowed. Restating specific names, numbers, distinctive phrases or the claim itself is a leak. Contextual and thematic questions are intentionally broad; judge them by whether they give away the specific answer. Respond with JSON only.`

// BuildJudgePrompt constructs the batch prompt: one entry per item, asking for
// one verdict per question id.
func BuildJudgePrompt(items []model.JudgeItem) string {
	var b strings.Builder
	b.WriteString("For each item decide whether the question leaks the answer contained in the claim.\n\n")
	b.WriteString("Reply with a JSON object of the form:\n")
	b.WriteString(`{"verdicts": [{"question_id": "...", "verdict": "OK" or "LEAK", "confidence": "high" or "medium" or "low", "reason": "one sentence"}]}`)
	b.WriteString("\n\nInclude every question_id exactly once. Items:\n")

	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}

type rawVerdict struct {
	QuestionID string `json:"question_id"`
	ID         string `json:"id"`
	Verdict    string `json:"verdict"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
}

// ParseVerdicts extracts verdicts from a model reply. Markdown code fences and
// surrounding prose are ignored; both {"verdicts": [...]} and a bare array are
// accepted. Each entry is decoded on its own and entries with an unknown
// verdict or confidence are dropped. An error is returned only when the reply
// holds no verdict list at all.
func ParseVerdicts(raw string) ([]model.ValidationVerdict, error) {
	entries, err := verdictEntries(raw)
	if err != nil {
		return nil, err
	}

	out := make([]model.ValidationVerdict, 0, len(entries))
	for _, entry := range entries {
		var rv rawVerdict
		if err := json.Unmarshal(entry, &rv); err != nil {
			continue
		}
		id := strings.TrimSpace(rv.QuestionID)
		if id == "" {
			id = strings.TrimSpace(rv.ID)
		}
		verdict, ok := model.ParseVerdict(rv.Verdict)
		if !ok || id == "" {
			continue
		}
		confidence, ok := model.ParseConfidence(rv.Confidence)
		if !ok {
			continue
		}
		out = append(out, model.ValidationVerdict{
			QuestionID: id,
			Verdict:    verdict,
			Confidence: confidence,
			Reason:     strings.TrimSpace(rv.Reason),
		})
	}
	return out, nil
}

func verdictEntries(raw string) ([]json.RawMessage, error) {
	text := stripFences(raw)
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON in judge response")
	}

	var value json.RawMessage
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&value); err != nil {
		return nil, fmt.Errorf("decode judge response: %w", err)
	}

	value = bytes.TrimSpace(value)
	if value[0] == '[' {
		var entries []json.RawMessage
		if err := json.Unmarshal(value, &entries); err != nil {
			return nil, fmt.Errorf("decode verdict list: %w", err)
		}
		return entries, nil
	}

	var wrapper struct {
		Verdicts []json.RawMessage `json:"verdicts"`
		Results  []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(value, &wrapper); err != nil {
		return nil, fmt.Errorf("decode verdict object: %w", err)
	}
	switch {
	case wrapper.Verdicts != nil:
		return wrapper.Verdicts, nil
	case wrapper.Results != nil:
		return wrapper.Results, nil
	}

	// A single verdict object
	var single rawVerdict
	if err := json.Unmarshal(value, &single); err == nil && (single.QuestionID != "" || single.ID != "") {
		return []json.RawMessage{value}, nil
	}
	return nil, fmt.Errorf("judge response has no verdicts")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag line
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
