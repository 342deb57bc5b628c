package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/leakprobe/internal/model"
)

// Renderer writes run results
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer that prints summaries to out
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// WriteJSON encodes the result as indented JSON
func WriteJSON(w io.Writer, result *RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// RenderJSON writes the result to path, "-" meaning the renderer's output
func (r *Renderer) RenderJSON(result *RunResult, path string) error {
	if path == "-" {
		return WriteJSON(r.out, result)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints a one-line summary and the flagged questions
func (r *Renderer) RenderSummary(rep *model.Report) {
	fmt.Fprintf(r.out, "%s: %d questions, %d flagged (> %.2f), %d validated, average %.3f\n",
		rep.DocumentID, rep.Count, rep.FlaggedCount, rep.FlagThreshold, rep.ValidatedCount, rep.AverageScore)
	if rep.FailedBatches > 0 {
		fmt.Fprintf(r.out, "  warning: %d judge batches failed, their questions keep rule scores\n", rep.FailedBatches)
	}

	for _, f := range rep.Flagged {
		fmt.Fprintf(r.out, "  %-12s %.2f  %v", f.QuestionID, f.Score, f.Signals)
		if f.Phrase != "" {
			fmt.Fprintf(r.out, "  phrase=%q", f.Phrase)
		}
		fmt.Fprintln(r.out)
	}
}
