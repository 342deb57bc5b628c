package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/leakprobe/internal/pipeline"
)

var (
	scoreFlags    runFlags
	outJSON       string
	failOnFlagged bool
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <document>",
	Short: "Score the questions of one document for answer leakage",
	Long: `Score reads a document of claims and generated questions (JSON or YAML)
and assigns every question a leakage score in [0,1]:
- Rule-based pass: specific-entity overlap, distinctive shared phrases,
  embedded numbers and percentages, restated yes/no questions
- Semantic pass: questions at or above the trigger threshold are judged
  in batches by an external LLM; verdicts raise or cap the score
- Report: counts, average score and the flagged questions with the
  signals that fired

Example:
  leakprobe score doc.json
  leakprobe score doc.yaml --no-judge --json result.json
  leakprobe score doc.json --judge openai --model gpt-4o-mini --db runs.db`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreFlags.register(scoreCmd)
	scoreCmd.Flags().StringVar(&outJSON, "json", "", `write the full result as JSON to this path ("-" for stdout)`)
	scoreCmd.Flags().BoolVar(&failOnFlagged, "fail-on-flagged", false, "exit non-zero when any question is flagged")
}

func runScore(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	scoreFlags.apply(cmd, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), scoreFlags.timeout)
	defer cancel()

	e, err := newEngine(cfg, scoreFlags.metricsAddr)
	if err != nil {
		return err
	}
	defer e.Close()

	doc, err := pipeline.LoadDocument(path)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scoring: %s (%d claims, %d questions)\n", path, len(doc.Claims), len(doc.Questions))
	}

	result, err := e.pipeline.Run(ctx, doc)
	if err != nil {
		return fmt.Errorf("score failed: %w", err)
	}

	renderer := pipeline.NewRenderer(os.Stdout)
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose && outJSON != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outJSON != "-" {
		renderer.RenderSummary(result.Report)
	}

	if failOnFlagged && result.Report.FlaggedCount > 0 {
		return fmt.Errorf("%d questions flagged", result.Report.FlaggedCount)
	}
	return nil
}
