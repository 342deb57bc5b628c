package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/leakprobe/internal/worker"
)

var (
	batchFlags  runFlags
	concurrency int
	listFile    string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <document...>",
	Short: "Score many documents in parallel",
	Long: `Batch scores several documents concurrently, each as its own run.
Documents are given as arguments, or one path per line in a list file.
A failing document is reported and the rest continue.

Example:
  leakprobe batch docs/*.json
  leakprobe batch --list paths.txt --concurrency 8 --db runs.db
  leakprobe batch docs/*.yaml --metrics-addr :9090`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchFlags.register(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "documents processed at once")
	batchCmd.Flags().StringVar(&listFile, "list", "", "file with one document path per line")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if listFile != "" && len(args) > 0 {
		return fmt.Errorf("give documents as arguments or with --list, not both")
	}
	if listFile == "" && len(args) == 0 {
		return fmt.Errorf("no documents given")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	batchFlags.apply(cmd, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), batchFlags.timeout)
	defer cancel()

	e, err := newEngine(cfg, batchFlags.metricsAddr)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Fprintf(os.Stderr, "\n")
	if listFile != "" {
		fmt.Fprintf(os.Stderr, "  Documents:  %s\n", listFile)
	} else {
		fmt.Fprintf(os.Stderr, "  Documents:  %d\n", len(args))
	}
	fmt.Fprintf(os.Stderr, "  Workers:    %d\n", concurrency)
	if cfg.Validation.Enabled && cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  Judge:      %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	results, err := processDocuments(ctx, worker.NewBatchProcessor(e.pipeline, concurrency), args, listFile)
	if err != nil {
		return err
	}

	success, failures, flagged := 0, 0, 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, r.Error)
			continue
		}
		success++
		flagged += r.Report.FlaggedCount
		fmt.Fprintf(os.Stderr, "✓ %s: %d/%d flagged (average %.3f)\n",
			r.Path, r.Report.FlaggedCount, r.Report.Count, r.Report.AverageScore)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", success)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Flagged:   %d questions\n", flagged)
	fmt.Fprintf(os.Stderr, "\n")

	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(results))
	}
	return nil
}

// processDocuments scores the listed file's paths, or args when no list is given
func processDocuments(ctx context.Context, processor *worker.BatchProcessor, args []string, list string) ([]*worker.DocumentResult, error) {
	if list == "" {
		return processor.ProcessPaths(ctx, args), nil
	}
	results, err := processor.ProcessFile(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no documents in %s", list)
	}
	return results, nil
}
