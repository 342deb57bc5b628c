package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/leakprobe/internal/pipeline"
	"github.com/ppiankov/leakprobe/internal/store"
)

var (
	runsDB       string
	runsDocument string
	runsLimit    int
	runsShow     string
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Long: `Runs lists the runs recorded with --db, newest first, or prints the
stored result of one run.

Example:
  leakprobe runs --db runs.db
  leakprobe runs --db runs.db --document kao-1975 --limit 5
  leakprobe runs --db runs.db --show 3f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.Store.Path = runsDB
		}
		if cfg.Store.Path == "" {
			return fmt.Errorf("no database: pass --db or set store.path")
		}

		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		if runsShow != "" {
			report, err := s.GetReport(ctx, runsShow)
			if err != nil {
				return err
			}
			outcomes, err := s.GetOutcomes(ctx, runsShow)
			if err != nil {
				return err
			}
			return pipeline.WriteJSON(os.Stdout, &pipeline.RunResult{
				RunID:      report.RunID,
				DocumentID: report.DocumentID,
				Outcomes:   outcomes,
				Report:     report,
			})
		}

		runs, err := s.ListRuns(ctx, runsDocument, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %-20s %4d questions  %3d flagged  avg %.3f\n",
				r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.DocumentID,
				r.Count, r.FlaggedCount, r.AverageScore)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsDB, "db", "", "SQLite file the runs were recorded in")
	runsCmd.Flags().StringVar(&runsDocument, "document", "", "only runs of this document id")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().StringVar(&runsShow, "show", "", "print the stored result of this run id")
}
