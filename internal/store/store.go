package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/leakprobe/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	document_id     TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	question_count  INTEGER NOT NULL,
	flagged_count   INTEGER NOT NULL,
	validated_count INTEGER NOT NULL,
	failed_batches  INTEGER NOT NULL,
	average_score   REAL NOT NULL,
	flag_threshold  REAL NOT NULL,
	report_json     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS question_scores (
	run_id       TEXT NOT NULL,
	question_id  TEXT NOT NULL,
	style        TEXT NOT NULL,
	rule_score   REAL NOT NULL,
	final_score  REAL NOT NULL,
	state        TEXT NOT NULL,
	verdict      TEXT,
	confidence   TEXT,
	reason       TEXT,
	signal_json  TEXT,
	PRIMARY KEY (run_id, question_id),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_document ON runs(document_id, created_at);
`

// Store keeps finalized run results in SQLite
type Store struct {
	db *sql.DB
}

// RunSummary is one row of the runs table
type RunSummary struct {
	RunID          string
	DocumentID     string
	CreatedAt      time.Time
	Count          int
	FlaggedCount   int
	ValidatedCount int
	FailedBatches  int
	AverageScore   float64
}

// Open opens (or creates) the database at path and runs migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent batch runs
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes the report and every question outcome in one transaction
func (s *Store) SaveRun(ctx context.Context, report *model.Report, outcomes []model.Outcome) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, document_id, created_at, question_count, flagged_count,
		                   validated_count, failed_batches, average_score, flag_threshold, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.DocumentID, report.GeneratedAt.UTC().Format(time.RFC3339Nano),
		report.Count, report.FlaggedCount, report.ValidatedCount, report.FailedBatches,
		report.AverageScore, report.FlagThreshold, string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO question_scores (run_id, question_id, style, rule_score, final_score,
		                              state, verdict, confidence, reason, signal_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare question insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		signalJSON, err := json.Marshal(o.Signal)
		if err != nil {
			return fmt.Errorf("marshal signal for %s: %w", o.QuestionID, err)
		}

		var verdict, confidence, reason sql.NullString
		if o.Verdict != nil {
			verdict = sql.NullString{String: string(o.Verdict.Verdict), Valid: true}
			confidence = sql.NullString{String: string(o.Verdict.Confidence), Valid: true}
			reason = sql.NullString{String: o.Verdict.Reason, Valid: o.Verdict.Reason != ""}
		}

		if _, err := stmt.ExecContext(ctx,
			report.RunID, o.QuestionID, string(o.Style), o.RuleScore, o.FinalScore,
			string(o.State), verdict, confidence, reason, string(signalJSON),
		); err != nil {
			return fmt.Errorf("insert question %s: %w", o.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetReport returns the stored report for a run
func (s *Store) GetReport(ctx context.Context, runID string) (*model.Report, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// GetOutcomes returns the per-question rows of a run, ordered by question id
func (s *Store) GetOutcomes(ctx context.Context, runID string) ([]model.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, style, rule_score, final_score, state, verdict, confidence, reason, signal_json
		 FROM question_scores WHERE run_id = ? ORDER BY question_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var (
			o                           model.Outcome
			style, state                string
			verdict, confidence, reason sql.NullString
			signalJSON                  sql.NullString
		)
		if err := rows.Scan(&o.QuestionID, &style, &o.RuleScore, &o.FinalScore, &state,
			&verdict, &confidence, &reason, &signalJSON); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Style = model.QuestionStyle(style)
		o.State = model.QuestionState(state)
		if verdict.Valid {
			o.Verdict = &model.ValidationVerdict{
				QuestionID: o.QuestionID,
				Verdict:    model.Verdict(verdict.String),
				Confidence: model.Confidence(confidence.String),
				Reason:     reason.String,
			}
		}
		if signalJSON.Valid && signalJSON.String != "" {
			if err := json.Unmarshal([]byte(signalJSON.String), &o.Signal); err != nil {
				return nil, fmt.Errorf("decode signal for %s: %w", o.QuestionID, err)
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// ListRuns returns the most recent runs of a document, newest first.
// An empty documentID lists runs of every document.
func (s *Store) ListRuns(ctx context.Context, documentID string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT run_id, document_id, created_at, question_count, flagged_count,
	                 validated_count, failed_batches, average_score
	          FROM runs`
	args := []any{}
	if documentID != "" {
		query += ` WHERE document_id = ?`
		args = append(args, documentID)
	}
	query += ` ORDER BY created_at DESC, run_id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var createdAt string
		if err := rows.Scan(&r.RunID, &r.DocumentID, &createdAt, &r.Count, &r.FlaggedCount,
			&r.ValidatedCount, &r.FailedBatches, &r.AverageScore); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
