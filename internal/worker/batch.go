package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/leakprobe/internal/model"
)

// DocumentRunner scores a single document file
type DocumentRunner interface {
	RunFile(ctx context.Context, path string) (*model.Report, error)
}

// DocumentJob represents a document scoring job
type DocumentJob struct {
	Index  int
	Path   string
	Runner DocumentRunner
}

// Execute executes the document job
func (j *DocumentJob) Execute(ctx context.Context) Result {
	report, err := j.Runner.RunFile(ctx, j.Path)
	if err != nil {
		return &DocumentResult{Index: j.Index, Path: j.Path, Error: err}
	}
	return &DocumentResult{Index: j.Index, Path: j.Path, Report: report}
}

// DocumentResult represents the result of a document job
type DocumentResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor scores multiple documents concurrently
type BatchProcessor struct {
	runner      DocumentRunner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner DocumentRunner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessPaths scores every document and returns one result per path, in input order.
// Paths dropped by a cancelled context report ctx.Err().
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DocumentResult {
	if len(paths) == 0 {
		return []*DocumentResult{}
	}

	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &DocumentJob{Index: i, Path: path, Runner: b.runner}
	}

	out := make([]*DocumentResult, len(paths))
	for _, result := range NewPoolWithContext(ctx, b.concurrency).Run(ctx, jobs) {
		dr := result.(*DocumentResult)
		out[dr.Index] = dr
	}

	for i, dr := range out {
		if dr == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &DocumentResult{Index: i, Path: paths[i], Error: err}
		}
	}

	return out
}

// ProcessFile reads document paths from a file and scores them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*DocumentResult, error) {
	paths, err := ReadPathsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
