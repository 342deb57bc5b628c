package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/leakprobe/internal/model"
)

// PermanentError marks a failure that retrying cannot fix, such as a bad API
// key or a malformed request
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("permanent error (%d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is or wraps a PermanentError
func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr)
}

// statusError wraps an HTTP failure, marking client errors other than 429 permanent
func statusError(status int, err error) error {
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return &PermanentError{StatusCode: status, Err: err}
	}
	return err
}

// retrySleep waits between attempts (injectable for tests)
var retrySleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry retries Judge up to attempts times with exponential backoff
// starting at baseDelay. Permanent errors and cancellation stop immediately.
func WithRetry(p Provider, attempts int, baseDelay time.Duration) Provider {
	if attempts < 1 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return &retrying{next: p, max: attempts, base: baseDelay}
}

type retrying struct {
	next Provider
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) CheckAvailable(ctx context.Context) error { return r.next.CheckAvailable(ctx) }

func (r *retrying) Judge(ctx context.Context, items []model.JudgeItem) ([]model.ValidationVerdict, error) {
	var last error
	for i := 0; i < r.max; i++ {
		verdicts, err := r.next.Judge(ctx, items)
		if err == nil {
			return verdicts, nil
		}
		if IsPermanent(err) {
			return nil, err
		}
		last = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i < r.max-1 {
			if err := retrySleep(ctx, r.base*time.Duration(1<<i)); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%s judge failed after %d attempts: %w", r.next.Name(), r.max, last)
}
