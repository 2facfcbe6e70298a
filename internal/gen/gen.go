// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gen wraps the remote text generation capability behind a small
// interface so the pipeline and tests can supply alternatives.
package gen

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Generator produces text from a prompt. Implementations wrap a single
// remote capability and hold no pipeline state.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderError reports a rejection by the generation backend: quota,
// network failure, or a safety filter. Callers recover from it with a
// deterministic fallback value; it never fails a job by itself.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generation provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// BackoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var BackoffBase = time.Second

// GenerateWithRetry calls the generator with exponential backoff between
// attempts. After exhausting retries it returns the last error wrapped in
// a ProviderError.
func GenerateWithRetry(ctx context.Context, g Generator, prompt string, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * BackoffBase
			select {
			case <-ctx.Done():
				return "", &ProviderError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		text, err := g.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", &ProviderError{Err: fmt.Errorf("after %d retries: %w", maxRetries, lastErr)}
}
