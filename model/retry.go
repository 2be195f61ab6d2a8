package model

import (
	"context"
	"fmt"
	"time"
)

// DefaultAttempts is how many times NewEmbedder lets a batch be tried.
const DefaultAttempts = 3

var retryBackoff = 300 * time.Millisecond

// RetryEmbedder retries failed batches with a linearly growing pause.
type RetryEmbedder struct {
	next        EmbedderInterface
	maxAttempts int
}

func WithRetry(next EmbedderInterface, maxAttempts int) *RetryEmbedder {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryEmbedder{next: next, maxAttempts: maxAttempts}
}

func (r *RetryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vecs, err := r.next.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err

		if attempt < r.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", r.maxAttempts, lastErr)
}
