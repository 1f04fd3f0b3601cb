package embed

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures retry behavior for embedder calls.
type RetryConfig struct {
	MaxRetries   int           // Maximum number of retry attempts (not including initial attempt)
	InitialDelay time.Duration // Delay before first retry
	MaxDelay     time.Duration // Maximum delay between retries
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
	}
}

// DownloadWithRetry executes a function with exponential backoff retry logic.
// It retries the function up to MaxRetries times if it fails.
// The delay between retries grows exponentially, capped at MaxDelay.
// If the context is cancelled, it returns the context error immediately.
func DownloadWithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	return withRetry(ctx, cfg, fn)
}

func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Execute the function
		if err := fn(); err != nil {
			lastErr = err

			// If this was the last attempt, don't wait
			if attempt >= cfg.MaxRetries {
				break
			}

			// Wait before retrying (with context cancellation support)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			// Calculate next delay with exponential backoff
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			continue
		}

		// Success
		return nil
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// RetryingEmbedder wraps an Embedder and retries Embed/EmbedBatch calls
// with exponential backoff, guarding against the transient failures a
// networked backend (ollama, a remote MLX server) can surface even
// though the built-in StaticEmbedder never does.
type RetryingEmbedder struct {
	inner Embedder
	cfg   RetryConfig
}

// NewRetryingEmbedder wraps inner with cfg's backoff policy.
func NewRetryingEmbedder(inner Embedder, cfg RetryConfig) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, cfg: cfg}
}

// Embed retries the inner embedder's Embed call per r.cfg.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := withRetry(ctx, r.cfg, func() error {
		var embedErr error
		vec, embedErr = r.inner.Embed(ctx, text)
		return embedErr
	})
	return vec, err
}

// EmbedBatch retries the inner embedder's EmbedBatch call per r.cfg.
func (r *RetryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := withRetry(ctx, r.cfg, func() error {
		var embedErr error
		vecs, embedErr = r.inner.EmbedBatch(ctx, texts)
		return embedErr
	})
	return vecs, err
}

// Dimensions passes through to the inner embedder.
func (r *RetryingEmbedder) Dimensions() int { return r.inner.Dimensions() }

// ModelName passes through to the inner embedder.
func (r *RetryingEmbedder) ModelName() string { return r.inner.ModelName() }

// Available passes through to the inner embedder.
func (r *RetryingEmbedder) Available(ctx context.Context) bool { return r.inner.Available(ctx) }

// Close passes through to the inner embedder.
func (r *RetryingEmbedder) Close() error { return r.inner.Close() }

// SetBatchIndex passes through to the inner embedder.
func (r *RetryingEmbedder) SetBatchIndex(idx int) { r.inner.SetBatchIndex(idx) }

// SetFinalBatch passes through to the inner embedder.
func (r *RetryingEmbedder) SetFinalBatch(isFinal bool) { r.inner.SetFinalBatch(isFinal) }
