package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/metrics"
)

// BreakerConfig controls when the encoder circuit opens.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	OpenTimeout      time.Duration // time in open state before a half-open probe
	HalfOpenRequests uint32
}

// Defaults for BreakerConfig zero values.
const (
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
	DefaultHalfOpenRequests = 1
)

// BreakerEmbedder fails fast with ErrEncoderUnavailable while the encoder is unhealthy.
type BreakerEmbedder struct {
	inner  domain.Embedder
	cb     *gobreaker.CircuitBreaker[domain.BatchEmbeddingResult]
	logger *zap.Logger
}

// NewBreakerEmbedder wraps inner with a circuit breaker.
func NewBreakerEmbedder(inner domain.Embedder, cfg BreakerConfig, logger *zap.Logger) *BreakerEmbedder {
	if cfg.Name == "" {
		cfg.Name = "encoder"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = DefaultHalfOpenRequests
	}

	gauge := metrics.BreakerState.WithLabelValues(cfg.Name)
	gauge.Set(stateValue(gobreaker.StateClosed))

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			gauge.Set(stateValue(to))
			logger.Warn("Encoder circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller giving up or running out of time is not an encoder failure.
		IsSuccessful: func(err error) bool {
			var done callerDoneError
			return err == nil || errors.As(err, &done)
		},
	}

	return &BreakerEmbedder{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker[domain.BatchEmbeddingResult](settings),
		logger: logger,
	}
}

// State reports the current breaker state.
func (b *BreakerEmbedder) State() gobreaker.State { return b.cb.State() }

// Embed implements domain.Embedder.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := b.cb.Execute(func() (domain.BatchEmbeddingResult, error) {
		r, err := b.inner.Embed(ctx, text)
		if err != nil {
			return domain.BatchEmbeddingResult{}, markCallerDone(ctx, err)
		}
		return domain.BatchEmbeddingResult{
			Embeddings:   [][]float32{r.Embedding},
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, wrapBreakerError(err)
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (b *BreakerEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	res, err := b.cb.Execute(func() (domain.BatchEmbeddingResult, error) {
		r, err := domain.BatchEmbed(ctx, b.inner, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, markCallerDone(ctx, err)
		}
		return r, nil
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, wrapBreakerError(err)
	}
	return res, nil
}

// HealthCheck reports an open circuit as unhealthy, otherwise asks the inner encoder.
func (b *BreakerEmbedder) HealthCheck(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit open", domain.ErrEncoderUnavailable)
	}
	if hc, ok := b.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // inner errors already carry the sentinel
	}
	return nil
}

// callerDoneError marks an encoder error that happened after the caller's
// context ended. It carries the context error.
type callerDoneError struct{ err error }

func (e callerDoneError) Error() string { return e.err.Error() }
func (e callerDoneError) Unwrap() error { return e.err }

func markCallerDone(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return callerDoneError{err: ctxErr}
	}
	return err //nolint:wrapcheck // wrapped by wrapBreakerError
}

func wrapBreakerError(err error) error {
	var done callerDoneError
	if errors.As(err, &done) {
		return done.err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrEncoderUnavailable, err)
	}
	if errors.Is(err, domain.ErrEncoderUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEncoderUnavailable, err)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
