package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/metrics"
)

func TestBreakerEmbedder_PassesThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5, 0.5}, TotalTokens: 3}}
	b := NewBreakerEmbedder(inner, BreakerConfig{Name: "pass"}, zap.NewNop())

	res, err := b.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 2 || res.TotalTokens != 3 {
		t.Errorf("unexpected result %+v", res)
	}

	batch, err := b.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(batch.Embeddings))
	}
}

func TestBreakerEmbedder_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("connection refused")}
	b := NewBreakerEmbedder(inner, BreakerConfig{
		Name:             "trip",
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	}, zap.NewNop())

	for range 2 {
		_, err := b.Embed(context.Background(), "x")
		if !errors.Is(err, domain.ErrEncoderUnavailable) {
			t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open state, got %s", b.State())
	}

	callsBefore := inner.calls
	_, err := b.Embed(context.Background(), "x")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if !errors.Is(err, domain.ErrEncoderUnavailable) {
		t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
	}
	if inner.calls != callsBefore {
		t.Error("open breaker must not call the encoder")
	}

	if v := testutil.ToFloat64(metrics.BreakerState.WithLabelValues("trip")); v != 2 {
		t.Errorf("expected breaker gauge 2, got %f", v)
	}
	if err := b.HealthCheck(context.Background()); !errors.Is(err, domain.ErrEncoderUnavailable) {
		t.Errorf("expected unhealthy while open, got %v", err)
	}
}

func TestBreakerEmbedder_CallerContextDoesNotTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
		want error
	}{
		{
			name: "canceled",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			want: context.Canceled,
		},
		{
			name: "deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
			},
			want: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the encoder reports its own failure, but the caller is already gone
			encErr := errors.New("read tcp: i/o timeout")
			inner := &mockEmbedder{err: encErr, batchErr: encErr}
			b := NewBreakerEmbedder(inner, BreakerConfig{Name: "caller-" + tt.name, FailureThreshold: 1}, zap.NewNop())

			for range 3 {
				ctx, cancel := tt.ctx()
				_, err := b.Embed(ctx, "x")
				cancel()
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if errors.Is(err, domain.ErrEncoderUnavailable) {
					t.Fatalf("caller context error must not be reported as encoder fault: %v", err)
				}

				ctx, cancel = tt.ctx()
				_, err = b.BatchEmbed(ctx, []string{"a"})
				cancel()
				if !errors.Is(err, tt.want) {
					t.Fatalf("batch: expected %v, got %v", tt.want, err)
				}
			}
			if b.State() != gobreaker.StateClosed {
				t.Fatalf("expected closed state, got %s", b.State())
			}
		})
	}
}

func TestBreakerEmbedder_EncoderDeadlineTrips(t *testing.T) {
	// a deadline from inside the encoder while the caller is still waiting is a failure
	inner := &mockEmbedder{err: context.DeadlineExceeded}
	b := NewBreakerEmbedder(inner, BreakerConfig{Name: "inner-deadline", FailureThreshold: 1, OpenTimeout: time.Hour}, zap.NewNop())

	_, err := b.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEncoderUnavailable) {
		t.Fatalf("expected ErrEncoderUnavailable, got %v", err)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open state, got %s", b.State())
	}
}

func TestBreakerEmbedder_HealthCheckDelegates(t *testing.T) {
	inner := &healthyEmbedder{err: errors.New("down")}
	b := NewBreakerEmbedder(inner, BreakerConfig{Name: "hc"}, zap.NewNop())

	if err := b.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected inner health error")
	}
	inner.err = nil
	if err := b.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type healthyEmbedder struct {
	plainMockEmbedder
	err error
}

func (h *healthyEmbedder) HealthCheck(context.Context) error { return h.err }
