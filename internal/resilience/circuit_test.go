package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failing(_ context.Context) (int, error)    { return 0, errors.New("fail") }
func succeeding(_ context.Context) (int, error) { return 1, nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("hunter", BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, _ = Call(context.Background(), b, failing)
	}
	if b.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	_, err := Call(context.Background(), b, func(_ context.Context) (int, error) {
		t.Error("upstream called while open")
		return 0, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker("crm", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	_, _ = Call(context.Background(), b, failing)
	_, _ = Call(context.Background(), b, succeeding)
	_, _ = Call(context.Background(), b, failing)

	if b.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("places", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.now = func() time.Time { return now }

	_, _ = Call(context.Background(), b, failing)
	if b.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	now = now.Add(2 * time.Second)
	if b.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}

	if _, err := Call(context.Background(), b, succeeding); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if b.State() != CircuitClosed {
		t.Errorf("expected closed after probe, got %s", b.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("places", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.now = func() time.Time { return now }

	_, _ = Call(context.Background(), b, failing)
	now = now.Add(2 * time.Second)
	_, _ = Call(context.Background(), b, failing)

	if b.State() != CircuitOpen {
		t.Errorf("expected open after failed probe, got %s", b.State())
	}
}

func TestBreaker_CancelledCallerDoesNotTrip(t *testing.T) {
	b := NewBreaker("crm", BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = Call(ctx, b, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	if b.State() != CircuitClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreakers_Get(t *testing.T) {
	r := NewBreakers(DefaultBreakerConfig())
	if r.Get("hunter") != r.Get("hunter") {
		t.Error("expected same breaker for same service")
	}
	if r.Get("hunter") == r.Get("crm") {
		t.Error("expected distinct breakers per service")
	}
}
