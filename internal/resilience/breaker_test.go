package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func fail(context.Context) error { return errTest }
func ok(context.Context) error   { return nil }

// newTestBreaker returns a breaker on a controllable clock.
func newTestBreaker(maxFailures int) (*Breaker, *time.Time) {
	now := time.Now()
	b := NewBreaker("test", maxFailures, time.Second)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	called := false
	err := b.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %s", b.State())
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Execute(ctx, fail); !errors.Is(err, errTest) {
			t.Fatalf("call %d: expected errTest, got %v", i, err)
		}
	}

	if err := b.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}
}

func TestTransitionsToHalfOpenAfterTimeout(t *testing.T) {
	b, now := newTestBreaker(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = b.Execute(ctx, fail)
	}
	if err := b.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	*now = now.Add(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half_open", b.State())
	}

	called := false
	err := b.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error in half-open, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called in half-open")
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = b.Execute(ctx, fail)
	}
	*now = now.Add(2 * time.Second)

	_ = b.Execute(ctx, fail)
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}
	if err := b.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestHalfOpenAllowsSingleProbe(t *testing.T) {
	b, now := newTestBreaker(1)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	*now = now.Add(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Execute(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := b.Execute(ctx, ok); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("concurrent probe: expected ErrCircuitOpen, got %v", err)
	}
	close(release)
	wg.Wait()

	if err := b.Execute(ctx, ok); err != nil {
		t.Fatalf("after successful probe: %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, ok)
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)

	if err := b.Execute(ctx, ok); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCanceledContextIsNotAFailure(t *testing.T) {
	b := NewBreaker("test", 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
}
