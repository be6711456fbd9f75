package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteRunsCallbackOnce(t *testing.T) {
	executor := NewExecutor(Config{BreakerEnabled: false})
	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("boom")
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestExecuteEnforcesCallTimeout(t *testing.T) {
	executor := NewExecutor(Config{BreakerEnabled: false, CallTimeout: 20 * time.Millisecond})
	err := executor.Execute(context.Background(), "op", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	executor := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})
	fail := func(context.Context) error { return errors.New("backend down") }

	for i := 0; i < 3; i++ {
		_ = executor.Execute(context.Background(), "op", fail, nil)
	}

	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("callback must not run while breaker is open")
		return nil
	}, nil)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestClassifierCanSkipFailureRecording(t *testing.T) {
	executor := NewExecutor(Config{
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})
	benign := func(error) ErrorClassification { return ErrorClassification{RecordFailure: false} }
	fail := func(context.Context) error { return errors.New("client mistake") }

	for i := 0; i < 5; i++ {
		_ = executor.Execute(context.Background(), "op", fail, benign)
	}

	ran := false
	_ = executor.Execute(context.Background(), "op", func(context.Context) error {
		ran = true
		return nil
	}, benign)
	if !ran {
		t.Fatalf("breaker must stay closed for non-recorded failures")
	}
}
