package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SuccessAfterRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("temporary error")
		}
		return nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	if err != nil {
		t.Errorf("Do() error = %v, want nil", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDo_MaxAttemptsExceeded(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errors.New("persistent error")
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	if !errors.Is(err, ErrMaxAttemptsExceeded) {
		t.Errorf("Do() error = %v, want ErrMaxAttemptsExceeded", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func() error {
		calls++
		return errors.New("error")
	}, WithMaxAttempts(3))

	if !errors.Is(err, ErrContextCanceled) {
		t.Errorf("Do() error = %v, want ErrContextCanceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("bad credentials")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return fatal
	}, WithMaxAttempts(3), WithIsRetryable(func(err error) bool { return false }))

	if !errors.Is(err, fatal) {
		t.Errorf("Do() error = %v, want %v", err, fatal)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("temporary error")
		}
		return "203.0.113.7", nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	if err != nil {
		t.Fatalf("DoWithResult() error = %v", err)
	}
	if got != "203.0.113.7" {
		t.Errorf("DoWithResult() = %q, want 203.0.113.7", got)
	}
}

func TestDo_BackoffProgression(t *testing.T) {
	var delays []time.Duration

	_ = Do(context.Background(), func() error {
		return errors.New("error")
	}, WithMaxAttempts(4), WithInitialDelay(10*time.Millisecond), WithMultiplier(2.0),
		WithOnRetry(func(attempt int, delay time.Duration, err error) {
			delays = append(delays, delay)
		}))

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("got %d delays, want %d", len(delays), len(want))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDo_MaxDelayCap(t *testing.T) {
	var delays []time.Duration

	_ = Do(context.Background(), func() error {
		return errors.New("error")
	}, WithMaxAttempts(4), WithInitialDelay(20*time.Millisecond), WithMaxDelay(30*time.Millisecond),
		WithMultiplier(10.0), WithOnRetry(func(attempt int, delay time.Duration, err error) {
			delays = append(delays, delay)
		}))

	for _, d := range delays {
		if d > 30*time.Millisecond {
			t.Errorf("delay %v exceeds cap", d)
		}
	}
}
