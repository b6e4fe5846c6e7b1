package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestRetryPolicyDo(t *testing.T) {
	transient := &StatusError{Code: 503}
	final := &StatusError{Code: 404}

	tests := []struct {
		name      string
		errs      []error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"success first try", []error{nil}, 3, 1, nil},
		{"transient then success", []error{transient, transient, nil}, 3, 3, nil},
		{"exhausted", []error{transient, transient, transient, transient}, 3, 3, transient},
		{"final error stops", []error{final, nil}, 3, 1, final},
		{"auth wall stops", []error{ErrAuthWall, nil}, 3, 1, ErrAuthWall},
		{"zero attempts means one", []error{transient, nil}, 0, 1, transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := RetryPolicy{MaxAttempts: tt.attempts, BaseDelay: time.Millisecond, sleep: noSleep}
			calls := 0
			err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
				calls++
				if attempt != calls {
					t.Errorf("attempt = %d, want %d", attempt, calls)
				}
				return tt.errs[calls-1]
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}
	calls := 0
	err := p.Do(ctx, func(context.Context, int) error {
		calls++
		cancel()
		return &StatusError{Code: 500}
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err == nil {
		t.Error("expected error")
	}
}

func TestBackoffBounds(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	for attempt := 1; attempt <= 8; attempt++ {
		full := min(p.BaseDelay<<(attempt-1), p.MaxDelay)
		for i := 0; i < 50; i++ {
			d := p.Backoff(attempt)
			if d < full/2 || d > full {
				t.Fatalf("Backoff(%d) = %s, want in [%s, %s]", attempt, d, full/2, full)
			}
		}
	}
	if d := (RetryPolicy{}).Backoff(3); d != 0 {
		t.Errorf("zero policy backoff = %s", d)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&StatusError{Code: 429}, true},
		{&StatusError{Code: 502}, true},
		{&StatusError{Code: 403}, false},
		{fmt.Errorf("wrapped: %w", &StatusError{Code: 500}), true},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{ErrAuthWall, false},
		{errors.New("parse error"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
