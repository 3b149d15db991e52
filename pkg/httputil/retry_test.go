package httputil

import (
	"context"
	stderrors "errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	transient := &RetryableError{Err: stderrors.New("503")}
	permanent := stderrors.New("404")

	tests := []struct {
		name      string
		attempts  int
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"success first try", 3, []error{nil}, 1, nil},
		{"retry then succeed", 3, []error{transient, transient, nil}, 3, nil},
		{"permanent error stops", 3, []error{permanent}, 1, permanent},
		{"exhausted", 2, []error{transient, transient, nil}, 2, transient},
		{"zero attempts runs once", 0, []error{transient}, 1, transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, time.Millisecond, func() error {
				err := tt.errs[calls]
				calls++
				return err
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if err != tt.wantErr {
				t.Errorf("Retry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &RetryableError{Err: stderrors.New("boom")}
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryableError(t *testing.T) {
	inner := stderrors.New("inner")
	err := &RetryableError{Err: inner}
	if err.Error() != "inner" {
		t.Errorf("Error() = %q, want inner", err.Error())
	}
	if !stderrors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false")
	}
	if IsRetryable(inner) {
		t.Error("IsRetryable(plain) = true")
	}
}
