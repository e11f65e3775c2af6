package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{name: "nil", err: nil},
		{name: "context canceled", err: context.Canceled},
		{name: "deadline exceeded", err: fmt.Errorf("publish: %w", context.DeadlineExceeded)},
		{name: "no servers", err: nats.ErrNoServers, retryable: true, recordFailure: true},
		{name: "timeout", err: fmt.Errorf("publish: %w", nats.ErrTimeout), retryable: true, recordFailure: true},
		{name: "connection closed", err: nats.ErrConnectionClosed, retryable: true, recordFailure: true},
		{name: "disconnected", err: nats.ErrDisconnected, retryable: true, recordFailure: true},
		{name: "circuit open", err: gobreaker.ErrOpenState, retryable: true, recordFailure: true},
		{name: "unknown", err: errors.New("subject malformed"), retryable: false, recordFailure: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyNATSError(tc.err)
			if class.Retryable != tc.retryable {
				t.Fatalf("Retryable = %v, want %v", class.Retryable, tc.retryable)
			}
			if class.RecordFailure != tc.recordFailure {
				t.Fatalf("RecordFailure = %v, want %v", class.RecordFailure, tc.recordFailure)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if err := wrapTemporaryIfNeeded(nil); err != nil {
		t.Fatalf("nil error wrapped to %v", err)
	}

	transient := fmt.Errorf("publish: %w", nats.ErrTimeout)
	wrapped := wrapTemporaryIfNeeded(transient)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Fatalf("transient error not marked temporary: %v", wrapped)
	}
	if !errors.Is(wrapped, nats.ErrTimeout) {
		t.Fatalf("wrapping lost the cause: %v", wrapped)
	}

	// Already-classified errors pass through untouched.
	if again := wrapTemporaryIfNeeded(wrapped); again != wrapped {
		t.Fatalf("temporary error re-wrapped: %v", again)
	}

	permanent := errors.New("subject malformed")
	if got := wrapTemporaryIfNeeded(permanent); domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("permanent error marked temporary: %v", got)
	}
}
