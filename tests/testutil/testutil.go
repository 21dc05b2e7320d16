// Package testutil holds helpers for the commission engine's integration
// tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var seedNamespace = uuid.MustParse("2f1c8f4e-5d1a-4b8e-9c43-1f0a7e6b2d90")

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(seed))
}

// TestEventID is the ticketing event shared by integration fixtures
func TestEventID() uuid.UUID {
	return NewTestUUID("test-event")
}

// RequireEventually polls condition until it holds, failing the test after
// timeout. Unlike require.Eventually the condition runs on the test
// goroutine, so it may call t-bound helpers.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if !poll(condition, timeout, interval) {
		require.Fail(t, "condition not met within "+timeout.String(), msgAndArgs...)
	}
}

func poll(condition func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}
