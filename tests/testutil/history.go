package testutil

import (
	"testing"

	"github.com/ecopickup/driversync/internal/history"
)

// NewTestLog creates an in-memory history journal with all migrations
// applied. It automatically closes the journal when the test completes.
func NewTestLog(t *testing.T) *history.Log {
	t.Helper()

	l, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("creating test history log: %v", err)
	}

	t.Cleanup(func() {
		if err := l.Close(); err != nil {
			t.Errorf("closing test history log: %v", err)
		}
	})

	return l
}
