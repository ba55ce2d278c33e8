package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"clipforge/internal/lifecycle"
)

func TestBeginShutdownIsIdempotent(t *testing.T) {
	m := lifecycle.New(context.Background(), nil)
	if m.State() != lifecycle.StateRunning {
		t.Fatalf("initial state = %s", m.State())
	}

	if !m.BeginShutdown() {
		t.Fatal("first BeginShutdown should report the transition")
	}
	if m.BeginShutdown() {
		t.Fatal("second BeginShutdown should be a no-op")
	}
	if m.State() != lifecycle.StateShuttingDown {
		t.Fatalf("state = %s", m.State())
	}

	select {
	case <-m.Context().Done():
	default:
		t.Fatal("context should be cancelled once shutdown begins")
	}
}

func TestFinishStops(t *testing.T) {
	m := lifecycle.New(context.Background(), nil)
	m.BeginShutdown()
	m.Finish()
	if m.State() != lifecycle.StateStopped {
		t.Fatalf("state = %s", m.State())
	}
	if m.BeginShutdown() {
		t.Fatal("stopped manager should not restart the sequence")
	}
	m.Finish()
	if m.State() != lifecycle.StateStopped {
		t.Fatalf("state = %s", m.State())
	}
}

func TestParentCancellationBeginsShutdown(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := lifecycle.New(parent, nil)

	cancel()
	deadline := time.After(time.Second)
	for m.State() == lifecycle.StateRunning {
		select {
		case <-deadline:
			t.Fatal("parent cancellation did not begin shutdown")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if m.State() != lifecycle.StateShuttingDown {
		t.Fatalf("state = %s", m.State())
	}
}
