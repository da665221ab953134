package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newControlFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".rstrtr")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatalf("create control file: %v", err)
	}
	return path
}

func TestOpenMissingPathFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	if _, err := Open(path); err == nil {
		t.Fatal("expected error watching nonexistent path")
	}
}

func TestPollTimesOutQuietly(t *testing.T) {
	path := newControlFile(t)
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	if event, ok := w.Poll(50 * time.Millisecond); ok {
		t.Fatalf("expected timeout, got %v", event)
	}
}

func TestBurstOfWritesCoalesces(t *testing.T) {
	path := newControlFile(t)
	w, err := Open(path, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	event, ok := w.Poll(2 * time.Second)
	if !ok {
		t.Fatal("expected a modified event")
	}
	if event.Kind != Modified {
		t.Fatalf("expected modified, got %s", event.Kind)
	}

	// The burst must have collapsed to a single event.
	if extra, ok := w.Poll(200 * time.Millisecond); ok {
		t.Fatalf("expected no further events, got %v", extra)
	}
}

func TestRemoveFiresImmediately(t *testing.T) {
	path := newControlFile(t)
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	event, ok := w.Poll(2 * time.Second)
	if !ok {
		t.Fatal("expected a removed event")
	}
	if event.Kind != Removed {
		t.Fatalf("expected removed, got %s", event.Kind)
	}
}

func TestRemoveCancelsPendingWrite(t *testing.T) {
	path := newControlFile(t)
	// A long debounce guarantees the write is still pending when the file
	// disappears.
	w, err := Open(path, WithDebounce(500*time.Millisecond))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	event, ok := w.Poll(2 * time.Second)
	if !ok {
		t.Fatal("expected a removed event")
	}
	if event.Kind != Removed {
		t.Fatalf("expected removed to win over pending write, got %s", event.Kind)
	}

	if extra, ok := w.Poll(time.Second); ok {
		t.Fatalf("expected the pending write to be discarded, got %v", extra)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := newControlFile(t)
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if event, ok := w.Poll(10 * time.Millisecond); ok {
		t.Fatalf("expected no events after close, got %v", event)
	}
}

func TestKindString(t *testing.T) {
	if Modified.String() != "modified" || Removed.String() != "removed" {
		t.Fatalf("unexpected kind strings: %s, %s", Modified, Removed)
	}
}
