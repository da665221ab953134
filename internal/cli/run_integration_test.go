package cli

import (
	"bytes"
	"os"
	"path/filepath"
	stdruntime "runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Paintersrp/rstrtr/internal/control"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if stdruntime.GOOS == "windows" {
		t.Skip("run integration tests rely on /bin/sh")
	}
}

// syncBuffer guards the output buffer against the renderer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRunRestartAndQuitEndToEnd(t *testing.T) {
	skipOnWindows(t)

	path := filepath.Join(t.TempDir(), ".rstrtr")
	stdout := &syncBuffer{}
	stderr := &syncBuffer{}

	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs([]string{"--control", path, "run", "--", "/bin/sh", "-c", "sleep 60"})

	done := make(chan error, 1)
	go func() {
		done <- root.Execute()
	}()

	// The supervisor creates the control file before watching it.
	waitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})
	// Give the child a moment to be spawned.
	time.Sleep(200 * time.Millisecond)

	if err := control.Signal(path); err != nil {
		t.Fatalf("signal restart: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		return strings.Contains(stdout.String(), "Restarting...")
	})

	if err := control.Remove(path); err != nil {
		t.Fatalf("signal quit: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run to quit")
	}

	out := stdout.String()
	if !strings.Contains(out, "Quitting...") {
		t.Fatalf("expected quitting line, got:\n%s", out)
	}
}

func TestRunAutoRestartsExitingChild(t *testing.T) {
	skipOnWindows(t)

	path := filepath.Join(t.TempDir(), ".rstrtr")
	stdout := &syncBuffer{}

	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(&syncBuffer{})
	root.SetArgs([]string{"--control", path, "run", "--", "/bin/sh", "-c", "exit 0"})

	done := make(chan error, 1)
	go func() {
		done <- root.Execute()
	}()

	// A child that exits immediately is restarted until told to quit.
	waitFor(t, 5*time.Second, func() bool {
		out := stdout.String()
		return strings.Count(out, "Exit 0") >= 2 && strings.Count(out, "Restarting...") >= 2
	})

	if err := control.Remove(path); err != nil {
		t.Fatalf("signal quit: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run to quit")
	}
}

func TestRunSpawnFailureIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".rstrtr")
	stderr := &syncBuffer{}

	root := NewRootCmd()
	root.SetOut(&syncBuffer{})
	root.SetErr(stderr)
	root.SetArgs([]string{"--control", path, "run", "--", "definitely-not-a-real-binary-rstrtr"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected run to fail for unknown executable")
	}
}

func TestRunJSONLogFormat(t *testing.T) {
	skipOnWindows(t)

	path := filepath.Join(t.TempDir(), ".rstrtr")
	stdout := &syncBuffer{}

	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(&syncBuffer{})
	root.SetArgs([]string{"--control", path, "run", "--log-format", "json", "--", "/bin/sh", "-c", "sleep 60"})

	done := make(chan error, 1)
	go func() {
		done <- root.Execute()
	}()

	waitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(path)
		return err == nil
	})
	time.Sleep(200 * time.Millisecond)

	if err := control.Remove(path); err != nil {
		t.Fatalf("signal quit: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run to quit")
	}

	out := stdout.String()
	if !strings.Contains(out, `"type":"quitting"`) {
		t.Fatalf("expected structured quitting record, got:\n%s", out)
	}
	if strings.Contains(out, "Quitting...") {
		t.Fatalf("expected no text lines in json mode, got:\n%s", out)
	}
}
