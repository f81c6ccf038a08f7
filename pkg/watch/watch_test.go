package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want bool
	}{
		{fsnotify.Write, true},
		{fsnotify.Create, true},
		{fsnotify.Rename, true},
		{fsnotify.Remove, false},
		{fsnotify.Chmod, false},
		{0, false},
	}
	for _, tt := range tests {
		event := fsnotify.Event{Name: "x", Op: tt.op}
		if got := isRelevant(event); got != tt.want {
			t.Errorf("isRelevant(%v) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Debounce <= 0 {
		t.Errorf("expected a positive default debounce, got %v", opts.Debounce)
	}
	if opts.Logger == nil {
		t.Error("expected a non-nil default logger")
	}
	if opts.Out == nil {
		t.Error("expected a non-nil default writer")
	}
}

func TestRun_InvokesOnStartupAndOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatal(err)
	}

	var runs int32
	var buf bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := DefaultOptions()
	opts.TemplatePath = path
	opts.Debounce = 20 * time.Millisecond
	opts.Out = &buf

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got < 1 {
		t.Fatalf("expected at least the initial run to fire, got %d", got)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got < 2 {
		t.Fatalf("expected a second run after the file write, got %d", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() returned error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
