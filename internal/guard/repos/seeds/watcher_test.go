package seeds

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/phishguard/internal/guard/common/log"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()

	calls := make(chan []string, 4)
	w := NewWatcher(dir, func(domains []string) { calls <- domains }, log.NewNoopLogger())
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give Run time to establish the directory watch before writing.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "feed.txt"),
		[]byte("# feed\nevil.com\n*.tracker.net\n"), 0o644))

	var got []string
	select {
	case got = <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("handler was not invoked after a seed file change")
	}
	assert.Equal(t, []string{"evil.com", "tracker.net"}, got)

	// The create and write events settle into a single reload.
	select {
	case extra := <-calls:
		t.Fatalf("unexpected second handler call: %v", extra)
	case <-time.After(4 * w.debounce):
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent"), func([]string) {}, log.NewNoopLogger())
	err := w.Run(context.Background())
	assert.Error(t, err)
}
