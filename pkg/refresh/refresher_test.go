package refresh

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"portfolio-assistant-be/internal/pkg/logger"
)

type countingStore struct {
	updates atomic.Int64
}

func (s *countingStore) Update(ctx context.Context) error {
	s.updates.Add(1)
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRefresherIntervalTrigger(t *testing.T) {
	store := &countingStore{}
	r := NewRefresher(store, 20*time.Millisecond, "", logger.NewNopLogger())

	r.Start(context.Background())
	defer r.Stop()

	waitFor(t, time.Second, func() bool { return store.updates.Load() >= 2 })
}

func TestRefresherFileChangeTrigger(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "profile.json")
	if err := os.WriteFile(profilePath, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	store := &countingStore{}
	// Interval far in the future so only the file watcher can fire.
	r := NewRefresher(store, time.Hour, profilePath, logger.NewNopLogger())

	r.Start(context.Background())
	defer r.Stop()

	// Give the watcher a moment to attach before touching the file.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(profilePath, []byte(`{"name":"x"}`), 0o644); err != nil {
		t.Fatalf("rewrite profile: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return store.updates.Load() >= 1 })
}

func TestRefresherStopIsIdempotent(t *testing.T) {
	r := NewRefresher(&countingStore{}, time.Hour, "", logger.NewNopLogger())
	r.Start(context.Background())

	r.Stop()
	r.Stop()
}

func TestRefresherStopWithoutStart(t *testing.T) {
	r := NewRefresher(&countingStore{}, time.Hour, "", logger.NewNopLogger())

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a refresher that was never started")
	}
}
