package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func TestWatchRefreshesAfterInstall(t *testing.T) {
	root := t.TempDir()
	sc := &fakeScanner{apps: map[string]models.AppEntry{
		"Fresh": {Name: "Fresh", Path: "/fresh", Platform: models.PlatformMacOS, Source: "spotlight"},
	}}
	store := New(filepath.Join(t.TempDir(), "apps_cache.json"), 24, false, sc, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refreshed := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, []string{root}, 50*time.Millisecond, testLogger(), func() (int, bool) {
			if !store.Update() {
				return 0, false
			}
			count := len(store.Apps())
			select {
			case refreshed <- count:
			default:
			}
			return count, true
		})
	}()

	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)

	if err := os.Mkdir(filepath.Join(root, "Fresh.app"), 0o755); err != nil {
		t.Fatal(err)
	}

	select {
	case count := <-refreshed:
		if count != 1 {
			t.Errorf("refreshed index size = %d, want 1", count)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not refresh the cache")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatchNoRootsBlocksUntilCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{filepath.Join(t.TempDir(), "missing")}, time.Second, testLogger(), func() (int, bool) {
			t.Error("refresh must not run without watched roots")
			return 0, false
		})
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
