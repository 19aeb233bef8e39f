package cache

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the given install roots and triggers refresh when
// applications appear or disappear under them. Events are debounced so a
// bulk install triggers a single rescan. Roots that do not exist are
// skipped. The function blocks until ctx is cancelled.
//
// The store is not touched directly: refresh is expected to rebuild the
// index under whatever lock its owner holds, and to report the new index
// size on success.
func Watch(ctx context.Context, roots []string, debounce time.Duration, logger *slog.Logger, refresh func() (appCount int, ok bool)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := w.Add(root); err != nil {
			logger.Warn("watcher: add root failed",
				slog.String("root", root),
				slog.String("error", err.Error()))
			continue
		}
		watched++
	}
	if watched == 0 {
		logger.Info("watcher: no install roots to watch")
		<-ctx.Done()
		return nil
	}
	logger.Info("watcher: started", slog.Int("roots", watched))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			if n, ok := refresh(); ok {
				logger.Info("watcher: cache refreshed", slog.Int("apps", n))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: install root changed",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
