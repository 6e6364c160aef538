package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called when a key is modified by someone other than this
// process. kind is one of "updated" or "deleted".
type ChangeCallback func(kind, key string)

const watchDebounce = 150 * time.Millisecond

// Watch observes the state directory until ctx is cancelled and reports
// external edits to stored keys, e.g. a second instance sharing the same
// directory. Writes made through f itself are not reported.
//
// Editors and atomic writers produce bursts of events per file, so changes
// are collected and flushed after a short quiet period.
func (f *FS) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", f.root))

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func(key string) {
		pending[key] = struct{}{}
		if flushTimer == nil {
			flushTimer = time.NewTimer(watchDebounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for key := range pending {
				f.report(key, logger, cb)
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
				continue
			}
			key := strings.TrimSuffix(name, fileExt)
			if validKey(key) != nil {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule(key)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// report re-reads key and calls cb unless the content is our own last write.
func (f *FS) report(key string, logger *slog.Logger, cb ChangeCallback) {
	data, err := os.ReadFile(filepath.Join(f.root, key+fileExt))
	if err != nil {
		if os.IsNotExist(err) {
			f.mu.Lock()
			delete(f.written, key)
			f.mu.Unlock()
			logger.Debug("watcher: key removed", slog.String("key", key))
			if cb != nil {
				cb("deleted", key)
			}
			return
		}
		logger.Warn("watcher: read failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if f.ownWrite(key, data) {
		return
	}
	logger.Debug("watcher: external change", slog.String("key", key))
	if cb != nil {
		cb("updated", key)
	}
}
