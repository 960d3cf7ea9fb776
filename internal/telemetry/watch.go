package telemetry

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the store's dataset file and reloads it on change. It runs
// until ctx is cancelled.
//
// A failed reload (e.g. malformed JSON mid-write) is logged and the previous
// dataset remains active — live traffic never sees a half-written file.
func Watch(ctx context.Context, s *Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.Path()); err != nil {
		return err
	}

	slog.Info("telemetry: watching dataset for changes", "path", s.Path())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors and deploy tooling often replace the file via rename
			// (atomic save), so catch Create as well as Write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := s.Reload(); err != nil {
				slog.Error("telemetry: dataset reload failed — keeping previous data",
					"path", s.Path(), "err", err)
				continue
			}
			slog.Info("telemetry: dataset reloaded",
				"path", s.Path(), "records", s.Count())

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(s.Path())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("telemetry: watcher error", "err", err)
		}
	}
}
