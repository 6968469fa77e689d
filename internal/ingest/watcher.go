package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig controls directory watching.
type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid write/rename bursts
}

// StartWatcher watches the configured roots recursively and emits paths of
// files with an accepted extension. New subdirectories are picked up as
// they appear. The channels close when ctx is cancelled.
func StartWatcher(ctx context.Context, logger *slog.Logger, cfg WatchConfig) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no watch roots provided")
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	addRoot := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if IsHidden(path) && path != root {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && !IsHidden(path) && AllowedExt(filepath.Ext(path)) {
				select {
				case evCh <- path:
				default:
				}
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addRoot(r); err != nil {
			logger.Error("watch.add_root_failed", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watch.close_error", "error", err)
			}
		}()

		var timer *time.Timer
		pending := map[string]struct{}{}

		sendPending := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				// A created directory must be watched from now on.
				// Add errors on plain files are expected and ignored.
				if e.Op&fsnotify.Create != 0 && !IsHidden(e.Name) {
					_ = w.Add(e.Name)
				}

				if !IsHidden(e.Name) && AllowedExt(filepath.Ext(e.Name)) &&
					e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer != nil {
							timer.Stop()
						}
						timer = time.AfterFunc(cfg.Debounce, sendPending)
					} else {
						sendPending()
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// RunWatcher consumes watcher events and ingests each path. It blocks
// until ctx is cancelled. Ingest failures are logged, never fatal.
func (s *Service) RunWatcher(ctx context.Context, cfg WatchConfig) error {
	evCh, errCh, err := StartWatcher(ctx, s.logger, cfg)
	if err != nil {
		return err
	}
	s.logger.Info("watch.started", "roots", cfg.Roots)

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-evCh:
			if !ok {
				return nil
			}
			if _, err := s.UploadFile(ctx, path, "watch"); err != nil {
				s.logger.Warn("watch.ingest_failed", "path", path, "error", err)
			}
		case err, ok := <-errCh:
			if !ok {
				return nil
			}
			s.logger.Warn("watch.recovered_error", "error", err)
		}
	}
}
