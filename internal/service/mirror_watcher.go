package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type mirrorFiles interface {
	Dir() string
	KeyForPath(path string) (string, bool)
	Get(ctx context.Context, key string) ([]byte, error)
}

// MirrorWatcher applies edits made directly to the file mirror.
type MirrorWatcher struct {
	files  mirrorFiles
	mirror *MirrorService
	logger *zap.Logger
}

// NewMirrorWatcher constructs a watcher for the file mirror directory.
func NewMirrorWatcher(files mirrorFiles, mirror *MirrorService, logger *zap.Logger) *MirrorWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirrorWatcher{files: files, mirror: mirror, logger: logger}
}

// Run watches until ctx is done. ready, when non-nil, is closed once the
// directory watch is registered.
func (w *MirrorWatcher) Run(ctx context.Context, ready chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create mirror watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.files.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", w.files.Dir(), err)
	}
	w.logger.Info("watching mirror directory", zap.String("dir", w.files.Dir()))
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.handle(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("mirror watcher overflowed; some edits may be missed")
				continue
			}
			w.logger.Warn("mirror watcher error", zap.Error(err))
		}
	}
}

func (w *MirrorWatcher) handle(ctx context.Context, path string) {
	key, ok := w.files.KeyForPath(path)
	if !ok {
		return
	}
	value, err := w.files.Get(ctx, key)
	if err != nil {
		w.logger.Debug("mirror file vanished before read", zap.String("key", key), zap.Error(err))
		return
	}
	if w.mirror.ApplyExternal(key, value) {
		w.logger.Info("applied external mirror edit", zap.String("key", key))
	}
}
