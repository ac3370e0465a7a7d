package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nathoo/scenecore/types"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// Watch reloads dir whenever a .lua file in it changes and passes the result
// to fn. Load errors are passed to fn as well; watching continues. Watch
// blocks until ctx is done.
func (ld *Loader) Watch(ctx context.Context, dir string, fn func(*types.WorldDef, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".lua" || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			ld.logger.Debug("script changed", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			def, err := ld.Load(dir)
			if err != nil {
				ld.logger.Warn("reload failed", zap.String("dir", dir), zap.Error(err))
			}
			fn(def, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ld.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
