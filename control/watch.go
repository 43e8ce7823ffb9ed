// control/watch.go
// Author: momentics <momentics@gmail.com>
//
// Hot reload: re-runs the loader whenever the YAML file changes and pushes
// the result into a ConfigStore.

package control

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// A save by rename shows up as Create on the target name.
const reloadOps = fsnotify.Write | fsnotify.Create

// Watch reloads the configuration into store each time the config file is
// written or replaced, until ctx is done. The parent directory is watched so
// editors that save by rename are seen too. Invalid configurations are
// logged and skipped; store keeps the last good one.
func (l *Loader) Watch(ctx context.Context, store *ConfigStore) error {
	if l.configPath == "" {
		return errors.New("watch: no config path")
	}
	path, err := filepath.Abs(l.configPath)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	logger := Logger().With(zap.String("component", "config"), zap.String("path", path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&reloadOps == 0 {
				continue
			}
			cfg, err := l.Load()
			if err != nil {
				logger.Warn("config reload rejected", zap.Error(err))
				continue
			}
			if err := store.Update(*cfg); err != nil {
				logger.Warn("config reload rejected", zap.Error(err))
				continue
			}
			logger.Info("config reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
