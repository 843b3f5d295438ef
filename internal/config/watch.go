package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path and calls onChange with the newly loaded Config each
// time the file is rewritten with different effective settings. It runs until
// ctx is cancelled.
//
// A reload that fails (e.g., invalid YAML) or that yields the same settings
// is skipped: the previous config stays active and onChange is not called.
// Note a port change still requires a restart to take effect — only the
// CORS origin is consumed at runtime.
func Watch(ctx context.Context, path string, initial *Config, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)
	active := *initial

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Reload on write and create only. Editors often save via rename,
			// which arrives as fsnotify.Create on a fresh inode.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed — keeping previous config",
					"path", path, "err", err)
				continue
			}
			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

			if *cfg == active {
				continue
			}
			active = *cfg
			slog.Info("config: reloaded",
				"path", path, "cors_origin", cfg.Server.CORSOrigin)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
