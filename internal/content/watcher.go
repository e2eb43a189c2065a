package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher over every mount root and feeds raw
// notifications into the database's dirty queue until ctx is cancelled.
// It never touches the tree itself: each event maps to the owning mount
// root and is handed to OnDirectoryEvent, which the drain loop services
// on the owning goroutine.
//
// Directories created at runtime are added to the watch list so nested
// changes keep arriving.
func Watch(ctx context.Context, db *Database, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, m := range db.Mounts() {
		if err := addDirsRecursive(w, m.Folder.Path); err != nil {
			return err
		}
		logger.Info("watcher: tracking mount",
			slog.String("mount", m.Kind.String()),
			slog.String("root", m.Folder.Path))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			mount := mountForPath(db.Mounts(), ev.Name)
			if mount == nil {
				continue
			}
			db.OnDirectoryEvent(mount, Change{Type: changeType(ev.Op), Path: ev.Name})

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// changeType maps an fsnotify op onto the change taxonomy. Only Created
// and Deleted trigger refreshes downstream; a rename delivers the old
// path here and the new path as a separate Create.
func changeType(op fsnotify.Op) ChangeType {
	switch {
	case op&fsnotify.Create != 0:
		return ChangeCreated
	case op&fsnotify.Remove != 0:
		return ChangeDeleted
	case op&fsnotify.Rename != 0:
		return ChangeRenamed
	default:
		return ChangeModified
	}
}

// mountForPath returns the mount whose root contains path, nil if none.
func mountForPath(mounts []*MountNode, path string) *MountNode {
	for _, m := range mounts {
		root := m.Folder.Path
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return m
		}
	}
	return nil
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
