package content

import (
	"path/filepath"
	"testing"
)

func TestDirtyQueueDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)
	mount := env.db.Mount(MountProjectContent)

	env.db.OnDirectoryEvent(mount, Change{Type: ChangeCreated, Path: env.contentDir})
	env.db.OnDirectoryEvent(mount, Change{Type: ChangeDeleted, Path: env.contentDir})
	env.db.OnDirectoryEvent(mount, Change{Type: ChangeCreated, Path: env.contentDir})

	if got := env.db.PendingRefreshes(); got != 1 {
		t.Errorf("PendingRefreshes = %d, want 1", got)
	}

	if err := env.db.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	// Exactly one sync pass, so exactly one workspace-modified.
	if env.modified != 1 {
		t.Errorf("workspace-modified fired %d times, want 1", env.modified)
	}
	if got := env.db.PendingRefreshes(); got != 0 {
		t.Errorf("PendingRefreshes after drain = %d, want 0", got)
	}
}

func TestNonStructuralChangesIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)
	mount := env.db.Mount(MountProjectContent)

	env.db.OnDirectoryEvent(mount, Change{Type: ChangeModified, Path: env.contentDir})
	env.db.OnDirectoryEvent(mount, Change{Type: ChangeRenamed, Path: env.contentDir})

	if got := env.db.PendingRefreshes(); got != 0 {
		t.Errorf("PendingRefreshes = %d, want 0", got)
	}
}

func TestEventsDuringLoadIgnored(t *testing.T) {
	env := newTestEnv(t)
	mount := env.db.Mount(MountProjectContent)

	// Load has not run yet; the watcher entry point must be a no-op.
	env.db.OnDirectoryEvent(mount, Change{Type: ChangeCreated, Path: env.contentDir})
	if got := env.db.PendingRefreshes(); got != 0 {
		t.Errorf("PendingRefreshes = %d, want 0 during load", got)
	}
}

func TestDrainAppliesPendingChanges(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)
	mount := env.db.Mount(MountProjectContent)

	path := filepath.Join(env.contentDir, "late.tex")
	writeAsset(t, path, TypeTexture)
	env.db.OnDirectoryEvent(mount, Change{Type: ChangeCreated, Path: path})

	if err := env.db.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if env.db.FindByPath(path) == nil {
		t.Error("drained change not applied to tree")
	}
	if len(env.added) != 1 {
		t.Errorf("added = %v, want one event", env.added)
	}
}

func TestDrainEmptyQueueIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)

	if err := env.db.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if env.modified != 0 {
		t.Errorf("workspace-modified fired %d times on empty drain", env.modified)
	}
}
