package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/forge/internal/apperr"
)

// Resolver reports whether a file is a recognized asset container and
// yields its identity. Implementations must be deterministic for a
// file's current content and side-effect-free beyond internal caching.
type Resolver interface {
	Resolve(path string) (typeID uint32, id uuid.UUID, ok bool)
}

// Database is the content database context: the mount trees, the proxy
// registry, the dirty-node queue, the event dispatcher, and the running
// counters. All tree mutation and lookup happens on the owning
// goroutine; only OnDirectoryEvent is safe to call from elsewhere.
type Database struct {
	logger    *slog.Logger
	registry  *Registry
	resolver  Resolver
	scriptExt string

	mounts []*MountNode // fixed lookup priority order
	queue  *dirtyQueue
	events Dispatcher

	itemsCreated atomic.Int64
	itemsDeleted atomic.Int64

	loading       atomic.Bool // initial fast load in flight
	eventsEnabled bool

	calls   chan func()
	stopped chan struct{}
}

// New creates a database over the given mounts, in lookup priority
// order. The tree is empty until Load runs.
func New(logger *slog.Logger, registry *Registry, resolver Resolver, scriptExt string, mounts ...*MountNode) *Database {
	db := &Database{
		logger:    logger,
		registry:  registry,
		resolver:  resolver,
		scriptExt: scriptExt,
		mounts:    mounts,
		queue:     newDirtyQueue(),
		calls:     make(chan func()),
		stopped:   make(chan struct{}),
	}
	db.loading.Store(true)
	return db
}

// Mounts returns the mount roots in lookup priority order.
func (db *Database) Mounts() []*MountNode {
	return db.mounts
}

// Mount returns the mount root of the given kind, nil if absent.
func (db *Database) Mount(kind MountKind) *MountNode {
	for _, m := range db.mounts {
		if m.Kind == kind {
			return m
		}
	}
	return nil
}

// Events returns the event dispatcher for subscriptions.
func (db *Database) Events() *Dispatcher {
	return &db.events
}

// ItemsCreated returns the number of items committed since startup.
func (db *Database) ItemsCreated() int64 {
	return db.itemsCreated.Load()
}

// ItemsDeleted returns the number of items deleted since startup.
func (db *Database) ItemsDeleted() int64 {
	return db.itemsDeleted.Load()
}

// Loading reports whether the initial fast load is still in flight.
func (db *Database) Loading() bool {
	return db.loading.Load()
}

// Load performs the initial fast setup: every mount subtree is built
// from empty with events and presence checks suppressed. Must complete
// before any lookup or watcher event is serviced.
func (db *Database) Load() error {
	start := time.Now()
	for _, m := range db.mounts {
		if err := db.syncFolder(m.Folder, true); err != nil {
			return fmt.Errorf("content: load mount %s: %w", m.Kind, err)
		}
	}
	db.loading.Store(false)
	db.eventsEnabled = true
	db.logger.Info("content: workspace loaded",
		slog.Int64("items", db.itemsCreated.Load()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Close suppresses further event dispatch. Called on teardown.
func (db *Database) Close() {
	db.eventsEnabled = false
}

func (db *Database) emitAdded(it *Item) {
	if db.eventsEnabled {
		db.events.fireItemAdded(it)
	}
}

func (db *Database) emitRemoved(it *Item) {
	if db.eventsEnabled {
		db.events.fireItemRemoved(it)
	}
}

func (db *Database) emitWorkspaceModified() {
	if db.eventsEnabled {
		db.events.fireWorkspaceModified()
	}
}

// checkQueryable is the lookup precondition: the tree is not in a
// query-consistent state until the fast load finishes.
func (db *Database) checkQueryable() {
	if db.loading.Load() {
		panic("content: lookup during initial load")
	}
}

// FindByPath returns the item with the given absolute path, searching
// mounts in priority order. Nil when nothing matches.
func (db *Database) FindByPath(path string) *Item {
	db.checkQueryable()
	path = filepath.Clean(path)
	for _, m := range db.mounts {
		if it := findByPath(m.Folder, path); it != nil {
			return it
		}
	}
	return nil
}

// FindByID returns the asset item with the given unique id, searching
// mounts in priority order. Nil when nothing matches or id is nil.
func (db *Database) FindByID(id uuid.UUID) *Item {
	db.checkQueryable()
	if id == uuid.Nil {
		return nil
	}
	for _, m := range db.mounts {
		if it := findByID(m.Folder, id); it != nil {
			return it
		}
	}
	return nil
}

// FindScript returns the script item with the given script name in the
// project-source mount. Nil when nothing matches.
func (db *Database) FindScript(name string) *Item {
	db.checkQueryable()
	src := db.Mount(MountProjectSource)
	if src == nil || name == "" {
		return nil
	}
	return findScript(src.Folder, name, db.scriptExt)
}

// FindScriptByTypeName resolves a fully qualified type name to its
// script name and looks that up.
func (db *Database) FindScriptByTypeName(typeName string) *Item {
	return db.FindScript(ScriptName(typeName))
}

// ScriptName derives the script lookup name from a fully qualified type
// name: the segment after the last dot.
func ScriptName(typeName string) string {
	if i := strings.LastIndexByte(typeName, '.'); i >= 0 {
		return typeName[i+1:]
	}
	return typeName
}

func findByPath(it *Item, path string) *Item {
	if it.Path == path {
		return it
	}
	if !it.IsFolder() || !strings.HasPrefix(path, it.Path+string(filepath.Separator)) {
		return nil
	}
	for _, c := range it.Children {
		if found := findByPath(c, path); found != nil {
			return found
		}
	}
	return nil
}

func findByID(it *Item, id uuid.UUID) *Item {
	if it.ID == id {
		return it
	}
	for _, c := range it.Children {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findScript(it *Item, name, ext string) *Item {
	if it.Kind == KindScript && strings.TrimSuffix(it.Name(), ext) == name {
		return it
	}
	for _, c := range it.Children {
		if found := findScript(c, name, ext); found != nil {
			return found
		}
	}
	return nil
}

// Delete is the single authoritative removal path, used for both user
// deletes and synchronizer-detected removals. Folders delete their
// children depth-first before the backing directory; asset files still
// on disk are refused (content-pool deletion is not integrated); plain
// files are removed from disk when still present. Every deletion
// increments the deleted counter and fires item-removed.
func (db *Database) Delete(it *Item) error {
	if it == nil {
		panic("content: Delete called with nil item")
	}
	ws := it.Mount().Workspace()

	switch {
	case it.IsFolder():
		// Always index 0: each child delete shrinks the slice in place.
		for len(it.Children) > 0 {
			if err := db.Delete(it.Children[0]); err != nil {
				return err
			}
		}
		if ws.IsDir(it.Path) {
			if err := ws.RemoveAll(it.Path); err != nil {
				return err
			}
		}
	case it.Kind == KindAsset:
		if ws.Exists(it.Path) && !ws.IsDir(it.Path) {
			return fmt.Errorf("content: delete asset %s: %w", it.Path, apperr.ErrAssetDeleteUnsupported)
		}
	default:
		if ws.Exists(it.Path) && !ws.IsDir(it.Path) {
			if err := ws.Remove(it.Path); err != nil {
				return err
			}
		}
	}

	if it.Parent != nil {
		it.Parent.unlink(it)
	}
	db.itemsDeleted.Add(1)
	db.emitRemoved(it)
	it.dispose()
	return nil
}

// OnDirectoryEvent is the watcher entry point. It never touches the
// tree: only Created and Deleted changes enqueue the affected mount for
// the next drain, and nothing is enqueued while the initial load is
// still in flight. Safe to call from any goroutine.
func (db *Database) OnDirectoryEvent(node *MountNode, change Change) {
	if node == nil || db.loading.Load() {
		return
	}
	if change.Type != ChangeCreated && change.Type != ChangeDeleted {
		return
	}
	if db.queue.enqueue(node) {
		db.logger.Debug("content: mount flagged dirty",
			slog.String("mount", node.Kind.String()),
			slog.String("change", change.Type.String()),
			slog.String("path", change.Path))
	}
}

// PendingRefreshes returns the number of mounts awaiting a drain.
func (db *Database) PendingRefreshes() int {
	return db.queue.size()
}

// Drain pops every pending dirty node and re-synchronizes its subtree,
// firing workspace-modified after each successful refresh. A failed node
// is logged and left for the next external event rather than retried in
// a loop. Runs on the owning goroutine.
func (db *Database) Drain() error {
	var errs []error
	for _, node := range db.queue.drain() {
		if err := db.syncFolder(node.Folder, true); err != nil {
			db.logger.Warn("content: mount refresh failed",
				slog.String("mount", node.Kind.String()),
				slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		db.emitWorkspaceModified()
	}
	return errors.Join(errs...)
}

// Run owns the database on the calling goroutine: it drains the dirty
// queue every drainEvery and services Do calls until ctx is cancelled.
func (db *Database) Run(ctx context.Context, drainEvery time.Duration) error {
	defer close(db.stopped)
	ticker := time.NewTicker(drainEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			db.Close()
			return nil
		case <-ticker.C:
			// Drain already logged per-node failures.
			_ = db.Drain()
		case call := <-db.calls:
			call()
		}
	}
}

// Do executes fn on the owning goroutine and waits for it to finish.
// This is the only safe way for other goroutines to query the tree.
func (db *Database) Do(fn func()) error {
	done := make(chan struct{})
	select {
	case db.calls <- func() { fn(); close(done) }:
	case <-db.stopped:
		return apperr.ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-db.stopped:
		return apperr.ErrClosed
	}
}
