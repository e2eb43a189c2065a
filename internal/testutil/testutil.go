// Package testutil provides shared test helpers for assembling workspaces
// and content databases.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/forge/internal/content"
	"github.com/starford/forge/internal/resolver"
	"github.com/starford/forge/internal/workspace"
)

// Logger returns a quiet slog logger for tests.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Resolver creates a resolver service backed by a temporary cache that
// is cleaned up with the test.
func Resolver(t *testing.T) *resolver.Service {
	t.Helper()
	f, err := os.CreateTemp("", "forge-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	res, err := resolver.New(f.Name(), Logger())
	if err != nil {
		t.Fatalf("resolver.New: %v", err)
	}
	t.Cleanup(func() { res.Close() })
	return res
}

// WriteAsset authors a minimal asset container at path and returns its
// unique id.
func WriteAsset(t *testing.T, path string, typeID uint32) uuid.UUID {
	t.Helper()
	id := uuid.New()
	data := append(resolver.Header(typeID, id), []byte("payload")...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return id
}

// Database assembles a loaded two-mount database (content with assets,
// source with .lua scripts) over temporary directories. The returned
// paths are the content and source mount roots.
func Database(t *testing.T) (db *content.Database, contentDir, sourceDir string) {
	t.Helper()
	contentDir = t.TempDir()
	sourceDir = t.TempDir()

	wsContent, err := workspace.New(contentDir)
	if err != nil {
		t.Fatal(err)
	}
	wsSource, err := workspace.New(sourceDir)
	if err != nil {
		t.Fatal(err)
	}

	db = content.New(
		Logger(),
		content.DefaultRegistry(true),
		Resolver(t),
		".lua",
		content.NewMount(content.MountProjectContent, wsContent, true, false),
		content.NewMount(content.MountProjectSource, wsSource, false, true),
	)
	if err := db.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return db, contentDir, sourceDir
}

// StartLoop runs the database's owning loop for the duration of the
// test so Do-marshalled queries are serviced.
func StartLoop(t *testing.T, db *content.Database) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go db.Run(ctx, 50*time.Millisecond)
}
