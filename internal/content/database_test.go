package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/starford/forge/internal/apperr"
)

func TestFindByID(t *testing.T) {
	env := newTestEnv(t)
	id := writeAsset(t, filepath.Join(env.contentDir, "hero.tex"), TypeTexture)
	env.load(t)

	it := env.db.FindByID(id)
	if it == nil {
		t.Fatal("asset not reachable by id")
	}
	if it.Path != filepath.Join(env.contentDir, "hero.tex") {
		t.Errorf("path = %s", it.Path)
	}
	if env.db.FindByID(uuid.New()) != nil {
		t.Error("unknown id returned an item")
	}
	if env.db.FindByID(uuid.Nil) != nil {
		t.Error("nil id returned an item")
	}
}

func TestFindScript(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, filepath.Join(env.sourceDir, "Gameplay", "Player.lua"), "-- player")
	env.load(t)

	it := env.db.FindScript("Player")
	if it == nil {
		t.Fatal("script not found by name")
	}
	if it.Kind != KindScript {
		t.Errorf("kind = %s", it.Kind)
	}
	if env.db.FindScript("Enemy") != nil {
		t.Error("unknown script name returned an item")
	}
	if env.db.FindScriptByTypeName("Game.Player") == nil {
		t.Error("qualified type name did not resolve")
	}
}

func TestScriptName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Game.Player", "Player"},
		{"Game.AI.Enemy", "Enemy"},
		{"Player", "Player"},
		{"", ""},
	}
	for _, c := range cases {
		if got := ScriptName(c.in); got != c.want {
			t.Errorf("ScriptName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLookupDuringLoadPanics(t *testing.T) {
	env := newTestEnv(t)
	// Load intentionally not called: the tree is not query-consistent.
	defer func() {
		if recover() == nil {
			t.Error("expected panic for lookup during initial load")
		}
	}()
	env.db.FindByPath(env.contentDir)
}

func TestDeleteNilPanics(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil item")
		}
	}()
	_ = env.db.Delete(nil)
}

func TestDeleteFolderCascades(t *testing.T) {
	env := newTestEnv(t)
	sub := filepath.Join(env.contentDir, "Level1")
	writeAsset(t, filepath.Join(sub, "ground.tex"), TypeTexture)
	writeAsset(t, filepath.Join(sub, "Deep", "rock.mdl"), TypeModel)
	env.load(t)
	env.resetEvents()

	folder := env.db.FindByPath(sub)
	if folder == nil {
		t.Fatal("folder not indexed")
	}

	// Asset files must be gone before folder deletion is permitted;
	// content-pool deletion is not integrated.
	if err := os.RemoveAll(sub); err != nil {
		t.Fatal(err)
	}
	if err := env.db.Delete(folder); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// ground.tex, Deep, rock.mdl, Level1 itself.
	if len(env.removed) != 4 {
		t.Fatalf("removed = %v, want 4 events", env.removed)
	}
	// Children before parent.
	if env.removed[len(env.removed)-1] != sub {
		t.Errorf("last removed = %s, want parent folder %s", env.removed[len(env.removed)-1], sub)
	}
	for _, p := range env.removed[:len(env.removed)-1] {
		if p == sub {
			t.Error("parent folder removed before a child")
		}
	}
	if got := env.db.ItemsDeleted(); got != 4 {
		t.Errorf("ItemsDeleted = %d, want 4", got)
	}
	if env.db.FindByPath(sub) != nil {
		t.Error("deleted folder still reachable")
	}
}

func TestDeleteFolderRemovesDirectoryFromDisk(t *testing.T) {
	env := newTestEnv(t)
	sub := filepath.Join(env.sourceDir, "Old")
	writeFile(t, filepath.Join(sub, "Legacy.lua"), "-- legacy")
	env.load(t)

	folder := env.db.FindByPath(sub)
	if folder == nil {
		t.Fatal("folder not indexed")
	}
	if err := env.db.Delete(folder); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Error("backing directory still on disk")
	}
}

func TestDeleteAssetStillOnDiskFailsLoudly(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.contentDir, "keep.tex")
	writeAsset(t, path, TypeTexture)
	env.load(t)
	env.resetEvents()

	it := env.db.FindByPath(path)
	err := env.db.Delete(it)
	if !errors.Is(err, apperr.ErrAssetDeleteUnsupported) {
		t.Fatalf("err = %v, want ErrAssetDeleteUnsupported", err)
	}
	// Nothing was unlinked or counted.
	if env.db.FindByPath(path) == nil {
		t.Error("asset unlinked despite refused deletion")
	}
	if env.db.ItemsDeleted() != 0 {
		t.Errorf("ItemsDeleted = %d, want 0", env.db.ItemsDeleted())
	}
	if len(env.removed) != 0 {
		t.Errorf("removed events = %v, want none", env.removed)
	}
}

func TestDeleteScriptRemovesFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.sourceDir, "Temp.lua")
	writeFile(t, path, "-- temp")
	env.load(t)
	env.resetEvents()

	if err := env.db.Delete(env.db.FindByPath(path)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("script file still on disk")
	}
	if len(env.removed) != 1 {
		t.Errorf("removed = %v, want one event", env.removed)
	}
}

func TestCloseSuppressesEvents(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.sourceDir, "Late.lua")
	writeFile(t, path, "-- late")
	env.load(t)
	env.resetEvents()

	env.db.Close()
	if err := env.db.Delete(env.db.FindByPath(path)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(env.removed) != 0 {
		t.Errorf("removed events after teardown = %v, want none", env.removed)
	}
	// The counter still tracks the deletion.
	if env.db.ItemsDeleted() != 1 {
		t.Errorf("ItemsDeleted = %d, want 1", env.db.ItemsDeleted())
	}
}
