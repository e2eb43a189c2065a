package content

import (
	"fmt"
	"log/slog"
	"strings"
)

// syncFolder brings a folder's children into agreement with the
// directory it represents. Three passes: drop tracked items whose paths
// vanished, commit recognized new files, then descend into
// subdirectories. New subtrees are always loaded fully; existing ones
// only when recurseIntoExisting is set. During the initial fast load the
// missing-entry pass and the tracked-presence checks are skipped (the
// tree is built from empty) and no events fire.
//
// An I/O failure aborts the remainder of this folder and propagates;
// whatever was already linked stays linked, so the tree remains
// structurally valid on partial progress.
func (db *Database) syncFolder(folder *Item, recurseIntoExisting bool) error {
	mount := folder.Mount()
	ws := mount.Workspace()
	fastLoad := db.loading.Load()

	// Pass 1: drop tracked entries that no longer exist on disk. A path
	// whose kind flipped (file became directory or vice versa) counts as
	// missing, so it surfaces as delete-then-create in this same pass
	// ordering. Deletion shrinks the collection in place, hence the
	// manual index.
	if !fastLoad {
		for i := 0; i < len(folder.Children); {
			child := folder.Children[i]
			present := child.IsFolder() == ws.IsDir(child.Path) && ws.Exists(child.Path)
			if present {
				i++
				continue
			}
			if err := db.Delete(child); err != nil {
				return fmt.Errorf("content: drop missing %s: %w", child.Path, err)
			}
		}
	}

	var files []string
	if mount.CanHaveAssets || mount.CanHaveScripts {
		var err error
		files, err = ws.ListFiles(folder.Path)
		if err != nil {
			return err
		}
	}

	sortNeeded := false

	// Pass 2a: commit new asset files. A resolver miss or an unclaimed
	// container type is not an error; the file is simply not content.
	if mount.CanHaveAssets {
		for _, path := range files {
			if !fastLoad && folder.childByPath(path) != nil {
				continue
			}
			typeID, id, ok := db.resolver.Resolve(path)
			if !ok {
				continue
			}
			proxy := db.registry.ResolveAsset(typeID, path)
			if proxy == nil {
				continue
			}
			item, err := proxy.ConstructItem(path, typeID, id)
			if err != nil {
				db.logger.Debug("content: proxy construct failed",
					slog.String("path", path),
					slog.String("proxy", proxy.Name()),
					slog.String("error", err.Error()))
				continue
			}
			db.commit(folder, item)
			sortNeeded = true
		}
	}

	// Pass 2b: commit new script files. Scripts are a fixed built-in
	// kind with no proxy indirection. The tracked check stays on during
	// fast load when the mount also holds assets, so a file committed in
	// pass 2a is not committed twice.
	if mount.CanHaveScripts {
		for _, path := range files {
			if !strings.HasSuffix(path, db.scriptExt) {
				continue
			}
			if (!fastLoad || mount.CanHaveAssets) && folder.childByPath(path) != nil {
				continue
			}
			db.commit(folder, newScriptItem(path))
			sortNeeded = true
		}
	}

	// Pass 3: subdirectories.
	dirs, err := ws.ListDirs(folder.Path)
	if err != nil {
		return err
	}
	for _, path := range dirs {
		existing := folder.folderChildByPath(path)
		if existing == nil {
			sub := newFolderItem(path)
			db.commit(folder, sub)
			sortNeeded = true
			// New subtrees are always loaded fully.
			if err := db.syncFolder(sub, true); err != nil {
				return err
			}
			continue
		}
		if recurseIntoExisting {
			if err := db.syncFolder(existing, recurseIntoExisting); err != nil {
				return err
			}
		}
	}
	if sortNeeded {
		folder.sortChildren()
	}
	return nil
}

// commit links a freshly constructed item to its parent folder, bumps
// the created counter, and fires item-added.
func (db *Database) commit(folder, item *Item) {
	folder.link(item)
	db.itemsCreated.Add(1)
	db.emitAdded(item)
}
