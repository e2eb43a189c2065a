// Package content implements the in-memory hierarchical content database:
// the item tree mirroring the workspace directories, the proxy registry,
// the folder synchronizer, and the deferred watcher-event queue.
package content

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Kind classifies an indexed filesystem entry.
type Kind int

const (
	KindFolder Kind = iota
	KindAsset
	KindScript
	KindOtherFile
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindAsset:
		return "asset"
	case KindScript:
		return "script"
	default:
		return "file"
	}
}

// Item is one filesystem entry committed to the database. Folders own
// their direct children in order; every non-root item holds exactly one
// parent back reference, and its path stays consistent with the parent
// chain. An item exists in memory iff its path exists on disk, enforced
// by the synchronizer rather than eagerly.
type Item struct {
	Path     string    // absolute; changes only through rename/move
	ID       uuid.UUID // stable asset identity; uuid.Nil for non-assets
	Kind     Kind
	TypeID   uint32 // asset container type; zero for non-assets
	TypeName string // proxy display name; empty for non-assets

	Parent   *Item   // owning folder, nil for mount roots
	Children []*Item // direct children, folders only

	node     *TreeNode  // presentation pairing, folders only
	mount    *MountNode // set on mount root items only
	disposed bool
}

func newFolderItem(path string) *Item {
	it := &Item{Path: path, Kind: KindFolder}
	it.node = newTreeNode(it)
	return it
}

func newScriptItem(path string) *Item {
	return &Item{Path: path, Kind: KindScript}
}

// NewAssetItem builds an asset item; proxies call this from ConstructItem.
func NewAssetItem(path string, typeID uint32, typeName string, id uuid.UUID) *Item {
	return &Item{Path: path, ID: id, Kind: KindAsset, TypeID: typeID, TypeName: typeName}
}

// IsFolder reports whether the item is a folder.
func (it *Item) IsFolder() bool {
	return it.Kind == KindFolder
}

// Name returns the last path element.
func (it *Item) Name() string {
	return filepath.Base(it.Path)
}

// Node returns the presentation node paired with a folder item, nil for
// leaf items.
func (it *Item) Node() *TreeNode {
	return it.node
}

// Mount returns the mount root node owning the item's subtree.
func (it *Item) Mount() *MountNode {
	root := it
	for root.Parent != nil {
		root = root.Parent
	}
	return root.mount
}

// childByPath returns the direct child with the given path, nil if none.
func (it *Item) childByPath(path string) *Item {
	for _, c := range it.Children {
		if c.Path == path {
			return c
		}
	}
	return nil
}

// folderChildByPath returns the direct folder child with the given path.
func (it *Item) folderChildByPath(path string) *Item {
	for _, c := range it.Children {
		if c.IsFolder() && c.Path == path {
			return c
		}
	}
	return nil
}

// link attaches child to folder as its last child.
func (it *Item) link(child *Item) {
	child.Parent = it
	it.Children = append(it.Children, child)
}

// unlink detaches child from its parent. Detaching is index-based so a
// child appearing once is removed exactly once.
func (it *Item) unlink(child *Item) {
	for i, c := range it.Children {
		if c == child {
			it.Children = append(it.Children[:i], it.Children[i+1:]...)
			break
		}
	}
	child.Parent = nil
}

// sortChildren orders children deterministically: folders first, then
// case-insensitive name. Stable, so repeated syncs with no structural
// change keep the order.
func (it *Item) sortChildren() {
	sort.SliceStable(it.Children, func(i, j int) bool {
		a, b := it.Children[i], it.Children[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		return strings.ToLower(a.Name()) < strings.ToLower(b.Name())
	})
}

// dispose releases the item's links and presentation node. The path is
// kept so removal observers can still identify the item.
func (it *Item) dispose() {
	if it.disposed {
		return
	}
	it.disposed = true
	it.Children = nil
	if it.node != nil {
		it.node.dispose()
		it.node = nil
	}
	it.mount = nil
}
