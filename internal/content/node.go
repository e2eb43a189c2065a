package content

import "github.com/starford/forge/internal/workspace"

// TreeNode is the presentation-layer node paired one-to-one with a
// folder item. It is created alongside its folder and disposed with it.
type TreeNode struct {
	Folder   *Item
	Expanded bool
}

func newTreeNode(folder *Item) *TreeNode {
	return &TreeNode{Folder: folder}
}

func (n *TreeNode) dispose() {
	n.Folder = nil
}

// MountKind names one of the four fixed mount roots. The declaration
// order is the lookup priority order.
type MountKind int

const (
	MountProjectContent MountKind = iota
	MountProjectSource
	MountEnginePrivate
	MountEditorPrivate
)

func (k MountKind) String() string {
	switch k {
	case MountProjectContent:
		return "project-content"
	case MountProjectSource:
		return "project-source"
	case MountEnginePrivate:
		return "engine-private"
	default:
		return "editor-private"
	}
}

// MountNode is the tree node for a mount root. Beyond the plain TreeNode
// pairing it declares what the subtree may contain and owns the
// filesystem access (and watcher subscription) for it.
type MountNode struct {
	TreeNode
	Kind           MountKind
	CanHaveAssets  bool
	CanHaveScripts bool

	ws *workspace.Dir
}

// NewMount builds the root folder item and its mount node for one
// tracked directory.
func NewMount(kind MountKind, ws *workspace.Dir, assets, scripts bool) *MountNode {
	folder := newFolderItem(ws.Root())
	m := &MountNode{
		TreeNode:       TreeNode{Folder: folder},
		Kind:           kind,
		CanHaveAssets:  assets,
		CanHaveScripts: scripts,
		ws:             ws,
	}
	folder.node = &m.TreeNode
	folder.mount = m
	return m
}

// Workspace returns the root-jailed filesystem access for the subtree.
func (m *MountNode) Workspace() *workspace.Dir {
	return m.ws
}
