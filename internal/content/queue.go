package content

import "sync"

// ChangeType classifies a raw filesystem notification.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeDeleted
	ChangeModified
	ChangeRenamed
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeDeleted:
		return "deleted"
	case ChangeModified:
		return "modified"
	default:
		return "renamed"
	}
}

// Change is the raw descriptor delivered by the filesystem-watch
// collaborator.
type Change struct {
	Type ChangeType
	Path string
}

// dirtyQueue buffers mount roots awaiting re-synchronization. The
// watcher goroutine enqueues, the owning goroutine drains; entries are
// deduplicated by node identity so a root pends at most once per cycle.
type dirtyQueue struct {
	mu      sync.Mutex
	pending []*MountNode
	member  map[*MountNode]struct{}
}

func newDirtyQueue() *dirtyQueue {
	return &dirtyQueue{member: make(map[*MountNode]struct{})}
}

// enqueue adds node unless it is already pending. Reports whether the
// node was added.
func (q *dirtyQueue) enqueue(node *MountNode) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.member[node]; ok {
		return false
	}
	q.member[node] = struct{}{}
	q.pending = append(q.pending, node)
	return true
}

// drain pops every pending node in enqueue order.
func (q *dirtyQueue) drain() []*MountNode {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	q.member = make(map[*MountNode]struct{})
	return out
}

// size returns the number of pending nodes.
func (q *dirtyQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
