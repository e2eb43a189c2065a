package content

// ItemHandler observes a single item change.
type ItemHandler func(it *Item)

// Handler observes a parameterless notification.
type Handler func()

// Dispatcher is the observer list for database events. Subscription and
// firing both happen on the owning goroutine; within one drain cycle an
// item-removed for a path always fires before an item-added reusing it.
type Dispatcher struct {
	added    []ItemHandler
	removed  []ItemHandler
	modified []Handler
}

// SubscribeItemAdded registers an observer for committed items.
func (d *Dispatcher) SubscribeItemAdded(fn ItemHandler) {
	d.added = append(d.added, fn)
}

// SubscribeItemRemoved registers an observer for removed items.
func (d *Dispatcher) SubscribeItemRemoved(fn ItemHandler) {
	d.removed = append(d.removed, fn)
}

// SubscribeWorkspaceModified registers an observer fired after each
// successful dirty-node refresh.
func (d *Dispatcher) SubscribeWorkspaceModified(fn Handler) {
	d.modified = append(d.modified, fn)
}

func (d *Dispatcher) fireItemAdded(it *Item) {
	for _, fn := range d.added {
		fn(it)
	}
}

func (d *Dispatcher) fireItemRemoved(it *Item) {
	for _, fn := range d.removed {
		fn(it)
	}
}

func (d *Dispatcher) fireWorkspaceModified() {
	for _, fn := range d.modified {
		fn()
	}
}
