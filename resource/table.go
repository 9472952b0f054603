package resource

import (
	"sync"

	"go.uber.org/multierr"
)

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the process-wide table used by streams that were not
// given a table of their own.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable()
	})
	return defaultTable
}

// Table records live resources with type information and observer support.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle. It returns 0 once the table is closed.
func (t *Table) Insert(typeID TypeID, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return handle
}

// Remove takes a resource out of the table without running its destructor
// and returns (value, true) if found. Used for ownership transfer.
func (t *Table) Remove(handle Handle) (any, bool) {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Delete(handle)
	if !ok {
		return nil, false
	}

	t.notify(Event{
		Type:   EventRemoved,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return value, true
}

// Drop removes a resource and runs its destructor, returning the
// destructor's error. Unknown handles yield ErrInvalidHandle.
func (t *Table) Drop(handle Handle) error {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Delete(handle)
	if !ok {
		return ErrInvalidHandle
	}

	var err error
	if d, ok := value.(Dropper); ok {
		err = d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
		Err:    err,
	})

	return err
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of active resources.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Each iterates over all active resources.
func (t *Table) Each(fn func(Handle, TypeID, any) bool) {
	t.backend.Each(fn)
}

// Clear drops all resources, combining destructor errors.
func (t *Table) Clear() error {
	// Collect handles first to avoid holding lock during Drop
	var handles []Handle
	t.backend.Each(func(h Handle, _ TypeID, _ any) bool {
		handles = append(handles, h)
		return true
	})
	var err error
	for _, h := range handles {
		if dropErr := t.Drop(h); dropErr != ErrInvalidHandle {
			err = multierr.Append(err, dropErr)
		}
	}
	return err
}

// Close drops all resources and stops accepting new ones.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	err := t.Clear()
	return multierr.Append(err, t.backend.Close())
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
