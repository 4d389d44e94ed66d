// Package imports implements the script-wide import chain: an append-only
// sequence of mapping objects consulted (in order) when resolving a free
// name after locals/self and before ScriptGlobal. Replacement is
// copy-on-write so concurrent readers never observe a torn update (the
// spec's "a fresh snapshot... readers observe a consistent snapshot
// without locking").
package imports

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// Snapshot is one immutable generation of the import chain. ID tags the
// generation for breakpoint/debugger correlation across threads (the
// spec's ambient "uuid... tags each... import-snapshot generation").
type Snapshot struct {
	ID   uuid.UUID
	Dicts []*scriptvalue.Dictionary
}

var current atomic.Pointer[Snapshot]

func init() {
	current.Store(&Snapshot{ID: uuid.New()})
}

// Current returns the live snapshot. Safe to call from any goroutine
// without locking; the returned slice must be treated as immutable.
func Current() *Snapshot {
	return current.Load()
}

// Add installs a new snapshot containing the previous chain plus d
// appended, via clone-and-append-then-publish. A reader that took a
// Snapshot before Add returns keeps observing the old slice: slices are
// never mutated in place, only replaced wholesale.
func Add(d *scriptvalue.Dictionary) {
	for {
		old := current.Load()
		next := &Snapshot{
			ID:    uuid.New(),
			Dicts: append(append([]*scriptvalue.Dictionary(nil), old.Dicts...), d),
		}
		if current.CompareAndSwap(old, next) {
			return
		}
	}
}

// Resolve searches the chain in order for name, returning the first hit.
func (s *Snapshot) Resolve(name string) (scriptvalue.Value, bool) {
	for _, d := range s.Dicts {
		if v, ok := d.Get(name); ok {
			return v, true
		}
	}
	return scriptvalue.Empty, false
}

// Len returns the number of dictionaries in the chain.
func (s *Snapshot) Len() int { return len(s.Dicts) }

// Reset restores the import chain to empty. Exposed for tests only; the
// running engine never calls this.
func Reset() {
	current.Store(&Snapshot{ID: uuid.New()})
}
