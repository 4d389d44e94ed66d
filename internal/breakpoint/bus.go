// Package breakpoint implements the reentrancy-guarded breakpoint
// broadcast fired on every caught ScriptError and on explicit Breakpoint
// nodes. Grounded on the engine this module is modeled on's
// debugger.go/debugger_cli.go pair: a local, synchronous broadcast core
// (this file) plus pluggable sinks for CLI and remote delivery.
package breakpoint

import (
	"sync"

	"github.com/opsmonitor/scriptengine/internal/metrics"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/petermattis/goid"
)

// Subscriber receives breakpoint broadcasts. Implementations must not
// block the caller for long and must never panic.
type Subscriber interface {
	OnBreakpoint(frame *scriptframe.Frame, err *scripterr.ScriptError, loc scripterr.Location)
}

// SubscriberFunc adapts a function to a Subscriber.
type SubscriberFunc func(frame *scriptframe.Frame, err *scripterr.ScriptError, loc scripterr.Location)

func (f SubscriberFunc) OnBreakpoint(frame *scriptframe.Frame, err *scripterr.ScriptError, loc scripterr.Location) {
	f(frame, err, loc)
}

var (
	mu          sync.RWMutex
	subscribers []Subscriber

	reentryMu sync.Mutex
	inHandler = map[int64]bool{}
)

// Subscribe registers s to receive future broadcasts. Returns an
// unsubscribe function.
func Subscribe(s Subscriber) (unsubscribe func()) {
	mu.Lock()
	defer mu.Unlock()
	subscribers = append(subscribers, s)
	idx := len(subscribers) - 1
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if idx < len(subscribers) && subscribers[idx] == s {
			subscribers[idx] = nil
		}
	}
}

// Fire broadcasts to every live subscriber, guarded against re-entrant
// firing on the same goroutine (a subscriber that itself triggers
// evaluation — e.g. a remote debugger command — must not recurse back into
// Fire). Suppressed re-entrant calls do not fail; they are silently
// dropped, matching the spec's "suppress re-entry without failing".
func Fire(frame *scriptframe.Frame, err *scripterr.ScriptError, loc scripterr.Location) {
	gid := goid.Get()

	reentryMu.Lock()
	if inHandler[gid] {
		reentryMu.Unlock()
		return
	}
	inHandler[gid] = true
	reentryMu.Unlock()

	defer func() {
		reentryMu.Lock()
		delete(inHandler, gid)
		reentryMu.Unlock()
	}()

	metrics.ObserveBreakpointFire()

	mu.RLock()
	snapshot := make([]Subscriber, len(subscribers))
	copy(snapshot, subscribers)
	mu.RUnlock()

	for _, s := range snapshot {
		if s == nil {
			continue
		}
		s.OnBreakpoint(frame, err, loc)
	}
}
