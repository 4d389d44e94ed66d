// Package scriptframe implements the per-evaluation activation record
// (ScriptFrame) and its thread-local stack. Construction pushes the frame
// onto the current goroutine's stack; Pop removes it, and an assertion
// enforces that pops happen in LIFO order — the same scope-bound
// constructor/destructor discipline the engine this package is modeled on
// uses (boost::thread_specific_ptr<std::stack<ScriptFrame*>> in the
// original C++, a mutex-guarded map keyed by goroutine id here).
package scriptframe

import (
	"fmt"
	"sync"

	"github.com/opsmonitor/scriptengine/internal/imports"
	"github.com/opsmonitor/scriptengine/internal/scriptglobal"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
	"github.com/petermattis/goid"
)

// Imports returns the current import-chain snapshot, re-exported here so
// callers that already depend on scriptframe for frame management don't
// need a second import, matching the spec's external-interface grouping
// "ScriptFrame::{imports, add_import, current_frame}".
func Imports() *imports.Snapshot { return imports.Current() }

// AddImport installs a new import-chain generation.
func AddImport(d *scriptvalue.Dictionary) { imports.Add(d) }

// MaxDepth bounds recursive evaluation to guard the Go call stack.
const MaxDepth = 300

// Frame is one activation of Expression evaluation.
type Frame struct {
	self      scriptvalue.Value
	locals    *scriptvalue.Dictionary
	sandboxed bool
	depth     int

	goroutine int64
}

type stackEntry struct {
	frames []*Frame
}

var (
	stacksMu sync.Mutex
	stacks   = map[int64]*stackEntry{}
)

func currentStack() *stackEntry {
	gid := goid.Get()
	stacksMu.Lock()
	defer stacksMu.Unlock()
	s, ok := stacks[gid]
	if !ok {
		s = &stackEntry{}
		stacks[gid] = s
	}
	return s
}

func dropStackIfEmpty(gid int64) {
	stacksMu.Lock()
	defer stacksMu.Unlock()
	if s, ok := stacks[gid]; ok && len(s.frames) == 0 {
		delete(stacks, gid)
	}
}

// New pushes and returns a new root Frame whose self defaults to the
// process-wide ScriptGlobal table, per the spec: "Constructing a frame
// with no explicit self defaults to the globals dictionary".
func New() *Frame {
	return push(scriptglobal.Default().AsValue(), nil)
}

// NewWithSelf pushes and returns a new root Frame with the given self.
func NewWithSelf(self scriptvalue.Value) *Frame {
	return push(self, nil)
}

// Push constructs a child Frame inheriting depth and sandbox flag from the
// current top-of-stack frame (zero depth and not sandboxed if the stack is
// empty), for the given self.
func Push(self scriptvalue.Value) *Frame {
	return push(self, Current())
}

func push(self scriptvalue.Value, parent *Frame) *Frame {
	f := &Frame{self: self, goroutine: goid.Get()}
	if parent != nil {
		f.depth = parent.depth
		f.sandboxed = parent.sandboxed
	}
	s := currentStack()
	s.frames = append(s.frames, f)
	return f
}

// Pop removes f from the current goroutine's stack. It panics if f is not
// the current top of stack — the assertion the spec requires ("an
// assertion enforces the matching pop").
func (f *Frame) Pop() {
	s := currentStack()
	n := len(s.frames)
	if n == 0 || s.frames[n-1] != f {
		panic(fmt.Sprintf("scriptframe: Pop called on frame %p which is not the current top of stack", f))
	}
	s.frames = s.frames[:n-1]
	dropStackIfEmpty(f.goroutine)
}

// Current returns the top of the calling goroutine's frame stack, or nil if
// empty.
func Current() *Frame {
	s := currentStack()
	n := len(s.frames)
	if n == 0 {
		return nil
	}
	return s.frames[n-1]
}

func (f *Frame) Self() scriptvalue.Value     { return f.self }
func (f *Frame) SetSelf(v scriptvalue.Value) { f.self = v }

func (f *Frame) Sandboxed() bool      { return f.sandboxed }
func (f *Frame) SetSandboxed(b bool)  { f.sandboxed = b }

func (f *Frame) Depth() int { return f.depth }

// HasLocals reports whether the locals dictionary has been materialised.
func (f *Frame) HasLocals() bool { return f.locals != nil }

// Locals lazily constructs and returns the locals dictionary on first read,
// per the spec's "GetLocals lazily constructs the locals dictionary on
// first read".
func (f *Frame) Locals() *scriptvalue.Dictionary {
	if f.locals == nil {
		f.locals = scriptvalue.NewDictionary()
	}
	return f.locals
}

func (f *Frame) SetLocals(d *scriptvalue.Dictionary) { f.locals = d }

// IncreaseStackDepth fails with a depth-exceeded signal when the resulting
// depth would exceed MaxDepth; callers translate that into
// scripterr.ErrRecursionTooDeep. The matching DecreaseStackDepth must be
// called on every exit path.
func (f *Frame) IncreaseStackDepth() bool {
	if f.depth+1 > MaxDepth {
		return false
	}
	f.depth++
	return true
}

func (f *Frame) DecreaseStackDepth() {
	if f.depth > 0 {
		f.depth--
	}
}
