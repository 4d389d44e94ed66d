package ast

import (
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// Expression is the base interface every AST node kind implements. Unlike
// the Visitor-dispatched Node of the engine this package is modeled on
// (used there for its static analyzer/LSP, both out of scope here), nodes
// here carry their own Evaluate method directly — the interpreter driver
// in package interp wraps calls to it rather than dispatching through a
// switch.
type Expression interface {
	// Info returns the node's source location for diagnostics.
	Info() Info

	// doEvaluate is the variant-specific evaluation logic. It is
	// unexported and always reached through the EvaluateCore adaptor below,
	// which pushes/pops frame depth around it; interp.Evaluate adds the
	// error/breakpoint contract on top (spec §4.3). Nodes evaluate their
	// children, and Fallback its wrapped node, through EvaluateCore.
	doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error)
}

// EvaluateCore invokes e's variant-specific logic with no error/breakpoint
// wrapping (that's interp.Evaluate's job), but it DOES push/pop frame's
// stack depth around the call: every node reaches its children through this
// function (doEvaluate's own recursive EvaluateCore calls, not a second
// call to interp.Evaluate), so this is the one chokepoint that sees every
// node visited against a given frame, however deep the tree. Per spec
// §4.3/§8 property 2, the depth check must bound tree nesting itself (a
// single long chain of nested expressions, not just VM-mediated function
// call boundaries) — so depth is pushed/popped here, not once per
// interp.Evaluate call.
func EvaluateCore(e Expression, frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if !frame.IncreaseStackDepth() {
		loc := scripterr.Location{File: e.Info().File, Line: e.Info().StartLine, Col: e.Info().StartCol}
		return Result{}, scripterr.Wrap(scripterr.ErrRecursionTooDeep, "recursion too deep", loc)
	}
	defer frame.DecreaseStackDepth()
	return e.doEvaluate(frame, hint)
}

// LValue is implemented by nodes that can be addressed for assignment:
// Variable, Indexer, and (through BindToScope) the Indexer it rewrites bare
// names into.
type LValue interface {
	Expression
	// GetReference resolves (parent, index) following the same precedence
	// Variable's read path uses. When initDict is true and the addressed
	// slot is absent or holds Empty, non-sandboxed implementations may
	// create an empty Dictionary there (Indexer's documented behaviour).
	GetReference(frame *scriptframe.Frame, hint *Hint, initDict bool) (Reference, error)
}

// Reference is an L-value's resolved (container, index) pair.
type Reference struct {
	Parent ContainerValue
	Index  string
}

// ContainerValue is the minimal capability Set/Indexer need from whatever
// an L-value resolves its parent container to: the language's own
// Dictionary (the only concrete implementation today; VMOps-resolved
// domain containers would implement the same shape).
type ContainerValue interface {
	Has(key string) bool
	Get(key string) (scriptvalue.Value, bool)
	Set(key string, v scriptvalue.Value)
}

// Routine is a JIT-compiled node's executable form: a closure that
// performs the same work do_evaluate would, without re-walking the tree.
// This is the Go-idiomatic rendering of "emit native code into an
// assembler builder" the spec calls for — a closure-compilation JIT
// (compiling a tree into a tree of pre-resolved closures) instead of
// literal machine code, the standard technique Go interpreters use when
// they want to skip the tree-walk dispatch overhead without touching
// unsafe/assembly. See internal/jit for the orchestration layer and
// DESIGN.md for the rationale.
type Routine func(frame *scriptframe.Frame, hint *Hint) (Result, error)

// Dtor releases whatever scratch state a Routine's construction captured
// (interpreter-fallback sub-nodes, allocated scratch strings). Every
// Routine returned by a successful JitCompile has a matching Dtor; Compile
// in package jit sequences them so the invariant "every allocation has a
// paired free" holds structurally.
type Dtor func()

// JitCompilable is implemented by node kinds the JIT backend knows how to
// lower. JitCompile returns ok=false to mean "interpret me" — the caller
// (another node's JitCompile, or package jit at the root) then falls back
// to wrapping EvaluateCore as the Routine and captures `self` for deferred
// cleanup in the Dtor chain. A node that returns ok=true has folded every
// child's lowering (recursively) into the returned Routine/Dtor pair.
type JitCompilable interface {
	Expression
	JitCompile() (Routine, Dtor, bool)
}

// Fallback builds the (Routine, Dtor) pair for a node that cannot
// lower itself: the Routine calls EvaluateCore, and the Dtor is a no-op
// marker (Go's GC reclaims the node; the Dtor still runs, in sequence,
// so destruction order stays structurally correct for nodes that *do* own
// scratch resources alongside this one in the same parent).
func Fallback(e Expression) (Routine, Dtor) {
	return func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
			return EvaluateCore(e, frame, hint)
		}, func() {
			// No native scratch state to free for an interpreted node;
			// present for uniformity with the spec's emission contract.
		}
}

// TryJitCompile attempts to lower child, falling back to interpretation
// when child doesn't implement JitCompilable or declines to lower itself.
// This is EmitExpression from the spec's emission-helper list.
func TryJitCompile(child Expression) (Routine, Dtor) {
	if jc, ok := child.(JitCompilable); ok {
		if routine, dtor, ok := jc.JitCompile(); ok {
			return routine, dtor
		}
	}
	return Fallback(child)
}
