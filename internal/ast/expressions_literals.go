package ast

import (
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// Literal returns its stored value unchanged.
type Literal struct {
	Location Info
	Value    scriptvalue.Value
}

func (n *Literal) Info() Info { return n.Location }

func (n *Literal) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	return OkResult(n.Value), nil
}

// JitCompile lowers to a closure embedding the already-constructed
// scriptvalue.Value, matching the spec's EmitNewValue helper (numbers/
// booleans/strings are embedded as constants; there is no separate scratch
// allocation to free since scriptvalue.Value copies are always owned by
// their caller under Go's GC).
func (n *Literal) JitCompile() (Routine, Dtor, bool) {
	v := n.Value
	return func(*scriptframe.Frame, *Hint) (Result, error) {
		return OkResult(v), nil
	}, func() {}, true
}
