package ast

import "github.com/opsmonitor/scriptengine/internal/scriptvalue"

// Function is the heap object a Function expression node constructs: a
// closure over a parameter list, a captured-variable snapshot evaluated at
// construction time, and a body Expression. Function has no call method of
// its own: VMOps.FunctionCall invokes it, binding Args against the call's
// actual arguments in a child frame seeded with ClosedVars before
// evaluating Body.
type Function struct {
	Args          []string
	ClosedVars    map[string]scriptvalue.Value
	Body          Expression
	SideEffectFree bool
}

func (f *Function) ObjectType() string { return "Function" }
func (f *Function) Inspect() string    { return "<function>" }
