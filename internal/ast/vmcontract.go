package ast

import (
	"context"

	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// VM is the external collaborator contract nodes call into for everything
// that touches monitoring-domain objects or mutable containers outside the
// language's own Value/Dictionary/Array primitives: GetField/SetField/
// FunctionCall/NewObject/NewApply/For plus config-item and extension
// loading. The spec treats every implementation of this interface (the
// monitoring domain types, the config compiler, the plugin loader) as an
// external collaborator specified only by contract; this package ships no
// implementation of VM, only the interface and the structs its methods
// exchange.
//
// Exactly one VM is active per evaluation; nodes reach it through the
// package-level BindVM/CurrentVM functions below rather than as an explicit
// parameter, because Expression.doEvaluate's signature is fixed by the
// public API (spec §6: "Expression::evaluate(frame, dhint) ->
// ExpressionResult") and has no room for a collaborator argument.
type VM interface {
	// Variable resolves a free name: frame.Locals(), then frame.Self()'s
	// own field, then the import chain, then ScriptGlobal.
	Variable(frame *scriptframe.Frame, name string, loc Info) (scriptvalue.Value, error)

	// GetField reads container[index].
	GetField(container, index scriptvalue.Value, sandboxed bool, loc Info) (scriptvalue.Value, error)

	// SetField writes container[index] = value.
	SetField(container, index, value scriptvalue.Value, loc Info) error

	// FunctionCall invokes fn (a Function value) with the given self and
	// evaluated argument vector.
	FunctionCall(frame *scriptframe.Frame, self scriptvalue.Value, fn scriptvalue.Value, args []scriptvalue.Value) (scriptvalue.Value, error)

	// ConstructorCall invokes a Type value as a constructor.
	ConstructorCall(typ scriptvalue.Value, args []scriptvalue.Value, loc Info) (scriptvalue.Value, error)

	// NewFunction builds a Function object closing over args/env/body.
	NewFunction(frame *scriptframe.Frame, args []string, closedVars map[string]scriptvalue.Value, body Expression) (scriptvalue.Value, error)

	// NewObject registers a monitoring config object.
	NewObject(frame *scriptframe.Frame, spec ObjectSpec) error

	// NewApply registers an apply rule.
	NewApply(frame *scriptframe.Frame, spec ApplySpec) error

	// For iterates iterable (Array or Dictionary), binding keyVar/valVar
	// in a child frame and evaluating body once per element.
	For(frame *scriptframe.Frame, keyVar, valVar string, iterable scriptvalue.Value, body Expression) (Result, error)

	// GetConfigItem resolves a previously compiled config item's stored
	// expression by (type, name), for Import.
	GetConfigItem(typ, name string) (Expression, bool)

	// HandleInclude builds the sub-expression an Include node evaluates.
	HandleInclude(ctx context.Context, spec IncludeSpec) (Expression, error)

	// LoadExtensionLibrary loads a native extension library by filename.
	LoadExtensionLibrary(path string) error
}

// ObjectSpec bundles Object's structural parameters.
type ObjectSpec struct {
	Abstract      bool
	Type          string
	Name          scriptvalue.Value
	Filter        Expression
	Zone          string
	Package       string
	IgnoreOnError bool
	ClosedVars    map[string]scriptvalue.Value
	Body          Expression
	Location      Info
}

// ApplySpec bundles Apply's structural parameters.
type ApplySpec struct {
	Type          string
	Target        string
	Name          scriptvalue.Value
	Filter        Expression
	Package       string
	ForKey        string
	ForValue      string
	ForTerm       Expression
	ClosedVars    map[string]scriptvalue.Value
	IgnoreOnError bool
	Body          Expression
}

// IncludeKind distinguishes Include's three forms.
type IncludeKind uint8

const (
	IncludeRegular IncludeKind = iota
	IncludeRecursive
	IncludeZones
)

// IncludeSpec bundles Include's structural parameters.
type IncludeSpec struct {
	Kind           IncludeKind
	Path           string
	Pattern        string
	Name           string
	SearchIncludes bool
	RelativeBase   string
	Zone           string
	Package        string
}

// boundVM is the process-wide collaborator every node's doEvaluate reaches
// through. Evaluation is synchronous and CPU-bound per spec §5, and the VM
// is wired once at startup (by the embedding program or a test harness;
// cmd/scriptenginectl's demo tree needs none and binds none), so a
// single package-level binding (not a per-goroutine one) matches how
// ScriptGlobal/Imports are themselves process-wide.
var boundVM VM

// BindVM installs the collaborator implementation. Must be called before
// any Evaluate that reaches a node requiring it; evaluating without one
// bound panics with a clear message rather than nil-dereferencing deep in
// a call chain.
func BindVM(vm VM) { boundVM = vm }

// CurrentVM returns the bound collaborator, or panics if none has been
// bound yet.
func CurrentVM() VM {
	if boundVM == nil {
		panic("ast: no VM collaborator bound; call ast.BindVM before evaluating")
	}
	return boundVM
}
