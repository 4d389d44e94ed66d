package ast

import (
	"github.com/opsmonitor/scriptengine/internal/imports"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scriptglobal"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// Variable resolves a free name through VMOps.Variable: frame.Locals(),
// then frame.Self()'s own field, then the import chain, then
// ScriptGlobal — failing with UndefinedVariable.
type Variable struct {
	Location Info
	Name     string
}

func (n *Variable) Info() Info { return n.Location }

func (n *Variable) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	v, err := CurrentVM().Variable(frame, n.Name, n.Location)
	if err != nil {
		return Result{}, err
	}
	return OkResult(v), nil
}

// GetReference yields (parent_container, name) following the same
// precedence Variable's read path uses.
func (n *Variable) GetReference(frame *scriptframe.Frame, hint *Hint, initDict bool) (Reference, error) {
	if frame.HasLocals() {
		if frame.Locals().Has(n.Name) {
			return Reference{Parent: frame.Locals(), Index: n.Name}, nil
		}
	}
	if self, ok := frame.Self().AsObject().(*scriptvalue.Dictionary); ok {
		if self.Has(n.Name) {
			return Reference{Parent: self, Index: n.Name}, nil
		}
	}
	for _, d := range imports.Current().Dicts {
		if d.Has(n.Name) {
			return Reference{Parent: d, Index: n.Name}, nil
		}
	}
	// Not found anywhere: default to creating it in locals, matching the
	// spec's silent-create semantics for a fresh assignment target.
	return Reference{Parent: frame.Locals(), Index: n.Name}, nil
}

// GetScope returns frame.Locals() (creating it), frame.Self(), or the
// process-wide ScriptGlobal table, depending on Which.
type Scope uint8

const (
	ScopeLocal Scope = iota
	ScopeThis
	ScopeGlobal
)

type GetScope struct {
	Location Info
	Which    Scope
}

func (n *GetScope) Info() Info { return n.Location }

func (n *GetScope) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	switch n.Which {
	case ScopeLocal:
		return OkResult(scriptvalue.FromObject(frame.Locals())), nil
	case ScopeThis:
		return OkResult(frame.Self()), nil
	case ScopeGlobal:
		return OkResult(scriptglobal.Default().AsValue()), nil
	}
	return OkResult(scriptvalue.Empty), nil
}

func (n *GetScope) JitCompile() (Routine, Dtor, bool) {
	which := n.Which
	return func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		switch which {
		case ScopeLocal:
			return OkResult(scriptvalue.FromObject(frame.Locals())), nil
		case ScopeThis:
			return OkResult(frame.Self()), nil
		default:
			return OkResult(scriptglobal.Default().AsValue()), nil
		}
	}, func() {}, true
}
