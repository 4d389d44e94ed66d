package ast

import (
	"context"

	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// includeContext supplies the context Include's HandleInclude call uses.
// Evaluation has no enclosing context of its own (spec §5: synchronous,
// CPU-bound, no async scheduler) so a background context is sufficient;
// a future cancellable driver can thread one through VM binding instead.
func includeContext() context.Context { return context.Background() }

// Conditional evaluates Condition; truthy takes TrueBranch, falsy takes
// FalseBranch (or Empty if absent).
type Conditional struct {
	Location    Info
	Condition   Expression
	TrueBranch  Expression
	FalseBranch Expression
}

func (n *Conditional) Info() Info { return n.Location }
func (n *Conditional) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	cr, err := EvaluateCore(n.Condition, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if cr.IsNonLocal() {
		return cr, nil
	}
	if cr.Value.ToBool() {
		return EvaluateCore(n.TrueBranch, frame, hint.Child(1))
	}
	if n.FalseBranch != nil {
		return EvaluateCore(n.FalseBranch, frame, hint.Child(2))
	}
	return OkResult(scriptvalue.Empty), nil
}

func (n *Conditional) JitCompile() (Routine, Dtor, bool) {
	condRoutine, condDtor := TryJitCompile(n.Condition)
	trueRoutine, trueDtor := TryJitCompile(n.TrueBranch)
	var falseRoutine Routine
	var falseDtor Dtor
	if n.FalseBranch != nil {
		falseRoutine, falseDtor = TryJitCompile(n.FalseBranch)
	}
	routine := func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		cr, err := condRoutine(frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if cr.IsNonLocal() {
			return cr, nil
		}
		if cr.Value.ToBool() {
			return trueRoutine(frame, hint.Child(1))
		}
		if falseRoutine != nil {
			return falseRoutine(frame, hint.Child(2))
		}
		return OkResult(scriptvalue.Empty), nil
	}
	dtor := func() {
		condDtor()
		trueDtor()
		if falseDtor != nil {
			falseDtor()
		}
	}
	return routine, dtor, true
}

// While loops while Condition is truthy. Break exits normally, Continue
// restarts, Return bubbles. Forbidden in sandbox.
type While struct {
	Location  Info
	Condition Expression
	Body      Expression
}

func (n *While) Info() Info { return n.Location }
func (n *While) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "while loops are not allowed in sandbox mode")
	}
	for {
		cr, err := EvaluateCore(n.Condition, frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if cr.IsNonLocal() {
			return cr, nil
		}
		if !cr.Value.ToBool() {
			return OkResult(scriptvalue.Empty), nil
		}
		br, err := EvaluateCore(n.Body, frame, hint.Child(1))
		if err != nil {
			return Result{}, err
		}
		switch br.Code {
		case CodeBreak:
			return OkResult(scriptvalue.Empty), nil
		case CodeReturn:
			return br, nil
		case CodeContinue, CodeOk:
			// fall through and re-check condition
		}
	}
}

func (n *While) JitCompile() (Routine, Dtor, bool) {
	condRoutine, condDtor := TryJitCompile(n.Condition)
	bodyRoutine, bodyDtor := TryJitCompile(n.Body)
	routine := func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		if frame.Sandboxed() {
			return Result{}, scriptSandboxViolation(n, "while loops are not allowed in sandbox mode")
		}
		for {
			cr, err := condRoutine(frame, hint.Child(0))
			if err != nil {
				return Result{}, err
			}
			if cr.IsNonLocal() {
				return cr, nil
			}
			if !cr.Value.ToBool() {
				return OkResult(scriptvalue.Empty), nil
			}
			br, err := bodyRoutine(frame, hint.Child(1))
			if err != nil {
				return Result{}, err
			}
			switch br.Code {
			case CodeBreak:
				return OkResult(scriptvalue.Empty), nil
			case CodeReturn:
				return br, nil
			}
		}
	}
	dtor := func() {
		condDtor()
		bodyDtor()
	}
	return routine, dtor, true
}

// For delegates to VMOps.For, which iterates Arrays (index->key) and
// Dictionaries (key->key, value->val). Forbidden in sandbox.
type For struct {
	Location  Info
	KeyVar    string
	ValVar    string
	Iterable  Expression
	Body      Expression
}

func (n *For) Info() Info { return n.Location }
func (n *For) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "for loops are not allowed in sandbox mode")
	}
	ir, err := EvaluateCore(n.Iterable, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if ir.IsNonLocal() {
		return ir, nil
	}
	return CurrentVM().For(frame, n.KeyVar, n.ValVar, ir.Value, n.Body)
}

// Throw evaluates Message and raises a ScriptError carrying it, marked
// Incomplete per the IncompleteFlag.
type Throw struct {
	Location       Info
	Message        Expression
	IncompleteFlag bool
}

func (n *Throw) Info() Info { return n.Location }
func (n *Throw) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	mr, err := EvaluateCore(n.Message, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if mr.IsNonLocal() {
		return mr, nil
	}
	se := scripterr.New(mr.Value.Inspect(), locationOf(n.Location))
	se.Incomplete = n.IncompleteFlag
	return Result{}, se
}

// Import reads frame.self.type, looks up the matching ConfigItem by
// (type, name), and evaluates its stored expression. Forbidden in sandbox.
type Import struct {
	Location Info
	Name     Expression
}

func (n *Import) Info() Info { return n.Location }
func (n *Import) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "import is not allowed in sandbox mode")
	}
	nr, err := EvaluateCore(n.Name, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if nr.IsNonLocal() {
		return nr, nil
	}
	typ := ""
	if dict, ok := frame.Self().AsObject().(*scriptvalue.Dictionary); ok {
		if tv, ok := dict.Get("type"); ok {
			typ = tv.Inspect()
		}
	}
	expr, ok := CurrentVM().GetConfigItem(typ, nr.Value.Inspect())
	if !ok {
		return Result{}, scripterr.Wrap(scripterr.ErrUndefinedVariable,
			"no such config item to import: "+nr.Value.Inspect(), locationOf(n.Location))
	}
	return EvaluateCore(expr, frame, hint.Child(1))
}

// FunctionDecl evaluates ClosedVars against the current frame and
// constructs a new Function object over (Args, captured env, Body).
type FunctionDecl struct {
	Location       Info
	Args           []string
	ClosedVarExprs map[string]Expression
	Body           Expression
	SideEffectFree bool
}

func (n *FunctionDecl) Info() Info { return n.Location }
func (n *FunctionDecl) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	closed := make(map[string]scriptvalue.Value, len(n.ClosedVarExprs))
	for name, expr := range n.ClosedVarExprs {
		r, err := EvaluateCore(expr, frame, hint)
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		closed[name] = r.Value
	}
	v, err := CurrentVM().NewFunction(frame, n.Args, closed, n.Body)
	if err != nil {
		return Result{}, err
	}
	return OkResult(v), nil
}

// Apply registers an apply rule via VMOps.NewApply. Forbidden in sandbox.
// NameExpr is evaluated (if present) to populate Spec.Name before the spec
// is handed to the collaborator.
type Apply struct {
	Location Info
	NameExpr Expression
	Spec     ApplySpec
}

func (n *Apply) Info() Info { return n.Location }
func (n *Apply) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "apply is not allowed in sandbox mode")
	}
	spec := n.Spec
	if n.NameExpr != nil {
		r, err := EvaluateCore(n.NameExpr, frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		spec.Name = r.Value
	}
	if err := CurrentVM().NewApply(frame, spec); err != nil {
		return Result{}, err
	}
	return OkResult(scriptvalue.Empty), nil
}

// ObjectDecl registers a monitoring config object via VMOps.NewObject.
// Forbidden in sandbox. NameExpr is evaluated (if present) to populate
// Spec.Name before the spec is handed to the collaborator.
type ObjectDecl struct {
	Location Info
	NameExpr Expression
	Spec     ObjectSpec
}

func (n *ObjectDecl) Info() Info { return n.Location }
func (n *ObjectDecl) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "object is not allowed in sandbox mode")
	}
	spec := n.Spec
	if n.NameExpr != nil {
		r, err := EvaluateCore(n.NameExpr, frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		spec.Name = r.Value
	}
	if err := CurrentVM().NewObject(frame, spec); err != nil {
		return Result{}, err
	}
	return OkResult(scriptvalue.Empty), nil
}

// Include builds a sub-expression for the given kind via VMOps.HandleInclude
// and evaluates it. The sub-expression is discarded (left to GC) on every
// exit path. Forbidden in sandbox.
type Include struct {
	Location Info
	Spec     IncludeSpec
}

func (n *Include) Info() Info { return n.Location }
func (n *Include) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "include is not allowed in sandbox mode")
	}
	expr, err := CurrentVM().HandleInclude(includeContext(), n.Spec)
	if err != nil {
		return Result{}, err
	}
	return EvaluateCore(expr, frame, hint)
}

// Library loads an extension library by filename via
// VMOps.LoadExtensionLibrary. Forbidden in sandbox.
type Library struct {
	Location Info
	Path     Expression
}

func (n *Library) Info() Info { return n.Location }
func (n *Library) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "library is not allowed in sandbox mode")
	}
	pr, err := EvaluateCore(n.Path, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if pr.IsNonLocal() {
		return pr, nil
	}
	if err := CurrentVM().LoadExtensionLibrary(pr.Value.Inspect()); err != nil {
		return Result{}, err
	}
	return OkResult(scriptvalue.Empty), nil
}
