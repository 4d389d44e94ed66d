package ast

import (
	"fmt"

	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// ArrayLit evaluates each element left-to-right, appending to a fresh Array.
type ArrayLit struct {
	Location Info
	Elements []Expression
}

func (n *ArrayLit) Info() Info { return n.Location }
func (n *ArrayLit) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	arr := scriptvalue.NewArray()
	for i, elem := range n.Elements {
		r, err := EvaluateCore(elem, frame, hint.Child(i))
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		arr.Append(r.Value)
	}
	return OkResult(scriptvalue.FromObject(arr)), nil
}

func (n *ArrayLit) JitCompile() (Routine, Dtor, bool) {
	routines := make([]Routine, len(n.Elements))
	dtors := make([]Dtor, len(n.Elements))
	for i, elem := range n.Elements {
		if hasControlFlowChild(elem) {
			return nil, nil, false
		}
		routines[i], dtors[i] = TryJitCompile(elem)
	}
	routine := func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		arr := scriptvalue.NewArray()
		for i, r := range routines {
			res, err := r(frame, hint.Child(i))
			if err != nil {
				return Result{}, err
			}
			if res.IsNonLocal() {
				return res, nil
			}
			arr.Append(res.Value)
		}
		return OkResult(scriptvalue.FromObject(arr)), nil
	}
	dtor := func() {
		for _, d := range dtors {
			d()
		}
	}
	return routine, dtor, true
}

// hasControlFlowChild reports whether e itself (a shallow check on its own
// node kind; nodes nested deeper inside e are not inspected) is one of the
// control-flow node kinds whose propagation
// through a mid-loop `ret` would skip earlier destructors in a compiled
// Array/Dict builder (documented JIT hazard, see DESIGN.md). Array/Dict
// lowering rejects such children and falls back to interpretation entirely
// rather than risk the leak.
func hasControlFlowChild(e Expression) bool {
	switch e.(type) {
	case *Break, *Continue, *Return:
		return true
	}
	return false
}

// DictLit builds a Dictionary. If Inline, each sub-expression is evaluated
// in place against the current frame.self (so assignments into self
// accumulate as they run); otherwise a fresh Dictionary is swapped into
// frame.self for the duration, evaluated against, and the original self is
// restored on every exit path.
type DictLit struct {
	Location Info
	Inline   bool
	Body     Expression
}

func (n *DictLit) Info() Info { return n.Location }
func (n *DictLit) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if n.Inline {
		return EvaluateCore(n.Body, frame, hint)
	}
	fresh := scriptvalue.NewDictionary()
	original := frame.Self()
	frame.SetSelf(scriptvalue.FromObject(fresh))
	defer frame.SetSelf(original)

	r, err := EvaluateCore(n.Body, frame, hint)
	if err != nil {
		return Result{}, err
	}
	if r.IsNonLocal() {
		return r, nil
	}
	return OkResult(scriptvalue.FromObject(fresh)), nil
}

func (n *DictLit) JitCompile() (Routine, Dtor, bool) {
	if hasControlFlowChild(n.Body) {
		return nil, nil, false
	}
	bodyRoutine, bodyDtor := TryJitCompile(n.Body)
	inline := n.Inline
	routine := func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		if inline {
			return bodyRoutine(frame, hint)
		}
		fresh := scriptvalue.NewDictionary()
		original := frame.Self()
		frame.SetSelf(scriptvalue.FromObject(fresh))
		defer frame.SetSelf(original)

		r, err := bodyRoutine(frame, hint)
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		return OkResult(scriptvalue.FromObject(fresh)), nil
	}
	return routine, bodyDtor, true
}

// Indexer evaluates Parent and Index, then reads Parent[Index] through
// VMOps.GetField.
type Indexer struct {
	Location  Info
	Parent    Expression
	Index     Expression
	Sandboxed bool
}

func (n *Indexer) Info() Info { return n.Location }
func (n *Indexer) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	pr, err := EvaluateCore(n.Parent, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if pr.IsNonLocal() {
		return pr, nil
	}
	ir, err := EvaluateCore(n.Index, frame, hint.Child(1))
	if err != nil {
		return Result{}, err
	}
	if ir.IsNonLocal() {
		return ir, nil
	}
	v, err := CurrentVM().GetField(pr.Value, ir.Value, frame.Sandboxed(), n.Location)
	if err != nil {
		return Result{}, err
	}
	return OkResult(v), nil
}

// GetReference recursively acquires Parent's reference, optionally creating
// an empty Dictionary there when initDict is set and the slot is absent or
// holds Empty, outside sandbox mode. A slot holding any other value (a
// string included) is not overwritten.
func (n *Indexer) GetReference(frame *scriptframe.Frame, hint *Hint, initDict bool) (Reference, error) {
	indexResult, err := EvaluateCore(n.Index, frame, hint.Child(1))
	if err != nil {
		return Reference{}, err
	}
	index := indexResult.Value.Inspect()
	if lv, ok := n.Parent.(LValue); ok {
		parentRef, err := lv.GetReference(frame, hint.Child(0), initDict)
		if err != nil {
			return Reference{}, err
		}
		if initDict && !frame.Sandboxed() {
			if cur, ok := parentRef.Parent.Get(parentRef.Index); !ok || cur.IsEmpty() {
				parentRef.Parent.Set(parentRef.Index, scriptvalue.FromObject(scriptvalue.NewDictionary()))
			}
		}
		v, _ := parentRef.Parent.Get(parentRef.Index)
		if dict, ok := v.AsObject().(*scriptvalue.Dictionary); ok {
			return Reference{Parent: dict, Index: index}, nil
		}
		return Reference{}, scriptTypeMismatch(n, "indexer parent is not a container")
	}
	pr, err := EvaluateCore(n.Parent, frame, hint.Child(0))
	if err != nil {
		return Reference{}, err
	}
	dict, ok := pr.Value.AsObject().(*scriptvalue.Dictionary)
	if !ok {
		return Reference{}, scriptTypeMismatch(n, "indexer parent is not a container")
	}
	return Reference{Parent: dict, Index: index}, nil
}

// FunctionCall invokes Callee (a Type's constructor, or a Function value)
// with Args evaluated left-to-right.
type FunctionCall struct {
	Location Info
	Callee   Expression
	Args     []Expression
}

func (n *FunctionCall) Info() Info { return n.Location }
func (n *FunctionCall) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	cr, err := EvaluateCore(n.Callee, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if cr.IsNonLocal() {
		return cr, nil
	}
	args := make([]scriptvalue.Value, 0, len(n.Args))
	for i, a := range n.Args {
		ar, err := EvaluateCore(a, frame, hint.Child(i+1))
		if err != nil {
			return Result{}, err
		}
		if ar.IsNonLocal() {
			return ar, nil
		}
		args = append(args, ar.Value)
	}
	if _, ok := cr.Value.AsObject().(*scriptvalue.Type); ok {
		v, err := CurrentVM().ConstructorCall(cr.Value, args, n.Location)
		if err != nil {
			return Result{}, err
		}
		return OkResult(v), nil
	}
	v, err := CurrentVM().FunctionCall(frame, frame.Self(), cr.Value, args)
	if err != nil {
		return Result{}, err
	}
	return OkResult(v), nil
}

// ArithFold names the fold applied by Set when its operator isn't a plain
// assignment ("=").
type ArithFold uint8

const (
	FoldAssign ArithFold = iota
	FoldAdd
	FoldSubtract
	FoldMultiply
	FoldDivide
	FoldModulo
	FoldXor
	FoldBinaryAnd
	FoldBinaryOr
	FoldShiftLeft
	FoldShiftRight
)

func (f ArithFold) apply(cur, rhs scriptvalue.Value) (scriptvalue.Value, error) {
	switch f {
	case FoldAdd:
		return cur.Add(rhs)
	case FoldSubtract:
		return cur.Subtract(rhs)
	case FoldMultiply:
		return cur.Multiply(rhs)
	case FoldDivide:
		return cur.Divide(rhs)
	case FoldModulo:
		return cur.Modulo(rhs)
	case FoldXor:
		return cur.Xor(rhs)
	case FoldBinaryAnd:
		return cur.BinaryAnd(rhs)
	case FoldBinaryOr:
		return cur.BinaryOr(rhs)
	case FoldShiftLeft:
		return cur.ShiftLeft(rhs)
	case FoldShiftRight:
		return cur.ShiftRight(rhs)
	default:
		return rhs, nil
	}
}

// Set assigns Rhs (optionally folded against the current value via Op) to
// Target's L-value slot. Forbidden in sandbox mode.
type Set struct {
	Location Info
	Target   LValue
	Op       ArithFold
	Rhs      Expression
}

func (n *Set) Info() Info { return n.Location }
func (n *Set) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	if frame.Sandboxed() {
		return Result{}, scriptSandboxViolation(n, "assignment is not allowed in sandbox mode")
	}
	hint.Annotate("=")
	ref, err := n.Target.GetReference(frame, hint, true)
	if err != nil {
		return Result{}, err
	}
	rr, err := EvaluateCore(n.Rhs, frame, hint.Child(1))
	if err != nil {
		return Result{}, err
	}
	if rr.IsNonLocal() {
		return rr, nil
	}
	newVal := rr.Value
	if n.Op != FoldAssign {
		cur, _ := ref.Parent.Get(ref.Index)
		folded, err := n.Op.apply(cur, rr.Value)
		if err != nil {
			return Result{}, scripterr.Wrap(
				fmt.Errorf("%w: %s", scripterr.ErrArithmetic, err.Error()),
				"error folding assignment", locationOf(n.Location))
		}
		newVal = folded
	}
	ref.Parent.Set(ref.Index, newVal)
	return OkResult(scriptvalue.Empty), nil
}
