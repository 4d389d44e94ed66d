package ast

import (
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// LogicalAnd evaluates Left; if falsy, short-circuits and returns Left's
// result unevaluated further; otherwise evaluates and returns Right.
type LogicalAnd struct {
	Location Info
	Left     Expression
	Right    Expression
}

func (n *LogicalAnd) Info() Info { return n.Location }
func (n *LogicalAnd) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	lr, err := EvaluateCore(n.Left, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if lr.IsNonLocal() {
		return lr, nil
	}
	if !lr.Value.ToBool() {
		return lr, nil
	}
	return EvaluateCore(n.Right, frame, hint.Child(1))
}

func (n *LogicalAnd) JitCompile() (Routine, Dtor, bool) {
	leftRoutine, leftDtor := TryJitCompile(n.Left)
	rightRoutine, rightDtor := TryJitCompile(n.Right)
	routine := func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		lr, err := leftRoutine(frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if lr.IsNonLocal() || !lr.Value.ToBool() {
			return lr, nil
		}
		return rightRoutine(frame, hint.Child(1))
	}
	return routine, func() { leftDtor(); rightDtor() }, true
}

// LogicalOr evaluates Left; if truthy, short-circuits; otherwise evaluates
// and returns Right.
type LogicalOr struct {
	Location Info
	Left     Expression
	Right    Expression
}

func (n *LogicalOr) Info() Info { return n.Location }
func (n *LogicalOr) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	lr, err := EvaluateCore(n.Left, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if lr.IsNonLocal() {
		return lr, nil
	}
	if lr.Value.ToBool() {
		return lr, nil
	}
	return EvaluateCore(n.Right, frame, hint.Child(1))
}

func (n *LogicalOr) JitCompile() (Routine, Dtor, bool) {
	leftRoutine, leftDtor := TryJitCompile(n.Left)
	rightRoutine, rightDtor := TryJitCompile(n.Right)
	routine := func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		lr, err := leftRoutine(frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if lr.IsNonLocal() || lr.Value.ToBool() {
			return lr, nil
		}
		return rightRoutine(frame, hint.Child(1))
	}
	return routine, func() { leftDtor(); rightDtor() }, true
}

// membership evaluates Left and Right, then tests Left's presence in
// Right's elements by Equal. Right must be an Array or Empty (trivially no
// members).
func membership(frame *scriptframe.Frame, hint *Hint, left, right Expression) (bool, Result, error) {
	lr, err := EvaluateCore(left, frame, hint.Child(0))
	if err != nil {
		return false, Result{}, err
	}
	if lr.IsNonLocal() {
		return false, lr, nil
	}
	rr, err := EvaluateCore(right, frame, hint.Child(1))
	if err != nil {
		return false, Result{}, err
	}
	if rr.IsNonLocal() {
		return false, rr, nil
	}
	if rr.Value.IsEmpty() {
		return false, Result{}, nil
	}
	arr, ok := rr.Value.AsObject().(*scriptvalue.Array)
	if !ok {
		return false, Result{}, scriptTypeMismatch(left, "In/NotIn requires an Array on the right-hand side")
	}
	return arr.Contains(lr.Value), Result{}, nil
}

// scriptTypeMismatch builds a *scripterr.ScriptError whose chain carries
// scripterr.ErrTypeMismatch, so callers can distinguish it from any other
// error kind with errors.Is.
func scriptTypeMismatch(e Expression, msg string) error {
	return scripterr.Wrap(scripterr.ErrTypeMismatch, msg, locationOf(e.Info()))
}

// scriptSandboxViolation builds a *scripterr.ScriptError whose chain carries
// scripterr.ErrSandboxViolation, for the "forbidden in sandbox" sites
// (Set, While, For, Import, Include, Library, Apply, Object).
func scriptSandboxViolation(e Expression, msg string) error {
	return scripterr.Wrap(scripterr.ErrSandboxViolation, msg, locationOf(e.Info()))
}

// In tests left-side membership in the right-side Array.
type In struct {
	Location Info
	Left     Expression
	Right    Expression
}

func (n *In) Info() Info { return n.Location }
func (n *In) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	found, nonLocal, err := membership(frame, hint, n.Left, n.Right)
	if err != nil {
		return Result{}, err
	}
	if nonLocal.IsNonLocal() {
		return nonLocal, nil
	}
	return OkResult(scriptvalue.Bool(found)), nil
}

// NotIn is the negation of In.
type NotIn struct {
	Location Info
	Left     Expression
	Right    Expression
}

func (n *NotIn) Info() Info { return n.Location }
func (n *NotIn) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	found, nonLocal, err := membership(frame, hint, n.Left, n.Right)
	if err != nil {
		return Result{}, err
	}
	if nonLocal.IsNonLocal() {
		return nonLocal, nil
	}
	return OkResult(scriptvalue.Bool(!found)), nil
}
