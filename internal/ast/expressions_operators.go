package ast

import (
	"fmt"

	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// binaryOp is the common shape of every arithmetic/bitwise/compare node:
// evaluate both operands left-to-right, then fold with Apply.
type binaryOp struct {
	Location Info
	Left     Expression
	Right    Expression
	Name     string
	Apply    func(l, r scriptvalue.Value) (scriptvalue.Value, error)
}

func (n *binaryOp) Info() Info { return n.Location }

func (n *binaryOp) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	lr, err := EvaluateCore(n.Left, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if lr.IsNonLocal() {
		return lr, nil
	}
	rr, err := EvaluateCore(n.Right, frame, hint.Child(1))
	if err != nil {
		return Result{}, err
	}
	if rr.IsNonLocal() {
		return rr, nil
	}
	v, err := n.Apply(lr.Value, rr.Value)
	if err != nil {
		return Result{}, scripterr.Wrap(arithmeticCause(err), fmt.Sprintf("error evaluating %q", n.Name), locationOf(n.Location))
	}
	return OkResult(v), nil
}

// arithmeticCause tags err's chain with scripterr.ErrArithmetic so callers
// can test for it with errors.Is, while preserving err's own message (the
// operator and operand detail scriptvalue's ArithmeticError carries).
func arithmeticCause(err error) error {
	return fmt.Errorf("%w: %s", scripterr.ErrArithmetic, err.Error())
}

func (n *binaryOp) JitCompile() (Routine, Dtor, bool) {
	leftRoutine, leftDtor := TryJitCompile(n.Left)
	rightRoutine, rightDtor := TryJitCompile(n.Right)
	apply := n.Apply
	loc := n.Location
	name := n.Name
	routine := func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		lr, err := leftRoutine(frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if lr.IsNonLocal() {
			return lr, nil
		}
		rr, err := rightRoutine(frame, hint.Child(1))
		if err != nil {
			return Result{}, err
		}
		if rr.IsNonLocal() {
			return rr, nil
		}
		v, err := apply(lr.Value, rr.Value)
		if err != nil {
			return Result{}, scripterr.Wrap(arithmeticCause(err), fmt.Sprintf("error evaluating %q", name), locationOf(loc))
		}
		return OkResult(v), nil
	}
	dtor := func() {
		leftDtor()
		rightDtor()
	}
	return routine, dtor, true
}

func locationOf(i Info) scripterr.Location {
	return scripterr.Location{File: i.File, Line: i.StartLine, Col: i.StartCol}
}

func newBinaryOp(loc Info, name string, l, r Expression, apply func(l, r scriptvalue.Value) (scriptvalue.Value, error)) *binaryOp {
	return &binaryOp{Location: loc, Left: l, Right: r, Name: name, Apply: apply}
}

// NewAdd builds the `+` node.
func NewAdd(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "+", l, r, scriptvalue.Value.Add)
}

// NewSubtract builds the `-` node.
func NewSubtract(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "-", l, r, scriptvalue.Value.Subtract)
}

// NewMultiply builds the `*` node.
func NewMultiply(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "*", l, r, scriptvalue.Value.Multiply)
}

// NewDivide builds the `/` node.
func NewDivide(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "/", l, r, scriptvalue.Value.Divide)
}

// NewModulo builds the `%` node.
func NewModulo(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "%", l, r, scriptvalue.Value.Modulo)
}

// NewXor builds the `^` node.
func NewXor(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "^", l, r, scriptvalue.Value.Xor)
}

// NewBinaryAnd builds the `&` node.
func NewBinaryAnd(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "&", l, r, scriptvalue.Value.BinaryAnd)
}

// NewBinaryOr builds the `|` node.
func NewBinaryOr(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "|", l, r, scriptvalue.Value.BinaryOr)
}

// NewShiftLeft builds the `<<` node.
func NewShiftLeft(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "<<", l, r, scriptvalue.Value.ShiftLeft)
}

// NewShiftRight builds the `>>` node.
func NewShiftRight(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, ">>", l, r, scriptvalue.Value.ShiftRight)
}

func boolValue(b bool) scriptvalue.Value { return scriptvalue.Bool(b) }

// NewEqual builds the `==` node.
func NewEqual(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "==", l, r, func(l, r scriptvalue.Value) (scriptvalue.Value, error) {
		return boolValue(l.Equal(r)), nil
	})
}

// NewNotEqual builds the `!=` node.
func NewNotEqual(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "!=", l, r, func(l, r scriptvalue.Value) (scriptvalue.Value, error) {
		return boolValue(!l.Equal(r)), nil
	})
}

// NewLessThan builds the `<` node.
func NewLessThan(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "<", l, r, func(l, r scriptvalue.Value) (scriptvalue.Value, error) {
		return boolValue(l.Compare(r) < 0), nil
	})
}

// NewGreaterThan builds the `>` node.
func NewGreaterThan(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, ">", l, r, func(l, r scriptvalue.Value) (scriptvalue.Value, error) {
		return boolValue(l.Compare(r) > 0), nil
	})
}

// NewLessThanOrEqual builds the `<=` node.
func NewLessThanOrEqual(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, "<=", l, r, func(l, r scriptvalue.Value) (scriptvalue.Value, error) {
		return boolValue(l.Compare(r) <= 0), nil
	})
}

// NewGreaterThanOrEqual builds the `>=` node.
func NewGreaterThanOrEqual(loc Info, l, r Expression) Expression {
	return newBinaryOp(loc, ">=", l, r, func(l, r scriptvalue.Value) (scriptvalue.Value, error) {
		return boolValue(l.Compare(r) >= 0), nil
	})
}

// Negate is unary `-`.
type Negate struct {
	Location Info
	Operand  Expression
}

func (n *Negate) Info() Info { return n.Location }
func (n *Negate) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	r, err := EvaluateCore(n.Operand, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if r.IsNonLocal() {
		return r, nil
	}
	num, ok := r.Value.ToNumber()
	if !ok {
		return Result{}, scripterr.Wrap(scripterr.ErrTypeMismatch, "unary - requires a numeric operand", locationOf(n.Location))
	}
	return OkResult(scriptvalue.Number(-num)), nil
}

func (n *Negate) JitCompile() (Routine, Dtor, bool) {
	routine, dtor := TryJitCompile(n.Operand)
	loc := n.Location
	return func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		r, err := routine(frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		num, ok := r.Value.ToNumber()
		if !ok {
			return Result{}, scripterr.Wrap(scripterr.ErrTypeMismatch, "unary - requires a numeric operand", locationOf(loc))
		}
		return OkResult(scriptvalue.Number(-num)), nil
	}, dtor, true
}

// LogicalNegate is unary `!`.
type LogicalNegate struct {
	Location Info
	Operand  Expression
}

func (n *LogicalNegate) Info() Info { return n.Location }
func (n *LogicalNegate) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	r, err := EvaluateCore(n.Operand, frame, hint.Child(0))
	if err != nil {
		return Result{}, err
	}
	if r.IsNonLocal() {
		return r, nil
	}
	return OkResult(scriptvalue.Bool(!r.Value.ToBool())), nil
}

func (n *LogicalNegate) JitCompile() (Routine, Dtor, bool) {
	routine, dtor := TryJitCompile(n.Operand)
	return func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		r, err := routine(frame, hint.Child(0))
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		return OkResult(scriptvalue.Bool(!r.Value.ToBool())), nil
	}, dtor, true
}
