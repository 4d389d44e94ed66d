package ast

import (
	"github.com/opsmonitor/scriptengine/internal/breakpoint"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// Break yields the CodeBreak control code.
type Break struct{ Location Info }

func (n *Break) Info() Info { return n.Location }
func (n *Break) doEvaluate(*scriptframe.Frame, *Hint) (Result, error) {
	return Result{Value: scriptvalue.Empty, Code: CodeBreak}, nil
}

// Continue yields the CodeContinue control code.
type Continue struct{ Location Info }

func (n *Continue) Info() Info { return n.Location }
func (n *Continue) doEvaluate(*scriptframe.Frame, *Hint) (Result, error) {
	return Result{Value: scriptvalue.Empty, Code: CodeContinue}, nil
}

// Return yields the CodeReturn control code carrying Operand's value.
type Return struct {
	Location Info
	Operand  Expression
}

func (n *Return) Info() Info { return n.Location }
func (n *Return) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	var v scriptvalue.Value
	if n.Operand != nil {
		r, err := EvaluateCore(n.Operand, frame, hint)
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		v = r.Value
	}
	return Result{Value: v, Code: CodeReturn}, nil
}

func (n *Return) JitCompile() (Routine, Dtor, bool) {
	if n.Operand == nil {
		return func(*scriptframe.Frame, *Hint) (Result, error) {
			return Result{Value: scriptvalue.Empty, Code: CodeReturn}, nil
		}, func() {}, true
	}
	routine, dtor := TryJitCompile(n.Operand)
	return func(frame *scriptframe.Frame, hint *Hint) (Result, error) {
		r, err := routine(frame, hint)
		if err != nil {
			return Result{}, err
		}
		if r.IsNonLocal() {
			return r, nil
		}
		return Result{Value: r.Value, Code: CodeReturn}, nil
	}, dtor, true
}

// Breakpoint fires the breakpoint broadcast with no error, then returns
// Empty.
type Breakpoint struct{ Location Info }

func (n *Breakpoint) Info() Info { return n.Location }
func (n *Breakpoint) doEvaluate(frame *scriptframe.Frame, hint *Hint) (Result, error) {
	loc := scripterr.Location{File: n.Location.File, Line: n.Location.StartLine, Col: n.Location.StartCol}
	breakpoint.Fire(frame, nil, loc)
	return OkResult(scriptvalue.Empty), nil
}
