package interp

import (
	"sync"
	"testing"

	"github.com/opsmonitor/scriptengine/internal/ast"
	"github.com/opsmonitor/scriptengine/internal/breakpoint"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

func lit(v scriptvalue.Value) ast.Expression {
	return &ast.Literal{Value: v}
}

func TestEvaluateSuccessReturnsValue(t *testing.T) {
	frame := scriptframe.New()
	defer frame.Pop()
	expr := ast.NewAdd(ast.Info{}, lit(scriptvalue.Number(1)), lit(scriptvalue.Number(2)))
	r, err := Evaluate(expr, frame, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Value.AsNumber() != 3 {
		t.Errorf("got %v, want 3", r.Value.AsNumber())
	}
}

func TestDepthSymmetricOnSuccess(t *testing.T) {
	frame := scriptframe.New()
	defer frame.Pop()
	before := frame.Depth()
	_, err := Evaluate(lit(scriptvalue.Number(1)), frame, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Depth() != before {
		t.Errorf("depth after success = %d, want %d (unchanged)", frame.Depth(), before)
	}
}

// Sandbox violations (e.g. While in a sandboxed frame) are raised by AST
// nodes as a *scripterr.ScriptError wrapping scripterr.ErrSandboxViolation;
// the driver must hand that error back with its nested cause intact, while
// leaving frame depth exactly where it started.
func TestDepthSymmetricAndWrappingOnError(t *testing.T) {
	frame := scriptframe.New()
	defer frame.Pop()
	frame.SetSandboxed(true)
	before := frame.Depth()

	expr := &ast.While{Condition: lit(scriptvalue.Bool(false)), Body: &ast.Break{}}
	_, err := Evaluate(expr, frame, nil)
	if err == nil {
		t.Fatal("expected a sandbox violation error")
	}
	if frame.Depth() != before {
		t.Errorf("depth after error = %d, want %d (unchanged)", frame.Depth(), before)
	}

	se, ok := scripterr.AsScriptError(err)
	if !ok {
		t.Fatalf("expected err to be (or wrap) a *scripterr.ScriptError, got %T", err)
	}
	if se.Cause == nil {
		t.Error("expected the wrapped ScriptError to carry the original cause")
	}
}

func TestRecursionTooDeepAtExactBoundary(t *testing.T) {
	frame := scriptframe.New()
	defer frame.Pop()
	for i := 0; i < scriptframe.MaxDepth; i++ {
		if !frame.IncreaseStackDepth() {
			t.Fatalf("increase %d should have succeeded", i)
		}
	}
	// One more Evaluate call would push depth to 301 and must fail.
	_, err := Evaluate(lit(scriptvalue.Number(1)), frame, nil)
	if err == nil {
		t.Fatal("expected RecursionTooDeep at depth 301")
	}
	if frame.Depth() != scriptframe.MaxDepth {
		t.Errorf("depth after failed push = %d, want %d (unchanged)", frame.Depth(), scriptframe.MaxDepth)
	}
}

func TestBreakpointFiresOnCaughtScriptError(t *testing.T) {
	var mu sync.Mutex
	var fired bool
	unsubscribe := breakpoint.Subscribe(breakpoint.SubscriberFunc(
		func(frame *scriptframe.Frame, err *scripterr.ScriptError, loc scripterr.Location) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fired = true
			}
		}))
	defer unsubscribe()

	frame := scriptframe.New()
	defer frame.Pop()
	frame.SetSandboxed(true)
	expr := &ast.While{Condition: lit(scriptvalue.Bool(false)), Body: &ast.Break{}}
	_, _ = Evaluate(expr, frame, nil)

	mu.Lock()
	defer mu.Unlock()
	if !fired {
		t.Error("expected the breakpoint bus to fire on a caught ScriptError")
	}
}
