package jit

import (
	"testing"

	"github.com/opsmonitor/scriptengine/internal/ast"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

func lit(v scriptvalue.Value) ast.Expression {
	return &ast.Literal{Value: v}
}

// Scenario 6 (spec §8): compile Add(Lit(1.5), Sub(Lit(10), Lit(3))) -> the
// native routine evaluates to Number(8.5), identical to interpretation.
func TestScenarioJitEquivalence(t *testing.T) {
	tree := ast.NewAdd(ast.Info{}, lit(scriptvalue.Number(1.5)),
		ast.NewSubtract(ast.Info{}, lit(scriptvalue.Number(10)), lit(scriptvalue.Number(3))))

	frame := scriptframe.New()
	defer frame.Pop()

	interpreted, err := ast.EvaluateCore(tree, frame, nil)
	if err != nil {
		t.Fatalf("interpreting: %v", err)
	}
	if interpreted.Value.AsNumber() != 8.5 {
		t.Fatalf("interpreted result = %v, want 8.5", interpreted.Value.AsNumber())
	}

	compiled, err := Compile(tree)
	if err != nil {
		t.Fatalf("compiling: %v", err)
	}
	defer compiled.Close()

	jitResult, err := compiled.Evaluate(frame, nil)
	if err != nil {
		t.Fatalf("evaluating compiled routine: %v", err)
	}
	if jitResult.Value.AsNumber() != interpreted.Value.AsNumber() {
		t.Errorf("jit = %v, interpreted = %v, want equal", jitResult.Value.AsNumber(), interpreted.Value.AsNumber())
	}
	if jitResult.Code != interpreted.Code {
		t.Errorf("jit code = %v, interpreted code = %v, want equal", jitResult.Code, interpreted.Code)
	}
}

func TestCompileDeclinesUnsupportedNode(t *testing.T) {
	// FunctionCall is in the spec's "return false" list (always falls back
	// to interpretation); at the *root*, Compile must report
	// ErrJitUnsupported rather than silently interpreting.
	tree := &ast.FunctionCall{Callee: lit(scriptvalue.Empty)}
	_, err := Compile(tree)
	if err == nil {
		t.Fatal("expected ErrJitUnsupported for a root node that declines lowering")
	}
}

func TestJitEquivalenceForConditionalAndLogical(t *testing.T) {
	tree := &ast.Conditional{
		Condition:   &ast.LogicalAnd{Left: lit(scriptvalue.Bool(true)), Right: lit(scriptvalue.Bool(true))},
		TrueBranch:  lit(scriptvalue.Number(1)),
		FalseBranch: lit(scriptvalue.Number(0)),
	}
	frame := scriptframe.New()
	defer frame.Pop()

	interpreted, err := ast.EvaluateCore(tree, frame, nil)
	if err != nil {
		t.Fatalf("interpreting: %v", err)
	}

	compiled, err := Compile(tree)
	if err != nil {
		t.Fatalf("compiling: %v", err)
	}
	defer compiled.Close()

	jitResult, err := compiled.Evaluate(frame, nil)
	if err != nil {
		t.Fatalf("evaluating compiled routine: %v", err)
	}
	if jitResult.Value.AsNumber() != interpreted.Value.AsNumber() {
		t.Errorf("jit = %v, interpreted = %v", jitResult.Value.AsNumber(), interpreted.Value.AsNumber())
	}
}

func TestJitArrayRejectsControlFlowChild(t *testing.T) {
	arr := &ast.ArrayLit{Elements: []ast.Expression{&ast.Break{}}}
	jc, ok := ast.Expression(arr).(ast.JitCompilable)
	if !ok {
		t.Fatal("ArrayLit should implement JitCompilable")
	}
	_, _, ok = jc.JitCompile()
	if ok {
		t.Error("Array containing a control-flow child (Break) must decline JIT lowering per the documented ret-skips-dtor hazard")
	}
}

func TestJitArrayCompilesPlainElements(t *testing.T) {
	arr := &ast.ArrayLit{Elements: []ast.Expression{lit(scriptvalue.Number(1)), lit(scriptvalue.Number(2))}}
	compiled, err := Compile(arr)
	if err != nil {
		t.Fatalf("compiling: %v", err)
	}
	defer compiled.Close()

	frame := scriptframe.New()
	defer frame.Pop()
	r, err := compiled.Evaluate(frame, nil)
	if err != nil {
		t.Fatalf("evaluating: %v", err)
	}
	a, ok := r.Value.AsObject().(*scriptvalue.Array)
	if !ok || a.Len() != 2 {
		t.Fatalf("got %v, want a 2-element array", r.Value.Inspect())
	}
}

func TestStatsStringIsHumanReadable(t *testing.T) {
	compiled, err := Compile(ast.NewAdd(ast.Info{}, lit(scriptvalue.Number(1)), lit(scriptvalue.Number(2))))
	if err != nil {
		t.Fatalf("compiling: %v", err)
	}
	defer compiled.Close()

	s := compiled.Stats()
	if s.String() == "" {
		t.Error("Stats.String() should never be empty, even for a zero byte count")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	compiled, err := Compile(lit(scriptvalue.Number(1)))
	if err != nil {
		t.Fatalf("compiling: %v", err)
	}
	compiled.Close()
	compiled.Close() // must not panic
}
