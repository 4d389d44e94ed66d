package scriptframe

import (
	"testing"

	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

func TestNewDefaultsSelfToGlobals(t *testing.T) {
	f := New()
	defer f.Pop()
	if !f.Self().IsObject() {
		t.Errorf("expected self to default to an object (the globals table)")
	}
}

func TestPushInheritsDepthAndSandbox(t *testing.T) {
	root := New()
	defer root.Pop()
	root.SetSandboxed(true)
	root.IncreaseStackDepth()
	root.IncreaseStackDepth()

	child := Push(scriptvalue.Empty)
	defer child.Pop()

	if !child.Sandboxed() {
		t.Error("child should inherit sandboxed=true from parent")
	}
	if child.Depth() != root.Depth() {
		t.Errorf("child depth %d should equal parent depth %d at push time", child.Depth(), root.Depth())
	}
}

func TestPopLIFOAssertion(t *testing.T) {
	f1 := New()
	f2 := Push(scriptvalue.Empty)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic popping out of LIFO order")
		}
		f2.Pop()
		f1.Pop()
	}()
	f1.Pop()
}

func TestDepthBoundaryAt300(t *testing.T) {
	f := New()
	defer f.Pop()
	for i := 0; i < MaxDepth; i++ {
		if !f.IncreaseStackDepth() {
			t.Fatalf("increase %d should have succeeded (depth %d)", i, f.Depth())
		}
	}
	if f.Depth() != MaxDepth {
		t.Fatalf("depth = %d, want %d", f.Depth(), MaxDepth)
	}
	if f.IncreaseStackDepth() {
		t.Error("the 301st increase should fail")
	}
}

func TestDecreaseStackDepthSymmetric(t *testing.T) {
	f := New()
	defer f.Pop()
	for i := 0; i < 10; i++ {
		f.IncreaseStackDepth()
	}
	for i := 0; i < 10; i++ {
		f.DecreaseStackDepth()
	}
	if f.Depth() != 0 {
		t.Errorf("depth = %d, want 0", f.Depth())
	}
}

func TestLocalsLazyConstruction(t *testing.T) {
	f := New()
	defer f.Pop()
	if f.HasLocals() {
		t.Error("locals should not exist until first read")
	}
	_ = f.Locals()
	if !f.HasLocals() {
		t.Error("locals should exist after first read")
	}
}
