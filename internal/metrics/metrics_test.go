package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterAddsAllInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"scriptengine_frame_depth_high_watermark",
		"scriptengine_jit_compile_total",
		"scriptengine_breakpoint_fires_total",
	} {
		if !names[want] {
			t.Errorf("expected registered metric %q, got %v", want, names)
		}
	}
}

func TestRegisterRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err == nil {
		t.Error("expected second Register on the same Registerer to fail (AlreadyRegisteredError)")
	}
}

func TestObserveDepthSetsGauge(t *testing.T) {
	ObserveDepth(42)
	if got := testutil.ToFloat64(FrameDepth); got != 42 {
		t.Errorf("got %v, want 42", got)
	}
	ObserveDepth(7)
	if got := testutil.ToFloat64(FrameDepth); got != 42 {
		t.Errorf("got %v, want 42 (a high-water mark: a shallower observation does not lower it)", got)
	}
}

func TestObserveJitCompileLabelsOutcome(t *testing.T) {
	before := testutil.ToFloat64(JitCompileTotal.WithLabelValues("compiled"))
	ObserveJitCompile(true)
	if got := testutil.ToFloat64(JitCompileTotal.WithLabelValues("compiled")); got != before+1 {
		t.Errorf("got %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(JitCompileTotal.WithLabelValues("fallback"))
	ObserveJitCompile(false)
	if got := testutil.ToFloat64(JitCompileTotal.WithLabelValues("fallback")); got != before+1 {
		t.Errorf("got %v, want %v", got, before+1)
	}
}

func TestObserveBreakpointFireIncrements(t *testing.T) {
	before := testutil.ToFloat64(BreakpointFiresTotal)
	ObserveBreakpointFire()
	if got := testutil.ToFloat64(BreakpointFiresTotal); got != before+1 {
		t.Errorf("got %v, want %v", got, before+1)
	}
}
