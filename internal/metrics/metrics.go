// Package metrics exposes the expression engine's Prometheus instruments:
// a frame-depth gauge, JIT compile outcome counters, and a breakpoint fire
// counter, collected the way an embedding monitoring process already
// scrapes its other components via github.com/prometheus/client_golang.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FrameDepth tracks the deepest ScriptFrame stack observed on the
	// process, reset only on restart — a high-water mark, not a live gauge.
	FrameDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scriptengine",
		Name:      "frame_depth_high_watermark",
		Help:      "Deepest ScriptFrame stack depth observed since process start.",
	})

	// JitCompileTotal counts JIT compilation attempts, labeled by outcome
	// ("compiled" or "fallback").
	JitCompileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scriptengine",
		Name:      "jit_compile_total",
		Help:      "JIT compilation attempts by outcome.",
	}, []string{"outcome"})

	// BreakpointFiresTotal counts breakpoint bus broadcasts.
	BreakpointFiresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scriptengine",
		Name:      "breakpoint_fires_total",
		Help:      "Number of breakpoint bus broadcasts fired.",
	})
)

// Register adds every instrument in this package to reg. Called once at
// process start by cmd/scriptenginectl; tests that don't care about
// metrics never need to call it.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{FrameDepth, JitCompileTotal, BreakpointFiresTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveDepth updates FrameDepth with the new high-water mark if depth
// exceeds the previously observed maximum.
func ObserveDepth(depth int) {
	maxDepthMu.Lock()
	defer maxDepthMu.Unlock()
	if depth > maxDepth {
		maxDepth = depth
		FrameDepth.Set(float64(depth))
	}
}

var (
	maxDepthMu sync.Mutex
	maxDepth   int
)

// ObserveJitCompile records a compile attempt's outcome.
func ObserveJitCompile(compiled bool) {
	if compiled {
		JitCompileTotal.WithLabelValues("compiled").Inc()
		return
	}
	JitCompileTotal.WithLabelValues("fallback").Inc()
}

// ObserveBreakpointFire records one breakpoint bus broadcast.
func ObserveBreakpointFire() {
	BreakpointFiresTotal.Inc()
}
