package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/opsmonitor/scriptengine/internal/interp"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
)

func TestDemoExpressionEvaluatesArithmetic(t *testing.T) {
	// 1 + 2 * 3 == 7, the same precedence the spec's scenario 1 exercises.
	frame := scriptframe.New()
	defer frame.Pop()
	result, err := interp.Evaluate(demoExpression(), frame, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Value.AsNumber() != 7 {
		t.Errorf("got %v, want 7", result.Value.AsNumber())
	}
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	runErr := fn()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), runErr
}

func TestEvalCmdPrintsResult(t *testing.T) {
	cmd := newEvalCmd()
	out, err := captureStdout(t, func() error {
		return cmd.RunE(cmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Errorf("got %q, want \"7\"", out)
	}
}

func TestJitCmdPrintsSameResultAsEval(t *testing.T) {
	cmd := newJitCmd()
	out, err := captureStdout(t, func() error {
		return cmd.RunE(cmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Errorf("got %q, want \"7\"", out)
	}
}

func TestMetricsCmdHasExpectedAddrFlagDefault(t *testing.T) {
	cmd := newMetricsCmd()
	f := cmd.Flags().Lookup("addr")
	if f == nil {
		t.Fatal("expected an --addr flag")
	}
	if f.DefValue != ":9108" {
		t.Errorf("got default %q, want \":9108\"", f.DefValue)
	}
}
