// Package interp implements the interpreter driver: the depth/error/
// breakpoint contract every expression evaluation goes through, wrapping
// ast.EvaluateCore the way the engine this package is modeled on wraps
// Expression::evaluate around do_evaluate.
package interp

import (
	"fmt"

	"github.com/opsmonitor/scriptengine/internal/ast"
	"github.com/opsmonitor/scriptengine/internal/breakpoint"
	"github.com/opsmonitor/scriptengine/internal/metrics"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scripterr"
)

// Evaluate runs expr against frame, applying the driver contract:
//  1. invoke the node's variant-specific logic through ast.EvaluateCore,
//     which itself pushes/pops frame's stack depth around every node it
//     visits (including expr's own children), so the 300-deep bound (spec
//     §8 property 2) catches a single deeply-nested expression tree, not
//     only recursive VM-mediated function calls;
//  2. on a *scripterr.ScriptError, fire the breakpoint bus with its
//     location and re-raise; on any other host error, wrap it as a
//     ScriptError carrying the original as nested cause.
func Evaluate(expr ast.Expression, frame *scriptframe.Frame, hint *ast.Hint) (ast.Result, error) {
	result, err := ast.EvaluateCore(expr, frame, hint)
	metrics.ObserveDepth(frame.Depth())
	if err == nil {
		return result, nil
	}

	loc := locationOf(expr.Info())
	se, ok := scripterr.AsScriptError(err)
	if !ok {
		se = scripterr.Wrap(err, fmt.Sprintf("error while evaluating expression: %s", err.Error()), loc)
	}
	breakpoint.Fire(frame, se, loc)
	return ast.Result{}, se
}

func locationOf(i ast.Info) scripterr.Location {
	return scripterr.Location{File: i.File, Line: i.StartLine, Col: i.StartCol}
}
