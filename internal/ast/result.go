package ast

import "github.com/opsmonitor/scriptengine/internal/scriptvalue"

// Code is the control-flow signal an evaluation produces, replacing the
// exceptions-for-control-flow technique of the engine this package is
// modeled on with an explicit, checked return value. Named CodeXxx to keep
// the four control-flow signals out of the way of the identically-named
// Break/Continue/Return AST node kinds declared elsewhere in this package.
type Code uint8

const (
	// CodeOk is normal, sequential completion.
	CodeOk Code = iota
	// CodeReturn bubbles out of the enclosing function call.
	CodeReturn
	// CodeBreak bubbles out of the immediately-enclosing While/For.
	CodeBreak
	// CodeContinue restarts the immediately-enclosing While/For.
	CodeContinue
)

func (c Code) String() string {
	switch c {
	case CodeOk:
		return "Ok"
	case CodeReturn:
		return "Return"
	case CodeBreak:
		return "Break"
	case CodeContinue:
		return "Continue"
	default:
		return "Unknown"
	}
}

// Result is the (Value, control code) pair every node evaluation produces.
type Result struct {
	Value scriptvalue.Value
	Code  Code
}

// OkResult wraps a Value as a normal-completion Result.
func OkResult(v scriptvalue.Value) Result { return Result{Value: v, Code: CodeOk} }

// IsNonLocal reports whether this result must be propagated immediately by
// an enclosing sequential evaluator instead of continuing to the next
// statement/element (the CHECK_RESULT macro-level rule).
func (r Result) IsNonLocal() bool { return r.Code != CodeOk }
