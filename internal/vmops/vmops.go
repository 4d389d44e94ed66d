// Package vmops is the documented, importable name for the external
// collaborator contracts the expression engine calls into but does not
// implement (spec component "External collaborator contracts"). The
// interfaces themselves are declared in package ast (ast.VM and friends)
// because Expression implementations are their only caller and Go's
// structural typing means the method sets must live next to the types
// they exchange (Expression, Result, Info); this package re-exports them
// under the names a monitoring-domain implementation would reasonably
// import instead of reaching into ast directly.
package vmops

import "github.com/opsmonitor/scriptengine/internal/ast"

type (
	VM            = ast.VM
	ObjectSpec    = ast.ObjectSpec
	ApplySpec     = ast.ApplySpec
	IncludeSpec   = ast.IncludeSpec
	IncludeKind   = ast.IncludeKind
)

const (
	IncludeRegular   = ast.IncludeRegular
	IncludeRecursive = ast.IncludeRecursive
	IncludeZones     = ast.IncludeZones
)

// Bind installs the collaborator implementation (delegates to ast.BindVM).
func Bind(vm VM) { ast.BindVM(vm) }

// Current returns the bound collaborator (delegates to ast.CurrentVM).
func Current() VM { return ast.CurrentVM() }
