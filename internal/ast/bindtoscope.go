package ast

import "github.com/opsmonitor/scriptengine/internal/scriptvalue"

// BindToScope rewrites expr in place so bare name references become lookups
// relative to scope: it recurses into Dict (body), Set (target side), and
// Indexer (parent side); a Variable or a string-valued Literal is replaced
// by Indexer(GetScope(scope), Literal(name)). Used when compiling a
// function/apply/object body that must resolve its free names against a
// fixed scope rather than the ambient frame.locals/self/imports chain.
func BindToScope(expr Expression, scope Scope) Expression {
	switch n := expr.(type) {
	case *Variable:
		return &Indexer{
			Location: n.Location,
			Parent:   &GetScope{Location: n.Location, Which: scope},
			Index:    &Literal{Location: n.Location, Value: scriptvalue.String(n.Name)},
		}
	case *Literal:
		if n.Value.IsString() {
			return &Indexer{
				Location: n.Location,
				Parent:   &GetScope{Location: n.Location, Which: scope},
				Index:    n,
			}
		}
		return n
	case *DictLit:
		n.Body = BindToScope(n.Body, scope)
		return n
	case *Set:
		if lv, ok := BindToScope(n.Target, scope).(LValue); ok {
			n.Target = lv
		}
		return n
	case *Indexer:
		if bound := BindToScope(n.Parent, scope); bound != nil {
			n.Parent = bound
		}
		return n
	default:
		return n
	}
}
