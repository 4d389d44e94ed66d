package scriptvalue

import "strings"

// Array is the ordered sequence object backing the AST's Array literal and
// the iterable side of For/In.
type Array struct {
	elems []Value
}

func NewArray(elems ...Value) *Array {
	a := &Array{elems: make([]Value, len(elems))}
	copy(a.elems, elems)
	return a
}

func (a *Array) ObjectType() string { return "Array" }

func (a *Array) Inspect() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Inspect())
	}
	b.WriteByte(']')
	return b.String()
}

func (a *Array) Len() int { return len(a.elems) }

func (a *Array) At(i int) (Value, bool) {
	if i < 0 || i >= len(a.elems) {
		return Empty, false
	}
	return a.elems[i], true
}

func (a *Array) Append(v Value) { a.elems = append(a.elems, v) }

// Contains reports whether v is present using Value.Equal, backing the
// In/NotIn operators.
func (a *Array) Contains(v Value) bool {
	for _, e := range a.elems {
		if e.Equal(v) {
			return true
		}
	}
	return false
}

// Each iterates elements in order, yielding the numeric index as key (the
// contract VMOps.For relies on for Array iteration).
func (a *Array) Each(f func(index float64, value Value) bool) {
	for i, v := range a.elems {
		if !f(float64(i), v) {
			return
		}
	}
}
