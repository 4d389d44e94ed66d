package scriptvalue

import "strings"

// Dictionary is the insertion-ordered String -> Value mapping backing Dict
// literals, ScriptFrame.locals, ScriptGlobal's namespaces, and `self`
// objects created by Object/Apply.
type Dictionary struct {
	keys   []string
	values map[string]Value
}

func NewDictionary() *Dictionary {
	return &Dictionary{values: make(map[string]Value)}
}

func (d *Dictionary) ObjectType() string { return "Dictionary" }

func (d *Dictionary) Inspect() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(d.values[k].Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

func (d *Dictionary) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

func (d *Dictionary) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dictionary) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dictionary) Remove(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// ShallowClone copies the key order and value map but not the Values
// themselves (Values are immutable or reference-shared, so a shallow copy
// is sufficient for the language's copy-on-write container semantics).
func (d *Dictionary) ShallowClone() *Dictionary {
	clone := &Dictionary{
		keys:   append([]string(nil), d.keys...),
		values: make(map[string]Value, len(d.values)),
	}
	for k, v := range d.values {
		clone.values[k] = v
	}
	return clone
}

// Each iterates in insertion order, the contract VMOps.For relies on for
// Dictionary iteration (key -> key, value -> val).
func (d *Dictionary) Each(f func(key string, value Value) bool) {
	for _, k := range d.keys {
		if !f(k, d.values[k]) {
			return
		}
	}
}

func (d *Dictionary) Len() int { return len(d.keys) }
