package ast

import (
	"context"
	"errors"

	"github.com/opsmonitor/scriptengine/internal/imports"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scriptglobal"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

// fakeVM is a minimal VM collaborator used only to exercise AST node
// evaluation in tests; it implements just enough of the contract for the
// node kinds under test and panics loudly if something it doesn't expect
// is called.
type fakeVM struct {
	configItems map[string]Expression
}

func newFakeVM() *fakeVM {
	return &fakeVM{configItems: map[string]Expression{}}
}

func (v *fakeVM) Variable(frame *scriptframe.Frame, name string, loc Info) (scriptvalue.Value, error) {
	if frame.HasLocals() {
		if frame.Locals().Has(name) {
			val, _ := frame.Locals().Get(name)
			return val, nil
		}
	}
	if self, ok := frame.Self().AsObject().(*scriptvalue.Dictionary); ok {
		if val, ok := self.Get(name); ok {
			return val, nil
		}
	}
	if val, ok := imports.Current().Resolve(name); ok {
		return val, nil
	}
	if val, ok := scriptglobal.Default().Get(name); ok {
		return val, nil
	}
	return scriptvalue.Empty, errors.New("undefined variable: " + name)
}

func (v *fakeVM) GetField(container, index scriptvalue.Value, sandboxed bool, loc Info) (scriptvalue.Value, error) {
	dict, ok := container.AsObject().(*scriptvalue.Dictionary)
	if !ok {
		arr, ok := container.AsObject().(*scriptvalue.Array)
		if !ok {
			return scriptvalue.Empty, errors.New("not a container")
		}
		n, _ := index.ToNumber()
		val, ok := arr.At(int(n))
		if !ok {
			return scriptvalue.Empty, nil
		}
		return val, nil
	}
	val, _ := dict.Get(index.Inspect())
	return val, nil
}

func (v *fakeVM) SetField(container, index, value scriptvalue.Value, loc Info) error {
	dict, ok := container.AsObject().(*scriptvalue.Dictionary)
	if !ok {
		return errors.New("not a container")
	}
	dict.Set(index.Inspect(), value)
	return nil
}

func (v *fakeVM) FunctionCall(frame *scriptframe.Frame, self scriptvalue.Value, fn scriptvalue.Value, args []scriptvalue.Value) (scriptvalue.Value, error) {
	f, ok := fn.AsObject().(*Function)
	if !ok {
		return scriptvalue.Empty, errors.New("not a function")
	}
	child := scriptframe.Push(self)
	defer child.Pop()
	locals := child.Locals()
	for name, v := range f.ClosedVars {
		locals.Set(name, v)
	}
	for i, argName := range f.Args {
		if i < len(args) {
			locals.Set(argName, args[i])
		}
	}
	result, err := EvaluateCore(f.Body, child, nil)
	if err != nil {
		return scriptvalue.Empty, err
	}
	return result.Value, nil
}

func (v *fakeVM) ConstructorCall(typ scriptvalue.Value, args []scriptvalue.Value, loc Info) (scriptvalue.Value, error) {
	t, ok := typ.AsObject().(*scriptvalue.Type)
	if !ok || t.Construct == nil {
		return scriptvalue.Empty, errors.New("not constructible")
	}
	return t.Construct(args)
}

func (v *fakeVM) NewFunction(frame *scriptframe.Frame, args []string, closedVars map[string]scriptvalue.Value, body Expression) (scriptvalue.Value, error) {
	return scriptvalue.FromObject(&Function{Args: args, ClosedVars: closedVars, Body: body}), nil
}

func (v *fakeVM) NewObject(frame *scriptframe.Frame, spec ObjectSpec) error { return nil }
func (v *fakeVM) NewApply(frame *scriptframe.Frame, spec ApplySpec) error   { return nil }

func (v *fakeVM) For(frame *scriptframe.Frame, keyVar, valVar string, iterable scriptvalue.Value, body Expression) (Result, error) {
	child := scriptframe.Push(frame.Self())
	defer child.Pop()
	// The child frame shares the caller's locals, so assignments the body
	// makes to names already bound in the caller stay visible after the loop.
	child.SetLocals(frame.Locals())
	locals := child.Locals()

	runBody := func() (Result, error, bool) {
		r, err := EvaluateCore(body, child, nil)
		if err != nil {
			return Result{}, err, false
		}
		switch r.Code {
		case CodeBreak:
			return OkResult(scriptvalue.Empty), nil, false
		case CodeReturn:
			return r, nil, false
		default:
			return Result{}, nil, true
		}
	}

	switch obj := iterable.AsObject().(type) {
	case *scriptvalue.Array:
		var stop bool
		var final Result
		var ferr error
		obj.Each(func(index float64, value scriptvalue.Value) bool {
			if keyVar != "" {
				locals.Set(keyVar, scriptvalue.Number(index))
			}
			if valVar != "" {
				locals.Set(valVar, value)
			}
			r, err, cont := runBody()
			if !cont {
				final, ferr, stop = r, err, true
				return false
			}
			return true
		})
		if stop {
			return final, ferr
		}
		return OkResult(scriptvalue.Empty), nil
	case *scriptvalue.Dictionary:
		var stop bool
		var final Result
		var ferr error
		obj.Each(func(key string, value scriptvalue.Value) bool {
			if keyVar != "" {
				locals.Set(keyVar, scriptvalue.String(key))
			}
			if valVar != "" {
				locals.Set(valVar, value)
			}
			r, err, cont := runBody()
			if !cont {
				final, ferr, stop = r, err, true
				return false
			}
			return true
		})
		if stop {
			return final, ferr
		}
		return OkResult(scriptvalue.Empty), nil
	}
	return Result{}, errors.New("not iterable")
}

func (v *fakeVM) GetConfigItem(typ, name string) (Expression, bool) {
	e, ok := v.configItems[typ+"/"+name]
	return e, ok
}

func (v *fakeVM) HandleInclude(ctx context.Context, spec IncludeSpec) (Expression, error) {
	return &Literal{Value: scriptvalue.String("included:" + spec.Path)}, nil
}

func (v *fakeVM) LoadExtensionLibrary(path string) error { return nil }
