package crucible

import (
	"fmt"
	"reflect"
	"strconv"
)

// Injection describes how one parameter of a wrapped callable is filled.
// A nil Dependency leaves the parameter to the caller; when the caller does
// not supply it either, the parameter receives its zero value. Required
// controls what happens when the dependency is unknown to the container: a
// required parameter aborts the call, an optional one falls back to the
// zero value of the parameter type.
type Injection struct {
	Param      string
	Dependency any
	Required   bool
}

// Injected wraps a callable together with a precomputed injection blueprint.
// Calling it resolves every argument the caller did not supply. Wrappers are
// immutable; Bind derives a new one.
type Injected struct {
	fn        reflect.Value
	typ       reflect.Type
	name      string
	blueprint []Injection
	receiver  *reflect.Value
}

// Wrap builds an injection wrapper around fn. The blueprint must carry one
// entry per parameter of fn, in order, with unique non-empty parameter names
// and comparable dependency identifiers. fn may return any number of values
// plus one optional trailing error. Unfilled parameters of type Resolver
// receive the in-flight resolution view.
func Wrap(fn any, blueprint ...Injection) (*Injected, error) {
	if fn == nil {
		return nil, ErrInvalidRegistration("wrapped callable must not be nil", nil)
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, ErrInvalidRegistration(fmt.Sprintf("wrapped callable must be a function, got %T", fn), nil)
	}
	if rv.IsNil() {
		return nil, ErrInvalidRegistration("wrapped callable must not be a nil function", nil)
	}
	typ := rv.Type()
	if typ.IsVariadic() {
		return nil, ErrInvalidRegistration("variadic callables cannot be wrapped", nil)
	}
	if len(blueprint) != typ.NumIn() {
		return nil, ErrInvalidRegistration(fmt.Sprintf("blueprint has %d entries for %d parameters", len(blueprint), typ.NumIn()), nil)
	}
	for i := 0; i < typ.NumOut()-1; i++ {
		if typ.Out(i) == errType {
			return nil, ErrInvalidRegistration("only the trailing result may be an error", nil)
		}
	}

	seen := make(map[string]struct{}, len(blueprint))
	for _, inj := range blueprint {
		if inj.Param == "" {
			return nil, ErrInvalidRegistration("blueprint parameter names must not be empty", nil)
		}
		if _, dup := seen[inj.Param]; dup {
			return nil, ErrInvalidRegistration("duplicate blueprint parameter "+strconv.Quote(inj.Param), nil)
		}
		seen[inj.Param] = struct{}{}
		if !isComparable(inj.Dependency) {
			return nil, ErrInvalidRegistration("dependency identifier for parameter "+strconv.Quote(inj.Param)+" must be comparable", nil)
		}
	}

	bp := make([]Injection, len(blueprint))
	copy(bp, blueprint)
	return &Injected{fn: rv, typ: typ, name: funcName(rv), blueprint: bp}, nil
}

// MustWrap is Wrap, panicking on invalid input. Meant for package-level
// wiring where a bad blueprint is a programming error.
func MustWrap(fn any, blueprint ...Injection) *Injected {
	w, err := Wrap(fn, blueprint...)
	if err != nil {
		panic(err)
	}
	return w
}

// Name returns the qualified name of the wrapped callable.
func (w *Injected) Name() string {
	return w.name
}

func (w *Injected) String() string {
	return w.name
}

// Bound reports whether the wrapper carries a receiver.
func (w *Injected) Bound() bool {
	return w.receiver != nil
}

// Bind fixes the leading parameter to receiver, excluding it from injection
// and from positional arguments. Binding an already bound wrapper returns it
// unchanged.
func (w *Injected) Bind(receiver any) (*Injected, error) {
	if w.receiver != nil {
		return w, nil
	}
	if w.typ.NumIn() == 0 {
		return nil, ErrInvalidCall(w.name, "cannot bind a callable without parameters")
	}
	rv, err := conform(receiver, w.typ.In(0), w.name)
	if err != nil {
		return nil, err
	}
	bound := *w
	bound.receiver = &rv
	return &bound, nil
}

// Dependencies returns the identifiers the wrapper may resolve, in parameter
// order, skipping unfilled entries and the bound receiver.
func (w *Injected) Dependencies() []any {
	deps := make([]any, 0, len(w.blueprint))
	for pos := w.offset(); pos < len(w.blueprint); pos++ {
		if d := w.blueprint[pos].Dependency; d != nil {
			deps = append(deps, d)
		}
	}
	return deps
}

// Call invokes the wrapped callable with the given positional arguments,
// resolving everything else through r. A trailing error result is split off
// and returned as the error.
func (w *Injected) Call(r Resolver, args ...any) ([]any, error) {
	return w.CallNamed(r, args, nil)
}

// CallNamed invokes the wrapped callable with positional and named
// arguments. Supplied arguments are passed through untouched and named ones
// shadow injection; the named map itself is never written to.
func (w *Injected) CallNamed(r Resolver, args []any, named map[string]any) ([]any, error) {
	numIn := w.typ.NumIn()
	offset := w.offset()
	if len(args) > numIn-offset {
		return nil, ErrInvalidCall(w.name, fmt.Sprintf("too many positional arguments: %d for %d parameters", len(args), numIn-offset))
	}

	in := make([]reflect.Value, numIn)
	if w.receiver != nil {
		in[0] = *w.receiver
		if _, clash := named[w.blueprint[0].Param]; clash {
			return nil, ErrInvalidCall(w.name, "multiple values for parameter "+strconv.Quote(w.blueprint[0].Param))
		}
	}

	for i, arg := range args {
		pos := offset + i
		if _, clash := named[w.blueprint[pos].Param]; clash {
			return nil, ErrInvalidCall(w.name, "multiple values for parameter "+strconv.Quote(w.blueprint[pos].Param))
		}
		v, err := conform(arg, w.typ.In(pos), w.name)
		if err != nil {
			return nil, err
		}
		in[pos] = v
	}

	for pos := offset + len(args); pos < numIn; pos++ {
		inj := w.blueprint[pos]
		pt := w.typ.In(pos)

		if value, ok := named[inj.Param]; ok {
			v, err := conform(value, pt, w.name)
			if err != nil {
				return nil, err
			}
			in[pos] = v
			continue
		}

		if inj.Dependency == nil {
			if pt == resolverType {
				in[pos] = reflect.ValueOf(r)
			} else {
				in[pos] = reflect.Zero(pt)
			}
			continue
		}

		resolved, err := r.Get(inj.Dependency)
		if err != nil {
			if !inj.Required && IsDependencyNotFound(err) {
				in[pos] = reflect.Zero(pt)
				continue
			}
			return nil, err
		}
		v, err := conform(resolved, pt, w.name)
		if err != nil {
			return nil, err
		}
		in[pos] = v
	}

	return callFunc(w.fn, w.name, in)
}

func (w *Injected) offset() int {
	if w.receiver != nil {
		return 1
	}
	return 0
}
