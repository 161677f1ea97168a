package crucible

import (
	"fmt"
	"reflect"
)

var (
	errType      = reflect.TypeOf((*error)(nil)).Elem()
	resolverType = reflect.TypeOf((*Resolver)(nil)).Elem()
)

// callable normalizes a constructor so the service and factory providers can
// invoke plain functions and injected wrappers the same way. Parameters of a
// plain function are resolved by their reflect.Type identifier, except
// Resolver parameters which receive the in-flight resolution view.
type callable struct {
	fn       reflect.Value
	typ      reflect.Type
	name     string
	injected *Injected
}

func newCallable(ctor any) (*callable, error) {
	if w, ok := ctor.(*Injected); ok {
		return &callable{fn: w.fn, typ: w.typ, name: w.name, injected: w}, nil
	}
	if ctor == nil {
		return nil, ErrInvalidRegistration("constructor must not be nil", nil)
	}
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func {
		return nil, ErrInvalidRegistration(fmt.Sprintf("constructor must be a function or injected wrapper, got %T", ctor), nil)
	}
	if fn.IsNil() {
		return nil, ErrInvalidRegistration("constructor must not be a nil function", nil)
	}
	typ := fn.Type()
	if typ.IsVariadic() {
		return nil, ErrInvalidRegistration("variadic constructors are not supported", nil)
	}
	return &callable{fn: fn, typ: typ, name: funcName(fn)}, nil
}

// outputs counts the constructor's results, not counting a trailing error.
func (c *callable) outputs() int {
	n := c.typ.NumOut()
	if n > 0 && c.typ.Out(n-1) == errType {
		return n - 1
	}
	return n
}

// invoke calls the constructor, resolving every parameter through r, and
// returns its single produced value.
func (c *callable) invoke(r Resolver) (any, error) {
	if c.injected != nil {
		results, err := c.injected.Call(r)
		if err != nil {
			return nil, err
		}
		return results[0], nil
	}

	in := make([]reflect.Value, c.typ.NumIn())
	for i := range in {
		pt := c.typ.In(i)
		if pt == resolverType {
			in[i] = reflect.ValueOf(r)
			continue
		}
		resolved, err := r.Get(pt)
		if err != nil {
			return nil, err
		}
		v, err := conform(resolved, pt, c.name)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}

	results, err := callFunc(c.fn, c.name, in)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// dependencies lists the identifiers a debug walk should descend into.
func (c *callable) dependencies() []any {
	if c.injected != nil {
		return c.injected.Dependencies()
	}
	deps := make([]any, 0, c.typ.NumIn())
	for i := 0; i < c.typ.NumIn(); i++ {
		if pt := c.typ.In(i); pt != resolverType {
			deps = append(deps, pt)
		}
	}
	return deps
}

// callFunc invokes fn, recovering panics into errors and splitting off a
// trailing error result.
func callFunc(fn reflect.Value, name string, in []reflect.Value) (results []any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results, err = nil, fmt.Errorf("panic during call to %s: %v", name, rec)
		}
	}()

	out := fn.Call(in)

	typ := fn.Type()
	if n := typ.NumOut(); n > 0 && typ.Out(n-1) == errType {
		if e := out[n-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
		out = out[:n-1]
	}

	results = make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// conform adapts a resolved value to a parameter type, using the zero value
// for nil and rejecting anything not assignable.
func conform(value any, pt reflect.Type, callable string) (reflect.Value, error) {
	if value == nil {
		switch pt.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(pt), nil
		default:
			return reflect.Value{}, ErrInvalidCall(callable, fmt.Sprintf("nil value for non-nilable parameter type %s", pt))
		}
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(pt) {
		return reflect.Value{}, ErrInvalidCall(callable, fmt.Sprintf("value of type %s is not assignable to parameter type %s", rv.Type(), pt))
	}
	return rv, nil
}
