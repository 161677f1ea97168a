package crucible

import (
	"fmt"
	"reflect"
	"runtime"
	"strconv"
)

// DebugDescriber lets a dependency identifier control how it appears in
// debug output and error messages.
type DebugDescriber interface {
	DebugDescription() string
}

// Describe renders a dependency identifier for humans. Identifiers providing
// DebugDescription are rendered through it, reflect.Type identifiers by their
// type string, strings quoted, functions by their qualified name, and
// everything else through fmt.
func Describe(dependency any) string {
	return describe(dependency)
}

func describe(dependency any) string {
	switch d := dependency.(type) {
	case nil:
		return "<nil>"
	case DebugDescriber:
		return d.DebugDescription()
	case reflect.Type:
		return d.String()
	case string:
		return strconv.Quote(d)
	case fmt.Stringer:
		return d.String()
	}
	rv := reflect.ValueOf(dependency)
	if rv.Kind() == reflect.Func {
		return funcName(rv)
	}
	return fmt.Sprintf("%v", dependency)
}

// funcName resolves the qualified name of a function value, falling back to
// its type when the runtime has no symbol for it.
func funcName(fn reflect.Value) string {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fn.Type().String()
	}
	if rf := runtime.FuncForPC(fn.Pointer()); rf != nil {
		return rf.Name()
	}
	return fn.Type().String()
}

// isComparable reports whether dependency may be used as a map key. The nil
// interface is comparable by definition.
func isComparable(dependency any) bool {
	if dependency == nil {
		return true
	}
	return reflect.TypeOf(dependency).Comparable()
}
