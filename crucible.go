// Package crucible is a dependency resolution engine. A Container maps
// comparable identifiers to values through an ordered list of providers
// and caches what they produce according to declared scopes. On top of
// that sit an indirection layer linking abstract identifiers to concrete
// ones, an injection wrapper binding function parameters to dependencies,
// and a debug package rendering the whole graph as a tree.
//
// Registration is a setup phase. Once Freeze is called the container
// rejects further registrations and resolution becomes safe to share
// across goroutines.
package crucible

import (
	"fmt"
	"reflect"
)

// Type returns the reflect.Type of T, the conventional identifier for
// dependencies resolved by type.
func Type[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve fetches dependency from r and asserts the value to T.
func Resolve[T any](r Resolver, dependency any) (T, error) {
	var zero T
	value, err := r.Get(dependency)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, ErrInvalidCall("Resolve", fmt.Sprintf("dependency %s holds %T, not %s", describe(dependency), value, Type[T]()))
	}
	return typed, nil
}

// ResolveType fetches the dependency registered under Type[T].
func ResolveType[T any](r Resolver) (T, error) {
	return Resolve[T](r, Type[T]())
}

// ProviderOf finds the provider with concrete type P on the container.
func ProviderOf[P Provider](c *Container) (P, bool) {
	for _, p := range c.Providers() {
		if typed, ok := p.(P); ok {
			return typed, true
		}
	}
	var zero P
	return zero, false
}
