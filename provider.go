package crucible

import "sync"

// Resolver is the resolution view handed to providers and injected
// callables. Container implements it directly; during a resolution the
// container passes a view carrying the current resolution path so that
// reentrant lookups keep cycle detection intact.
type Resolver interface {
	// Provide resolves a dependency identifier to its value and scope.
	Provide(dependency any) (DependencyValue, error)

	// Get resolves a dependency identifier and unwraps the value.
	Get(dependency any) (any, error)
}

// Provider supplies values for the dependency identifiers it owns. The
// container queries providers in registration order; ownership of an
// identifier must stay stable between Exists, MaybeProvide and MaybeDebug.
//
// Registration surfaces of a provider must reject duplicate identifiers and
// fail once the owning container has been frozen.
type Provider interface {
	// Exists reports whether the provider recognizes the identifier.
	Exists(dependency any) bool

	// MaybeProvide resolves the identifier if this provider owns it. The
	// second return is false when the identifier belongs to no registration
	// of this provider, letting the container move on to the next one.
	MaybeProvide(dependency any, r Resolver) (DependencyValue, bool, error)

	// MaybeDebug describes the identifier for introspection. It must not
	// instantiate anything nor invoke user resolver functions.
	MaybeDebug(dependency any) (DebugInfo, bool)

	// Clone returns a fully independent copy of the provider. When
	// keepCache is false the copy drops memoized resolution state while
	// keeping every registration.
	Clone(keepCache bool) Provider
}

// DebugInfo describes one registered dependency for introspection.
//
// Scope reports the cache lifetime a resolution would declare: nil for a
// fresh instance each call, Sentinel when it cannot be known statically.
type DebugInfo struct {
	Description  string
	Scope        *Scope
	Dependencies []any
	Wired        []DebugWired
}

// DebugWired names a callable whose resolved parameters feed the dependency
// graph underneath a dependency, such as a factory function.
type DebugWired struct {
	Name         string
	Dependencies []any
}

// freezer is implemented by the built-in providers so Container.Freeze can
// flip their registration surfaces read-only.
type freezer interface {
	freeze()
}

// guard is the registration lock the built-in providers embed. Providers
// hold it for writes during setup and flip frozen once the container
// freezes; read paths that only serve resolution take the read side.
type guard struct {
	mu     sync.RWMutex
	frozen bool
}

func (g *guard) freeze() {
	g.mu.Lock()
	g.frozen = true
	g.mu.Unlock()
}
