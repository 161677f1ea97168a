package crucible

import "sync"

const (
	singletonScopeName = "singleton"
	sentinelScopeName  = "sentinel"
)

// Scope is a named cache lifetime for resolved values. Scopes are obtained
// from Singleton, Sentinel or Container.NewScope; two tokens designate the
// same scope exactly when their names are equal.
type Scope struct {
	name string
}

func (s *Scope) Name() string {
	return s.name
}

func (s *Scope) String() string {
	return "scope(" + s.name + ")"
}

var (
	singletonScope = &Scope{name: singletonScopeName}
	sentinelScope  = &Scope{name: sentinelScopeName}
)

// Singleton returns the reserved scope under which values live for the
// lifetime of their container. It can never be reset.
func Singleton() *Scope {
	return singletonScope
}

// Sentinel returns the marker scope meaning "not specified". Registration
// surfaces translate it to their default scope; it is never a valid cache
// scope and never registered.
func Sentinel() *Scope {
	return sentinelScope
}

// validatedScope maps the sentinel to def and passes every other token
// through, including nil.
func validatedScope(scope, def *Scope) *Scope {
	if scope != nil && scope.name == sentinelScopeName {
		return def
	}
	return scope
}

// scopeLabel names a scope for logs and debug output, with nil meaning no
// caching at all.
func scopeLabel(s *Scope) string {
	if s == nil {
		return "none"
	}
	return s.name
}

// scopeRegistry tracks the scopes known to one container and a generation
// counter per scope. Resetting a scope bumps its generation, which strands
// every cache entry recorded under the previous one.
type scopeRegistry struct {
	mu   sync.RWMutex
	gens map[string]uint64
}

func newScopeRegistry() *scopeRegistry {
	return &scopeRegistry{gens: map[string]uint64{singletonScopeName: 0}}
}

func (r *scopeRegistry) add(name string) (*Scope, error) {
	if name == "" {
		return nil, ErrInvalidRegistration("scope name must not be empty", nil)
	}
	if name == singletonScopeName || name == sentinelScopeName {
		return nil, ErrInvalidRegistration("scope name '"+name+"' is reserved", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gens[name]; ok {
		return nil, ErrScopeAlreadyExists(name)
	}
	r.gens[name] = 0
	return &Scope{name: name}, nil
}

func (r *scopeRegistry) reset(scope *Scope) error {
	if scope == nil || scope.name == sentinelScopeName {
		return ErrInvalidRegistration("only named scopes can be reset", nil)
	}
	if scope.name == singletonScopeName {
		return ErrInvalidRegistration("the singleton scope cannot be reset", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gens[scope.name]; !ok {
		return ErrScopeNotFound(scope.name)
	}
	r.gens[scope.name]++
	return nil
}

// generation returns the current generation of a scope name, reporting
// whether the scope is known at all.
func (r *scopeRegistry) generation(name string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.gens[name]
	return gen, ok
}

func (r *scopeRegistry) known(scope *Scope) bool {
	if scope == nil {
		return false
	}
	_, ok := r.generation(scope.name)
	return ok
}

// clone copies the registry, generations included, so resets on either side
// stay invisible to the other.
func (r *scopeRegistry) clone() *scopeRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gens := make(map[string]uint64, len(r.gens))
	for name, gen := range r.gens {
		gens[name] = gen
	}
	return &scopeRegistry{gens: gens}
}
