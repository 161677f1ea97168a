package crucible

import (
	"fmt"
	"reflect"
	"sync"
)

// ImplementationKey identifies one interface-to-implementation link: the
// abstract identifier paired with the resolver choosing its target. Whether
// the link is permanent does not take part in equality.
type ImplementationKey struct {
	iface any
	fn    uintptr
	name  string
}

// Interface returns the abstract identifier the link resolves.
func (k ImplementationKey) Interface() any {
	return k.iface
}

// ResolverName returns the qualified name of the resolver function.
func (k ImplementationKey) ResolverName() string {
	return k.name
}

// DebugDescription renders the key as "interface @ resolver".
func (k ImplementationKey) DebugDescription() string {
	return fmt.Sprintf("%s @ %s", describe(k.iface), k.name)
}

// implementation holds one registered link. Permanent links memoize the
// resolver's choice under their own lock; transient links re-run it on
// every resolution.
type implementation struct {
	resolver  func(Resolver) (any, error)
	permanent bool

	mu       sync.Mutex
	target   any
	resolved bool
}

// IndirectProvider resolves abstract identifiers to concrete ones. It owns
// two tables: implicits, a static map defined at most once, and
// implementations, resolver functions registered per interface.
type IndirectProvider struct {
	guard
	implicits       map[any]any
	implicitsSet    bool
	implementations map[ImplementationKey]*implementation
}

// NewIndirectProvider returns an empty indirect provider.
func NewIndirectProvider() *IndirectProvider {
	return &IndirectProvider{
		implicits:       make(map[any]any),
		implementations: make(map[ImplementationKey]*implementation),
	}
}

// RegisterImplicits defines the static link table. It can be called at most
// once per provider; sources and targets must both be comparable.
func (p *IndirectProvider) RegisterImplicits(links map[any]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return ErrFrozenContainer("register implicits")
	}
	if p.implicitsSet {
		return ErrImplicitsAlreadyDefined()
	}
	for source, target := range links {
		if !isComparable(source) {
			return ErrInvalidRegistration(fmt.Sprintf("implicit source of type %T is not comparable", source), nil)
		}
		if !isComparable(target) {
			return ErrInvalidRegistration(fmt.Sprintf("implicit target of type %T is not comparable", target), nil)
		}
		if key, ok := source.(ImplementationKey); ok {
			if _, clash := p.implementations[key]; clash {
				return ErrDuplicateDependency(source)
			}
		}
	}
	for source, target := range links {
		p.implicits[source] = target
	}
	p.implicitsSet = true
	return nil
}

// RegisterImplementation links iface to the target chosen by resolver and
// returns the key resolving the link. Permanent links call the resolver at
// most once; transient links call it on every resolution and never cache
// the resulting value.
func (p *IndirectProvider) RegisterImplementation(iface any, resolver func(Resolver) (any, error), permanent bool) (ImplementationKey, error) {
	if !isComparable(iface) {
		return ImplementationKey{}, ErrInvalidRegistration(fmt.Sprintf("interface identifier of type %T is not comparable", iface), nil)
	}
	if resolver == nil {
		return ImplementationKey{}, ErrInvalidRegistration("implementation resolver must not be nil", nil)
	}
	fn := reflect.ValueOf(resolver)
	key := ImplementationKey{iface: iface, fn: fn.Pointer(), name: funcName(fn)}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return ImplementationKey{}, ErrFrozenContainer("register implementation")
	}
	if _, ok := p.implementations[key]; ok {
		return ImplementationKey{}, ErrDuplicateDependency(key)
	}
	if _, ok := p.implicits[key]; ok {
		return ImplementationKey{}, ErrDuplicateDependency(key)
	}
	p.implementations[key] = &implementation{resolver: resolver, permanent: permanent}
	return key, nil
}

func (p *IndirectProvider) Exists(dependency any) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.implicits[dependency]; ok {
		return true
	}
	key, ok := dependency.(ImplementationKey)
	if !ok {
		return false
	}
	_, ok = p.implementations[key]
	return ok
}

func (p *IndirectProvider) MaybeProvide(dependency any, r Resolver) (DependencyValue, bool, error) {
	p.mu.RLock()
	target, ok := p.implicits[dependency]
	p.mu.RUnlock()
	if ok {
		value, err := r.Provide(target)
		return value, true, err
	}

	key, isKey := dependency.(ImplementationKey)
	if !isKey {
		return DependencyValue{}, false, nil
	}
	p.mu.RLock()
	impl, ok := p.implementations[key]
	p.mu.RUnlock()
	if !ok {
		return DependencyValue{}, false, nil
	}

	if impl.permanent {
		target, err := impl.memoizedTarget(r, key)
		if err != nil {
			return DependencyValue{}, true, err
		}
		value, err := r.Provide(target)
		return value, true, err
	}

	target, err := impl.chooseTarget(r, key)
	if err != nil {
		return DependencyValue{}, true, err
	}
	value, err := r.Provide(target)
	if err != nil {
		return DependencyValue{}, true, err
	}
	// The link may point somewhere else next time, so the container must
	// not cache it even when the target itself is scoped.
	value.Scope = nil
	return value, true, nil
}

func (p *IndirectProvider) MaybeDebug(dependency any) (DebugInfo, bool) {
	p.mu.RLock()
	target, ok := p.implicits[dependency]
	p.mu.RUnlock()
	if ok {
		return DebugInfo{
			Description:  fmt.Sprintf("Implicit: %s -> %s", describe(dependency), describe(target)),
			Scope:        Singleton(),
			Dependencies: []any{target},
		}, true
	}

	key, isKey := dependency.(ImplementationKey)
	if !isKey {
		return DebugInfo{}, false
	}
	p.mu.RLock()
	impl, ok := p.implementations[key]
	p.mu.RUnlock()
	if !ok {
		return DebugInfo{}, false
	}

	if impl.permanent {
		info := DebugInfo{
			Description: "Permanent implementation: " + key.DebugDescription(),
			Scope:       Singleton(),
		}
		// Only a target the resolver already chose may appear; debugging
		// never runs resolvers.
		impl.mu.Lock()
		if impl.resolved {
			info.Dependencies = []any{impl.target}
		}
		impl.mu.Unlock()
		return info, true
	}
	return DebugInfo{
		Description: "Implementation: " + key.DebugDescription(),
		Scope:       nil,
	}, true
}

// Clone copies both tables. With keepCache the memoized targets of
// permanent links survive; without it every permanent link starts
// unresolved again.
func (p *IndirectProvider) Clone(keepCache bool) Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	clone := NewIndirectProvider()
	clone.implicitsSet = p.implicitsSet
	for source, target := range p.implicits {
		clone.implicits[source] = target
	}
	for key, impl := range p.implementations {
		copied := &implementation{resolver: impl.resolver, permanent: impl.permanent}
		if keepCache {
			impl.mu.Lock()
			copied.target = impl.target
			copied.resolved = impl.resolved
			impl.mu.Unlock()
		}
		clone.implementations[key] = copied
	}
	return clone
}

// memoizedTarget returns the permanently chosen target, running the
// resolver on first use. The lock is held across the resolver call; a
// resolver looping back to its own key fails the container's cycle check
// before it could reacquire the lock.
func (m *implementation) memoizedTarget(r Resolver, key ImplementationKey) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved {
		return m.target, nil
	}
	target, err := m.chooseTarget(r, key)
	if err != nil {
		return nil, err
	}
	m.target = target
	m.resolved = true
	return target, nil
}

// chooseTarget runs the resolver and validates its choice.
func (m *implementation) chooseTarget(r Resolver, key ImplementationKey) (any, error) {
	target, err := m.resolver(r)
	if err != nil {
		return nil, instantiationError(key, err)
	}
	if !isComparable(target) {
		return nil, ErrInvalidCall(key.name, fmt.Sprintf("resolver returned a non-comparable identifier of type %T", target))
	}
	return target, nil
}
