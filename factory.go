package crucible

import "fmt"

// FactoryKey identifies one factory registration: the output identifier
// paired with the function producing it. The key itself is what resolves,
// so distinct factories for the same output coexist without clashing.
type FactoryKey struct {
	output any
	fn     uintptr
	name   string
}

// Output returns the identifier of what the factory builds.
func (k FactoryKey) Output() any {
	return k.output
}

// FactoryName returns the qualified name of the factory function.
func (k FactoryKey) FactoryName() string {
	return k.name
}

// DebugDescription renders the key as "output @ factory".
func (k FactoryKey) DebugDescription() string {
	return fmt.Sprintf("%s @ %s", describe(k.output), k.name)
}

type factoryRegistration struct {
	call  *callable
	scope *Scope
}

// FactoryProvider builds dependencies through dedicated factory functions.
// Unlike services, the identifier is the (output, factory) pair rather than
// the output alone.
type FactoryProvider struct {
	guard
	factories map[FactoryKey]factoryRegistration
}

// NewFactoryProvider returns an empty factory provider.
func NewFactoryProvider() *FactoryProvider {
	return &FactoryProvider{factories: make(map[FactoryKey]factoryRegistration)}
}

// Register binds factory to output and returns the key resolving the pair.
// The factory must return exactly one value besides an optional trailing
// error. The sentinel scope maps to singleton.
func (p *FactoryProvider) Register(output, factory any, scope *Scope) (FactoryKey, error) {
	if !isComparable(output) {
		return FactoryKey{}, ErrInvalidRegistration(fmt.Sprintf("factory output identifier of type %T is not comparable", output), nil)
	}
	call, err := newCallable(factory)
	if err != nil {
		return FactoryKey{}, err
	}
	if call.outputs() != 1 {
		return FactoryKey{}, ErrInvalidRegistration(fmt.Sprintf("factory %s must return exactly one value besides an optional error", call.name), nil)
	}
	key := FactoryKey{output: output, fn: call.fn.Pointer(), name: call.name}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return FactoryKey{}, ErrFrozenContainer("register factory")
	}
	if _, ok := p.factories[key]; ok {
		return FactoryKey{}, ErrDuplicateDependency(key)
	}
	p.factories[key] = factoryRegistration{call: call, scope: validatedScope(scope, Singleton())}
	return key, nil
}

func (p *FactoryProvider) Exists(dependency any) bool {
	key, ok := dependency.(FactoryKey)
	if !ok {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok = p.factories[key]
	return ok
}

func (p *FactoryProvider) MaybeProvide(dependency any, r Resolver) (DependencyValue, bool, error) {
	key, ok := dependency.(FactoryKey)
	if !ok {
		return DependencyValue{}, false, nil
	}
	p.mu.RLock()
	reg, ok := p.factories[key]
	p.mu.RUnlock()
	if !ok {
		return DependencyValue{}, false, nil
	}
	instance, err := reg.call.invoke(r)
	if err != nil {
		return DependencyValue{}, true, instantiationError(key, err)
	}
	return DependencyValue{Value: instance, Scope: reg.scope}, true, nil
}

func (p *FactoryProvider) MaybeDebug(dependency any) (DebugInfo, bool) {
	key, ok := dependency.(FactoryKey)
	if !ok {
		return DebugInfo{}, false
	}
	p.mu.RLock()
	reg, ok := p.factories[key]
	p.mu.RUnlock()
	if !ok {
		return DebugInfo{}, false
	}
	return DebugInfo{
		Description: describe(key),
		Scope:       reg.scope,
		Wired: []DebugWired{{
			Name:         key.name,
			Dependencies: reg.call.dependencies(),
		}},
	}, true
}

// Clone copies the registrations. Callables are immutable once built, so the
// clone shares them.
func (p *FactoryProvider) Clone(bool) Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	clone := NewFactoryProvider()
	for key, reg := range p.factories {
		clone.factories[key] = reg
	}
	return clone
}
