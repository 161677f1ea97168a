package crucible

import "fmt"

// serviceRegistration pairs a normalized constructor with the scope its
// instances cache under. A nil scope means a fresh instance per resolution.
type serviceRegistration struct {
	call  *callable
	scope *Scope
}

// ServiceProvider instantiates dependencies from registered constructors.
// The identifier itself names the service; the constructor's parameters are
// resolved through the container on every call.
type ServiceProvider struct {
	guard
	services map[any]serviceRegistration
}

// NewServiceProvider returns an empty service provider.
func NewServiceProvider() *ServiceProvider {
	return &ServiceProvider{services: make(map[any]serviceRegistration)}
}

// Register binds ctor to dependency. The constructor must return exactly one
// value besides an optional trailing error and may be a plain function or an
// injection-wrapped one. The sentinel scope maps to singleton.
func (p *ServiceProvider) Register(dependency, ctor any, scope *Scope) error {
	if !isComparable(dependency) {
		return ErrInvalidRegistration(fmt.Sprintf("service identifier of type %T is not comparable", dependency), nil)
	}
	call, err := newCallable(ctor)
	if err != nil {
		return err
	}
	if call.outputs() != 1 {
		return ErrInvalidRegistration(fmt.Sprintf("constructor %s must return exactly one value besides an optional error", call.name), nil)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return ErrFrozenContainer("register service")
	}
	if _, ok := p.services[dependency]; ok {
		return ErrDuplicateDependency(dependency)
	}
	p.services[dependency] = serviceRegistration{call: call, scope: validatedScope(scope, Singleton())}
	return nil
}

func (p *ServiceProvider) Exists(dependency any) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.services[dependency]
	return ok
}

func (p *ServiceProvider) MaybeProvide(dependency any, r Resolver) (DependencyValue, bool, error) {
	p.mu.RLock()
	reg, ok := p.services[dependency]
	p.mu.RUnlock()
	if !ok {
		return DependencyValue{}, false, nil
	}
	instance, err := reg.call.invoke(r)
	if err != nil {
		return DependencyValue{}, true, instantiationError(dependency, err)
	}
	return DependencyValue{Value: instance, Scope: reg.scope}, true, nil
}

func (p *ServiceProvider) MaybeDebug(dependency any) (DebugInfo, bool) {
	p.mu.RLock()
	reg, ok := p.services[dependency]
	p.mu.RUnlock()
	if !ok {
		return DebugInfo{}, false
	}
	return DebugInfo{
		Description:  describe(dependency),
		Scope:        reg.scope,
		Dependencies: reg.call.dependencies(),
	}, true
}

// Clone copies the registrations. Callables are immutable once built, so the
// clone shares them.
func (p *ServiceProvider) Clone(bool) Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	clone := NewServiceProvider()
	for dep, reg := range p.services {
		clone.services[dep] = reg
	}
	return clone
}
