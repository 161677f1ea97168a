package crucible

import "fmt"

// ConstantProvider serves fixed values registered under comparable
// identifiers. Constants resolve as singletons and never invoke anything.
type ConstantProvider struct {
	guard
	constants map[any]any
}

// NewConstantProvider returns an empty constant provider.
func NewConstantProvider() *ConstantProvider {
	return &ConstantProvider{constants: make(map[any]any)}
}

// Register stores value under dependency.
func (p *ConstantProvider) Register(dependency, value any) error {
	if !isComparable(dependency) {
		return ErrInvalidRegistration(fmt.Sprintf("constant identifier of type %T is not comparable", dependency), nil)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return ErrFrozenContainer("register constant")
	}
	if _, ok := p.constants[dependency]; ok {
		return ErrDuplicateDependency(dependency)
	}
	p.constants[dependency] = value
	return nil
}

func (p *ConstantProvider) Exists(dependency any) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.constants[dependency]
	return ok
}

func (p *ConstantProvider) MaybeProvide(dependency any, _ Resolver) (DependencyValue, bool, error) {
	p.mu.RLock()
	value, ok := p.constants[dependency]
	p.mu.RUnlock()
	if !ok {
		return DependencyValue{}, false, nil
	}
	return DependencyValue{Value: value, Scope: Singleton()}, true, nil
}

func (p *ConstantProvider) MaybeDebug(dependency any) (DebugInfo, bool) {
	p.mu.RLock()
	value, ok := p.constants[dependency]
	p.mu.RUnlock()
	if !ok {
		return DebugInfo{}, false
	}
	return DebugInfo{
		Description: fmt.Sprintf("Singleton: %s -> %s", describe(dependency), describe(value)),
		Scope:       Singleton(),
	}, true
}

// Clone copies the registrations. Constants carry no resolution state, so
// keepCache has no effect here.
func (p *ConstantProvider) Clone(bool) Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	clone := NewConstantProvider()
	for dep, value := range p.constants {
		clone.constants[dep] = value
	}
	return clone
}
