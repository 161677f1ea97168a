package crucible

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/xraph/crucible/logger"
)

// cacheEntry records a cached value together with the scope generation it
// was stored under. Entries from stale generations are ignored and
// overwritten by the next resolution.
type cacheEntry struct {
	value DependencyValue
	gen   uint64
}

// Container resolves dependency identifiers through an ordered list of
// providers and caches the results according to their declared scopes.
//
// Registration is a setup phase and must not run concurrently with
// resolution. Freeze ends the phase explicitly; from then on every
// registration surface fails and resolution may be shared across
// goroutines. Scope resets stay available after freezing.
type Container struct {
	id     string
	base   logger.Logger
	log    logger.Logger
	scopes *scopeRegistry

	mu        sync.RWMutex
	providers []Provider
	cache     map[any]cacheEntry
	frozen    bool
}

// New builds a container. Unless configured otherwise it carries the
// standard provider set: constants, services, factories and indirection.
// Providers passed through options take precedence over the defaults of
// the same concrete type.
func New(opts ...Option) *Container {
	o := newOptions(opts)
	c := &Container{
		id:     uuid.NewString(),
		base:   o.logger,
		scopes: newScopeRegistry(),
		cache:  make(map[any]cacheEntry),
	}
	c.log = o.logger.With(logger.String("container_id", c.id))

	c.providers = append(c.providers, o.providers...)
	if !o.withoutDefaults {
		c.installDefaultProviders()
	}
	return c
}

func (c *Container) installDefaultProviders() {
	if _, ok := ProviderOf[*ConstantProvider](c); !ok {
		c.providers = append(c.providers, NewConstantProvider())
	}
	if _, ok := ProviderOf[*ServiceProvider](c); !ok {
		c.providers = append(c.providers, NewServiceProvider())
	}
	if _, ok := ProviderOf[*FactoryProvider](c); !ok {
		c.providers = append(c.providers, NewFactoryProvider())
	}
	if _, ok := ProviderOf[*IndirectProvider](c); !ok {
		c.providers = append(c.providers, NewIndirectProvider())
	}
}

// ID returns the container's unique identity, also attached to its logs.
func (c *Container) ID() string {
	return c.id
}

// Providers returns the providers in registration order.
func (c *Container) Providers() []Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// AddProvider appends a provider to the resolution order. Only one provider
// of a given concrete type may be registered.
func (c *Container) AddProvider(p Provider) error {
	if p == nil {
		return ErrInvalidRegistration("provider must not be nil", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrFrozenContainer("add provider")
	}
	for _, existing := range c.providers {
		if reflect.TypeOf(existing) == reflect.TypeOf(p) {
			return ErrInvalidRegistration(fmt.Sprintf("provider of type %T already registered", p), nil)
		}
	}
	c.providers = append(c.providers, p)
	c.log.Debug("provider registered", logger.String("provider", fmt.Sprintf("%T", p)))
	return nil
}

// =============================================================================
// SCOPES
// =============================================================================

// NewScope registers a named scope. Scope names are unique per container and
// the singleton and sentinel names are reserved.
func (c *Container) NewScope(name string) (*Scope, error) {
	c.mu.RLock()
	frozen := c.frozen
	c.mu.RUnlock()
	if frozen {
		return nil, ErrFrozenContainer("create scope")
	}
	scope, err := c.scopes.add(name)
	if err != nil {
		return nil, err
	}
	c.log.Debug("scope created", logger.String("scope", name))
	return scope, nil
}

// ResetScope invalidates every value cached under the scope. Instances
// already handed out stay valid; the next resolution builds fresh ones.
// Resetting works on frozen containers too.
func (c *Container) ResetScope(scope *Scope) error {
	if err := c.scopes.reset(scope); err != nil {
		return err
	}
	c.log.Debug("scope reset", logger.String("scope", scope.Name()))
	return nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Freeze ends the registration phase. Resolution and scope resets remain
// available; every registration surface fails from here on.
func (c *Container) Freeze() {
	c.mu.Lock()
	if c.frozen {
		c.mu.Unlock()
		return
	}
	c.frozen = true
	providers := make([]Provider, len(c.providers))
	copy(providers, c.providers)
	c.mu.Unlock()

	for _, p := range providers {
		if f, ok := p.(freezer); ok {
			f.freeze()
		}
	}
	c.log.Debug("container frozen")
}

// Frozen reports whether the container rejects registrations.
func (c *Container) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Clone produces an independent snapshot: providers are cloned, the scope
// registry is copied and, when keepCache is true, cached values come along.
// When keepCache is false the clone starts with an empty cache and cloned
// providers drop their memoized resolution state. Clones accept
// registrations regardless of the parent's frozen state.
func (c *Container) Clone(keepCache bool) *Container {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Container{
		id:     uuid.NewString(),
		base:   c.base,
		scopes: c.scopes.clone(),
		cache:  make(map[any]cacheEntry, len(c.cache)),
	}
	clone.log = c.base.With(logger.String("container_id", clone.id))
	clone.providers = make([]Provider, len(c.providers))
	for i, p := range c.providers {
		clone.providers[i] = p.Clone(keepCache)
	}
	if keepCache {
		for dep, entry := range c.cache {
			clone.cache[dep] = entry
		}
	}
	c.log.Debug("container cloned",
		logger.String("clone_id", clone.id),
		logger.Bool("keep_cache", keepCache))
	return clone
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Provide resolves a dependency identifier to its value and scope.
func (c *Container) Provide(dependency any) (DependencyValue, error) {
	value, err := c.resolve(dependency, nil)
	if err != nil {
		c.log.Debug("resolution failed",
			logger.String("dependency", describe(dependency)),
			logger.Error(err))
	}
	return value, err
}

// Get resolves a dependency identifier and unwraps the value.
func (c *Container) Get(dependency any) (any, error) {
	value, err := c.Provide(dependency)
	return value.Value, err
}

// Exists reports whether any provider recognizes the identifier.
func (c *Container) Exists(dependency any) bool {
	if !isComparable(dependency) {
		return false
	}
	for _, p := range c.Providers() {
		if p.Exists(dependency) {
			return true
		}
	}
	return false
}

// Debug describes a registered identifier without instantiating anything.
func (c *Container) Debug(dependency any) (DebugInfo, bool) {
	if !isComparable(dependency) {
		return DebugInfo{}, false
	}
	for _, p := range c.Providers() {
		if info, ok := p.MaybeDebug(dependency); ok {
			return info, true
		}
	}
	return DebugInfo{}, false
}

// resolution is the per-call view providers resolve through. It carries the
// chain of identifiers currently being resolved so reentrant lookups detect
// cycles against their own path only.
type resolution struct {
	c    *Container
	path []any
}

func (r *resolution) Provide(dependency any) (DependencyValue, error) {
	return r.c.resolve(dependency, r.path)
}

func (r *resolution) Get(dependency any) (any, error) {
	value, err := r.c.resolve(dependency, r.path)
	return value.Value, err
}

func (c *Container) resolve(dependency any, path []any) (DependencyValue, error) {
	if !isComparable(dependency) {
		return DependencyValue{}, ErrInvalidCall("Provide", fmt.Sprintf("dependency identifier of type %T is not comparable", dependency))
	}
	for _, ancestor := range path {
		if ancestor == dependency {
			return DependencyValue{}, ErrDependencyCycle(cyclePath(path, dependency))
		}
	}

	if value, ok := c.cached(dependency); ok {
		return value, nil
	}

	next := make([]any, len(path)+1)
	copy(next, path)
	next[len(path)] = dependency
	view := &resolution{c: c, path: next}

	for _, p := range c.Providers() {
		value, owned, err := p.MaybeProvide(dependency, view)
		if err != nil {
			return DependencyValue{}, err
		}
		if !owned {
			continue
		}
		if value.Scope == nil {
			return value, nil
		}
		return c.store(dependency, value)
	}
	return DependencyValue{}, ErrDependencyNotFound(dependency)
}

// cached returns a previously stored value when its scope generation is
// still current.
func (c *Container) cached(dependency any) (DependencyValue, bool) {
	c.mu.RLock()
	entry, ok := c.cache[dependency]
	c.mu.RUnlock()
	if !ok {
		return DependencyValue{}, false
	}
	gen, known := c.scopes.generation(entry.value.Scope.Name())
	if !known || gen != entry.gen {
		return DependencyValue{}, false
	}
	return entry.value, true
}

// store caches a scoped value, preferring an entry a concurrent resolution
// may have stored first so scoped instances stay stable.
func (c *Container) store(dependency any, value DependencyValue) (DependencyValue, error) {
	gen, known := c.scopes.generation(value.Scope.Name())
	if !known {
		return DependencyValue{}, ErrScopeNotFound(value.Scope.Name())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.cache[dependency]; ok && prev.gen == gen && prev.value.Scope.Name() == value.Scope.Name() {
		return prev.value, nil
	}
	c.cache[dependency] = cacheEntry{value: value, gen: gen}
	return value, nil
}

// cyclePath renders the resolution chain from the first occurrence of the
// repeated dependency onwards.
func cyclePath(path []any, dependency any) []string {
	start := 0
	for i, ancestor := range path {
		if ancestor == dependency {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(path)-start+1)
	for _, ancestor := range path[start:] {
		chain = append(chain, describe(ancestor))
	}
	return append(chain, describe(dependency))
}

// =============================================================================
// REGISTRATION FACADE
// =============================================================================

// RegisterConstant stores a fixed value under an identifier on the default
// constant provider. Constants resolve as singletons.
func (c *Container) RegisterConstant(dependency, value any) error {
	p, ok := ProviderOf[*ConstantProvider](c)
	if !ok {
		return ErrInvalidRegistration("no constant provider registered", nil)
	}
	if err := p.Register(dependency, value); err != nil {
		return err
	}
	c.log.Debug("constant registered", logger.String("dependency", describe(dependency)))
	return nil
}

// RegisterService registers a constructor under a plain identifier on the
// default service provider. A nil scope yields a fresh instance per
// resolution, the sentinel the default singleton scope.
func (c *Container) RegisterService(dependency, ctor any, scope *Scope) error {
	p, ok := ProviderOf[*ServiceProvider](c)
	if !ok {
		return ErrInvalidRegistration("no service provider registered", nil)
	}
	if err := c.checkScope(scope); err != nil {
		return err
	}
	if err := p.Register(dependency, ctor, scope); err != nil {
		return err
	}
	c.log.Debug("service registered",
		logger.String("dependency", describe(dependency)),
		logger.String("scope", scopeLabel(validatedScope(scope, Singleton()))))
	return nil
}

// RegisterFactory registers a constructor for an output identifier on the
// default factory provider and returns the composite key resolving it.
func (c *Container) RegisterFactory(output, factory any, scope *Scope) (FactoryKey, error) {
	p, ok := ProviderOf[*FactoryProvider](c)
	if !ok {
		return FactoryKey{}, ErrInvalidRegistration("no factory provider registered", nil)
	}
	if err := c.checkScope(scope); err != nil {
		return FactoryKey{}, err
	}
	key, err := p.Register(output, factory, scope)
	if err != nil {
		return FactoryKey{}, err
	}
	c.log.Debug("factory registered", logger.String("dependency", describe(key)))
	return key, nil
}

// RegisterImplementation links an interface identifier to a resolver
// choosing its concrete target, returning the key resolving the link.
func (c *Container) RegisterImplementation(iface any, resolver func(Resolver) (any, error), permanent bool) (ImplementationKey, error) {
	p, ok := ProviderOf[*IndirectProvider](c)
	if !ok {
		return ImplementationKey{}, ErrInvalidRegistration("no indirect provider registered", nil)
	}
	key, err := p.RegisterImplementation(iface, resolver, permanent)
	if err != nil {
		return ImplementationKey{}, err
	}
	c.log.Debug("implementation registered",
		logger.String("dependency", describe(key)),
		logger.Bool("permanent", permanent))
	return key, nil
}

// RegisterImplicits defines the one-time table of static links on the
// default indirect provider.
func (c *Container) RegisterImplicits(links map[any]any) error {
	p, ok := ProviderOf[*IndirectProvider](c)
	if !ok {
		return ErrInvalidRegistration("no indirect provider registered", nil)
	}
	if err := p.RegisterImplicits(links); err != nil {
		return err
	}
	c.log.Debug("implicits registered", logger.Int("count", len(links)))
	return nil
}

// checkScope rejects named scopes this container does not know. The
// reserved tokens and nil always pass.
func (c *Container) checkScope(scope *Scope) error {
	if scope == nil {
		return nil
	}
	switch scope.name {
	case singletonScopeName, sentinelScopeName:
		return nil
	}
	if !c.scopes.known(scope) {
		return ErrScopeNotFound(scope.name)
	}
	return nil
}
