package crucible

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/crucible/logger"
)

// stubProvider serves canned values and errors so container behavior can be
// tested apart from the built-in providers.
type stubProvider struct {
	values map[any]DependencyValue
	errs   map[any]error
}

func (p *stubProvider) Exists(dependency any) bool {
	if _, ok := p.values[dependency]; ok {
		return true
	}
	_, ok := p.errs[dependency]
	return ok
}

func (p *stubProvider) MaybeProvide(dependency any, _ Resolver) (DependencyValue, bool, error) {
	if err, ok := p.errs[dependency]; ok {
		return DependencyValue{}, true, err
	}
	value, ok := p.values[dependency]
	return value, ok, nil
}

func (p *stubProvider) MaybeDebug(dependency any) (DebugInfo, bool) {
	value, ok := p.values[dependency]
	if !ok {
		return DebugInfo{}, false
	}
	return DebugInfo{Description: describe(dependency), Scope: value.Scope}, true
}

func (p *stubProvider) Clone(bool) Provider {
	return &stubProvider{values: p.values, errs: p.errs}
}

type pingService struct {
	id int
}

func TestNew_InstallsDefaultProviders(t *testing.T) {
	c := New()

	assert.Len(t, c.Providers(), 4)
	_, ok := ProviderOf[*ConstantProvider](c)
	assert.True(t, ok)
	_, ok = ProviderOf[*ServiceProvider](c)
	assert.True(t, ok)
	_, ok = ProviderOf[*FactoryProvider](c)
	assert.True(t, ok)
	_, ok = ProviderOf[*IndirectProvider](c)
	assert.True(t, ok)
}

func TestNew_WithoutDefaultProviders(t *testing.T) {
	c := New(WithoutDefaultProviders())

	assert.Empty(t, c.Providers())
	err := c.RegisterConstant("port", 8080)
	assert.ErrorIs(t, err, ErrInvalidRegistrationSentinel)
}

func TestNew_WithProviders(t *testing.T) {
	constants := NewConstantProvider()
	c := New(WithProviders(constants))

	got, ok := ProviderOf[*ConstantProvider](c)
	require.True(t, ok)
	assert.Same(t, constants, got)
	assert.Len(t, c.Providers(), 4)
}

func TestNew_WithLogger(t *testing.T) {
	c := New(WithLogger(logger.NewTest(t)))

	require.NoError(t, c.RegisterConstant("port", 8080))
	value, err := c.Get("port")
	require.NoError(t, err)
	assert.Equal(t, 8080, value)
}

func TestContainer_ID(t *testing.T) {
	c := New()

	assert.NotEmpty(t, c.ID())
	assert.NotEqual(t, c.ID(), New().ID())
	assert.NotEqual(t, c.ID(), c.Clone(true).ID())
}

func TestAddProvider(t *testing.T) {
	c := New(WithoutDefaultProviders())

	require.NoError(t, c.AddProvider(NewConstantProvider()))
	assert.Len(t, c.Providers(), 1)

	err := c.AddProvider(NewConstantProvider())
	assert.ErrorIs(t, err, ErrInvalidRegistrationSentinel)

	err = c.AddProvider(nil)
	assert.ErrorIs(t, err, ErrInvalidRegistrationSentinel)

	c.Freeze()
	err = c.AddProvider(NewServiceProvider())
	assert.True(t, IsFrozenContainer(err))
}

func TestContainer_ProviderOrder(t *testing.T) {
	stub := &stubProvider{values: map[any]DependencyValue{
		"x": {Value: "from stub", Scope: Singleton()},
	}}
	c := New(WithProviders(stub))
	require.NoError(t, c.RegisterConstant("x", "from constants"))

	value, err := c.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "from stub", value)
}

func TestContainer_ProviderErrorAbortsResolution(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubProvider{errs: map[any]error{"x": boom}}
	c := New(WithProviders(stub))

	_, err := c.Get("x")
	assert.ErrorIs(t, err, boom)
}

func TestGet_NotFound(t *testing.T) {
	c := New()

	_, err := c.Get("ghost")
	require.Error(t, err)
	assert.True(t, IsDependencyNotFound(err))
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestGet_NonComparableDependency(t *testing.T) {
	c := New()

	_, err := c.Get(map[string]int{})
	assert.ErrorIs(t, err, ErrInvalidCallSentinel)
}

func TestProvide_ReturnsScope(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterConstant("port", 8080))

	value, err := c.Provide("port")
	require.NoError(t, err)
	assert.Equal(t, 8080, value.Value)
	assert.True(t, value.Singleton())
	assert.True(t, value.Cached())
}

func TestResolve_SingletonCachedOnce(t *testing.T) {
	c := New()
	calls := 0
	require.NoError(t, c.RegisterService(Type[*pingService](), func() *pingService {
		calls++
		return &pingService{id: calls}
	}, Sentinel()))

	first, err := c.Get(Type[*pingService]())
	require.NoError(t, err)
	second, err := c.Get(Type[*pingService]())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Same(t, first.(*pingService), second.(*pingService))
}

func TestResolve_NilScopeBuildsFreshInstances(t *testing.T) {
	c := New()
	calls := 0
	require.NoError(t, c.RegisterService(Type[*pingService](), func() *pingService {
		calls++
		return &pingService{id: calls}
	}, nil))

	first, err := c.Provide(Type[*pingService]())
	require.NoError(t, err)
	second, err := c.Provide(Type[*pingService]())
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.NotSame(t, first.Value.(*pingService), second.Value.(*pingService))
	assert.Nil(t, first.Scope)
	assert.False(t, first.Cached())
}

func TestResolve_CustomScopeCachesUntilReset(t *testing.T) {
	c := New()
	request, err := c.NewScope("request")
	require.NoError(t, err)

	calls := 0
	require.NoError(t, c.RegisterService("conn", func() *pingService {
		calls++
		return &pingService{id: calls}
	}, request))
	singletonCalls := 0
	require.NoError(t, c.RegisterService("pool", func() *pingService {
		singletonCalls++
		return &pingService{id: singletonCalls}
	}, Sentinel()))

	first, err := c.Get("conn")
	require.NoError(t, err)
	again, err := c.Get("conn")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Same(t, first.(*pingService), again.(*pingService))
	pool, err := c.Get("pool")
	require.NoError(t, err)

	require.NoError(t, c.ResetScope(request))

	fresh, err := c.Get("conn")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotSame(t, first.(*pingService), fresh.(*pingService))

	// Resetting a named scope leaves other scopes' caches alone.
	poolAgain, err := c.Get("pool")
	require.NoError(t, err)
	assert.Equal(t, 1, singletonCalls)
	assert.Same(t, pool.(*pingService), poolAgain.(*pingService))
}

func TestRegisterService_UnknownScope(t *testing.T) {
	c := New()
	other := New()
	foreign, err := other.NewScope("request")
	require.NoError(t, err)

	err = c.RegisterService("conn", func() int { return 1 }, foreign)
	assert.ErrorIs(t, err, ErrScopeNotFoundSentinel)
}

func TestNewScope_Validation(t *testing.T) {
	c := New()

	_, err := c.NewScope("request")
	require.NoError(t, err)
	_, err = c.NewScope("request")
	assert.ErrorIs(t, err, ErrScopeAlreadyExistsSentinel)

	_, err = c.NewScope("singleton")
	assert.ErrorIs(t, err, ErrInvalidRegistrationSentinel)

	c.Freeze()
	_, err = c.NewScope("session")
	assert.True(t, IsFrozenContainer(err))
}

func TestResetScope_Unknown(t *testing.T) {
	c := New()
	other := New()
	foreign, err := other.NewScope("request")
	require.NoError(t, err)

	assert.ErrorIs(t, c.ResetScope(foreign), ErrScopeNotFoundSentinel)
}

func TestResolve_CycleDetected(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterService("a", func(r Resolver) (string, error) {
		_, err := r.Get("b")
		return "a", err
	}, Sentinel()))
	require.NoError(t, c.RegisterService("b", func(r Resolver) (string, error) {
		_, err := r.Get("a")
		return "b", err
	}, Sentinel()))

	_, err := c.Get("a")
	require.Error(t, err)
	assert.True(t, IsDependencyCycle(err))
	assert.Contains(t, err.Error(), `"a" -> "b" -> "a"`)
}

func TestResolve_SelfCycle(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterService("a", func(r Resolver) (string, error) {
		_, err := r.Get("a")
		return "a", err
	}, Sentinel()))

	_, err := c.Get("a")
	require.Error(t, err)
	assert.True(t, IsDependencyCycle(err))
	assert.Contains(t, err.Error(), `"a" -> "a"`)
}

func TestResolve_SiblingsAreNotCycles(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterConstant("leaf", 1))
	require.NoError(t, c.RegisterService("left", func(r Resolver) (int, error) {
		v, err := r.Get("leaf")
		if err != nil {
			return 0, err
		}
		return v.(int) + 1, nil
	}, nil))
	require.NoError(t, c.RegisterService("right", func(r Resolver) (int, error) {
		l, err := r.Get("left")
		if err != nil {
			return 0, err
		}
		leaf, err := r.Get("leaf")
		if err != nil {
			return 0, err
		}
		return l.(int) + leaf.(int), nil
	}, nil))

	value, err := c.Get("right")
	require.NoError(t, err)
	assert.Equal(t, 3, value)
}

func TestResolve_SentinelScopeFromProviderRejected(t *testing.T) {
	stub := &stubProvider{values: map[any]DependencyValue{
		"x": {Value: 1, Scope: Sentinel()},
	}}
	c := New(WithProviders(stub))

	_, err := c.Get("x")
	assert.ErrorIs(t, err, ErrScopeNotFoundSentinel)
}

func TestResolve_UnknownScopeFromProviderRejected(t *testing.T) {
	stub := &stubProvider{values: map[any]DependencyValue{
		"x": {Value: 1, Scope: &Scope{name: "ghost"}},
	}}
	c := New(WithProviders(stub))

	_, err := c.Get("x")
	assert.ErrorIs(t, err, ErrScopeNotFoundSentinel)
}

func TestFreeze(t *testing.T) {
	c := New()
	request, err := c.NewScope("request")
	require.NoError(t, err)
	require.NoError(t, c.RegisterConstant("port", 8080))

	assert.False(t, c.Frozen())
	c.Freeze()
	assert.True(t, c.Frozen())

	err = c.RegisterConstant("host", "localhost")
	assert.True(t, IsFrozenContainer(err))
	err = c.RegisterService("svc", func() int { return 1 }, nil)
	assert.True(t, IsFrozenContainer(err))
	_, err = c.RegisterFactory("out", func() int { return 1 }, nil)
	assert.True(t, IsFrozenContainer(err))
	_, err = c.RegisterImplementation("iface", func(Resolver) (any, error) { return "port", nil }, false)
	assert.True(t, IsFrozenContainer(err))
	err = c.RegisterImplicits(map[any]any{"a": "b"})
	assert.True(t, IsFrozenContainer(err))

	value, err := c.Get("port")
	require.NoError(t, err)
	assert.Equal(t, 8080, value)
	assert.NoError(t, c.ResetScope(request))

	// Freezing twice stays quiet.
	c.Freeze()
	assert.True(t, c.Frozen())
}

func TestClone_KeepCache(t *testing.T) {
	c := New()
	calls := 0
	require.NoError(t, c.RegisterService("conn", func() *pingService {
		calls++
		return &pingService{id: calls}
	}, Sentinel()))

	original, err := c.Get("conn")
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	clone := c.Clone(true)
	kept, err := clone.Get("conn")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Same(t, original.(*pingService), kept.(*pingService))
}

func TestClone_DropCache(t *testing.T) {
	c := New()
	calls := 0
	require.NoError(t, c.RegisterService("conn", func() *pingService {
		calls++
		return &pingService{id: calls}
	}, Sentinel()))

	original, err := c.Get("conn")
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	clone := c.Clone(false)
	rebuilt, err := clone.Get("conn")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotSame(t, original.(*pingService), rebuilt.(*pingService))

	// The parent keeps serving its own cached instance.
	again, err := c.Get("conn")
	require.NoError(t, err)
	assert.Same(t, original.(*pingService), again.(*pingService))
}

func TestClone_RegistrationsAreIsolated(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterConstant("port", 8080))

	clone := c.Clone(false)
	require.NoError(t, clone.RegisterConstant("host", "localhost"))

	assert.True(t, clone.Exists("port"))
	assert.True(t, clone.Exists("host"))
	assert.False(t, c.Exists("host"))
}

func TestClone_UnfreezesAndIsolatesScopes(t *testing.T) {
	c := New()
	request, err := c.NewScope("request")
	require.NoError(t, err)

	calls := 0
	require.NoError(t, c.RegisterService("conn", func() *pingService {
		calls++
		return &pingService{id: calls}
	}, request))
	_, err = c.Get("conn")
	require.NoError(t, err)

	c.Freeze()
	clone := c.Clone(true)
	assert.False(t, clone.Frozen())
	require.NoError(t, clone.RegisterConstant("extra", 1))

	// Resetting the scope on the parent leaves the clone's cache alone.
	require.NoError(t, c.ResetScope(request))
	_, err = clone.Get("conn")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = c.Get("conn")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestContainer_Exists(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterConstant("port", 8080))

	assert.True(t, c.Exists("port"))
	assert.False(t, c.Exists("ghost"))
	assert.False(t, c.Exists(map[string]int{}))
}

func TestContainer_Debug(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterConstant("port", 8080))

	info, ok := c.Debug("port")
	require.True(t, ok)
	assert.Equal(t, `Singleton: "port" -> 8080`, info.Description)
	assert.Same(t, Singleton(), info.Scope)

	_, ok = c.Debug("ghost")
	assert.False(t, ok)
	_, ok = c.Debug(map[string]int{})
	assert.False(t, ok)
}

func TestResolve_ConstructorSeesPartialPath(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterConstant("leaf", 41))
	require.NoError(t, c.RegisterService("root", func(r Resolver) (int, error) {
		v, err := r.Get("leaf")
		if err != nil {
			return 0, err
		}
		return v.(int) + 1, nil
	}, Sentinel()))

	value, err := c.Get("root")
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}
