package crucible

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_Accessors(t *testing.T) {
	assert.Equal(t, "singleton", Singleton().Name())
	assert.Equal(t, "sentinel", Sentinel().Name())
	assert.Same(t, Singleton(), Singleton())
	assert.Same(t, Sentinel(), Sentinel())
	assert.Equal(t, "scope(singleton)", Singleton().String())
}

func TestValidatedScope(t *testing.T) {
	custom := &Scope{name: "request"}

	assert.Same(t, Singleton(), validatedScope(Sentinel(), Singleton()))
	assert.Same(t, custom, validatedScope(custom, Singleton()))
	assert.Nil(t, validatedScope(nil, Singleton()))
}

func TestScopeRegistry_Add(t *testing.T) {
	reg := newScopeRegistry()

	scope, err := reg.add("request")
	require.NoError(t, err)
	assert.Equal(t, "request", scope.Name())

	gen, known := reg.generation("request")
	assert.True(t, known)
	assert.Equal(t, uint64(0), gen)
}

func TestScopeRegistry_AddRejectsEmptyAndReserved(t *testing.T) {
	reg := newScopeRegistry()

	_, err := reg.add("")
	assert.ErrorIs(t, err, ErrInvalidRegistrationSentinel)

	_, err = reg.add("singleton")
	assert.ErrorIs(t, err, ErrInvalidRegistrationSentinel)

	_, err = reg.add("sentinel")
	assert.ErrorIs(t, err, ErrInvalidRegistrationSentinel)
}

func TestScopeRegistry_AddRejectsDuplicates(t *testing.T) {
	reg := newScopeRegistry()

	_, err := reg.add("request")
	require.NoError(t, err)

	_, err = reg.add("request")
	assert.ErrorIs(t, err, ErrScopeAlreadyExistsSentinel)
}

func TestScopeRegistry_Reset(t *testing.T) {
	reg := newScopeRegistry()
	scope, err := reg.add("request")
	require.NoError(t, err)

	require.NoError(t, reg.reset(scope))
	gen, known := reg.generation("request")
	assert.True(t, known)
	assert.Equal(t, uint64(1), gen)

	require.NoError(t, reg.reset(scope))
	gen, _ = reg.generation("request")
	assert.Equal(t, uint64(2), gen)
}

func TestScopeRegistry_ResetRejectsReservedAndUnknown(t *testing.T) {
	reg := newScopeRegistry()

	assert.ErrorIs(t, reg.reset(nil), ErrInvalidRegistrationSentinel)
	assert.ErrorIs(t, reg.reset(Sentinel()), ErrInvalidRegistrationSentinel)
	assert.ErrorIs(t, reg.reset(Singleton()), ErrInvalidRegistrationSentinel)
	assert.ErrorIs(t, reg.reset(&Scope{name: "ghost"}), ErrScopeNotFoundSentinel)
}

func TestScopeRegistry_Known(t *testing.T) {
	reg := newScopeRegistry()
	scope, err := reg.add("request")
	require.NoError(t, err)

	assert.True(t, reg.known(scope))
	assert.True(t, reg.known(Singleton()))
	assert.False(t, reg.known(nil))
	assert.False(t, reg.known(&Scope{name: "ghost"}))
}

func TestScopeRegistry_CloneIsolatesResets(t *testing.T) {
	reg := newScopeRegistry()
	scope, err := reg.add("request")
	require.NoError(t, err)
	require.NoError(t, reg.reset(scope))

	clone := reg.clone()
	gen, known := clone.generation("request")
	require.True(t, known)
	assert.Equal(t, uint64(1), gen)

	require.NoError(t, clone.reset(scope))
	gen, _ = clone.generation("request")
	assert.Equal(t, uint64(2), gen)

	gen, _ = reg.generation("request")
	assert.Equal(t, uint64(1), gen)
}
