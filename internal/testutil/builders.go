package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pombredanne/godine"
)

// RegistryBuilder provides a fluent interface for building test registries
type RegistryBuilder struct {
	t        *testing.T
	registry godine.Registry
}

// NewRegistryBuilder creates a new RegistryBuilder
func NewRegistryBuilder(t *testing.T) *RegistryBuilder {
	return &RegistryBuilder{
		t:        t,
		registry: godine.NewRegistry(),
	}
}

// WithApp registers an App provider under name
func (b *RegistryBuilder) WithApp(name string, factory godine.Factory, opts ...godine.ProvideOption) *RegistryBuilder {
	opts = append([]godine.ProvideOption{godine.WithLifetime(godine.App)}, opts...)
	require.NoError(b.t, b.registry.Provide(name, factory, opts...))
	return b
}

// WithRequest registers a Request provider under name
func (b *RegistryBuilder) WithRequest(name string, factory godine.Factory, opts ...godine.ProvideOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.Provide(name, factory, opts...))
	return b
}

// WithValue registers an already constructed value under name
func (b *RegistryBuilder) WithValue(name string, value any, opts ...godine.ProvideOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.ProvideValue(name, value, opts...))
	return b
}

// WithModule applies a module to the registry
func (b *RegistryBuilder) WithModule(module godine.ModuleOption) *RegistryBuilder {
	require.NoError(b.t, b.registry.AddModules(module))
	return b
}

// Registry returns the registry under construction
func (b *RegistryBuilder) Registry() godine.Registry {
	return b.registry
}

// Build freezes the registry and returns the container, failing the
// test on error. The container closes during test cleanup unless the
// test already closed it.
func (b *RegistryBuilder) Build(opts ...godine.BuildOption) godine.Container {
	container, err := b.registry.Build(opts...)
	require.NoError(b.t, err, "failed to build container")

	b.t.Cleanup(func() {
		if !container.IsClosed() {
			require.NoError(b.t, container.Close(context.Background()))
		}
	})

	return container
}

// NewScope creates a scope that closes during test cleanup unless the
// test already closed it
func NewScope(t *testing.T, container godine.Container) godine.Scope {
	t.Helper()

	scope, err := container.CreateScope(context.Background())
	require.NoError(t, err, "failed to create scope")

	t.Cleanup(func() {
		if !scope.IsClosed() {
			require.NoError(t, scope.Close())
		}
	})

	return scope
}
