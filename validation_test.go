package godine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFactory(value any) Factory {
	return func(ctx context.Context, deps Deps) (any, error) {
		return value, nil
	}
}

func TestValidate(t *testing.T) {
	t.Run("assembles the graph for valid providers", func(t *testing.T) {
		r := NewRegistry().(*registry)
		require.NoError(t, r.Provide("config", staticFactory("cfg"), WithLifetime(App)))
		require.NoError(t, r.Provide("session", staticFactory("sess"), DependsOn("config")))
		require.NoError(t, r.Provide("handler", staticFactory("h"), DependsOn("session")))

		g, err := r.validate()
		require.NoError(t, err)

		assert.True(t, g.Has("config"))
		assert.True(t, g.Has("session"))
		assert.True(t, g.Has("handler"))
		assert.Equal(t, []string{"session"}, g.Dependencies("handler"))
	})

	t.Run("unknown dependency names the requester", func(t *testing.T) {
		r := NewRegistry().(*registry)
		require.NoError(t, r.Provide("handler", staticFactory("h"), DependsOn("missing")))

		_, err := r.validate()
		var nfe *NotFoundError
		require.ErrorAs(t, err, &nfe)
		assert.Equal(t, "missing", nfe.Name)
		assert.Equal(t, "handler", nfe.Requester)
	})

	t.Run("app provider cannot depend on request provider", func(t *testing.T) {
		r := NewRegistry().(*registry)
		require.NoError(t, r.Provide("session", staticFactory("sess")))
		require.NoError(t, r.Provide("service", staticFactory("svc"),
			WithLifetime(App), DependsOn("session")))

		_, err := r.validate()
		var lce *LifetimeConflictError
		require.ErrorAs(t, err, &lce)
		assert.Equal(t, "service", lce.Name)
		assert.Equal(t, App, lce.Lifetime)
		assert.Equal(t, "session", lce.Dependency)
		assert.Equal(t, Request, lce.DependencyLifetime)
	})

	t.Run("request provider may depend on app provider", func(t *testing.T) {
		r := NewRegistry().(*registry)
		require.NoError(t, r.Provide("config", staticFactory("cfg"), WithLifetime(App)))
		require.NoError(t, r.Provide("session", staticFactory("sess"), DependsOn("config")))

		_, err := r.validate()
		assert.NoError(t, err)
	})

	t.Run("reports dependency cycles", func(t *testing.T) {
		r := NewRegistry().(*registry)
		require.NoError(t, r.Provide("a", staticFactory("a"), DependsOn("b")))
		require.NoError(t, r.Provide("b", staticFactory("b"), DependsOn("c")))
		require.NoError(t, r.Provide("c", staticFactory("c"), DependsOn("a")))

		_, err := r.validate()
		var cde *CircularDependencyError
		require.ErrorAs(t, err, &cde)
		assert.Contains(t, cde.Path, "a")
	})
}
