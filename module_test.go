package godine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/godine"
	"github.com/pombredanne/godine/internal/testutil"
)

func TestNewModule(t *testing.T) {
	t.Run("creates module with providers", func(t *testing.T) {
		t.Parallel()

		module := godine.NewModule("test-module",
			godine.Provide("logger", testutil.FreshFactory()),
			godine.Provide("service", testutil.FreshFactory()),
		)

		registry := godine.NewRegistry()
		err := registry.AddModules(module)

		require.NoError(t, err)
		assert.Equal(t, 2, registry.Count())
	})

	t.Run("empty module", func(t *testing.T) {
		t.Parallel()

		module := godine.NewModule("empty-module")

		registry := godine.NewRegistry()
		err := registry.AddModules(module)

		require.NoError(t, err)
		assert.Equal(t, 0, registry.Count())
	})

	t.Run("module with nil builders", func(t *testing.T) {
		t.Parallel()

		module := godine.NewModule("module-with-nils",
			godine.Provide("logger", testutil.FreshFactory()),
			nil, // Should be skipped
			godine.Provide("service", testutil.FreshFactory()),
		)

		registry := godine.NewRegistry()
		err := registry.AddModules(module)

		require.NoError(t, err)
		assert.Equal(t, 2, registry.Count())
	})
}

func TestModule_Composition(t *testing.T) {
	t.Run("nested modules", func(t *testing.T) {
		t.Parallel()

		loggingModule := godine.NewModule("logging",
			godine.Provide("logger", testutil.FreshFactory(), godine.WithLifetime(godine.App)),
		)

		dataModule := godine.NewModule("data",
			godine.Provide("db", testutil.FreshFactory(), godine.WithLifetime(godine.App)),
			godine.Provide("cache", testutil.FreshFactory(), godine.WithLifetime(godine.App)),
		)

		serviceModule := godine.NewModule("services",
			godine.Provide("service", testutil.FreshFactory(),
				godine.DependsOn("logger", "db", "cache")),
		)

		appModule := godine.NewModule("app",
			loggingModule,
			dataModule,
			serviceModule,
			godine.ProvideValue("config", "app-config"),
		)

		registry := godine.NewRegistry()
		err := registry.AddModules(appModule)

		require.NoError(t, err)
		assert.Equal(t, 5, registry.Count())
	})

	t.Run("multiple module registration", func(t *testing.T) {
		t.Parallel()

		module1 := godine.NewModule("module1",
			godine.Provide("logger", testutil.FreshFactory()),
		)

		module2 := godine.NewModule("module2",
			godine.Provide("db", testutil.FreshFactory()),
		)

		module3 := godine.NewModule("module3",
			godine.Provide("cache", testutil.FreshFactory()),
		)

		registry := godine.NewRegistry()
		err := registry.AddModules(module1, module2, module3)

		require.NoError(t, err)
		assert.Equal(t, 3, registry.Count())
	})
}

func TestModule_ErrorHandling(t *testing.T) {
	t.Run("error in module builder", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("module error")

		module := godine.NewModule("error-module",
			godine.Provide("logger", testutil.FreshFactory()),
			func(r godine.Registry) error {
				return expectedErr
			},
			godine.Provide("unreached", testutil.FreshFactory()),
		)

		registry := godine.NewRegistry()
		err := registry.AddModules(module)

		assert.Error(t, err)

		var moduleErr *godine.ModuleError
		assert.ErrorAs(t, err, &moduleErr)
		assert.Equal(t, "error-module", moduleErr.Module)
		assert.ErrorIs(t, err, expectedErr)

		// Only the first provider should be registered.
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("error in nested module", func(t *testing.T) {
		t.Parallel()

		errorSubModule := godine.NewModule("sub-error",
			func(r godine.Registry) error {
				return testutil.ErrIntentional
			},
		)

		mainModule := godine.NewModule("main",
			godine.Provide("logger", testutil.FreshFactory()),
			errorSubModule,
		)

		registry := godine.NewRegistry()
		err := registry.AddModules(mainModule)

		assert.Error(t, err)

		var moduleErr *godine.ModuleError
		require.ErrorAs(t, err, &moduleErr)
		assert.Equal(t, "main", moduleErr.Module)

		// The cause should also be a module error.
		var causeErr *godine.ModuleError
		assert.ErrorAs(t, moduleErr.Cause, &causeErr)
		assert.Equal(t, "sub-error", causeErr.Module)
		assert.ErrorIs(t, err, testutil.ErrIntentional)
	})

	t.Run("duplicate name across modules", func(t *testing.T) {
		t.Parallel()

		module1 := godine.NewModule("module1",
			godine.Provide("logger", testutil.FreshFactory()),
		)
		module2 := godine.NewModule("module2",
			godine.Provide("logger", testutil.FreshFactory()),
		)

		registry := godine.NewRegistry()
		err := registry.AddModules(module1, module2)

		var moduleErr *godine.ModuleError
		require.ErrorAs(t, err, &moduleErr)
		assert.Equal(t, "module2", moduleErr.Module)

		var dup *godine.DuplicateNameError
		assert.ErrorAs(t, err, &dup)
	})
}

func TestModule_RealWorldScenarios(t *testing.T) {
	t.Run("web application modules", func(t *testing.T) {
		t.Parallel()

		type UserRepository struct {
			db testutil.TestDatabase
		}
		type UserService struct {
			repo   *UserRepository
			logger testutil.TestLogger
		}
		type UserHandler struct {
			service *UserService
		}

		infrastructureModule := godine.NewModule("infrastructure",
			godine.Provide("logger", testutil.StaticFactory(testutil.NewTestLogger()),
				godine.WithLifetime(godine.App)),
			godine.Provide("db", testutil.StaticFactory(testutil.NewTestDatabase()),
				godine.WithLifetime(godine.App)),
		)

		repositoryModule := godine.NewModule("repositories",
			godine.Provide("users.repo", func(ctx context.Context, deps godine.Deps) (any, error) {
				return &UserRepository{db: godine.MustGet[testutil.TestDatabase](deps, "db")}, nil
			}, godine.DependsOn("db")),
		)

		serviceModule := godine.NewModule("services",
			godine.Provide("users.service", func(ctx context.Context, deps godine.Deps) (any, error) {
				return &UserService{
					repo:   godine.MustGet[*UserRepository](deps, "users.repo"),
					logger: godine.MustGet[testutil.TestLogger](deps, "logger"),
				}, nil
			}, godine.DependsOn("users.repo", "logger")),
		)

		handlerModule := godine.NewModule("handlers",
			godine.Provide("users.handler", func(ctx context.Context, deps godine.Deps) (any, error) {
				return &UserHandler{service: godine.MustGet[*UserService](deps, "users.service")}, nil
			}, godine.DependsOn("users.service")),
		)

		appModule := godine.NewModule("app",
			infrastructureModule,
			repositoryModule,
			serviceModule,
			handlerModule,
		)

		container := testutil.NewRegistryBuilder(t).
			WithModule(appModule).
			Build()
		scope := testutil.NewScope(t, container)

		handler := testutil.AssertResolvableAs[*UserHandler](t, scope, "users.handler")
		require.NotNil(t, handler)
		assert.NotNil(t, handler.service)
		assert.NotNil(t, handler.service.repo)
		assert.NotNil(t, handler.service.logger)
		assert.NotNil(t, handler.service.repo.db)
	})
}
