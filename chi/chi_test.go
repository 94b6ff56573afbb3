package chi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/godine"
)

// Test types
type testService struct {
	ID    string
	Value int
}

type testController struct {
	Service *testService
}

func newTestController(svc *testService) *testController {
	return &testController{Service: svc}
}

func (c *testController) GetValue(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(c.Service.ID))
}

func (c *testController) GetByID(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(c.Service.ID + ":" + chi.URLParam(r, "id")))
}

func (c *testController) Panic(w http.ResponseWriter, r *http.Request) {
	panic("test panic")
}

// newServiceRegistry registers the "service" provider under the given ID.
func newServiceRegistry(t *testing.T, id string) godine.Registry {
	t.Helper()

	reg := godine.NewRegistry()
	require.NoError(t, reg.Provide("service", func(ctx context.Context, deps godine.Deps) (any, error) {
		return &testService{ID: id, Value: 1}, nil
	}))
	return reg
}

// addController registers the "controller" provider on top of "service".
func addController(t *testing.T, reg godine.Registry) {
	t.Helper()

	require.NoError(t, reg.Provide("controller", func(ctx context.Context, deps godine.Deps) (any, error) {
		return newTestController(godine.MustGet[*testService](deps, "service")), nil
	}, godine.DependsOn("service")))
}

func build(t *testing.T, reg godine.Registry) godine.Container {
	t.Helper()

	container, err := reg.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })
	return container
}

func TestScopeMiddleware(t *testing.T) {
	t.Run("creates scope and attaches to context", func(t *testing.T) {
		container := build(t, newServiceRegistry(t, "scoped"))

		var resolvedService *testService

		handler := ScopeMiddleware(container)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := godine.ScopeFromContext(r.Context())
			assert.NoError(t, err)

			resolvedService, err = godine.ResolveAs[*testService](r.Context(), scope, "service")
			assert.NoError(t, err)

			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, resolvedService)
		assert.Equal(t, "scoped", resolvedService.ID)
	})

	t.Run("calls error handler on scope creation failure", func(t *testing.T) {
		errorHandlerCalled := false

		container, err := godine.NewRegistry().Build()
		assert.NoError(t, err)
		container.Close(context.Background()) // Close container to cause scope creation failure

		handler := ScopeMiddleware(container,
			WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				errorHandlerCalled = true
				w.WriteHeader(http.StatusServiceUnavailable)
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("runs middlewares in order", func(t *testing.T) {
		var mwOrder []int

		container := build(t, newServiceRegistry(t, "test"))

		handler := ScopeMiddleware(container,
			WithMiddleware(func(scope godine.Scope, r *http.Request) error {
				mwOrder = append(mwOrder, 1)
				return nil
			}),
			WithMiddleware(func(scope godine.Scope, r *http.Request) error {
				mwOrder = append(mwOrder, 2)
				return nil
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, []int{1, 2}, mwOrder)
	})

	t.Run("calls error handler when middleware fails", func(t *testing.T) {
		errorHandlerCalled := false
		expectedErr := errors.New("middleware failed")

		container := build(t, newServiceRegistry(t, "test"))

		handler := ScopeMiddleware(container,
			WithMiddleware(func(scope godine.Scope, r *http.Request) error {
				return expectedErr
			}),
			WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				errorHandlerCalled = true
				assert.Equal(t, expectedErr, err)
				w.WriteHeader(http.StatusBadRequest)
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandle(t *testing.T) {
	t.Run("resolves controller and calls method", func(t *testing.T) {
		reg := newServiceRegistry(t, "handled")
		addController(t, reg)
		container := build(t, reg)

		mux := http.NewServeMux()
		mux.HandleFunc("/value", Handle("controller", (*testController).GetValue))

		handler := ScopeMiddleware(container)(mux)

		req := httptest.NewRequest(http.MethodGet, "/value", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body, _ := io.ReadAll(rec.Body)
		assert.Equal(t, "handled", string(body))
	})

	t.Run("calls scope error handler when no scope", func(t *testing.T) {
		errorHandlerCalled := false

		handler := Handle("controller", (*testController).GetValue,
			WithScopeErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				errorHandlerCalled = true
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("no scope"))
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/value", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, errorHandlerCalled)
	})

	t.Run("calls resolution error handler when provider not found", func(t *testing.T) {
		errorHandlerCalled := false

		// "controller" is never registered
		container := build(t, newServiceRegistry(t, "test"))

		handler := ScopeMiddleware(container)(Handle("controller", (*testController).GetValue,
			WithResolutionErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				errorHandlerCalled = true
				w.WriteHeader(http.StatusNotFound)
			}),
		))

		req := httptest.NewRequest(http.MethodGet, "/value", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("recovers from panic when enabled", func(t *testing.T) {
		panicHandlerCalled := false

		reg := newServiceRegistry(t, "test")
		addController(t, reg)
		container := build(t, reg)

		handler := ScopeMiddleware(container)(Handle("controller", (*testController).Panic,
			WithPanicRecovery(true),
			WithPanicHandler(func(w http.ResponseWriter, r *http.Request, v any) {
				panicHandlerCalled = true
				assert.Equal(t, "test panic", v)
				w.WriteHeader(http.StatusInternalServerError)
			}),
		))

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, panicHandlerCalled)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("does not recover from panic when disabled", func(t *testing.T) {
		reg := newServiceRegistry(t, "test")
		addController(t, reg)
		container := build(t, reg)

		handler := ScopeMiddleware(container)(Handle("controller", (*testController).Panic,
			WithPanicRecovery(false),
		))

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()

		assert.Panics(t, func() {
			handler.ServeHTTP(rec, req)
		})
	})
}

func TestChiRouter(t *testing.T) {
	t.Run("middleware and handler mounted on a chi router", func(t *testing.T) {
		reg := newServiceRegistry(t, "users")
		addController(t, reg)
		container := build(t, reg)

		r := chi.NewRouter()
		r.Use(ScopeMiddleware(container))
		r.Get("/users/{id}", Handle("controller", (*testController).GetByID))

		req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body, _ := io.ReadAll(rec.Body)
		assert.Equal(t, "users:42", string(body))
	})

	t.Run("each request gets its own scope", func(t *testing.T) {
		var ids []string

		container := build(t, newServiceRegistry(t, "fresh"))

		r := chi.NewRouter()
		r.Use(ScopeMiddleware(container))
		r.Get("/scope", func(w http.ResponseWriter, req *http.Request) {
			scope, err := godine.ScopeFromContext(req.Context())
			assert.NoError(t, err)
			ids = append(ids, scope.ID())
			w.WriteHeader(http.StatusOK)
		})

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/scope", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		assert.Len(t, ids, 2)
		assert.NotEqual(t, ids[0], ids[1])
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Run("default error handler returns 500", func(t *testing.T) {
		cfg := defaultConfig()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		cfg.ErrorHandler(rec, req, errors.New("test error"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDefaultHandlerConfig(t *testing.T) {
	t.Run("panic recovery disabled by default", func(t *testing.T) {
		cfg := defaultHandlerConfig()
		assert.False(t, cfg.PanicRecovery)
	})

	t.Run("default panic handler returns 500", func(t *testing.T) {
		cfg := defaultHandlerConfig()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		cfg.PanicHandler(rec, req, "panic value")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
