// Package fiber provides godine integration for the Fiber web framework.
//
// This package provides middleware for creating a request scope per
// incoming request and handler wrappers for resolving named providers.
//
// Example usage:
//
//	container, _ := registry.Build()
//
//	app := fiber.New()
//	app.Use(godinefiber.ScopeMiddleware(container))
//
//	app.Post("/login", godinefiber.Handle("auth.controller", (*AuthController).Login))
//	app.Get("/users/:id", godinefiber.Handle("users.controller", (*UserController).GetByID))
package fiber

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/pombredanne/godine"
)

// scopeKey is the key used to store the scope in fiber.Ctx.Locals
const scopeKey = "godine_scope"

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when scope creation fails.
	// If nil, the error is returned.
	ErrorHandler func(*fiber.Ctx, error) error

	// CloseErrorHandler is called when scope closing fails.
	// If nil, errors are logged using slog.
	CloseErrorHandler func(error)

	// Middlewares are functions that run after scope creation.
	// They can be used to initialize request context, set user data, etc.
	Middlewares []func(godine.Scope, *fiber.Ctx) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for scope creation failures.
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithCloseErrorHandler sets the error handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) {
		c.CloseErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after scope creation.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(godine.Scope, *fiber.Ctx) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close scope", "error", err)
		},
		Middlewares: nil,
	}
}

// ScopeMiddleware creates a Fiber middleware that begins a request scope
// for each request. The scope is stored in fiber.Ctx.Locals and attached
// to the UserContext.
//
// The scope is automatically closed when the request completes.
//
// Example:
//
//	app := fiber.New()
//	app.Use(godinefiber.ScopeMiddleware(container))
func ScopeMiddleware(container godine.Container, opts ...Option) fiber.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		scope, err := container.CreateScope(c.UserContext())
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		// Store scope in context and locals
		c.SetUserContext(scope.Context())
		c.Locals(scopeKey, scope)

		// Run middlewares
		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				scope.Close()
				return cfg.ErrorHandler(c, err)
			}
		}

		// Execute handler chain
		err = c.Next()

		// Close scope after request completes
		if closeErr := scope.Close(); closeErr != nil {
			cfg.CloseErrorHandler(closeErr)
		}

		return err
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*fiber.Ctx, any) error

	// ScopeErrorHandler is called when scope retrieval fails.
	ScopeErrorHandler func(*fiber.Ctx, error) error

	// ResolutionErrorHandler is called when provider resolution fails.
	ResolutionErrorHandler func(*fiber.Ctx, error) error
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for provider resolution failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicRecovery: false,
		PanicHandler: func(c *fiber.Ctx, v any) error {
			slog.Error("panic in handler", "panic", v)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
		ScopeErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("failed to get scope from context", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("failed to resolve controller", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
	}
}

// Handle wraps a controller method for resolution from the request scope.
// The provider registered under name is resolved from the scope stored in
// fiber.Ctx.Locals and must be assignable to T.
//
// The method signature should be: func(T, *fiber.Ctx) error
//
// Example:
//
//	type UserController interface {
//	    GetByID(*fiber.Ctx) error
//	}
//
//	app.Get("/users/:id", godinefiber.Handle("users.controller", UserController.GetByID))
func Handle[T any](name string, method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		// Get scope from locals
		scopeVal := c.Locals(scopeKey)
		if scopeVal == nil {
			return cfg.ScopeErrorHandler(c, godine.ErrNoScopeInContext)
		}

		scope, ok := scopeVal.(godine.Scope)
		if !ok {
			return cfg.ScopeErrorHandler(c, godine.ErrNoScopeInContext)
		}

		controller, resolveErr := godine.ResolveAs[T](c.UserContext(), scope, name)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}

// FromContext retrieves the scope from fiber.Ctx.Locals.
// This is useful when you need to resolve providers manually.
//
// Example:
//
//	scope := godinefiber.FromContext(c)
//	userService := godine.MustResolveAs[*UserService](c.UserContext(), scope, "users.service")
func FromContext(c *fiber.Ctx) godine.Scope {
	scopeVal := c.Locals(scopeKey)
	if scopeVal == nil {
		return nil
	}

	scope, ok := scopeVal.(godine.Scope)
	if !ok {
		return nil
	}

	return scope
}
