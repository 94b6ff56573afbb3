package godine

import (
	"time"

	"go.uber.org/zap"
)

// ProvideOption configures a provider at registration time.
type ProvideOption interface {
	apply(*Provider)
}

// provideOptionFunc adapts a function to ProvideOption.
type provideOptionFunc func(*Provider)

func (f provideOptionFunc) apply(p *Provider) {
	f(p)
}

// DependsOn declares the named providers this factory consumes. The
// declared values arrive through Deps in declaration order, and every
// name must be registered by the time Build is called.
func DependsOn(names ...string) ProvideOption {
	return provideOptionFunc(func(p *Provider) {
		p.Dependencies = append(p.Dependencies, names...)
	})
}

// WithLifetime sets the provider's lifetime. Providers default to
// Request.
func WithLifetime(lifetime Lifetime) ProvideOption {
	return provideOptionFunc(func(p *Provider) {
		p.Lifetime = lifetime
	})
}

// Lazy defers the factory call until the value is first used. A lazy
// provider resolves to a *Thunk whose Get runs the factory at most
// once and memoizes the outcome, success or failure. Lazy providers
// must use the Request lifetime.
func Lazy() ProvideOption {
	return provideOptionFunc(func(p *Provider) {
		p.Lazy = true
	})
}

// Autouse activates the provider in every resolution pass at its
// lifetime, whether or not anything requested it. Use it for
// providers whose construction carries a side effect, such as opening
// a connection or registering a handler.
func Autouse() ProvideOption {
	return provideOptionFunc(func(p *Provider) {
		p.Autouse = true
	})
}

// AsFactory marks the provider as supplying a callable rather than a
// finished value. The factory's result must be a function; consumers
// receive the function itself and invoke it once per value they need.
// The callable is cached under the provider's lifetime, the values it
// produces are not.
func AsFactory() ProvideOption {
	return provideOptionFunc(func(p *Provider) {
		p.IsFactory = true
	})
}

// BuildOption configures the container produced by Registry.Build.
type BuildOption interface {
	applyBuild(*buildOptions)
}

// buildOptionFunc adapts a function to BuildOption.
type buildOptionFunc func(*buildOptions)

func (f buildOptionFunc) applyBuild(o *buildOptions) {
	f(o)
}

// buildOptions holds container configuration.
type buildOptions struct {
	logger     *zap.Logger
	onResolved func(name string, lifetime Lifetime, elapsed time.Duration)
	onError    func(name string, err error)
}

func newBuildOptions() *buildOptions {
	return &buildOptions{logger: zap.NewNop()}
}

// WithLogger routes container events to the given logger. Without it
// the container logs nothing.
func WithLogger(logger *zap.Logger) BuildOption {
	return buildOptionFunc(func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	})
}

// OnResolved registers a callback fired each time a factory completes
// successfully, with the provider's name, lifetime, and how long the
// factory ran.
func OnResolved(fn func(name string, lifetime Lifetime, elapsed time.Duration)) BuildOption {
	return buildOptionFunc(func(o *buildOptions) {
		o.onResolved = fn
	})
}

// OnError registers a callback fired each time a factory or teardown
// fails, before the error is returned to the caller.
func OnError(fn func(name string, err error)) BuildOption {
	return buildOptionFunc(func(o *buildOptions) {
		o.onError = fn
	})
}
