package godine

import (
	"context"
	"sync"
)

var (
	defaultMu sync.RWMutex

	// defaultContainer holds the default Container.
	defaultContainer Container
)

// SetDefault sets the default Container used by the package-level
// functions. This is similar to slog.SetDefault.
//
// After this call, package-level functions like Resolve and Invoke
// use this container. Pass nil to remove the default container.
func SetDefault(c Container) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultContainer = c
}

// Default returns the current default Container.
// Returns nil if no default container has been set.
func Default() Container {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultContainer
}

// Resolve resolves an App provider from the default container.
func Resolve(ctx context.Context, name string) (any, error) {
	c := Default()
	if c == nil {
		return nil, ErrNoDefaultContainer
	}
	return c.Resolve(ctx, name)
}

// Invoke runs body against the default container, resolving the
// named providers in the scope carried by ctx or in a scope created
// for the call.
func Invoke(ctx context.Context, names []string, body func(ctx context.Context, deps Deps) error) error {
	c := Default()
	if c == nil {
		return ErrNoDefaultContainer
	}
	return c.Invoke(ctx, names, body)
}
