package godine

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Scope is a unit of Request-lifetime caching and teardown. A web
// server typically creates one scope per HTTP request: every Request
// provider resolved during the request is created once, cached for
// the scope's life, and torn down in reverse creation order when the
// scope closes.
//
// Example:
//
//	scope, err := container.CreateScope(ctx)
//	if err != nil {
//	    return err
//	}
//	defer scope.Close()
//
//	session, err := scope.Resolve(ctx, "session")
type Scope interface {
	// ID returns the unique ID of this scope.
	ID() string

	// Context returns the context carrying this scope. Passing it to
	// nested code lets that code reach the scope through
	// ScopeFromContext.
	Context() context.Context

	// Resolve resolves name along with its dependencies and every
	// autouse provider, and returns the value registered under name.
	// Request values are cached in this scope, App values in the
	// container.
	Resolve(ctx context.Context, name string) (any, error)

	// ResolveAll resolves the given names in a single pass and
	// returns their values. A pass orders names so that dependencies
	// are created before their dependents, breaking ties by
	// registration order.
	ResolveAll(ctx context.Context, names ...string) (Deps, error)

	// Use resolves the given names and runs body with their values.
	// The context handed to body carries this scope.
	Use(ctx context.Context, names []string, body func(ctx context.Context, deps Deps) error) error

	// IsClosed reports whether the scope has ended.
	IsClosed() bool

	// Close ends the scope and tears down every value it created, in
	// reverse creation order. Teardown failures are collected into a
	// TeardownError; every teardown runs regardless. Close is
	// idempotent.
	Close() error
}

type scope struct {
	id        string
	ctx       context.Context
	container *container

	closed int32
	done   chan struct{}

	// mu serializes resolution passes. entries and teardowns carry
	// their own locks, so forcing a lazy thunk can register its
	// teardown without waiting on a pass.
	mu        sync.Mutex
	entries   *valueCache
	teardowns teardownStack
}

func (s *scope) ID() string {
	return s.id
}

func (s *scope) Context() context.Context {
	return s.ctx
}

func (s *scope) IsClosed() bool {
	return atomic.LoadInt32(&s.closed) != 0
}

func (s *scope) Resolve(ctx context.Context, name string) (any, error) {
	deps, err := s.ResolveAll(ctx, name)
	if err != nil {
		return nil, err
	}
	return deps.Value(name), nil
}

func (s *scope) ResolveAll(ctx context.Context, names ...string) (Deps, error) {
	if s.IsClosed() {
		return Deps{}, ErrScopeClosed
	}
	if s.container.IsClosed() {
		return Deps{}, ErrContainerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for _, name := range names {
		if !s.container.registry.Has(name) {
			return Deps{}, &NotFoundError{Name: name}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IsClosed() {
		return Deps{}, ErrScopeClosed
	}

	return s.resolveSet(ContextWithScope(ctx, s), names)
}

func (s *scope) Use(ctx context.Context, names []string, body func(ctx context.Context, deps Deps) error) error {
	deps, err := s.ResolveAll(ctx, names...)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return body(ContextWithScope(ctx, s), deps)
}

func (s *scope) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	close(s.done)
	s.container.removeScope(s.id)

	// An in-flight pass holds mu; taking it here means the pass has
	// finished and its teardowns are registered before we drain. The
	// cache is sealed before the stack drains, so a teardown that made
	// it onto the stack runs exactly once.
	s.mu.Lock()
	s.entries.seal()
	s.mu.Unlock()

	toRun := s.teardowns.drain()

	ctx := context.WithoutCancel(s.ctx)
	errs := runTeardowns(ctx, toRun, s.container.reportError)

	s.container.opts.logger.Debug("scope closed",
		zap.String("scope", s.id),
		zap.Int("teardowns", len(toRun)),
	)
	if len(errs) > 0 {
		return &TeardownError{Errors: errs}
	}
	return nil
}

// scopeContextKey is the key under which a context carries its scope.
type scopeContextKey struct{}

// ContextWithScope returns a context carrying the scope. Resolution
// passes attach the active scope automatically; middleware uses this
// to hand the request scope to downstream handlers.
func ContextWithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFromContext returns the scope carried by ctx, or
// ErrNoScopeInContext when there is none. A closed scope yields
// ErrScopeClosed.
func ScopeFromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(scopeContextKey{}).(Scope)
	if !ok || s == nil {
		return nil, ErrNoScopeInContext
	}
	if s.IsClosed() {
		return nil, ErrScopeClosed
	}
	return s, nil
}
