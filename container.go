package godine

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pombredanne/godine/internal/graph"
)

// Container is the frozen form of a Registry. It owns the App scope,
// hands out Request scopes, and caches every App value for the whole
// of its life.
//
// Example:
//
//	container, err := reg.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer container.Close(context.Background())
//
//	scope, err := container.CreateScope(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer scope.Close()
//
//	db, err := scope.Resolve(ctx, "db")
type Container interface {
	// CreateScope begins a Request scope. The scope ends when Close
	// is called on it, when ctx is canceled, or when the container
	// itself closes, whichever comes first.
	CreateScope(ctx context.Context) (Scope, error)

	// Resolve resolves an App provider directly from the container,
	// along with every App autouse provider. Request providers need
	// a scope and fail with ErrScopeRequired.
	Resolve(ctx context.Context, name string) (any, error)

	// Invoke runs body with the named providers resolved. It reuses
	// the scope carried by ctx if there is one; otherwise it creates
	// a scope for the duration of the call and closes it afterwards.
	Invoke(ctx context.Context, names []string, body func(ctx context.Context, deps Deps) error) error

	// Warm eagerly creates every App provider in dependency order.
	// Without it, App values are created on first use.
	Warm(ctx context.Context) error

	// WriteGraph writes a text rendering of the provider graph.
	WriteGraph(w io.Writer) error

	// WriteGraphDOT writes the provider graph in Graphviz DOT form.
	WriteGraphDOT(w io.Writer) error

	// IsClosed reports whether the container has been closed.
	IsClosed() bool

	// Close closes every open scope, tears down App values in
	// reverse creation order, and rejects all further use. Teardown
	// failures are collected into a TeardownError rather than
	// stopping the shutdown.
	Close(ctx context.Context) error
}

type container struct {
	registry *registry
	graph    *graph.Graph
	opts     *buildOptions

	closed int32

	// App cache. Values land one at a time as their factories
	// complete, so values created before a later failure stay cached.
	appCache     *valueCache
	appTeardowns teardownStack
	flight       singleflight.Group

	scopesMu sync.RWMutex
	scopes   map[string]*scope
}

func newContainer(reg *registry, g *graph.Graph, opts []BuildOption) *container {
	o := newBuildOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.applyBuild(o)
		}
	}
	return &container{
		registry: reg,
		graph:    g,
		opts:     o,
		appCache: newValueCache(),
		scopes:   make(map[string]*scope),
	}
}

func (c *container) CreateScope(ctx context.Context) (Scope, error) {
	if c.IsClosed() {
		return nil, ErrContainerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := &scope{
		id:        uuid.NewString(),
		container: c,
		entries:   newValueCache(),
		done:      make(chan struct{}),
	}
	s.ctx = ContextWithScope(ctx, s)

	c.scopesMu.Lock()
	c.scopes[s.id] = s
	c.scopesMu.Unlock()

	// A canceled request context ends the scope even if the caller
	// never reaches its own Close.
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-s.done:
			}
		}()
	}

	c.opts.logger.Debug("scope created", zap.String("scope", s.id))
	return s, nil
}

func (c *container) removeScope(id string) {
	c.scopesMu.Lock()
	delete(c.scopes, id)
	c.scopesMu.Unlock()
}

func (c *container) Resolve(ctx context.Context, name string) (any, error) {
	if c.IsClosed() {
		return nil, ErrContainerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p, ok := c.registry.provider(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	if p.Lifetime != App {
		return nil, &ResolutionError{Name: name, Cause: ErrScopeRequired}
	}

	working := dedupe(append([]string{name}, c.registry.Autouse(App)...))
	order, err := c.graph.ResolutionOrder(working...)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(order))
	for _, n := range order {
		v, err := c.resolveApp(ctx, n)
		if err != nil {
			return nil, c.withChain(err, working)
		}
		values[n] = v
	}
	return values[name], nil
}

func (c *container) Invoke(ctx context.Context, names []string, body func(ctx context.Context, deps Deps) error) error {
	if c.IsClosed() {
		return ErrContainerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if s, err := ScopeFromContext(ctx); err == nil {
		return s.Use(ctx, names, body)
	}

	s, err := c.CreateScope(ctx)
	if err != nil {
		return err
	}
	useErr := s.Use(ctx, names, body)
	closeErr := s.Close()
	if useErr != nil || closeErr != nil {
		return errors.Join(useErr, closeErr)
	}
	return nil
}

func (c *container) Warm(ctx context.Context) error {
	if c.IsClosed() {
		return ErrContainerClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var names []string
	for _, p := range c.registry.Providers() {
		if p.Lifetime == App {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	order, err := c.graph.ResolutionOrder(names...)
	if err != nil {
		return err
	}
	for _, name := range order {
		if _, err := c.resolveApp(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// resolveApp returns the cached App value for name, or creates it.
// Concurrent callers for the same name share one factory invocation;
// a caller whose context ends while waiting detaches with ctx.Err()
// while the creation itself keeps running for the others.
func (c *container) resolveApp(ctx context.Context, name string) (any, error) {
	if v, ok := c.appCache.get(name); ok {
		return v, nil
	}

	ch := c.flight.DoChan(name, func() (any, error) {
		return c.createApp(ctx, name)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *container) createApp(ctx context.Context, name string) (any, error) {
	if v, ok := c.appCache.get(name); ok {
		return v, nil
	}

	p, ok := c.registry.provider(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	deps := newDeps(len(p.Dependencies))
	for _, dep := range p.Dependencies {
		v, err := c.resolveApp(ctx, dep)
		if err != nil {
			return nil, err
		}
		deps.set(dep, v)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := p.Factory(ctx, deps)
	if err != nil {
		rerr := &ResolutionError{Name: name, Cause: err}
		c.reportError(name, rerr)
		return nil, rerr
	}

	value, teardown := splitResource(result)
	if p.IsFactory && !isCallable(value) {
		if teardown != nil {
			_ = teardown(context.WithoutCancel(ctx))
		}
		rerr := &ResolutionError{Name: name, Cause: ErrNotCallable}
		c.reportError(name, rerr)
		return nil, rerr
	}

	// The teardown is pushed before the value is published. Close seals
	// the cache before draining the stack, so a teardown that made it
	// onto the stack runs exactly once, and a value never appears in
	// the cache after its teardown has run.
	if teardown != nil && !c.appTeardowns.push(name, teardown) {
		_ = teardown(context.WithoutCancel(ctx))
		rerr := &ResolutionError{Name: name, Cause: ErrContainerClosed}
		c.reportError(name, rerr)
		return nil, rerr
	}
	if !c.appCache.set(name, value) {
		rerr := &ResolutionError{Name: name, Cause: ErrContainerClosed}
		c.reportError(name, rerr)
		return nil, rerr
	}

	c.reportResolved(name, App, time.Since(start))
	return value, nil
}

func (c *container) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) != 0
}

func (c *container) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.scopesMu.Lock()
	open := make([]*scope, 0, len(c.scopes))
	for _, s := range c.scopes {
		open = append(open, s)
	}
	c.scopes = nil
	c.scopesMu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	c.appCache.seal()
	toRun := c.appTeardowns.drain()
	errs = append(errs, runTeardowns(ctx, toRun, c.reportError)...)

	c.opts.logger.Debug("container closed", zap.Int("teardowns", len(toRun)))
	if len(errs) > 0 {
		return &TeardownError{Errors: errs}
	}
	return nil
}

func (c *container) WriteGraph(w io.Writer) error {
	return c.visualizer().WriteText(w)
}

func (c *container) WriteGraphDOT(w io.Writer) error {
	return c.visualizer().WriteDOT(w)
}

func (c *container) visualizer() *graph.Visualizer {
	v := graph.NewVisualizer(c.graph)
	v.Annotate = func(name string) string {
		p, ok := c.registry.provider(name)
		if !ok {
			return ""
		}
		parts := []string{p.Lifetime.String()}
		if p.Lazy {
			parts = append(parts, "lazy")
		}
		if p.Autouse {
			parts = append(parts, "autouse")
		}
		if p.IsFactory {
			parts = append(parts, "factory")
		}
		return strings.Join(parts, ", ")
	}
	v.Color = func(name string) string {
		p, ok := c.registry.provider(name)
		if !ok {
			return ""
		}
		switch p.Lifetime {
		case App:
			return "lightblue"
		case Request:
			return "lightgreen"
		}
		return ""
	}
	return v
}

func (c *container) reportResolved(name string, lifetime Lifetime, elapsed time.Duration) {
	c.opts.logger.Debug("provider resolved",
		zap.String("provider", name),
		zap.Stringer("lifetime", lifetime),
		zap.Duration("elapsed", elapsed),
	)
	if c.opts.onResolved != nil {
		c.opts.onResolved(name, lifetime, elapsed)
	}
}

func (c *container) reportError(name string, err error) {
	c.opts.logger.Error("provider failed",
		zap.String("provider", name),
		zap.Error(err),
	)
	if c.opts.onError != nil {
		c.opts.onError(name, err)
	}
}

// withChain copies a resolution failure and stamps the declared
// dependency path from the requested names onto it. The error shared by
// single-flight racers stays untouched; every caller reports its own
// path.
func (c *container) withChain(err error, requested []string) error {
	rerr, ok := err.(*ResolutionError)
	if !ok || len(rerr.Chain) > 0 {
		return err
	}
	chain := c.dependencyChain(requested, rerr.Name)
	if chain == nil {
		return err
	}
	enriched := *rerr
	enriched.Chain = chain
	return &enriched
}

// dependencyChain returns the declared-dependency path from one of the
// requested names to target, requester first. It returns nil when
// target was requested directly or cannot be reached.
func (c *container) dependencyChain(requested []string, target string) []string {
	for _, name := range requested {
		if name == target {
			return nil
		}
	}

	dead := make(map[string]bool)
	var walk func(from string, path []string) []string
	walk = func(from string, path []string) []string {
		if dead[from] {
			return nil
		}
		path = append(path, from)
		if from == target {
			out := make([]string, len(path))
			copy(out, path)
			return out
		}
		for _, dep := range c.graph.Dependencies(from) {
			if found := walk(dep, path); found != nil {
				return found
			}
		}
		dead[from] = true
		return nil
	}

	for _, name := range requested {
		if found := walk(name, nil); found != nil {
			return found
		}
	}
	return nil
}

func isCallable(value any) bool {
	if value == nil {
		return false
	}
	return reflect.ValueOf(value).Kind() == reflect.Func
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
