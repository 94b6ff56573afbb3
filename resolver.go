package godine

import (
	"context"
	"errors"
	"time"
)

// resolveSet runs a single resolution pass. The caller holds s.mu.
//
// A pass has four steps: collect the working set (the requested names
// plus every autouse provider), expand it to its dependency closure
// in creation order, create whatever is not cached yet, and hand back
// the requested values. App values live in the container cache and
// survive the pass either way; Request values created by this pass
// are rolled back if it fails partway.
func (s *scope) resolveSet(ctx context.Context, requested []string) (Deps, error) {
	working := make([]string, 0, len(requested)+4)
	working = append(working, requested...)
	working = append(working, s.container.registry.Autouse(Request)...)
	working = append(working, s.container.registry.Autouse(App)...)
	working = dedupe(working)

	order, err := s.container.graph.ResolutionOrder(working...)
	if err != nil {
		return Deps{}, err
	}

	mark := s.teardowns.mark()

	values := make(map[string]any, len(order))
	var created []string

	fail := func(cause error) error {
		return s.unwind(ctx, mark, created, s.container.withChain(cause, working))
	}

	for _, name := range order {
		p, ok := s.container.registry.provider(name)
		if !ok {
			return Deps{}, fail(&NotFoundError{Name: name})
		}

		if p.Lifetime == App {
			value, err := s.container.resolveApp(ctx, name)
			if err != nil {
				return Deps{}, fail(err)
			}
			values[name] = value
			continue
		}

		if value, ok := s.entries.get(name); ok {
			values[name] = value
			continue
		}

		if err := ctx.Err(); err != nil {
			return Deps{}, fail(err)
		}

		deps := newDeps(len(p.Dependencies))
		for _, dep := range p.Dependencies {
			deps.set(dep, values[dep])
		}

		if p.Lazy {
			thunk := newThunk(name, s.thunkRun(p, deps))
			s.entries.set(name, thunk)
			values[name] = thunk
			created = append(created, name)
			continue
		}

		value, err := s.createRequest(ctx, p, deps)
		if err != nil {
			return Deps{}, fail(err)
		}
		s.entries.set(name, value)
		values[name] = value
		created = append(created, name)
	}

	out := newDeps(len(requested))
	for _, name := range requested {
		out.set(name, values[name])
	}
	return out, nil
}

// createRequest invokes a Request provider's factory and registers
// its teardown with the scope.
func (s *scope) createRequest(ctx context.Context, p *Provider, deps Deps) (any, error) {
	start := time.Now()
	result, err := p.Factory(ctx, deps)
	if err != nil {
		rerr := &ResolutionError{Name: p.Name, Cause: err}
		s.container.reportError(p.Name, rerr)
		return nil, rerr
	}

	value, teardown := splitResource(result)
	if p.IsFactory && !isCallable(value) {
		if teardown != nil {
			_ = teardown(context.WithoutCancel(ctx))
		}
		rerr := &ResolutionError{Name: p.Name, Cause: ErrNotCallable}
		s.container.reportError(p.Name, rerr)
		return nil, rerr
	}

	if teardown != nil {
		// The pass holds s.mu, so the scope cannot drain the stack
		// while a factory runs inside it.
		s.teardowns.push(p.Name, teardown)
	}

	s.container.reportResolved(p.Name, Request, time.Since(start))
	return value, nil
}

// thunkRun builds the deferred invocation for a lazy provider. The
// dependency snapshot is taken during the pass that created the
// thunk; only the factory call itself waits for the first Get.
func (s *scope) thunkRun(p *Provider, deps Deps) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		if s.IsClosed() {
			return nil, ErrScopeClosed
		}
		if ctx == nil {
			ctx = context.Background()
		}

		start := time.Now()
		result, err := p.Factory(ctx, deps)
		if err != nil {
			rerr := &ResolutionError{Name: p.Name, Cause: err}
			s.container.reportError(p.Name, rerr)
			return nil, rerr
		}

		value, teardown := splitResource(result)
		if p.IsFactory && !isCallable(value) {
			if teardown != nil {
				_ = teardown(context.WithoutCancel(ctx))
			}
			rerr := &ResolutionError{Name: p.Name, Cause: ErrNotCallable}
			s.container.reportError(p.Name, rerr)
			return nil, rerr
		}

		if teardown != nil && !s.teardowns.push(p.Name, teardown) {
			// The scope closed while the factory ran and its stack is
			// already drained. Release the fresh value immediately
			// instead of leaking it.
			_ = teardown(context.WithoutCancel(ctx))
			return nil, ErrScopeClosed
		}

		s.container.reportResolved(p.Name, Request, time.Since(start))
		return value, nil
	}
}

// unwind rolls back the Request entries a failed pass created: their
// cache entries are dropped and their teardowns run in reverse
// creation order. Entries cached by earlier passes, and every App
// value, stay untouched. The pass failure comes back as the cause,
// joined with any teardown failures.
func (s *scope) unwind(ctx context.Context, mark int, created []string, cause error) error {
	createdSet := make(map[string]struct{}, len(created))
	for _, name := range created {
		createdSet[name] = struct{}{}
		s.entries.delete(name)
	}

	toRun := s.teardowns.rollback(mark, createdSet)

	tctx := context.WithoutCancel(ctx)
	tderrs := runTeardowns(tctx, toRun, s.container.reportError)

	if len(tderrs) > 0 {
		return errors.Join(cause, &TeardownError{Errors: tderrs})
	}
	return cause
}
