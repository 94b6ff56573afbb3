package godine

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

// Thunk is the resolved form of a lazy provider. The provider's
// dependencies were resolved during the pass that produced it, but
// the factory itself has not run. Get runs the factory at most once
// and memoizes the outcome, success or failure, so every later Get
// returns the same value or the same error without running anything.
//
// If the factory returns a value with a teardown, the teardown is
// registered with the scope that owns the thunk at the moment Get
// first runs. A thunk that is never forced creates nothing and tears
// nothing down.
type Thunk struct {
	name   string
	once   sync.Once
	forced atomic.Bool
	run    func(ctx context.Context) (any, error)

	value any
	err   error
}

func newThunk(name string, run func(ctx context.Context) (any, error)) *Thunk {
	return &Thunk{name: name, run: run}
}

// Name returns the name of the provider the thunk defers.
func (t *Thunk) Name() string {
	return t.name
}

// Get forces the thunk. The first call runs the deferred factory and
// records its outcome; later calls return that outcome unchanged.
func (t *Thunk) Get(ctx context.Context) (any, error) {
	t.once.Do(func() {
		t.value, t.err = t.run(ctx)
		t.run = nil
		t.forced.Store(true)
	})
	return t.value, t.err
}

// Forced reports whether the deferred factory has already run.
func (t *Thunk) Forced() bool {
	return t.forced.Load()
}

// Force forces a thunk and asserts the value's type.
func Force[T any](ctx context.Context, t *Thunk) (T, error) {
	var zero T
	value, err := t.Get(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name:     t.name,
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(value),
		}
	}
	return typed, nil
}
