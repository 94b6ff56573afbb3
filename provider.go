package godine

import (
	"context"
	"reflect"
	"sort"
)

// Factory produces a provider's value. The deps argument carries the
// provider's declared dependencies, already resolved in dependency
// order.
//
// A factory may return:
//   - a plain value,
//   - a Resource pairing the value with a teardown function, or
//   - a value implementing Disposable or DisposableWithContext, which
//     the owning scope tears down automatically.
type Factory func(ctx context.Context, deps Deps) (any, error)

// Provider is a named, registered unit of resource provisioning.
// Providers are immutable once registered; treat the fields as
// read-only.
type Provider struct {
	// Name is the unique identifier consumers request.
	Name string

	// Lifetime determines which scope owns the cached value.
	Lifetime Lifetime

	// Dependencies are the declared provider names resolved before the
	// factory runs, in declaration order.
	Dependencies []string

	// Lazy defers the factory behind a Thunk handed to consumers.
	// Only valid with the Request lifetime.
	Lazy bool

	// Autouse activates the provider for every resolution pass within
	// its lifetime, even when nothing requests it by name.
	Autouse bool

	// IsFactory marks a provider whose value is itself a callable that
	// consumers invoke with caller-supplied arguments. The resolver
	// rejects non-callable results.
	IsFactory bool

	// IsValue marks a provider registered from a pre-resolved value.
	IsValue bool

	// Value holds the registered value when IsValue is true.
	Value any

	// Factory is the function that produces the value.
	Factory Factory

	// index is the registration order, used for deterministic
	// tie-breaking.
	index int
}

// Index returns the provider's registration order.
func (p *Provider) Index() int {
	return p.index
}

// Deps carries resolved provider values into factories and invocation
// bodies, keyed by provider name. For a lazy provider the value is a
// *Thunk.
type Deps struct {
	values map[string]any
}

func newDeps(size int) Deps {
	return Deps{values: make(map[string]any, size)}
}

func (d Deps) set(name string, value any) {
	d.values[name] = value
}

// Value returns the resolved value for a name, or nil if absent.
func (d Deps) Value(name string) any {
	return d.values[name]
}

// Has reports whether a name was resolved into this set.
func (d Deps) Has(name string) bool {
	_, ok := d.values[name]
	return ok
}

// Names returns the resolved names in sorted order.
func (d Deps) Names() []string {
	names := make([]string, 0, len(d.values))
	for name := range d.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of resolved values.
func (d Deps) Len() int {
	return len(d.values)
}

// Get returns the resolved value for a name with its type asserted.
// It fails with NotFoundError if the name is absent and with
// TypeMismatchError if the value has a different type.
func Get[T any](deps Deps, name string) (T, error) {
	var zero T

	value, ok := deps.values[name]
	if !ok {
		return zero, &NotFoundError{Name: name}
	}

	typed, ok := value.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name:     name,
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(value),
		}
	}
	return typed, nil
}

// MustGet is like Get but panics on failure. Use it in handlers and
// tests where the registration is known to be correct.
func MustGet[T any](deps Deps, name string) T {
	value, err := Get[T](deps, name)
	if err != nil {
		panic(err)
	}
	return value
}
