package godine

import (
	"context"
	"reflect"
)

// ResolveAs resolves name from the scope and asserts the value's
// type.
//
// Example:
//
//	db, err := godine.ResolveAs[*sql.DB](ctx, scope, "db")
func ResolveAs[T any](ctx context.Context, s Scope, name string) (T, error) {
	var zero T
	value, err := s.Resolve(ctx, name)
	if err != nil {
		return zero, err
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

// MustResolveAs is ResolveAs that panics on failure. Use it in
// wiring code where a missing provider is a programming error.
func MustResolveAs[T any](ctx context.Context, s Scope, name string) T {
	value, err := ResolveAs[T](ctx, s, name)
	if err != nil {
		panic(err)
	}
	return value
}

// FromContext resolves name from the scope carried by ctx. Handlers
// running behind scope middleware use this to reach their request's
// providers without threading the scope explicitly.
//
// Example:
//
//	func handle(w http.ResponseWriter, r *http.Request) {
//	    session, err := godine.FromContext[*Session](r.Context(), "session")
//	    ...
//	}
func FromContext[T any](ctx context.Context, name string) (T, error) {
	s, err := ScopeFromContext(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return ResolveAs[T](ctx, s, name)
}
