package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/godine"
)

// AssertResolvable checks that name resolves in the scope and returns the value
func AssertResolvable(t *testing.T, scope godine.Scope, name string) any {
	t.Helper()
	value, err := scope.Resolve(context.Background(), name)
	require.NoError(t, err, "failed to resolve %q", name)
	require.NotNil(t, value, "resolved %q is nil", name)
	return value
}

// AssertResolvableAs checks that name resolves in the scope with the expected type
func AssertResolvableAs[T any](t *testing.T, scope godine.Scope, name string) T {
	t.Helper()
	value, err := godine.ResolveAs[T](context.Background(), scope, name)
	require.NoError(t, err, "failed to resolve %q as %T", name, *new(T))
	return value
}

// AssertNotFound checks that an error reports an unregistered name
func AssertNotFound(t *testing.T, err error, msgAndArgs ...any) *godine.NotFoundError {
	t.Helper()
	require.Error(t, err)
	var notFound *godine.NotFoundError
	assert.ErrorAs(t, err, &notFound, msgAndArgs...)
	return notFound
}

// AssertCircularDependency checks that an error reports a dependency cycle
func AssertCircularDependency(t *testing.T, err error) *godine.CircularDependencyError {
	t.Helper()
	require.Error(t, err)
	var cycle *godine.CircularDependencyError
	assert.ErrorAs(t, err, &cycle, "expected circular dependency error, got: %v", err)
	return cycle
}

// AssertErrorType checks if an error is of a specific type
func AssertErrorType[T error](t *testing.T, err error, msgAndArgs ...any) T {
	t.Helper()
	var target T
	assert.ErrorAs(t, err, &target, msgAndArgs...)
	return target
}

// AssertSameInstance verifies two values are the same instance
func AssertSameInstance(t *testing.T, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	assert.Same(t, expected, actual, msgAndArgs...)
}

// AssertDifferentInstances verifies two values are different instances
func AssertDifferentInstances(t *testing.T, first, second any, msgAndArgs ...any) {
	t.Helper()
	assert.NotSame(t, first, second, msgAndArgs...)
}

// AssertContainerClosed checks that operations on a closed container fail correctly
func AssertContainerClosed(t *testing.T, container godine.Container) {
	t.Helper()
	assert.True(t, container.IsClosed(), "container should be closed")

	_, err := container.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, godine.ErrContainerClosed)

	_, err = container.CreateScope(context.Background())
	assert.ErrorIs(t, err, godine.ErrContainerClosed)
}

// AssertScopeClosed checks that operations on a closed scope fail correctly
func AssertScopeClosed(t *testing.T, scope godine.Scope) {
	t.Helper()
	assert.True(t, scope.IsClosed(), "scope should be closed")

	_, err := scope.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, godine.ErrScopeClosed)
}
