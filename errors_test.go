package godine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errTestService struct{}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrNameEmpty, "provider name cannot be empty"},
		{ErrDependencyEmpty, "dependency name cannot be empty"},
		{ErrFactoryNil, "provider factory cannot be nil"},
		{ErrValueNil, "provider value cannot be nil"},
		{ErrRegistryNil, "registry cannot be nil"},
		{ErrRegistryBuilt, "registry has already been built"},
		{ErrContainerClosed, "container has been closed"},
		{ErrScopeClosed, "scope has been closed"},
		{ErrNoScopeInContext, "context carries no scope"},
		{ErrNoDefaultContainer, "no default container has been set"},
		{ErrLazyRequiresRequest, "lazy providers must use the Request lifetime"},
		{ErrScopeRequired, "provider has the Request lifetime and must be resolved inside a scope"},
		{ErrNotCallable, "factory provider result is not callable"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestDuplicateNameError(t *testing.T) {
	err := DuplicateNameError{Name: "db"}
	msg := err.Error()

	assert.Contains(t, msg, `"db"`)
	assert.Contains(t, msg, "already registered")
}

func TestLifetimeError(t *testing.T) {
	t.Run("invalid value", func(t *testing.T) {
		tests := []struct {
			name     string
			value    any
			expected string
		}{
			{
				name:     "string value",
				value:    "invalid",
				expected: "invalid lifetime: invalid",
			},
			{
				name:     "int value",
				value:    999,
				expected: "invalid lifetime: 999",
			},
			{
				name:     "nil value",
				value:    nil,
				expected: "invalid lifetime: <nil>",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := LifetimeError{Value: tt.value}
				assert.Equal(t, tt.expected, err.Error())
			})
		}
	})

	t.Run("named provider", func(t *testing.T) {
		err := LifetimeError{Name: "db", Value: Lifetime(7)}
		assert.Contains(t, err.Error(), `"db"`)
		assert.Contains(t, err.Error(), "invalid lifetime")
	})

	t.Run("lazy app provider", func(t *testing.T) {
		err := LifetimeError{Name: "config", Value: App, Cause: ErrLazyRequiresRequest}

		msg := err.Error()
		assert.Contains(t, msg, `"config"`)
		assert.Contains(t, msg, "lazy providers must use the Request lifetime")
		assert.Contains(t, msg, "To resolve this:")
		assert.ErrorIs(t, err, ErrLazyRequiresRequest)
	})
}

func TestLifetimeConflictError(t *testing.T) {
	err := LifetimeConflictError{
		Name:               "cache",
		Lifetime:           App,
		Dependency:         "session",
		DependencyLifetime: Request,
	}

	msg := err.Error()
	assert.Contains(t, msg, `"cache"`)
	assert.Contains(t, msg, `"session"`)
	assert.Contains(t, msg, "App")
	assert.Contains(t, msg, "Request")
	assert.Contains(t, msg, "To resolve this:")
}

func TestNotFoundError(t *testing.T) {
	t.Run("requested directly", func(t *testing.T) {
		err := NotFoundError{Name: "db"}
		msg := err.Error()

		assert.Contains(t, msg, `provider "db" is not registered`)
		assert.Contains(t, msg, "check the name for typos")
	})

	t.Run("declared as dependency", func(t *testing.T) {
		err := NotFoundError{Name: "db", Requester: "users"}
		msg := err.Error()

		assert.Contains(t, msg, `"db"`)
		assert.Contains(t, msg, `required by "users"`)
	})
}

func TestCircularDependencyError(t *testing.T) {
	err := &CircularDependencyError{Node: "a", Path: []string{"a", "b"}}

	msg := err.Error()
	assert.Contains(t, msg, "circular dependency detected")
	assert.Contains(t, msg, "a")
	assert.Contains(t, msg, "b")
	assert.Contains(t, msg, "(cycle)")
	assert.Contains(t, msg, "To resolve this:")
}

func TestResolutionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ResolutionError{Name: "db", Cause: cause}

	assert.Contains(t, err.Error(), `"db"`)
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)

	var resErr *ResolutionError
	require.ErrorAs(t, error(err), &resErr)
	assert.Equal(t, "db", resErr.Name)

	t.Run("transitive failure names the path", func(t *testing.T) {
		err := &ResolutionError{Name: "db", Chain: []string{"handler", "repo", "db"}, Cause: cause}
		assert.Contains(t, err.Error(), "handler -> repo -> db")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestRegistrationError(t *testing.T) {
	t.Run("with name", func(t *testing.T) {
		err := RegistrationError{Name: "db", Cause: ErrFactoryNil}
		assert.Contains(t, err.Error(), `"db"`)
		assert.ErrorIs(t, err, ErrFactoryNil)
	})

	t.Run("without name", func(t *testing.T) {
		err := RegistrationError{Cause: ErrNameEmpty}
		assert.Equal(t, "failed to register provider: provider name cannot be empty", err.Error())
	})
}

func TestTeardownError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		cause := errors.New("close failed")
		err := TeardownError{Errors: []error{cause}}

		assert.Equal(t, "teardown failed: close failed", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("multiple errors", func(t *testing.T) {
		first := errors.New("first")
		second := errors.New("second")
		err := TeardownError{Errors: []error{first, second}}

		msg := err.Error()
		assert.Contains(t, msg, "2 errors")
		assert.Contains(t, msg, "1. first")
		assert.Contains(t, msg, "2. second")
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
	})
}

func TestModuleError(t *testing.T) {
	cause := DuplicateNameError{Name: "db"}
	err := &ModuleError{Module: "database", Cause: cause}

	assert.Contains(t, err.Error(), `"database"`)

	var dup DuplicateNameError
	assert.ErrorAs(t, error(err), &dup)
	assert.Equal(t, "db", dup.Name)
}

func TestTypeMismatchError(t *testing.T) {
	err := TypeMismatchError{
		Name:     "svc",
		Expected: reflect.TypeOf((*errTestService)(nil)),
		Actual:   reflect.TypeOf("hello"),
	}

	msg := err.Error()
	assert.Contains(t, msg, `"svc"`)
	assert.Contains(t, msg, "*errTestService")
	assert.Contains(t, msg, "string")
}

func TestFormatType(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		expected string
	}{
		{
			name:     "nil type",
			typ:      nil,
			expected: "<nil>",
		},
		{
			name:     "pointer to named type",
			typ:      reflect.TypeOf((*errTestService)(nil)),
			expected: "*errTestService",
		},
		{
			name:     "slice of named type",
			typ:      reflect.TypeOf([]errTestService{}),
			expected: "[]errTestService",
		},
		{
			name:     "builtin",
			typ:      reflect.TypeOf(42),
			expected: "int",
		},
		{
			name:     "unnamed func",
			typ:      reflect.TypeOf(func() {}),
			expected: "func()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatType(tt.typ))
		})
	}
}
