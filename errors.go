package godine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/pombredanne/godine/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Closed-state sentinels (ErrScopeClosed, ErrContainerClosed) come back
// as-is and are checked with errors.Is. Registration and resolution
// failures wrap a sentinel in one of the typed errors below, which name
// the provider involved.

var (
	// Registration errors.
	ErrNameEmpty       = errors.New("provider name cannot be empty")
	ErrDependencyEmpty = errors.New("dependency name cannot be empty")
	ErrFactoryNil      = errors.New("provider factory cannot be nil")
	ErrValueNil        = errors.New("provider value cannot be nil")
	ErrRegistryNil     = errors.New("registry cannot be nil")

	// Lifecycle errors.
	ErrRegistryBuilt      = errors.New("registry has already been built")
	ErrContainerClosed    = errors.New("container has been closed")
	ErrScopeClosed        = errors.New("scope has been closed")
	ErrNoScopeInContext   = errors.New("context carries no scope")
	ErrNoDefaultContainer = errors.New("no default container has been set")

	// Lifetime errors.
	ErrLazyRequiresRequest = errors.New("lazy providers must use the Request lifetime")
	ErrScopeRequired       = errors.New("provider has the Request lifetime and must be resolved inside a scope")

	// Resolution errors.
	ErrNotCallable = errors.New("factory provider result is not callable")
)

var (
	_ error = DuplicateNameError{}
	_ error = LifetimeError{}
	_ error = LifetimeConflictError{}
	_ error = NotFoundError{}
	_ error = ResolutionError{}
	_ error = RegistrationError{}
	_ error = TeardownError{}
	_ error = ModuleError{}
	_ error = TypeMismatchError{}
	_ error = CircularDependencyError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================
// Each carries the provider names involved, so a wiring mistake can be
// fixed from the message alone. Errors users hit during registration
// explain what to change, not just what went wrong.

// DuplicateNameError indicates a provider name is already registered.
type DuplicateNameError struct {
	Name string
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("provider %q is already registered (names must be unique)", e.Name)
}

// LifetimeError indicates an invalid lifetime value or a lifetime that
// is incompatible with the provider's configuration, such as a lazy
// App provider.
type LifetimeError struct {
	Name  string
	Value any
	Cause error
}

func (e LifetimeError) Error() string {
	if e.Cause == nil {
		if e.Name != "" {
			return fmt.Sprintf("provider %q: invalid lifetime: %v", e.Name, e.Value)
		}
		return fmt.Sprintf("invalid lifetime: %v", e.Value)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("provider %q: %v\n\n", e.Name, e.Cause))

	if errors.Is(e.Cause, ErrLazyRequiresRequest) {
		b.WriteString("App values are computed once and shared by every scope, so deferring\n")
		b.WriteString("their creation behind a per-scope thunk has no coherent owner.\n\n")
		b.WriteString("To resolve this:\n")
		b.WriteString("  • Drop the Lazy option and let the value be created on first use\n")
		b.WriteString("  • Change the provider to the Request lifetime\n")
	}

	return b.String()
}

func (e LifetimeError) Unwrap() error {
	return e.Cause
}

// LifetimeConflictError indicates a provider depends on another
// provider with a shorter lifetime. An App provider cannot depend on a
// Request provider.
type LifetimeConflictError struct {
	Name               string
	Lifetime           Lifetime
	Dependency         string
	DependencyLifetime Lifetime
}

func (e LifetimeConflictError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("lifetime conflict: %q (%s) cannot depend on %q (%s)\n\n",
		e.Name, e.Lifetime, e.Dependency, e.DependencyLifetime))

	b.WriteString("App values are created once and live for the container lifetime.\n")
	b.WriteString("Request values are created per scope and may differ between scopes.\n")
	b.WriteString("An App value depending on a Request value would capture one scope's\n")
	b.WriteString("value forever, which is almost certainly not what you want.\n\n")

	b.WriteString("To resolve this:\n")
	b.WriteString(fmt.Sprintf("  • Change %q to the Request lifetime\n", e.Name))
	b.WriteString(fmt.Sprintf("  • Change %q to the App lifetime\n", e.Dependency))
	b.WriteString(fmt.Sprintf("  • Use a factory provider and pass %q at call time\n", e.Dependency))

	return b.String()
}

// NotFoundError indicates an unknown provider name, either requested
// directly or declared as a dependency.
type NotFoundError struct {
	Name      string
	Requester string // the provider that declared the dependency, if any
}

func (e NotFoundError) Error() string {
	var b strings.Builder
	if e.Requester != "" {
		b.WriteString(fmt.Sprintf("provider %q (required by %q) is not registered", e.Name, e.Requester))
	} else {
		b.WriteString(fmt.Sprintf("provider %q is not registered", e.Name))
	}

	b.WriteString("\n\nMake sure the provider is registered before the registry is built,")
	b.WriteString("\nand check the name for typos.")

	return b.String()
}

// CircularDependencyError reports a dependency cycle between providers.
// It is an alias of the graph package's error so both layers report the
// same type.
type CircularDependencyError = graph.CircularDependencyError

// ResolutionError wraps a failure while resolving a provider, naming
// the provider whose factory failed. When the failure was pulled in
// through declared dependencies, Chain carries the path from the
// requested name down to the failing provider.
type ResolutionError struct {
	Name  string
	Chain []string
	Cause error
}

func (e ResolutionError) Error() string {
	if len(e.Chain) > 1 {
		return fmt.Sprintf("failed to resolve provider %q (required via %s): %v",
			e.Name, strings.Join(e.Chain, " -> "), e.Cause)
	}
	return fmt.Sprintf("failed to resolve provider %q: %v", e.Name, e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps errors during provider registration.
type RegistrationError struct {
	Name  string
	Cause error
}

func (e RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to register provider: %v", e.Cause)
	}
	return fmt.Sprintf("failed to register provider %q: %v", e.Name, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// TeardownError aggregates teardown failures for one scope. Every
// pending teardown is attempted before the error is reported.
type TeardownError struct {
	Errors []error
}

func (e TeardownError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("teardown failed: %v", e.Errors[0])
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("teardown failed with %d errors:", len(e.Errors)))
	for i, err := range e.Errors {
		b.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return b.String()
}

func (e TeardownError) Unwrap() []error {
	return e.Errors
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a resolved value did not have the type
// the caller asked for.
type TypeMismatchError struct {
	Name     string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("provider %q: expected %s, got %s",
		e.Name, formatType(e.Expected), formatType(e.Actual))
}

// formatType formats a reflect.Type for error messages, preferring the
// short name over the package-qualified one.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
