package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/godine"
)

// ProviderFixture represents a provider configuration for tests
type ProviderFixture struct {
	Name     string
	Factory  godine.Factory
	Lifetime godine.Lifetime
	Options  []godine.ProvideOption
}

// CommonFixtures provides common provider configurations for testing
var CommonFixtures = struct {
	Logger   ProviderFixture
	Database ProviderFixture
	Cache    ProviderFixture
	Service  ProviderFixture
}{
	Logger: ProviderFixture{
		Name:     "logger",
		Factory:  func(ctx context.Context, deps godine.Deps) (any, error) { return NewTestLogger(), nil },
		Lifetime: godine.App,
	},
	Database: ProviderFixture{
		Name:     "db",
		Factory:  func(ctx context.Context, deps godine.Deps) (any, error) { return NewTestDatabase(), nil },
		Lifetime: godine.App,
	},
	Cache: ProviderFixture{
		Name:     "cache",
		Factory:  func(ctx context.Context, deps godine.Deps) (any, error) { return NewTestCache(), nil },
		Lifetime: godine.Request,
	},
	Service: ProviderFixture{
		Name: "service",
		Factory: func(ctx context.Context, deps godine.Deps) (any, error) {
			logger, err := godine.Get[TestLogger](deps, "logger")
			if err != nil {
				return nil, err
			}
			db, err := godine.Get[TestDatabase](deps, "db")
			if err != nil {
				return nil, err
			}
			cache, err := godine.Get[TestCache](deps, "cache")
			if err != nil {
				return nil, err
			}
			return NewTestServiceWithDeps(logger, db, cache), nil
		},
		Lifetime: godine.Request,
		Options:  []godine.ProvideOption{godine.DependsOn("logger", "db", "cache")},
	},
}

// BuildFixture registers a fixture with a registry
func BuildFixture(t *testing.T, registry godine.Registry, fixture ProviderFixture) {
	t.Helper()

	opts := append([]godine.ProvideOption{godine.WithLifetime(fixture.Lifetime)}, fixture.Options...)
	if err := registry.Provide(fixture.Name, fixture.Factory, opts...); err != nil {
		t.Fatalf("failed to register %s: %v", fixture.Name, err)
	}
}

// SetupBasicProviders registers the common leaf providers
func SetupBasicProviders(t *testing.T, registry godine.Registry) {
	t.Helper()

	BuildFixture(t, registry, CommonFixtures.Logger)
	BuildFixture(t, registry, CommonFixtures.Database)
	BuildFixture(t, registry, CommonFixtures.Cache)
}

// SetupCompleteProviders registers the common providers plus the
// service that depends on all of them
func SetupCompleteProviders(t *testing.T, registry godine.Registry) {
	t.Helper()

	SetupBasicProviders(t, registry)
	BuildFixture(t, registry, CommonFixtures.Service)
}

// BuildContainerWithBasicProviders builds a container with the common leaf providers
func BuildContainerWithBasicProviders(t *testing.T) godine.Container {
	t.Helper()

	builder := NewRegistryBuilder(t)
	SetupBasicProviders(t, builder.Registry())
	return builder.Build()
}

// BuildContainerWithCompleteProviders builds a container with all common providers
func BuildContainerWithCompleteProviders(t *testing.T) godine.Container {
	t.Helper()

	builder := NewRegistryBuilder(t)
	SetupCompleteProviders(t, builder.Registry())
	return builder.Build()
}

// TestScenario represents a test scenario configuration
type TestScenario struct {
	Name     string
	Setup    func(t *testing.T) godine.Container
	Validate func(t *testing.T, container godine.Container)
}

// RunTestScenarios executes a set of test scenarios
func RunTestScenarios(t *testing.T, scenarios []TestScenario) {
	t.Helper()

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.Name, func(t *testing.T) {
			t.Parallel()

			container := scenario.Setup(t)
			scenario.Validate(t, container)
		})
	}
}

// ErrorTestCase represents a test case for error scenarios
type ErrorTestCase struct {
	Name      string
	Setup     func(t *testing.T) godine.Container
	Action    func(container godine.Container) error
	WantError error
	CheckErr  func(t *testing.T, err error)
}

// RunErrorTestCases executes error test cases
func RunErrorTestCases(t *testing.T, cases []ErrorTestCase) {
	t.Helper()

	for _, tc := range cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			container := tc.Setup(t)
			err := tc.Action(container)

			if tc.WantError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.WantError)
			}

			if tc.CheckErr != nil {
				tc.CheckErr(t, err)
			}
		})
	}
}
