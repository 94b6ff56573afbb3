// Package godine provides a name-keyed dependency injection container
// for Go applications. Providers are registered under string names,
// declare the names they consume, and are created on demand with
// caching, ordered teardown, and full cycle detection.
//
// # Overview
//
// godine resolves dependencies by name instead of by type. The library
// provides:
//   - Two lifetimes: App (one value per container) and Request (one
//     value per scope)
//   - Explicit dependency declaration with DependsOn
//   - Lazy providers that defer their factory until first use
//   - Autouse providers that activate in every resolution pass
//   - Factory providers that hand out callables instead of values
//   - Two-phase setup and teardown through Resource pairs
//   - Teardown in strict reverse creation order
//   - Cycle detection at registration and build time
//   - A module system for grouping registrations
//   - Thread-safe operations with single-flight App creation
//
// # Basic Usage
//
// Create a registry, register providers, build a container, and
// resolve inside scopes:
//
//	reg := godine.NewRegistry()
//	reg.Provide("config", loadConfig, godine.WithLifetime(godine.App))
//	reg.Provide("db", openDatabase,
//	    godine.WithLifetime(godine.App),
//	    godine.DependsOn("config"))
//	reg.Provide("session", newSession, godine.DependsOn("db"))
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
//	session, err := godine.ResolveAs[*Session](ctx, scope, "session")
//
// # Lifetimes
//
// godine supports two lifetimes:
//
//   - App: one value for the life of the container, created on first
//     use and shared by every scope
//   - Request: one value per scope, created on first use within the
//     scope and torn down when the scope closes
//
// An App provider may only depend on other App providers; Build
// rejects an App provider that declares a Request dependency.
//
// # Factories and Dependencies
//
// A factory receives its declared dependencies through Deps and
// returns the value, an error, or a Resource pairing the value with
// its teardown:
//
//	func openDatabase(ctx context.Context, deps godine.Deps) (any, error) {
//	    cfg, err := godine.Get[*Config](deps, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    db, err := sql.Open("postgres", cfg.DSN)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return godine.NewResource(db, func(ctx context.Context) error {
//	        return db.Close()
//	    }), nil
//	}
//
// Only declared dependencies are available; an undeclared name is
// absent from Deps no matter what else the pass created. Values that
// implement Disposable or DisposableWithContext are torn down without
// needing an explicit Resource.
//
// # Lazy Providers
//
// A lazy provider resolves to a *Thunk instead of a value. Its
// dependencies are created during the pass, but the factory waits
// until the first Get, which runs it at most once and memoizes the
// outcome:
//
//	reg.Provide("report", buildReport, godine.Lazy(), godine.DependsOn("db"))
//
//	thunk, _ := godine.ResolveAs[*godine.Thunk](ctx, scope, "report")
//	report, err := godine.Force[*Report](ctx, thunk)
//
// A thunk that is never forced creates nothing and tears nothing
// down.
//
// # Autouse Providers
//
// Autouse providers activate in every resolution pass whether or not
// anything requested them. Use them for side-effecting setup such as
// opening a tracing span per request:
//
//	reg.Provide("request_log", startRequestLog, godine.Autouse())
//
// # Factory Providers
//
// A factory provider's result is a callable that consumers invoke
// themselves, once per value they need. The callable is cached under
// the provider's lifetime, the values it produces are not:
//
//	reg.Provide("new_worker", func(ctx context.Context, deps godine.Deps) (any, error) {
//	    return func() *Worker { return &Worker{} }, nil
//	}, godine.AsFactory())
//
// # Modules
//
// Group related registrations into reusable modules:
//
//	var DatabaseModule = godine.NewModule("database",
//	    godine.Provide("db", openDatabase, godine.WithLifetime(godine.App)),
//	    godine.Provide("users", newUserStore, godine.DependsOn("db")),
//	)
//
//	reg.AddModules(DatabaseModule)
//
// # Scopes
//
// Create one scope per request so Request providers stay isolated:
//
//	http.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
//	    scope, err := container.CreateScope(r.Context())
//	    if err != nil {
//	        http.Error(w, err.Error(), http.StatusInternalServerError)
//	        return
//	    }
//	    defer scope.Close()
//
//	    users, err := godine.ResolveAs[*UserStore](r.Context(), scope, "users")
//	    ...
//	})
//
// Closing a scope tears down every value it created in reverse
// creation order. Teardown failures are collected into a
// TeardownError; every teardown still runs.
//
// # Invocation
//
// Invoke resolves a set of names and runs a body with them, reusing
// the scope carried by the context or creating one for the call:
//
//	err := container.Invoke(ctx, []string{"users"}, func(ctx context.Context, deps godine.Deps) error {
//	    users := godine.MustGet[*UserStore](deps, "users")
//	    return users.List(ctx)
//	})
//
// # Thread Safety
//
// All godine operations are thread-safe. Concurrent resolutions of
// the same App provider share a single factory invocation, and every
// caller receives the same cached value.
//
// # Error Handling
//
// godine provides detailed error types for different failure
// scenarios:
//   - DuplicateNameError: a name was registered twice
//   - NotFoundError: a requested or declared name is not registered
//   - CircularDependencyError: providers depend on each other in a
//     cycle
//   - ResolutionError: a factory failed, wrapping the cause
//   - LifetimeConflictError: an App provider declared a Request
//     dependency
//   - TeardownError: one or more teardowns failed during cleanup
package godine
