package godine

// ModuleOption represents a registration action within a module.
type ModuleOption func(Registry) error

// NewModule groups related registrations under a name. Modules apply
// their registrations in order and may nest; a failure anywhere inside
// is wrapped in a ModuleError carrying the module's name.
//
// Example:
//
//	var DatabaseModule = godine.NewModule("database",
//	    godine.Provide("db", openDatabase,
//	        godine.WithLifetime(godine.App),
//	        godine.DependsOn("config")),
//	    godine.Provide("users", newUserStore, godine.DependsOn("db")),
//	)
//
//	var AppModule = godine.NewModule("app",
//	    DatabaseModule,
//	    godine.Provide("handler", newHandler, godine.DependsOn("users")),
//	)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(r Registry) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(r); err != nil {
				return &ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// Provide creates a ModuleOption that registers a factory under name.
func Provide(name string, factory Factory, opts ...ProvideOption) ModuleOption {
	return func(r Registry) error {
		return r.Provide(name, factory, opts...)
	}
}

// ProvideValue creates a ModuleOption that registers an already
// constructed value under name.
func ProvideValue(name string, value any, opts ...ProvideOption) ModuleOption {
	return func(r Registry) error {
		return r.ProvideValue(name, value, opts...)
	}
}
