package godine

import (
	"context"
	"sync"
)

// Registry collects named providers and freezes them into a
// Container. Registration order is observable: it breaks ties when
// independent providers are ordered, and it fixes the relative
// teardown order of values created in the same pass.
type Registry interface {
	// Provide registers a factory under name. The name must be
	// unique within the registry.
	Provide(name string, factory Factory, opts ...ProvideOption) error

	// ProvideValue registers an already constructed value under
	// name. The provider defaults to the App lifetime and its
	// teardown, if any, comes from the value implementing Disposable
	// or DisposableWithContext.
	ProvideValue(name string, value any, opts ...ProvideOption) error

	// AddModules applies each module to the registry, stopping at
	// the first failure.
	AddModules(modules ...ModuleOption) error

	// Lookup returns the provider registered under name.
	Lookup(name string) (*Provider, bool)

	// Has reports whether name is registered.
	Has(name string) bool

	// Providers returns every registered provider in registration
	// order.
	Providers() []*Provider

	// Autouse returns the names of autouse providers with the given
	// lifetime, in registration order.
	Autouse(lifetime Lifetime) []string

	// Count returns the number of registered providers.
	Count() int

	// Build validates every declared dependency, freezes the
	// registry, and returns the Container that owns the App scope.
	// A successful Build rejects further registration; calling
	// Build again returns the same Container. A failed Build leaves
	// the registry open so the problem can be fixed and Build
	// retried.
	Build(opts ...BuildOption) (Container, error)
}

// NewRegistry creates an empty Registry.
func NewRegistry() Registry {
	return &registry{
		providers: make(map[string]*Provider),
	}
}

type registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
	order     []string
	built     *container
}

func (r *registry) Provide(name string, factory Factory, opts ...ProvideOption) error {
	if factory == nil {
		return &RegistrationError{Name: name, Cause: ErrFactoryNil}
	}
	return r.add(name, factory, false, nil, Request, opts)
}

func (r *registry) ProvideValue(name string, value any, opts ...ProvideOption) error {
	if value == nil {
		return &RegistrationError{Name: name, Cause: ErrValueNil}
	}
	factory := func(ctx context.Context, deps Deps) (any, error) {
		return value, nil
	}
	return r.add(name, factory, true, value, App, opts)
}

func (r *registry) add(name string, factory Factory, isValue bool, value any, lifetime Lifetime, opts []ProvideOption) error {
	if name == "" {
		return &RegistrationError{Name: name, Cause: ErrNameEmpty}
	}

	p := &Provider{
		Name:     name,
		Lifetime: lifetime,
		Factory:  factory,
		IsValue:  isValue,
		Value:    value,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(p)
		}
	}

	if !p.Lifetime.IsValid() {
		return &LifetimeError{Name: name, Value: p.Lifetime}
	}
	if p.Lazy && p.Lifetime != Request {
		return &LifetimeError{Name: name, Value: p.Lifetime, Cause: ErrLazyRequiresRequest}
	}

	deps := make([]string, 0, len(p.Dependencies))
	seen := make(map[string]struct{}, len(p.Dependencies))
	for _, dep := range p.Dependencies {
		if dep == "" {
			return &RegistrationError{Name: name, Cause: ErrDependencyEmpty}
		}
		if dep == name {
			return &CircularDependencyError{Node: name, Path: []string{name}}
		}
		if _, dup := seen[dep]; dup {
			continue
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	p.Dependencies = deps

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.built != nil {
		return &RegistrationError{Name: name, Cause: ErrRegistryBuilt}
	}
	if _, exists := r.providers[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	p.index = len(r.order)
	r.providers[name] = p
	r.order = append(r.order, name)
	return nil
}

func (r *registry) AddModules(modules ...ModuleOption) error {
	for _, m := range modules {
		if m == nil {
			continue
		}
		if err := m(r); err != nil {
			return err
		}
	}
	return nil
}

func (r *registry) Lookup(name string) (*Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

func (r *registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

func (r *registry) Providers() []*Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

func (r *registry) Autouse(lifetime Lifetime) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.order {
		p := r.providers[name]
		if p.Autouse && p.Lifetime == lifetime {
			out = append(out, name)
		}
	}
	return out
}

func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *registry) Build(opts ...BuildOption) (Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.built != nil {
		return r.built, nil
	}

	g, err := r.validate()
	if err != nil {
		return nil, err
	}

	c := newContainer(r, g, opts)
	r.built = c
	return c, nil
}

// snapshot accessors used by the container after Build has frozen the
// registry.

func (r *registry) provider(name string) (*Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *registry) names() []string {
	return r.order
}
