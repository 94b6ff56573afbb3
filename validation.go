package godine

import (
	"github.com/pombredanne/godine/internal/graph"
)

// validate checks every declared dependency against the registered
// providers and assembles the dependency graph. It catches unknown
// dependency names, App providers that depend on Request providers,
// and dependency cycles. The caller holds r.mu.
func (r *registry) validate() (*graph.Graph, error) {
	g := graph.New()

	for _, name := range r.order {
		p := r.providers[name]

		for _, dep := range p.Dependencies {
			dp, ok := r.providers[dep]
			if !ok {
				return nil, &NotFoundError{Name: dep, Requester: name}
			}

			// App values outlive every scope, so they can only be
			// assembled from other App values.
			if p.Lifetime == App && dp.Lifetime == Request {
				return nil, &LifetimeConflictError{
					Name:               name,
					Lifetime:           p.Lifetime,
					Dependency:         dep,
					DependencyLifetime: dp.Lifetime,
				}
			}
		}

		if err := g.Add(name, p.Dependencies...); err != nil {
			return nil, err
		}
	}

	return g, nil
}
