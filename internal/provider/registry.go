package provider

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// Registry routes each model type to the one provider that serves it.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider    // name → provider
	routes    map[ModelType]Provider // model → serving provider
}

// Route describes which provider answers a model, for status output.
type Route struct {
	Model       ModelType
	Provider    string
	Description string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		routes:    make(map[ModelType]Provider),
	}
}

// Register adds an initialized provider and claims its models. Claiming a
// model another provider already serves is an error; re-registering the
// same name replaces that provider's routes.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, model := range p.SupportedModels() {
		if cur, ok := r.routes[model]; ok && cur.Info().Name != info.Name {
			return &ErrModelClaimed{Model: model, Provider: cur.Info().Name}
		}
	}
	if old, ok := r.providers[info.Name]; ok {
		for _, model := range old.SupportedModels() {
			delete(r.routes, model)
		}
	}

	r.providers[info.Name] = p
	for _, model := range p.SupportedModels() {
		r.routes[model] = p
	}
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns info about all registered providers, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Routes lists every served model, sorted by model name.
func (r *Registry) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]Route, 0, len(r.routes))
	for model, p := range r.routes {
		rt := Route{Model: model, Provider: p.Info().Name}
		if f := p.Fetcher(model); f != nil {
			rt.Description = f.Description()
		}
		routes = append(routes, rt)
	}
	slices.SortFunc(routes, func(a, b Route) int {
		return cmp.Compare(a.Model, b.Model)
	})
	return routes
}

// Fetch validates params against the serving fetcher and runs it.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	r.mu.RLock()
	p, ok := r.routes[model]
	r.mu.RUnlock()
	if !ok {
		return nil, &ErrModelNotSupported{Model: model}
	}

	name := p.Info().Name
	fetcher := p.Fetcher(model)
	if fetcher == nil {
		return nil, &ErrModelNotSupported{Provider: name, Model: model}
	}
	if err := ValidateParams(params, fetcher.RequiredParams()); err != nil {
		return nil, err
	}

	result, err := fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider %q fetch %s: %w", name, model, err)
	}

	result.Provider = name
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}
	return result, nil
}
