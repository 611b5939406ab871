package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry routes fetches to registered providers. For every model type
// it keeps the names of the providers able to serve it, in registration
// order; the first entry is the route taken when the caller names no
// provider, so registration order encodes preference.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Provider
	routes map[ModelType][]string
	log    zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Provider),
		routes: make(map[ModelType][]string),
		log:    zerolog.Nop(),
	}
}

// SetLogger attaches a logger used for fetch diagnostics.
func (r *Registry) SetLogger(log zerolog.Logger) {
	r.mu.Lock()
	r.log = log
	r.mu.Unlock()
}

// Register adds an initialized provider. Registering the same name
// again replaces the instance but keeps its route positions.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if info.Name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[info.Name] = p
	for _, model := range p.SupportedModels() {
		if !slices.Contains(r.routes[model], info.Name) {
			r.routes[model] = append(r.routes[model], info.Name)
		}
	}
	return nil
}

// Unregister drops a provider and every route through it.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byName, name)
	for model, names := range r.routes {
		names = slices.DeleteFunc(names, func(n string) bool { return n == name })
		if len(names) == 0 {
			delete(r.routes, model)
		} else {
			r.routes[model] = names
		}
	}
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List describes every registered provider, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.byName))
	for _, p := range r.byName {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ProvidersFor returns the names able to serve a model, default first.
func (r *Registry) ProvidersFor(model ModelType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.routes[model])
}

// DefaultProvider names the provider a bare fetch for model routes to.
func (r *Registry) DefaultProvider(model ModelType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.routes[model]
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

// SetDefault moves a provider to the front of a model's route. The
// provider must exist and serve the model.
func (r *Registry) SetDefault(model ModelType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byName[name]
	if !ok {
		return &ErrProviderNotFound{Name: name}
	}
	if p.Fetcher(model) == nil {
		return &ErrModelNotSupported{Provider: name, Model: model}
	}

	rest := slices.DeleteFunc(slices.Clone(r.routes[model]), func(n string) bool { return n == name })
	r.routes[model] = append([]string{name}, rest...)
	return nil
}

// ModelCoverage maps every model type to the providers serving it.
func (r *Registry) ModelCoverage() map[ModelType][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coverage := make(map[ModelType][]string, len(r.routes))
	for model, names := range r.routes {
		coverage[model] = slices.Clone(names)
	}
	return coverage
}

// Fetch resolves a provider for the model (the "provider" param wins,
// then the default route), validates the query against the fetcher's
// spec and delegates.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	r.mu.RLock()
	name := params[ParamProvider]
	if name == "" && len(r.routes[model]) > 0 {
		name = r.routes[model][0]
	}
	p := r.byName[name]
	log := r.log
	r.mu.RUnlock()

	if p == nil {
		return nil, &ErrProviderNotFound{Name: name}
	}
	f := p.Fetcher(model)
	if f == nil {
		return nil, &ErrModelNotSupported{Provider: name, Model: model}
	}
	if err := ValidateParams(params, f.Spec().Required); err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := f.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider %q fetch %s: %w", name, model, err)
	}

	result.Provider = name
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}

	log.Debug().
		Str("provider", name).
		Str("model", string(model)).
		Str("symbol", params[ParamSymbol]).
		Bool("cached", result.Cached).
		Dur("elapsed", time.Since(started)).
		Msg("fetch complete")

	return result, nil
}

// FetchWithFallback fetches through the resolved route first, then
// retries every other provider serving the model in route order. The
// error of the last attempt is returned when all fail.
func (r *Registry) FetchWithFallback(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	result, err := r.Fetch(ctx, model, params)
	if err == nil {
		return result, nil
	}

	tried := params[ParamProvider]
	if tried == "" {
		tried, _ = r.DefaultProvider(model)
	}

	for _, name := range r.ProvidersFor(model) {
		if name == tried {
			continue
		}
		retry := make(QueryParams, len(params)+1)
		for k, v := range params {
			retry[k] = v
		}
		retry[ParamProvider] = name

		if result, err = r.Fetch(ctx, model, retry); err == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("all providers failed for model %s: %w", model, err)
}

var global = NewRegistry()

// Global returns the process-wide registry the CLI wires providers into.
func Global() *Registry { return global }
