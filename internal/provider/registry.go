package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// Registry is a thread-safe registry of data providers. Providers are
// indexed by the model types they support; the first provider registered
// for a model is its default.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	modelIdx  map[ModelType][]string // model → provider names, priority order
	defaults  map[ModelType]string
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		modelIdx:  make(map[ModelType][]string),
		defaults:  make(map[ModelType]string),
	}
}

// Register adds an initialized provider. Re-registering a name replaces
// the provider but keeps its priority.
func (r *Registry) Register(p Provider) error {
	name := p.Info().Name
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = p
	for _, model := range p.SupportedModels() {
		if !slices.Contains(r.modelIdx[model], name) {
			r.modelIdx[model] = append(r.modelIdx[model], name)
		}
		if _, ok := r.defaults[model]; !ok {
			r.defaults[model] = name
		}
	}
	return nil
}

// Unregister removes a provider. Defaults that pointed at it move to the
// next provider supporting the model.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return
	}
	delete(r.providers, name)
	for model, names := range r.modelIdx {
		names = slices.DeleteFunc(names, func(n string) bool { return n == name })
		if len(names) == 0 {
			delete(r.modelIdx, model)
			delete(r.defaults, model)
			continue
		}
		r.modelIdx[model] = names
		if r.defaults[model] == name {
			r.defaults[model] = names[0]
		}
	}
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
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ProvidersFor returns the providers supporting model, default first.
func (r *Registry) ProvidersFor(model ModelType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.modelIdx[model])
}

// DefaultProvider returns the default provider name for a model type.
func (r *Registry) DefaultProvider(model ModelType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.defaults[model]
	return name, ok
}

// SetDefault makes providerName the default for model.
func (r *Registry) SetDefault(model ModelType, providerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[providerName]
	if !ok {
		return &ErrProviderNotFound{Name: providerName}
	}
	if p.Fetcher(model) == nil {
		return &ErrModelNotSupported{Provider: providerName, Model: model}
	}
	r.defaults[model] = providerName
	return nil
}

// Fetch retrieves data for model from params[ParamProvider], or from the
// default provider when that is empty.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	name := params[ParamProvider]

	r.mu.RLock()
	if name == "" {
		name = r.defaults[model]
	}
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

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

// FetchWithFallback tries the requested (or default) provider, then every
// other provider supporting model in priority order. The last error is
// returned when all fail.
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
		if name == tried || ctx.Err() != nil {
			continue
		}
		next := make(QueryParams, len(params)+1)
		for k, v := range params {
			next[k] = v
		}
		next[ParamProvider] = name

		if result, err = r.Fetch(ctx, model, next); err == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("all providers failed for model %s: %w", model, err)
}
