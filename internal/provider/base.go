package provider

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/seenimoa/tierscreen/internal/infra"
)

// FetcherDeps are the shared infrastructure pieces a fetcher uses.
// Zero values are replaced with permissive defaults.
type FetcherDeps struct {
	Cache    infra.Cache
	CacheTTL time.Duration
	Limiter  *infra.RateLimiter
	Breaker  *infra.Breaker
}

func (d FetcherDeps) withDefaults(name string) FetcherDeps {
	if d.Cache == nil {
		d.Cache = infra.NopCache{}
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	if d.Limiter == nil {
		d.Limiter = infra.NewRateLimiter(10, 1)
	}
	if d.Breaker == nil {
		d.Breaker = infra.NewBreaker(infra.DefaultBreakerConfig(name))
	}
	return d
}

// BaseFetcher provides common functionality for fetcher implementations.
// Embed this in concrete fetchers to get caching, rate limiting and circuit
// breaking.
type BaseFetcher struct {
	model       ModelType
	description string
	required    []string
	optional    []string
	deps        FetcherDeps
}

// NewBaseFetcher creates a base fetcher.
func NewBaseFetcher(model ModelType, desc string, required, optional []string, deps FetcherDeps) BaseFetcher {
	return BaseFetcher{
		model:       model,
		description: desc,
		required:    required,
		optional:    optional,
		deps:        deps.withDefaults(string(model)),
	}
}

func (b *BaseFetcher) ModelType() ModelType     { return b.model }
func (b *BaseFetcher) Description() string      { return b.description }
func (b *BaseFetcher) RequiredParams() []string { return b.required }
func (b *BaseFetcher) OptionalParams() []string { return b.optional }

// CacheGet retrieves a payload from the fetcher's cache. Cache errors are
// treated as misses.
func (b *BaseFetcher) CacheGet(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := b.deps.Cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return v, ok
}

// CacheSet stores a payload in the fetcher's cache.
func (b *BaseFetcher) CacheSet(ctx context.Context, key string, value []byte) error {
	return b.deps.Cache.Set(ctx, key, value, b.deps.CacheTTL)
}

// RateLimit waits until a request slot is available.
func (b *BaseFetcher) RateLimit(ctx context.Context) error {
	return b.deps.Limiter.Wait(ctx)
}

// Guard runs fn through the fetcher's circuit breaker.
func (b *BaseFetcher) Guard(fn func() (any, error)) (any, error) {
	return b.deps.Breaker.Execute(fn)
}

// CacheKey builds a cache key from model type and query parameters.
func CacheKey(model ModelType, params QueryParams) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == ParamProvider {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(model))
	for _, k := range keys {
		b.WriteString(":" + k + "=" + params[k])
	}
	return b.String()
}

// BaseProvider provides common functionality for provider implementations.
// Embed this in concrete providers to simplify implementation.
type BaseProvider struct {
	info        ProviderInfo
	fetchers    map[ModelType]Fetcher
	credentials map[string]string
}

// NewBaseProvider creates a base provider.
func NewBaseProvider(name, description, website string, creds []ProviderCredential) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:        name,
			Description: description,
			Website:     website,
			Credentials: creds,
		},
		fetchers:    make(map[ModelType]Fetcher),
		credentials: make(map[string]string),
	}
}

func (bp *BaseProvider) Info() ProviderInfo { return bp.info }

func (bp *BaseProvider) Init(credentials map[string]string) error {
	for _, cred := range bp.info.Credentials {
		if cred.Required {
			val, ok := credentials[cred.Name]
			if !ok || val == "" {
				return &ErrInvalidCredentials{
					Provider: bp.info.Name,
					Detail:   "missing required credential: " + cred.Name,
				}
			}
		}
	}
	if credentials == nil {
		credentials = make(map[string]string)
	}
	bp.credentials = credentials
	return nil
}

func (bp *BaseProvider) Fetcher(model ModelType) Fetcher {
	return bp.fetchers[model]
}

// SupportedModels returns the registered model types, sorted.
func (bp *BaseProvider) SupportedModels() []ModelType {
	models := make([]ModelType, 0, len(bp.fetchers))
	for m := range bp.fetchers {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i] < models[j] })
	return models
}

func (bp *BaseProvider) Ping(ctx context.Context) error {
	return nil // Override in concrete providers.
}

// RegisterFetcher adds a fetcher to this provider.
func (bp *BaseProvider) RegisterFetcher(f Fetcher) {
	bp.fetchers[f.ModelType()] = f
	bp.info.Models = bp.SupportedModels()
}

// Credential returns a stored credential value.
func (bp *BaseProvider) Credential(name string) string {
	return bp.credentials[name]
}
