// Package coincap implements the CoinCap market data provider.
// CoinCap serves asset (price, market cap, volume) and market (exchange
// listing) data as paginated JSON.
//
// An API key is optional; when set it is sent as a bearer token.
// Docs: https://docs.coincap.io/
package coincap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/seenimoa/tierscreen/internal/infra"
	"github.com/seenimoa/tierscreen/internal/provider"
)

const (
	providerName = "coincap"
	credAPIKey   = "api_key"

	// DefaultBaseURL is the CoinCap v2 REST endpoint.
	DefaultBaseURL = "https://api.coincap.io/v2"
	// DefaultPageLimit is the largest page CoinCap serves.
	DefaultPageLimit = 2000
	// DefaultMaxPages bounds pagination.
	DefaultMaxPages = 50
)

// RequestObserver is notified after every page request. status is 0 when
// the request failed before a response, cached is true for cache hits.
type RequestObserver func(endpoint string, status int, cached bool)

// Options configures the provider.
type Options struct {
	BaseURL    string
	PageLimit  int
	MaxPages   int
	HTTPClient *http.Client
	Deps       provider.FetcherDeps
	Observer   RequestObserver
}

// client holds the connection settings shared by the fetchers.
type client struct {
	baseURL   string
	apiKey    string
	pageLimit int
	maxPages  int
	http      *http.Client
	observe   RequestObserver
}

// Provider implements provider.Provider for CoinCap.
type Provider struct {
	provider.BaseProvider
	client *client
}

// New creates a CoinCap provider and registers its fetchers.
func New(opts Options) *Provider {
	c := &client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		pageLimit: opts.PageLimit,
		maxPages:  opts.MaxPages,
		http:      opts.HTTPClient,
		observe:   opts.Observer,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pageLimit <= 0 {
		c.pageLimit = DefaultPageLimit
	}
	if c.maxPages <= 0 {
		c.maxPages = DefaultMaxPages
	}
	if c.http == nil {
		c.http = infra.HTTPClient
	}
	if c.observe == nil {
		c.observe = func(string, int, bool) {}
	}
	if opts.Deps.Breaker == nil {
		opts.Deps.Breaker = infra.NewBreaker(infra.DefaultBreakerConfig(providerName))
	}

	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"CoinCap - crypto asset prices, market caps and exchange markets",
			"https://coincap.io",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "CoinCap API key (raises rate limits)",
					Required:    false,
					EnvVar:      "COINCAP_API_KEY",
				},
			},
		),
		client: c,
	}

	p.RegisterFetcher(newAssetsFetcher(c, opts.Deps))
	p.RegisterFetcher(newMarketsFetcher(c, opts.Deps))
	return p
}

// Init stores the optional API key.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	p.client.apiKey = p.Credential(credAPIKey)
	return nil
}

// Ping requests a single asset.
func (p *Provider) Ping(ctx context.Context) error {
	body, _, err := infra.DoGet(ctx, p.client.http, p.client.baseURL+"/assets?limit=1", p.client.headers())
	if err != nil {
		return fmt.Errorf("coincap ping: %w", err)
	}
	body.Close()
	return nil
}

// BaseURL returns the configured API root.
func (p *Provider) BaseURL() string { return p.client.baseURL }

func (c *client) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		h["Authorization"] = "Bearer " + c.apiKey
	}
	return h
}

// pageURL builds {base}/{endpoint}?offset=N&limit=L plus any filters.
func (c *client) pageURL(endpoint string, offset, limit int, filters url.Values) string {
	q := url.Values{}
	for k, vs := range filters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return c.baseURL + "/" + endpoint + "?" + q.Encode()
}

// paging resolves the page size and page bound for one fetch.
func (c *client) paging(params provider.QueryParams) (limit, maxPages int) {
	limit, maxPages = c.pageLimit, c.maxPages
	if n, err := strconv.Atoi(params[provider.ParamLimit]); err == nil && n > 0 {
		limit = n
	}
	if n, err := strconv.Atoi(params[provider.ParamMaxPages]); err == nil && n > 0 {
		maxPages = n
	}
	return limit, maxPages
}

// pageCacheKey identifies one page in the shared cache. The base URL is part
// of the key so that several CoinCap mirrors can share a Redis.
func (c *client) pageCacheKey(model provider.ModelType, offset, limit int, filters url.Values) string {
	params := provider.QueryParams{
		"base_url": c.baseURL,
		"offset":   strconv.Itoa(offset),
		"limit":    strconv.Itoa(limit),
	}
	for k := range filters {
		params[k] = filters.Get(k)
	}
	return providerName + ":" + provider.CacheKey(model, params)
}

// getPage returns one page payload, from the cache when possible.
func (c *client) getPage(ctx context.Context, f *provider.BaseFetcher, endpoint, pageURL, key string) ([]byte, bool, error) {
	if data, ok := f.CacheGet(ctx, key); ok {
		c.observe(endpoint, http.StatusOK, true)
		return data, true, nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, false, err
	}

	status := 0
	v, err := f.Guard(func() (any, error) {
		body, code, err := infra.DoGet(ctx, c.http, pageURL, c.headers())
		status = code
		if err != nil {
			return nil, err
		}
		defer body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read CoinCap response: %w", err)
		}
		return data, nil
	})
	c.observe(endpoint, status, false)
	if err != nil {
		return nil, false, err
	}

	data := v.([]byte)
	_ = f.CacheSet(ctx, key, data)
	return data, false, nil
}

// pagedRows is the outcome of one paginated walk.
type pagedRows[T any] struct {
	rows      []T
	pages     int
	cached    bool // every page came from the cache
	truncated bool // stopped at maxPages while the last page was full
}

// fetchPaged walks offset/limit pages until an empty or short page, or
// until maxPages pages were requested.
func fetchPaged[T any](ctx context.Context, c *client, f *provider.BaseFetcher, endpoint string, params provider.QueryParams, filters url.Values) (*pagedRows[T], error) {
	limit, maxPages := c.paging(params)

	out := &pagedRows[T]{cached: true}
	for offset := 0; out.pages < maxPages; offset += limit {
		key := c.pageCacheKey(f.ModelType(), offset, limit, filters)
		data, cached, err := c.getPage(ctx, f, endpoint, c.pageURL(endpoint, offset, limit, filters), key)
		if err != nil {
			return nil, fmt.Errorf("coincap %s offset %d: %w", endpoint, offset, err)
		}
		out.pages++
		out.cached = out.cached && cached

		var env envelope[T]
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("parse CoinCap %s JSON: %w", endpoint, err)
		}
		out.rows = append(out.rows, env.Data...)

		if len(env.Data) < limit {
			return out, nil
		}
	}
	out.truncated = true
	return out, nil
}
