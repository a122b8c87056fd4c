package coincap

import (
	"context"
	"net/url"
	"time"

	"github.com/seenimoa/tierscreen/internal/provider"
)

// assetsFetcher pages through /assets.
type assetsFetcher struct {
	provider.BaseFetcher
	client *client
}

func newAssetsFetcher(c *client, deps provider.FetcherDeps) *assetsFetcher {
	return &assetsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCryptoAssets,
			"Crypto assets with price, market cap and 24h volume from CoinCap",
			nil,
			[]string{provider.ParamLimit, provider.ParamMaxPages, provider.ParamSearch},
			deps,
		),
		client: c,
	}
}

func (f *assetsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	filters := url.Values{}
	if s := params[provider.ParamSearch]; s != "" {
		filters.Set("search", s)
	}

	page, err := fetchPaged[assetJSON](ctx, f.client, &f.BaseFetcher, "assets", params, filters)
	if err != nil {
		return nil, err
	}
	return &provider.FetchResult{
		Data:      assetsToRecords(page.rows),
		Pages:     page.pages,
		Cached:    page.cached,
		Truncated: page.truncated,
		FetchedAt: time.Now(),
	}, nil
}

// marketsFetcher pages through /markets.
type marketsFetcher struct {
	provider.BaseFetcher
	client *client
}

func newMarketsFetcher(c *client, deps provider.FetcherDeps) *marketsFetcher {
	return &marketsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCryptoMarkets,
			"Exchange markets (exchange, base asset, 24h volume) from CoinCap",
			nil,
			[]string{provider.ParamLimit, provider.ParamMaxPages, provider.ParamExchange},
			deps,
		),
		client: c,
	}
}

func (f *marketsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	filters := url.Values{}
	if ex := params[provider.ParamExchange]; ex != "" {
		filters.Set("exchangeId", ex)
	}

	page, err := fetchPaged[marketJSON](ctx, f.client, &f.BaseFetcher, "markets", params, filters)
	if err != nil {
		return nil, err
	}
	return &provider.FetchResult{
		Data:      marketsToRecords(page.rows),
		Pages:     page.pages,
		Cached:    page.cached,
		Truncated: page.truncated,
		FetchedAt: time.Now(),
	}, nil
}
