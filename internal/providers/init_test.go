package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/tierscreen/internal/config"
	"github.com/seenimoa/tierscreen/internal/provider"
	"github.com/seenimoa/tierscreen/internal/providers/coincap"
)

func TestRegisterAllTo(t *testing.T) {
	reg := provider.NewRegistry()
	require.NoError(t, RegisterAllTo(reg, config.SourceConfig{TimeoutSec: 5}, Deps{}))

	p, err := reg.Get("coincap")
	require.NoError(t, err)
	assert.Equal(t, "coincap", p.Info().Name)
	assert.Equal(t, coincap.DefaultBaseURL, p.(*coincap.Provider).BaseURL())
}

func TestRegisterAllToModelCoverage(t *testing.T) {
	reg := provider.NewRegistry()
	require.NoError(t, RegisterAllTo(reg, config.SourceConfig{BaseURL: "http://localhost:9999/v2/"}, Deps{}))

	for _, m := range provider.AllModels() {
		name, ok := reg.DefaultProvider(m)
		assert.True(t, ok, "no provider for %s", m)
		assert.Equal(t, "coincap", name)
	}

	p, _ := reg.Get("coincap")
	assert.Equal(t, "http://localhost:9999/v2", p.(*coincap.Provider).BaseURL())
}

func TestRegisterAllIdempotent(t *testing.T) {
	reg := provider.NewRegistry()
	require.NoError(t, RegisterAllTo(reg, config.SourceConfig{}, Deps{}))
	require.NoError(t, RegisterAllTo(reg, config.SourceConfig{}, Deps{}))

	assert.Len(t, reg.List(), 1)
	assert.Equal(t, []string{"coincap"}, reg.ProvidersFor(provider.ModelCryptoAssets))
}

type stubFetcher struct {
	provider.BaseFetcher
}

func (f *stubFetcher) Fetch(context.Context, provider.QueryParams) (*provider.FetchResult, error) {
	return &provider.FetchResult{Data: []string{}}, nil
}

type stubProvider struct {
	provider.BaseProvider
}

func TestRegisterAllToTakesDefaults(t *testing.T) {
	reg := provider.NewRegistry()
	stub := &stubProvider{BaseProvider: provider.NewBaseProvider("stub", "stub", "", nil)}
	stub.RegisterFetcher(&stubFetcher{provider.NewBaseFetcher(provider.ModelCryptoAssets, "stub", nil, nil, provider.FetcherDeps{})})
	require.NoError(t, reg.Register(stub))

	name, _ := reg.DefaultProvider(provider.ModelCryptoAssets)
	require.Equal(t, "stub", name)

	require.NoError(t, RegisterAllTo(reg, config.SourceConfig{}, Deps{}))
	for _, m := range provider.AllModels() {
		name, ok := reg.DefaultProvider(m)
		assert.True(t, ok)
		assert.Equal(t, "coincap", name)
	}
	assert.ElementsMatch(t, []string{"stub", "coincap"}, reg.ProvidersFor(provider.ModelCryptoAssets))
}

func TestRegisterAllToReplacesClient(t *testing.T) {
	reg := provider.NewRegistry()
	require.NoError(t, RegisterAllTo(reg, config.SourceConfig{BaseURL: "http://old.local/v2"}, Deps{}))
	require.NoError(t, RegisterAllTo(reg, config.SourceConfig{BaseURL: "http://new.local/v2"}, Deps{}))

	p, err := reg.Get("coincap")
	require.NoError(t, err)
	assert.Equal(t, "http://new.local/v2", p.(*coincap.Provider).BaseURL())
	assert.Equal(t, []string{"coincap"}, reg.ProvidersFor(provider.ModelCryptoMarkets))
}
