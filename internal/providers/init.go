// Package providers initializes and registers all concrete data providers
// with a provider registry.
package providers

import (
	"net/http"

	"github.com/seenimoa/tierscreen/internal/config"
	"github.com/seenimoa/tierscreen/internal/provider"
	"github.com/seenimoa/tierscreen/internal/providers/coincap"
)

// Deps are the shared pieces handed to every provider.
type Deps struct {
	Fetcher    provider.FetcherDeps
	HTTPClient *http.Client
	Observer   coincap.RequestObserver
}

// RegisterAllTo creates the available providers from the source config and
// registers them with reg. CoinCap works without a key, so it is always
// registered, and it becomes the default for every model it serves.
func RegisterAllTo(reg *provider.Registry, src config.SourceConfig, deps Deps) error {
	httpClient := deps.HTTPClient
	if httpClient == nil && src.TimeoutSec > 0 {
		httpClient = &http.Client{Timeout: src.Timeout()}
	}

	cc := coincap.New(coincap.Options{
		BaseURL:    src.BaseURL,
		PageLimit:  src.PageLimit,
		MaxPages:   src.MaxPages,
		HTTPClient: httpClient,
		Deps:       deps.Fetcher,
		Observer:   deps.Observer,
	})
	if err := cc.Init(map[string]string{"api_key": src.APIKey}); err != nil {
		return err
	}

	// A re-registration replaces the old client and its defaults.
	name := cc.Info().Name
	reg.Unregister(name)
	if err := reg.Register(cc); err != nil {
		return err
	}
	for _, model := range provider.AllModels() {
		if err := reg.SetDefault(model, name); err != nil {
			return err
		}
	}
	return nil
}
