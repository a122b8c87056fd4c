package provider

// ModelType represents a standard data model type.
// Each ModelType maps to a specific record type in pkg/models/.
type ModelType string

// --- Crypto ---
const (
	// ModelCryptoAssets → []models.CoinRecord
	ModelCryptoAssets ModelType = "CryptoAssets"
	// ModelCryptoMarkets → []models.MarketRecord
	ModelCryptoMarkets ModelType = "CryptoMarkets"
)

// AllModels returns every model type in a stable order.
func AllModels() []ModelType {
	return []ModelType{ModelCryptoAssets, ModelCryptoMarkets}
}
