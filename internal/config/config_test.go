package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{
		"TIERSCREEN_SOURCE_API_KEY", "COINCAP_API_KEY",
		"TIERSCREEN_FILTER_MIN_MARKET_CAP", "TIERSCREEN_FILTER_TOP_N",
		"TIERSCREEN_CACHE_BACKEND", "TIERSCREEN_TIERS_TIER1",
	} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.coincap.io/v2", cfg.Source.BaseURL)
	assert.Empty(t, cfg.Source.APIKey)
	assert.Equal(t, 2000, cfg.Source.PageLimit)
	assert.Equal(t, 50, cfg.Source.MaxPages)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout())
	assert.Equal(t, 2.0, cfg.Source.RateLimitRPS)
	assert.Equal(t, 1, cfg.Source.RateBurst)

	assert.Equal(t, "1000000", cfg.Filter.MinMarketCap)
	assert.Equal(t, "150000", cfg.Filter.MinVolume24h)
	assert.Equal(t, 10, cfg.Filter.TopN)
	assert.Empty(t, cfg.Tiers.Tier1)
	assert.Empty(t, cfg.Tiers.Tier2)

	assert.Equal(t, "filtered_coins.xlsx", cfg.Export.Path)
	assert.Empty(t, cfg.Export.Format)
	assert.Equal(t, "Coins", cfg.Export.Sheet)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())

	assert.Empty(t, cfg.Metrics.Textfile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestDefaultThresholds(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	mc, vol, err := cfg.Filter.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, "1000000", mc.String())
	assert.Equal(t, "150000", vol.String())
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
source:
  api_key: file-key-123456
  page_limit: 500
filter:
  min_market_cap: 5000000
  min_volume_24h: "250000.50"
  top_n: 5
tiers:
  tier1: [Binance, kraken]
export:
  path: out.csv
cache:
  backend: none
logging:
  format: json
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key-123456", cfg.Source.APIKey)
	assert.Equal(t, 500, cfg.Source.PageLimit)
	assert.Equal(t, 50, cfg.Source.MaxPages, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Filter.TopN)
	assert.Equal(t, []string{"Binance", "kraken"}, cfg.Tiers.Tier1)
	assert.Equal(t, "out.csv", cfg.Export.Path)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "json", cfg.Logging.Format)

	mc, vol, err := cfg.Filter.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, "5000000", mc.String())
	assert.Equal(t, "250000.5", vol.String())
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileInvalidValues(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"bad threshold": "filter:\n  min_market_cap: lots\n",
		"negative top":  "filter:\n  top_n: -1\n",
		"bad backend":   "cache:\n  backend: memcached\n",
		"bad format":    "logging:\n  format: xml\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

// ── Environment overrides ──

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIERSCREEN_FILTER_TOP_N", "3")
	t.Setenv("TIERSCREEN_CACHE_BACKEND", "redis")
	t.Setenv("TIERSCREEN_SOURCE_API_KEY", "env-key-abcdef")

	cfg, err := LoadFromFile(writeConfig(t, "filter:\n  top_n: 7\nsource:\n  api_key: file-key\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Filter.TopN)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "env-key-abcdef", cfg.Source.APIKey)
}

func TestCoinCapKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("COINCAP_API_KEY", "coincap-key-xyz")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "coincap-key-xyz", cfg.Source.APIKey)
}

// ── API keys ──

func TestCheckAPIKeys(t *testing.T) {
	clearEnv(t)

	none := CheckAPIKeys(&Config{})
	require.Len(t, none, 1)
	assert.False(t, none[0].IsSet)
	assert.Equal(t, KeySourceNone, none[0].Source)
	assert.Empty(t, none[0].Masked)

	fromConfig := CheckAPIKeys(&Config{Source: SourceConfig{APIKey: "abcdefghijkl"}})
	assert.True(t, fromConfig[0].IsSet)
	assert.Equal(t, KeySourceConfig, fromConfig[0].Source)
	assert.Equal(t, "abc...jkl", fromConfig[0].Masked)

	t.Setenv("TIERSCREEN_SOURCE_API_KEY", "abcdefghijkl")
	fromEnv := CheckAPIKeys(&Config{Source: SourceConfig{APIKey: "abcdefghijkl"}})
	assert.Equal(t, KeySourceEnv, fromEnv[0].Source)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "***", maskKey("short"))
	assert.Equal(t, "***", maskKey("12345678"))
	assert.Equal(t, "123...789", maskKey("123456789"))
}
