package evm

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/cache"
	"github.com/routefi/exchange-router/internal/circuitbreaker"
	"github.com/routefi/exchange-router/internal/logger"
)

const gasOracleMeterName = "evm-gas-oracle"

// GasOracleConfig tunes gas price discovery.
type GasOracleConfig struct {
	// CacheTTL is how long a fetched price is reused; roughly one block.
	CacheTTL time.Duration
	// MaxGasPrice caps the accepted price as a safety margin.
	MaxGasPrice *big.Int
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	maxGas := new(big.Int)
	maxGas.SetString("500000000000", 10) // 500 gwei

	return GasOracleConfig{
		CacheTTL:    12 * time.Second,
		MaxGasPrice: maxGas,
	}
}

type gasOracleMetrics struct {
	fetchesTotal metric.Int64Counter
	priceGwei    metric.Float64Gauge
}

// GasOracle fetches and caches the current gas price.
type GasOracle struct {
	client *ethclient.Client
	config GasOracleConfig
	logger logger.LoggerInterface

	prices  *cache.Cache[string, *big.Int]
	cb      *circuitbreaker.CircuitBreaker[*big.Int]
	metrics *gasOracleMetrics
}

const gasPriceCacheKey = "gas-price"

// NewGasOracle creates a gas oracle over the given client.
func NewGasOracle(client *ethclient.Client, cfg GasOracleConfig, log logger.LoggerInterface) *GasOracle {
	g := &GasOracle{
		client: client,
		config: cfg,
		logger: log,
		prices: cache.New[string, *big.Int](cfg.CacheTTL),
		cb:     circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("evm-gas-oracle")),
	}

	meter := otel.Meter(gasOracleMeterName)
	g.metrics = &gasOracleMetrics{}
	g.metrics.fetchesTotal, _ = meter.Int64Counter("evm_gas_price_fetches_total",
		metric.WithDescription("Gas price fetch attempts"))
	g.metrics.priceGwei, _ = meter.Float64Gauge("evm_gas_price_gwei",
		metric.WithDescription("Last observed gas price in gwei"))

	return g
}

// GasPrice returns the current gas price in wei, serving a cached value
// when fresh enough.
func (g *GasOracle) GasPrice(ctx context.Context) (*big.Int, error) {
	if price, ok := g.prices.Get(gasPriceCacheKey); ok {
		return new(big.Int).Set(price), nil
	}

	g.metrics.fetchesTotal.Add(ctx, 1)

	price, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		return nil, apperror.External(apperror.CodeExternalServiceError, "suggest gas price", err)
	}

	if g.config.MaxGasPrice != nil && price.Cmp(g.config.MaxGasPrice) > 0 {
		g.logger.Warn(ctx, "gas price above cap, clamping",
			"price", price, "cap", g.config.MaxGasPrice)
		price = new(big.Int).Set(g.config.MaxGasPrice)
	}

	g.prices.Set(gasPriceCacheKey, price)

	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(price), big.NewFloat(1e9)).Float64()
	g.metrics.priceGwei.Record(ctx, gwei)

	return new(big.Int).Set(price), nil
}
