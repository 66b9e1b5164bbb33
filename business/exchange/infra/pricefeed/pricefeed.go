// Package pricefeed serves USD unit prices for path cost estimation from
// a coingecko-style REST endpoint, refreshed in the background.
package pricefeed

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/routefi/exchange-router/business/exchange/app"
	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/asset"
	"github.com/routefi/exchange-router/internal/config"
	"github.com/routefi/exchange-router/internal/httpclient"
	"github.com/routefi/exchange-router/internal/logger"
	"github.com/routefi/exchange-router/internal/ratelimit"
)

const (
	meterNamePrices = "pricefeed"

	defaultRefreshEvery = time.Minute
)

type feedMetrics struct {
	refreshes metric.Int64Counter
	failures  metric.Int64Counter
	priced    metric.Int64Gauge
}

var _ app.PriceProvider = (*Feed)(nil)

// usdReference anchors the quote side of every stored price.
var usdReference = asset.NewAsset(asset.NewChainAssetID("fiat", "usd"), "USD", 2)

// Feed maps price-feed identifiers to USD unit prices. The whole map is
// replaced on each refresh so readers never observe a partial update.
// Each entry keeps its observation time; entries older than maxAge are
// treated as unpriced.
type Feed struct {
	cfg      config.PricingConfig
	http     *httpclient.Client
	limiter  *ratelimit.Limiter
	registry *asset.Registry
	logger   logger.LoggerInterface
	metrics  *feedMetrics
	maxAge   time.Duration

	mu     sync.RWMutex
	prices map[string]asset.Price // price id -> USD per whole unit
}

// NewFeed builds the feed; Start begins the refresh loop.
func NewFeed(cfg config.PricingConfig, registry *asset.Registry, log logger.LoggerInterface) (*Feed, error) {
	client, err := httpclient.New("pricefeed", cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	meter := otel.Meter(meterNamePrices)
	m := &feedMetrics{}
	m.refreshes, _ = meter.Int64Counter("pricefeed_refreshes_total",
		metric.WithDescription("Completed price refreshes"))
	m.failures, _ = meter.Int64Counter("pricefeed_failures_total",
		metric.WithDescription("Failed price refreshes"))
	m.priced, _ = meter.Int64Gauge("pricefeed_assets_priced",
		metric.WithDescription("Assets with a known USD price"))

	every := cfg.RefreshEvery
	if every <= 0 {
		every = defaultRefreshEvery
	}

	return &Feed{
		cfg:      cfg,
		http:     client,
		limiter:  ratelimit.New(cfg.RequestsPerMin),
		registry: registry,
		logger:   log,
		metrics:  m,
		maxAge:   3 * every,
		prices:   make(map[string]asset.Price),
	}, nil
}

// Start performs an initial refresh and keeps prices current until the
// context is cancelled. The refresh loop runs even when the initial
// fetch fails; cost estimation degrades to zero until prices arrive.
func (f *Feed) Start(ctx context.Context) error {
	err := f.Refresh(ctx)

	go f.run(ctx)
	return err
}

func (f *Feed) run(ctx context.Context) {
	every := f.cfg.RefreshEvery
	if every <= 0 {
		every = defaultRefreshEvery
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				f.metrics.failures.Add(ctx, 1)
				f.logger.Warn(ctx, "price refresh failed, keeping previous prices", "error", err)
			}
		}
	}
}

// Refresh fetches current USD prices for every priced asset in the
// registry.
func (f *Feed) Refresh(ctx context.Context) error {
	ids := f.priceIDs()
	if len(ids) == 0 {
		return nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")

	var resp map[string]struct {
		USD decimal.Decimal `json:"usd"`
	}
	if err := f.http.GetJSON(ctx, "/simple/price", query, &resp); err != nil {
		return err
	}

	now := time.Now()
	bases := f.priceIDBases()

	prices := make(map[string]asset.Price, len(resp))
	for id, entry := range resp {
		base, ok := bases[id]
		if !ok || !entry.USD.IsPositive() {
			continue
		}
		prices[id] = asset.NewPrice(base, usdReference, entry.USD, now)
	}

	f.mu.Lock()
	f.prices = prices
	f.mu.Unlock()

	f.metrics.refreshes.Add(ctx, 1)
	f.metrics.priced.Record(ctx, int64(len(prices)))

	return nil
}

func (f *Feed) priceIDs() []string {
	bases := f.priceIDBases()
	ids := make([]string, 0, len(bases))
	for id := range bases {
		ids = append(ids, id)
	}
	return ids
}

// priceIDBases picks one registry asset per price id to serve as the
// base side of the stored price. Assets sharing a price id share the
// quoted rate.
func (f *Feed) priceIDBases() map[string]*asset.Asset {
	bases := make(map[string]*asset.Asset)
	for _, a := range f.registry.AllAssets() {
		id := a.PriceID()
		if id == "" {
			continue
		}
		if _, ok := bases[id]; !ok {
			bases[id] = a
		}
	}
	return bases
}

// PriceUSD resolves the node's USD unit price through its registry
// price id. Unpriced assets report false rather than a stale zero.
func (f *Feed) PriceUSD(node domain.AssetNode) (decimal.Decimal, bool) {
	a, ok := f.registry.Get(node)
	if !ok {
		return decimal.Zero, false
	}
	priceID := a.PriceID()
	if priceID == "" {
		return decimal.Zero, false
	}

	f.mu.RLock()
	price, ok := f.prices[priceID]
	f.mu.RUnlock()

	if !ok || price.IsZero() {
		return decimal.Zero, false
	}
	if time.Since(price.Timestamp()) > f.maxAge {
		return decimal.Zero, false
	}

	return price.Rate(), true
}
