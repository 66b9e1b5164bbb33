// Package exchange implements the exchange bounded context: multi-venue
// route discovery, quoting, fee estimation and route execution.
package exchange

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/routefi/exchange-router/business/exchange/app"
	exchangeDI "github.com/routefi/exchange-router/business/exchange/di"
	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/business/exchange/infra/amm"
	"github.com/routefi/exchange-router/business/exchange/infra/crosschain"
	"github.com/routefi/exchange-router/business/exchange/infra/evm"
	"github.com/routefi/exchange-router/business/exchange/infra/pricefeed"
	"github.com/routefi/exchange-router/business/exchange/infra/stream"
	"github.com/routefi/exchange-router/business/exchange/infra/wallet"
	"github.com/routefi/exchange-router/internal/asset"
	"github.com/routefi/exchange-router/internal/config"
	"github.com/routefi/exchange-router/internal/di"
	"github.com/routefi/exchange-router/internal/logger"
	"github.com/routefi/exchange-router/internal/monolith"
)

// Module implements the exchange bounded context.
type Module struct{}

// RegisterServices registers all exchange services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PriceProvider - private dependency
	di.RegisterToken(c, exchangeDI.PriceProvider, func(sr di.ServiceRegistry) app.PriceProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		feed, err := pricefeed.NewFeed(cfg.Pricing, registry, log)
		if err != nil {
			panic("failed to create price feed: " + err.Error())
		}
		return feed
	})

	// Register PathFilter - private dependency
	di.RegisterToken(c, exchangeDI.PathFilter, func(sr di.ServiceRegistry) *app.PathFilter {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		walletProvider := wallet.NewProvider(cfg.Wallet, registry)
		return app.NewPathFilter(registry, walletProvider, walletProvider, walletProvider, walletProvider)
	})

	// Register VenueProviders - private dependency
	di.RegisterToken(c, exchangeDI.VenueProviders, func(sr di.ServiceRegistry) []app.VenueProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		var venues []app.VenueProvider

		if cfg.Venues.AMM.Enabled {
			ethClient := sr.Get("ethClient").(*ethclient.Client)

			chain, ok := registry.Chain(cfg.Venues.AMM.ChainID)
			if !ok || !chain.IsEVM() {
				panic("amm venue chain is not a registered EVM chain: " + cfg.Venues.AMM.ChainID)
			}

			signer, err := evm.NewSigner(cfg.Wallet.SignerKey, chain.EVMChainID())
			if err != nil {
				panic("failed to create signer: " + err.Error())
			}

			host, err := amm.NewHost(cfg.Venues.AMM, ethClient, signer, registry, log)
			if err != nil {
				panic("failed to create amm host: " + err.Error())
			}
			venues = append(venues, amm.NewProvider(host))
		}

		if cfg.Venues.Crosschain.Enabled {
			client, err := crosschain.NewClient(cfg.Venues.Crosschain, log)
			if err != nil {
				panic("failed to create crosschain client: " + err.Error())
			}
			venues = append(venues, crosschain.NewProvider(client))
		}

		if cfg.Venues.Stream.Enabled {
			// The venue notifies the graph provider, which itself consumes
			// the venue; resolve lazily to break the construction cycle.
			venue := stream.NewVenue(cfg.Venues.Stream, log,
				func() { exchangeDI.GetGraphProvider(sr).TriggerRebuild() },
				func() { exchangeDI.GetGraphProvider(sr).NotifyResync() },
			)
			venues = append(venues, venue)
		}

		return venues
	})

	// Register GraphProvider - private dependency
	di.RegisterToken(c, exchangeDI.GraphProvider, func(sr di.ServiceRegistry) *app.GraphProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewGraphProvider(
			exchangeDI.GetVenueProviders(sr),
			exchangeDI.GetPathFilter(sr),
			app.GraphProviderConfig{
				RebuildDebounce: cfg.Routing.RebuildDebounce,
				Graph: domain.GraphConfig{
					WeightEqualityDiv: cfg.Routing.WeightEqualityDiv,
				},
			},
			log,
		)
	})

	// Register OperationFactory - private dependency
	di.RegisterToken(c, exchangeDI.OperationFactory, func(sr di.ServiceRegistry) *app.OperationFactory {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		estimator := app.NewPathCostEstimator(registry, exchangeDI.GetPriceProvider(sr))
		routes := app.NewRouteManager(estimator, log)

		return app.NewOperationFactory(
			exchangeDI.GetGraphProvider(sr),
			routes,
			cfg.Routing.MaxQuotePaths,
			log,
		)
	})

	// Register Service (public - exposed to other modules)
	di.RegisterToken(c, exchangeDI.ExchangeService, func(sr di.ServiceRegistry) *app.Service {
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewService(
			exchangeDI.GetGraphProvider(sr),
			exchangeDI.GetOperationFactory(sr),
			log,
		)
	})

	return nil
}

// Startup initializes the exchange module: prices first, then the edge
// feeds, then the graph so the first build already sees stream edges.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	services := mono.Services()

	prices := exchangeDI.GetPriceProvider(services)
	if feed, ok := prices.(*pricefeed.Feed); ok {
		if err := feed.Start(ctx); err != nil {
			log.Warn(ctx, "initial price fetch failed, costs degrade to zero", "error", err)
		}
	}

	if cfg.Venues.Stream.Enabled {
		for _, venue := range exchangeDI.GetVenueProviders(services) {
			if sv, ok := venue.(*stream.Venue); ok {
				if err := sv.Start(ctx); err != nil {
					log.Warn(ctx, "stream venue connection failed, will reconnect in background", "error", err)
				}
			}
		}
	}

	if err := exchangeDI.GetGraphProvider(services).Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "exchange module started")
	return nil
}
