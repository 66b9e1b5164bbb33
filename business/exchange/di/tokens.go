// Package di contains dependency injection tokens for the exchange context.
package di

import (
	"github.com/routefi/exchange-router/business/exchange/app"
	"github.com/routefi/exchange-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ExchangeService = di.NewToken[*app.Service]("exchange.Service")
)

// Private dependency tokens - internal to exchange module
var (
	GraphProvider    = di.NewToken[*app.GraphProvider]("exchange:graphProvider")
	OperationFactory = di.NewToken[*app.OperationFactory]("exchange:operationFactory")
	PathFilter       = di.NewToken[*app.PathFilter]("exchange:pathFilter")
	PriceProvider    = di.NewToken[app.PriceProvider]("exchange:priceProvider")
	VenueProviders   = di.NewToken[[]app.VenueProvider]("exchange:venueProviders")
)

// Helper functions for type-safe access
func GetExchangeService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, ExchangeService)
}

func GetGraphProvider(c di.ServiceRegistry) *app.GraphProvider {
	return di.GetToken(c, GraphProvider)
}

func GetOperationFactory(c di.ServiceRegistry) *app.OperationFactory {
	return di.GetToken(c, OperationFactory)
}

func GetPathFilter(c di.ServiceRegistry) *app.PathFilter {
	return di.GetToken(c, PathFilter)
}

func GetPriceProvider(c di.ServiceRegistry) app.PriceProvider {
	return di.GetToken(c, PriceProvider)
}

func GetVenueProviders(c di.ServiceRegistry) []app.VenueProvider {
	return di.GetToken(c, VenueProviders)
}
