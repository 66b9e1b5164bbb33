// Package app contains application services and port definitions for the exchange context.
package app

import (
	"context"

	"github.com/routefi/exchange-router/business/exchange/domain"
)

// VenueProvider exposes one liquidity venue's currently available direct
// swap connections. Fetches fail independently per venue; a failing
// venue contributes zero edges to the merged graph for that cycle.
type VenueProvider interface {
	// ID identifies the venue in logs and the provider's request map.
	ID() string

	// AvailableEdges fetches the venue's current edge set.
	AvailableEdges(ctx context.Context) ([]domain.Edge, error)
}

// FeeSupportProvider answers whether a non-native asset can pay
// transaction fees on its chain. The answer changes over time.
type FeeSupportProvider interface {
	CanPayFeeInNonNativeAsset(node domain.AssetNode) bool
}

// SufficiencyProvider answers whether an asset can be held without an
// existential-deposit workaround.
type SufficiencyProvider interface {
	IsSufficient(node domain.AssetNode) bool
}

// DelayedExecutionProvider answers whether the wallet's calls on a chain
// execute with a delay (multisig, proxy with announcement period).
type DelayedExecutionProvider interface {
	ExecutesCallWithDelay(chainID string) bool
}

// WalletProvider answers whether the selected wallet has an account on
// a chain.
type WalletProvider interface {
	HasAccount(chainID string) bool
}

// PriceProvider resolves USD unit prices for cost estimation.
type PriceProvider interface {
	domain.PriceStore
}
