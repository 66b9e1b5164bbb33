package app

import (
	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/asset"
)

// PathFilter decides hop admissibility while a candidate path is being
// extended. The first hop only needs resolvable endpoints and accounts;
// intermediate hops additionally must not strand funds (delayed
// execution, insufficient assets, keep-alive, unpayable fees).
type PathFilter struct {
	registry    *asset.Registry
	wallet      WalletProvider
	sufficiency SufficiencyProvider
	feeSupport  FeeSupportProvider
	delayedExec DelayedExecutionProvider
}

var _ domain.EdgeFilter = (*PathFilter)(nil)

// NewPathFilter creates a filter over the given wallet and chain state.
func NewPathFilter(
	registry *asset.Registry,
	wallet WalletProvider,
	sufficiency SufficiencyProvider,
	feeSupport FeeSupportProvider,
	delayedExec DelayedExecutionProvider,
) *PathFilter {
	return &PathFilter{
		registry:    registry,
		wallet:      wallet,
		sufficiency: sufficiency,
		feeSupport:  feeSupport,
		delayedExec: delayedExec,
	}
}

// ShouldVisit reports whether edge may extend the path that currently
// ends with predecessor (nil for the first hop).
func (f *PathFilter) ShouldVisit(edge domain.Edge, predecessor domain.Edge) bool {
	origin := edge.Origin()
	destination := edge.Destination()

	if !f.resolvable(origin) || !f.resolvable(destination) {
		return false
	}
	if !f.wallet.HasAccount(origin.ChainID) || !f.wallet.HasAccount(destination.ChainID) {
		return false
	}

	// The first hop carries no intermediate-position risk.
	if predecessor == nil {
		return true
	}

	// Delayed call execution only supports single-segment routes.
	if f.delayedExec.ExecutesCallWithDelay(predecessor.Origin().ChainID) {
		return false
	}

	// Multi-hop paths must only touch sufficient assets. Checking the
	// predecessor's origin as well covers the whole walk incrementally:
	// the shared node already equals this edge's origin.
	if !f.sufficiency.IsSufficient(origin) || !f.sufficiency.IsSufficient(destination) ||
		!f.sufficiency.IsSufficient(predecessor.Origin()) {
		return false
	}

	if edge.ShouldIgnoreFeeRequirement(predecessor) {
		return true
	}

	if edge.RequiresOriginKeepAlive() {
		return false
	}

	if origin.IsNative() {
		return true
	}

	return f.feeSupport.CanPayFeeInNonNativeAsset(origin) &&
		edge.CanPayNonNativeFeesInIntermediatePosition()
}

func (f *PathFilter) resolvable(node domain.AssetNode) bool {
	if _, ok := f.registry.Chain(node.ChainID); !ok {
		return false
	}
	_, ok := f.registry.Get(node)
	return ok
}
