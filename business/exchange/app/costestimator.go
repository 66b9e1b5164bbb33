package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/asset"
)

// PathCost is a path's estimated execution cost expressed in both of
// its endpoint assets, in raw units.
type PathCost struct {
	InAssetIn  *big.Int
	InAssetOut *big.Int
}

// ZeroPathCost is the cost used when no USD reference is resolvable.
func ZeroPathCost() PathCost {
	return PathCost{InAssetIn: big.NewInt(0), InAssetOut: big.NewInt(0)}
}

// PathCostEstimator scores candidate paths in USD so same-length
// candidates can be ranked by real cost rather than topology alone.
type PathCostEstimator struct {
	registry *asset.Registry
	prices   PriceProvider
}

// NewPathCostEstimator creates an estimator over the given price source.
func NewPathCostEstimator(registry *asset.Registry, prices PriceProvider) *PathCostEstimator {
	return &PathCostEstimator{registry: registry, prices: prices}
}

// EstimateCost sums each edge prototype's USD cost and converts the
// total into the path's origin and destination assets. A missing USD
// price for either endpoint yields a zero cost rather than an error.
func (e *PathCostEstimator) EstimateCost(ctx context.Context, path domain.Path) (PathCost, error) {
	if len(path) == 0 {
		return ZeroPathCost(), nil
	}

	totalUSD := decimal.Zero
	for _, edge := range path {
		prototype, err := edge.OperationPrototype()
		if err != nil {
			return PathCost{}, err
		}

		cost, err := prototype.EstimatedCostInUSD(ctx, e.prices)
		if err != nil {
			return PathCost{}, err
		}
		totalUSD = totalUSD.Add(cost)
	}

	inAssetIn, ok := e.convertUSD(totalUSD, path.Origin())
	if !ok {
		return ZeroPathCost(), nil
	}
	inAssetOut, ok := e.convertUSD(totalUSD, path.Destination())
	if !ok {
		return ZeroPathCost(), nil
	}

	return PathCost{InAssetIn: inAssetIn, InAssetOut: inAssetOut}, nil
}

// convertUSD turns a USD amount into raw units of the given asset.
func (e *PathCostEstimator) convertUSD(usd decimal.Decimal, node domain.AssetNode) (*big.Int, bool) {
	meta, ok := e.registry.Get(node)
	if !ok {
		return nil, false
	}

	price, ok := e.prices.PriceUSD(node)
	if !ok || price.IsZero() {
		return nil, false
	}

	units := usd.Div(price).Truncate(int32(meta.Decimals()))
	amount, err := asset.ParseDecimal(meta, units)
	if err != nil {
		return nil, false
	}

	return amount.Raw(), true
}
