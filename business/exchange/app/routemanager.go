package app

import (
	"context"
	"math/big"
	"sync"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/logger"
)

// RouteManager turns filtered candidate paths into concrete routes and
// picks the best one for a requested amount.
type RouteManager struct {
	estimator *PathCostEstimator
	logger    logger.LoggerInterface
}

// NewRouteManager creates a route manager.
func NewRouteManager(estimator *PathCostEstimator, log logger.LoggerInterface) *RouteManager {
	return &RouteManager{estimator: estimator, logger: log}
}

type candidateResult struct {
	index int
	route *domain.Route
	cost  PathCost
}

// BestRoute quotes every candidate path for the target amount and
// returns the route with the best effective outcome: highest output
// after estimated cost when selling, lowest input plus estimated cost
// when buying. Candidates that fail to quote are skipped; when every
// candidate fails the request fails with a no-route error.
func (m *RouteManager) BestRoute(
	ctx context.Context,
	paths []domain.Path,
	amount *big.Int,
	direction domain.Direction,
) (*domain.Route, error) {
	if len(paths) == 0 {
		return nil, apperror.Routing(apperror.CodeNoRoute, "no candidate paths")
	}

	results := make(chan candidateResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path domain.Path) {
			defer wg.Done()

			route, err := m.resolveRoute(ctx, path, amount, direction)
			if err != nil {
				m.logger.Debug(ctx, "candidate path failed to quote",
					"index", index, "hops", len(path), "error", err)
				return
			}

			cost, err := m.estimator.EstimateCost(ctx, path)
			if err != nil {
				m.logger.Debug(ctx, "candidate path cost estimation failed",
					"index", index, "error", err)
				cost = ZeroPathCost()
			}

			results <- candidateResult{index: index, route: route, cost: cost}
		}(i, path)
	}

	wg.Wait()
	close(results)

	best := m.pickBest(results, direction)
	if best == nil {
		return nil, apperror.Routing(apperror.CodeNoRoute, "all candidate paths failed to quote")
	}
	return best, nil
}

func (m *RouteManager) pickBest(results <-chan candidateResult, direction domain.Direction) *domain.Route {
	var (
		best      *domain.Route
		bestScore *big.Int
		bestIndex int
	)

	for res := range results {
		score := effectiveScore(res, direction)

		better := best == nil
		if !better {
			switch direction {
			case domain.DirectionBuy:
				// Lower required input wins.
				better = score.Cmp(bestScore) < 0 ||
					(score.Cmp(bestScore) == 0 && res.index < bestIndex)
			default:
				// Higher realized output wins.
				better = score.Cmp(bestScore) > 0 ||
					(score.Cmp(bestScore) == 0 && res.index < bestIndex)
			}
		}

		if better {
			best = res.route
			bestScore = score
			bestIndex = res.index
		}
	}

	return best
}

// effectiveScore folds the estimated execution cost into the realized
// amount so a cheaper longer path can beat a pricier shorter one.
func effectiveScore(res candidateResult, direction domain.Direction) *big.Int {
	if direction == domain.DirectionBuy {
		return new(big.Int).Add(res.route.AmountIn(), res.cost.InAssetIn)
	}
	return new(big.Int).Sub(res.route.AmountOut(), res.cost.InAssetOut)
}

// resolveRoute quotes a path segment by segment. Selling walks forward
// propagating realized output; buying walks backward propagating the
// required input.
func (m *RouteManager) resolveRoute(
	ctx context.Context,
	path domain.Path,
	amount *big.Int,
	direction domain.Direction,
) (*domain.Route, error) {
	items := make([]domain.RouteItem, len(path))

	switch direction {
	case domain.DirectionSell:
		amountIn := new(big.Int).Set(amount)
		for i, edge := range path {
			amountOut, err := edge.Quote(ctx, amountIn, domain.DirectionSell)
			if err != nil {
				return nil, err
			}
			items[i] = domain.RouteItem{Edge: edge, AmountIn: amountIn, AmountOut: amountOut}
			amountIn = amountOut
		}

	case domain.DirectionBuy:
		amountOut := new(big.Int).Set(amount)
		for i := len(path) - 1; i >= 0; i-- {
			amountIn, err := path[i].Quote(ctx, amountOut, domain.DirectionBuy)
			if err != nil {
				return nil, err
			}
			items[i] = domain.RouteItem{Edge: path[i], AmountIn: amountIn, AmountOut: amountOut}
			amountOut = amountIn
		}

	default:
		return nil, apperror.Routing(apperror.CodeInvalidRouteDetails, "unknown direction")
	}

	return &domain.Route{Items: items, Direction: direction}, nil
}
