package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/logger"
)

// GraphSource yields the latest published exchange graph.
type GraphSource interface {
	CurrentGraph() *domain.Graph
}

// OperationFactory turns quote requests into routes, routes into atomic
// operations, and runs the backward fee-aggregation algorithm.
type OperationFactory struct {
	graphs        GraphSource
	routes        *RouteManager
	maxQuotePaths int
	logger        logger.LoggerInterface
}

// NewOperationFactory creates a factory over the given graph source.
func NewOperationFactory(
	graphs GraphSource,
	routes *RouteManager,
	maxQuotePaths int,
	log logger.LoggerInterface,
) *OperationFactory {
	if maxQuotePaths < 1 {
		maxQuotePaths = domain.DefaultMaxHops
	}
	return &OperationFactory{
		graphs:        graphs,
		routes:        routes,
		maxQuotePaths: maxQuotePaths,
		logger:        log,
	}
}

// FetchQuote finds the best route for the requested conversion and
// decorates it with per-operation descriptions and time estimates.
func (f *OperationFactory) FetchQuote(ctx context.Context, args domain.QuoteArgs) (*domain.Quote, error) {
	graph := f.graphs.CurrentGraph()
	if graph == nil {
		return nil, apperror.Routing(apperror.CodeNoRoute, "no graph published yet")
	}

	paths := graph.FetchPaths(args.AssetIn, args.AssetOut, f.maxQuotePaths)
	if len(paths) == 0 {
		return nil, apperror.Routing(apperror.CodeNoRoute,
			fmt.Sprintf("%s -> %s", args.AssetIn, args.AssetOut))
	}

	route, err := f.routes.BestRoute(ctx, paths, args.Amount, args.Direction)
	if err != nil {
		return nil, err
	}

	metaOps, groups, err := f.createMetaOperations(route)
	if err != nil {
		return nil, err
	}

	times, err := estimateExecutionTimes(groups)
	if err != nil {
		return nil, err
	}

	return &domain.Quote{Route: route, MetaOperations: metaOps, ExecutionTimes: times}, nil
}

// EstimateFee builds the route's atomic operations, estimates every
// operation's fee concurrently, and aggregates the downstream fees into
// the origin asset.
func (f *OperationFactory) EstimateFee(ctx context.Context, args domain.FeeArgs) (*domain.Fee, error) {
	operations, err := f.PrepareAtomicOperations(args.Route, args.Slippage, args.FeeAssetID)
	if err != nil {
		return nil, err
	}

	fees := make([]*domain.OperationFee, len(operations))
	errs := make([]error, len(operations))

	var wg sync.WaitGroup
	for i, op := range operations {
		wg.Add(1)
		go func(i int, op domain.AtomicOperation) {
			defer wg.Done()
			fees[i], errs[i] = op.EstimateFee(ctx)
		}(i, op)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	intermediate, err := f.calculateIntermediateFeesInAssetIn(ctx, operations, fees)
	if err != nil {
		return nil, err
	}

	fee := &domain.Fee{
		Route:         args.Route,
		OperationFees: fees,
		Slippage:      args.Slippage,
		FeeAssetID:    args.FeeAssetID,
	}
	return fee.AddingIntermediateFees(intermediate), nil
}

// PrepareAtomicOperations walks the route items merging adjacent edges
// into one operation whenever the owning venue can absorb the next hop.
func (f *OperationFactory) PrepareAtomicOperations(
	route *domain.Route,
	slippage decimal.Decimal,
	feeAssetID domain.AssetNode,
) ([]domain.AtomicOperation, error) {
	if route == nil || len(route.Items) == 0 {
		return nil, apperror.Routing(apperror.CodeInvalidRouteDetails, "empty route")
	}

	var operations []domain.AtomicOperation

	for _, item := range route.Items {
		args := operationArgs(item, route.Direction, slippage, feeAssetID, len(operations) == 0)

		if len(operations) > 0 {
			last := operations[len(operations)-1]
			if merged := item.Edge.AppendToOperation(last, args); merged != nil {
				operations[len(operations)-1] = merged
				continue
			}
		}

		op, err := item.Edge.BeginOperation(args)
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
	}

	return operations, nil
}

// operationArgs builds one segment's construction args. Only the first
// operation pays its fee in the caller-chosen asset; every later one
// pays in its own origin asset.
func operationArgs(
	item domain.RouteItem,
	direction domain.Direction,
	slippage decimal.Decimal,
	feeAssetID domain.AssetNode,
	isFirst bool,
) domain.AtomicOperationArgs {
	feeAsset := feeAssetID
	if !isFirst {
		feeAsset = item.Edge.Origin()
	}

	return domain.AtomicOperationArgs{
		SwapLimit: domain.NewSwapLimit(direction, item.AmountIn, item.AmountOut, slippage),
		FeeAsset:  feeAsset,
	}
}

// calculateIntermediateFeesInAssetIn processes segments in exact reverse
// order. The running total starts at zero after the last operation; at
// each earlier operation it is re-expressed in that operation's input
// asset via an inverse quote, and every non-first operation adds the
// selected-account portion of its own fee before continuing backward.
func (f *OperationFactory) calculateIntermediateFeesInAssetIn(
	ctx context.Context,
	operations []domain.AtomicOperation,
	fees []*domain.OperationFee,
) (*big.Int, error) {
	if len(operations) != len(fees) {
		return nil, apperror.Routing(apperror.CodeFeesOperationsMismatch,
			fmt.Sprintf("%d operations, %d fees", len(operations), len(fees)))
	}
	if len(operations) == 0 {
		return nil, apperror.Routing(apperror.CodeNoRoute, "no operations to aggregate")
	}

	running := big.NewInt(0)

	for i := len(operations) - 1; i >= 0; i-- {
		var amountIn *big.Int

		if i == len(operations)-1 {
			amountIn = big.NewInt(0)
		} else {
			downstream := new(big.Int).Set(running)
			var err error
			amountIn, err = operations[i].RequiredAmountToGetAmountOut(ctx, func() (*big.Int, error) {
				return downstream, nil
			})
			if err != nil {
				return nil, err
			}
		}

		if i > 0 {
			ownFee := fees[i].TotalEnsuringSubmissionAsset(operations[i].FeeAsset())
			running = new(big.Int).Add(amountIn, ownFee)
		} else {
			running = amountIn
		}
	}

	return running, nil
}

// createMetaOperations mirrors the atomic-operation merge for display:
// adjacent hops on one venue describe as a single operation. It also
// returns the edge groups backing each description.
func (f *OperationFactory) createMetaOperations(route *domain.Route) ([]*domain.MetaOperation, [][]domain.Edge, error) {
	var (
		metaOps []*domain.MetaOperation
		groups  [][]domain.Edge
	)

	for _, item := range route.Items {
		if len(metaOps) > 0 {
			last := metaOps[len(metaOps)-1]
			merged, err := item.Edge.AppendToMetaOperation(last, item.AmountIn, item.AmountOut)
			if err != nil {
				return nil, nil, err
			}
			if merged != nil {
				metaOps[len(metaOps)-1] = merged
				groups[len(groups)-1] = append(groups[len(groups)-1], item.Edge)
				continue
			}
		}

		metaOp, err := item.Edge.BeginMetaOperation(item.AmountIn, item.AmountOut)
		if err != nil {
			return nil, nil, err
		}
		metaOps = append(metaOps, metaOp)
		groups = append(groups, []domain.Edge{item.Edge})
	}

	return metaOps, groups, nil
}

// estimateExecutionTimes sums the prototype estimates inside each merged
// group so the result aligns with the meta operations.
func estimateExecutionTimes(groups [][]domain.Edge) ([]time.Duration, error) {
	times := make([]time.Duration, len(groups))
	for i, group := range groups {
		for _, edge := range group {
			prototype, err := edge.OperationPrototype()
			if err != nil {
				return nil, err
			}
			times[i] += prototype.EstimatedExecutionTime()
		}
	}
	return times, nil
}
