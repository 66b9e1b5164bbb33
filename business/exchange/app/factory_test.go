package app

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/asset"
)

func newTestFactory(graph *domain.Graph) *OperationFactory {
	log := testLogger()
	estimator := NewPathCostEstimator(asset.DefaultRegistry(), fakePrices{})
	routes := NewRouteManager(estimator, log)
	return NewOperationFactory(staticGraph{graph: graph}, routes, 4, log)
}

func sellRoute(edges ...*fakeEdge) *domain.Route {
	items := make([]domain.RouteItem, len(edges))
	amountIn := big.NewInt(1_000_000)
	for i, e := range edges {
		amountOut := applyRate(amountIn, e.rateNum, e.rateDen, domain.DirectionSell)
		items[i] = domain.RouteItem{Edge: e, AmountIn: amountIn, AmountOut: amountOut}
		amountIn = amountOut
	}
	return &domain.Route{Items: items, Direction: domain.DirectionSell}
}

func TestOperationFactory_PrepareAtomicOperations_FeeAssets(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	usdt := testNode(asset.ChainAssetHub, "1984")
	usdc := testNode(asset.ChainAssetHub, "1337")

	first := newFakeEdge(dot, usdt, 1, 1)
	first.venue = "alpha"
	second := newFakeEdge(usdt, usdc, 1, 1)
	second.venue = "beta"

	factory := newTestFactory(nil)

	ops, err := factory.PrepareAtomicOperations(sellRoute(first, second), decimal.Zero, dot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}

	// Only the first operation pays in the caller-chosen asset.
	if ops[0].FeeAsset() != dot {
		t.Errorf("first operation fee asset = %s, want %s", ops[0].FeeAsset(), dot)
	}
	if ops[1].FeeAsset() != usdt {
		t.Errorf("second operation fee asset = %s, want its origin %s", ops[1].FeeAsset(), usdt)
	}
}

func TestOperationFactory_PrepareAtomicOperations_MergesSameVenue(t *testing.T) {
	dot := testNode(asset.ChainHydration, "5")
	usdt := testNode(asset.ChainHydration, "10")
	hdx := testNode(asset.ChainHydration, asset.NativeAssetMarker)

	first := newFakeEdge(dot, usdt, 2, 1)
	first.mergeable = true
	second := newFakeEdge(usdt, hdx, 3, 1)
	second.mergeable = true

	factory := newTestFactory(nil)

	ops, err := factory.PrepareAtomicOperations(sellRoute(first, second), decimal.Zero, dot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected the hops to merge into 1 operation, got %d", len(ops))
	}
	if ops[0].AssetIn() != dot || ops[0].AssetOut() != hdx {
		t.Errorf("merged operation spans %s -> %s, want %s -> %s",
			ops[0].AssetIn(), ops[0].AssetOut(), dot, hdx)
	}
}

func TestOperationFactory_PrepareAtomicOperations_EmptyRoute(t *testing.T) {
	factory := newTestFactory(nil)

	_, err := factory.PrepareAtomicOperations(&domain.Route{}, decimal.Zero, domain.AssetNode{})
	if !apperror.IsCode(err, apperror.CodeInvalidRouteDetails) {
		t.Errorf("expected invalid-route error, got %v", err)
	}
}

func TestOperationFactory_EstimateFee_BackwardAggregation(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	usdt := testNode(asset.ChainAssetHub, "1984")
	usdc := testNode(asset.ChainAssetHub, "1337")

	// 2 DOT-units buy 1 USDT-unit; USDT converts 1:1 to USDC.
	first := newFakeEdge(dot, usdt, 1, 2)
	first.venue = "alpha"
	first.fee = &domain.OperationFee{Components: []domain.FeeComponent{
		{Amount: big.NewInt(30), Asset: dot, FromSelectedAccount: true},
	}}

	second := newFakeEdge(usdt, usdc, 1, 1)
	second.venue = "beta"
	second.fee = &domain.OperationFee{Components: []domain.FeeComponent{
		{Amount: big.NewInt(1_000_000), Asset: usdt, FromSelectedAccount: true},
	}}

	factory := newTestFactory(nil)
	route := sellRoute(first, second)

	fee, err := factory.EstimateFee(context.Background(), domain.FeeArgs{
		Route:      route,
		Slippage:   decimal.Zero,
		FeeAssetID: dot,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fee.OperationFees) != 2 {
		t.Fatalf("expected 2 operation fees, got %d", len(fee.OperationFees))
	}

	// Backward pass: the last segment needs nothing beyond its own fee
	// (1 USDT, paid from the account in its origin asset); buying that
	// 1 USDT through the first segment takes 2 DOT-units.
	want := big.NewInt(2_000_000)
	if fee.IntermediateFeesInAssetIn.Cmp(want) != 0 {
		t.Errorf("intermediate fees = %s, want %s", fee.IntermediateFeesInAssetIn, want)
	}

	// The first fee's selected-account DOT portion is added on top of the
	// route amount and the intermediate carry.
	initial, err := fee.InitialAmountIn()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInitial := big.NewInt(1_000_000 + 2_000_000 + 30)
	if initial.Cmp(wantInitial) != 0 {
		t.Errorf("initial amount in = %s, want %s", initial, wantInitial)
	}
}

func TestOperationFactory_EstimateFee_SingleSegmentCarriesNothing(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	usdt := testNode(asset.ChainAssetHub, "1984")

	only := newFakeEdge(dot, usdt, 1, 2)
	only.fee = &domain.OperationFee{Components: []domain.FeeComponent{
		{Amount: big.NewInt(30), Asset: dot, FromSelectedAccount: true},
	}}

	factory := newTestFactory(nil)

	fee, err := factory.EstimateFee(context.Background(), domain.FeeArgs{
		Route:      sellRoute(only),
		Slippage:   decimal.Zero,
		FeeAssetID: dot,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.IntermediateFeesInAssetIn.Sign() != 0 {
		t.Errorf("single-segment route carries %s intermediate fees, want 0", fee.IntermediateFeesInAssetIn)
	}
}

func TestOperationFactory_FetchQuote(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	ksm := testNode(asset.ChainKusama, asset.NativeAssetMarker)

	e := newFakeEdge(dot, ksm, 1, 2)
	graph := domain.NewGraph([]domain.Edge{e}, nil, domain.GraphConfig{})

	factory := newTestFactory(graph)

	quote, err := factory.FetchQuote(context.Background(), domain.QuoteArgs{
		AssetIn:   dot,
		AssetOut:  ksm,
		Amount:    big.NewInt(100),
		Direction: domain.DirectionSell,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := quote.Route.AmountOut(); got.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("amount out = %s, want 50", got)
	}
	if len(quote.MetaOperations) != 1 {
		t.Fatalf("expected 1 meta operation, got %d", len(quote.MetaOperations))
	}
	if quote.MetaOperations[0].AssetIn != dot || quote.MetaOperations[0].AssetOut != ksm {
		t.Errorf("meta operation spans %s -> %s", quote.MetaOperations[0].AssetIn, quote.MetaOperations[0].AssetOut)
	}
	if len(quote.ExecutionTimes) != 1 || quote.ExecutionTimes[0] != time.Second {
		t.Errorf("execution times = %v", quote.ExecutionTimes)
	}
	if quote.TotalExecutionTime() != time.Second {
		t.Errorf("total execution time = %v", quote.TotalExecutionTime())
	}
}

func TestOperationFactory_FetchQuote_MergedMetaOperations(t *testing.T) {
	dot := testNode(asset.ChainHydration, "5")
	usdt := testNode(asset.ChainHydration, "10")
	hdx := testNode(asset.ChainHydration, asset.NativeAssetMarker)

	first := newFakeEdge(dot, usdt, 1, 1)
	first.mergeable = true
	second := newFakeEdge(usdt, hdx, 1, 1)
	second.mergeable = true
	second.ignoreFeeReq = true

	graph := domain.NewGraph([]domain.Edge{first, second}, nil, domain.GraphConfig{})
	factory := newTestFactory(graph)

	quote, err := factory.FetchQuote(context.Background(), domain.QuoteArgs{
		AssetIn:   dot,
		AssetOut:  hdx,
		Amount:    big.NewInt(100),
		Direction: domain.DirectionSell,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(quote.Route.Items) != 2 {
		t.Fatalf("expected a 2-hop route, got %d", len(quote.Route.Items))
	}
	if len(quote.MetaOperations) != 1 {
		t.Fatalf("expected the hops to describe as 1 operation, got %d", len(quote.MetaOperations))
	}
	// The merged description spans both hops and sums both estimates.
	if quote.MetaOperations[0].AssetOut != hdx {
		t.Errorf("merged description ends at %s, want %s", quote.MetaOperations[0].AssetOut, hdx)
	}
	if quote.ExecutionTimes[0] != 2*time.Second {
		t.Errorf("merged execution time = %v, want 2s", quote.ExecutionTimes[0])
	}
}

func TestOperationFactory_FetchQuote_NoGraph(t *testing.T) {
	factory := newTestFactory(nil)

	_, err := factory.FetchQuote(context.Background(), domain.QuoteArgs{
		Amount:    big.NewInt(100),
		Direction: domain.DirectionSell,
	})
	if !apperror.IsCode(err, apperror.CodeNoRoute) {
		t.Errorf("expected no-route error, got %v", err)
	}
}

func TestOperationFactory_FetchQuote_NoPath(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	ksm := testNode(asset.ChainKusama, asset.NativeAssetMarker)
	hdx := testNode(asset.ChainHydration, asset.NativeAssetMarker)

	graph := domain.NewGraph([]domain.Edge{newFakeEdge(dot, ksm, 1, 1)}, nil, domain.GraphConfig{})
	factory := newTestFactory(graph)

	_, err := factory.FetchQuote(context.Background(), domain.QuoteArgs{
		AssetIn:   dot,
		AssetOut:  hdx,
		Amount:    big.NewInt(100),
		Direction: domain.DirectionSell,
	})
	if !apperror.IsCode(err, apperror.CodeNoRoute) {
		t.Errorf("expected no-route error, got %v", err)
	}
}
