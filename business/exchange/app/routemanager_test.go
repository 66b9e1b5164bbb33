package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/asset"
)

func newTestRouteManager(prices fakePrices) *RouteManager {
	estimator := NewPathCostEstimator(asset.DefaultRegistry(), prices)
	return NewRouteManager(estimator, testLogger())
}

func TestRouteManager_BestRoute_SellPicksHighestOutput(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	ksm := testNode(asset.ChainKusama, asset.NativeAssetMarker)

	worse := newFakeEdge(dot, ksm, 1, 2) // 100 -> 50
	better := newFakeEdge(dot, ksm, 3, 4) // 100 -> 75

	m := newTestRouteManager(fakePrices{})

	route, err := m.BestRoute(context.Background(),
		[]domain.Path{{worse}, {better}}, big.NewInt(100), domain.DirectionSell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := route.AmountOut(); got.Cmp(big.NewInt(75)) != 0 {
		t.Errorf("amount out = %s, want 75", got)
	}
}

func TestRouteManager_BestRoute_BuyPicksLowestInput(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	ksm := testNode(asset.ChainKusama, asset.NativeAssetMarker)

	pricey := newFakeEdge(dot, ksm, 1, 2) // needs 200 for 100
	cheap := newFakeEdge(dot, ksm, 1, 1)  // needs 100 for 100

	m := newTestRouteManager(fakePrices{})

	route, err := m.BestRoute(context.Background(),
		[]domain.Path{{pricey}, {cheap}}, big.NewInt(100), domain.DirectionBuy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := route.AmountIn(); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("amount in = %s, want 100", got)
	}
	if route.Direction != domain.DirectionBuy {
		t.Errorf("direction = %s, want buy", route.Direction)
	}
}

func TestRouteManager_BestRoute_CostTipsTheScale(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	ksm := testNode(asset.ChainKusama, asset.NativeAssetMarker)

	// Nominally better output, but the venue costs 5 USD to use.
	pricier := newFakeEdge(dot, ksm, 11, 10)
	pricier.costUSD = decimal.NewFromInt(5)
	free := newFakeEdge(dot, ksm, 1, 1)

	// 1 USD per whole KSM unit (12 decimals) makes the 5 USD cost
	// overwhelm the 10% output edge on a tiny trade.
	prices := fakePrices{
		dot: decimal.NewFromInt(1),
		ksm: decimal.NewFromInt(1),
	}

	m := newTestRouteManager(prices)

	route, err := m.BestRoute(context.Background(),
		[]domain.Path{{pricier}, {free}}, big.NewInt(100), domain.DirectionSell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := route.AmountOut(); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected the free venue to win, amount out = %s", got)
	}
}

func TestRouteManager_BestRoute_SkipsFailingCandidates(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	ksm := testNode(asset.ChainKusama, asset.NativeAssetMarker)

	failing := newFakeEdge(dot, ksm, 1, 1)
	failing.quoteErr = errors.New("venue down")
	working := newFakeEdge(dot, ksm, 1, 2)

	m := newTestRouteManager(fakePrices{})

	route, err := m.BestRoute(context.Background(),
		[]domain.Path{{failing}, {working}}, big.NewInt(100), domain.DirectionSell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := route.AmountOut(); got.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("amount out = %s, want 50", got)
	}
}

func TestRouteManager_BestRoute_AllCandidatesFail(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	ksm := testNode(asset.ChainKusama, asset.NativeAssetMarker)

	failing := newFakeEdge(dot, ksm, 1, 1)
	failing.quoteErr = errors.New("venue down")

	m := newTestRouteManager(fakePrices{})

	_, err := m.BestRoute(context.Background(),
		[]domain.Path{{failing}}, big.NewInt(100), domain.DirectionSell)
	if !apperror.IsCode(err, apperror.CodeNoRoute) {
		t.Errorf("expected no-route error, got %v", err)
	}
}

func TestRouteManager_BestRoute_NoPaths(t *testing.T) {
	m := newTestRouteManager(fakePrices{})

	_, err := m.BestRoute(context.Background(), nil, big.NewInt(100), domain.DirectionSell)
	if !apperror.IsCode(err, apperror.CodeNoRoute) {
		t.Errorf("expected no-route error, got %v", err)
	}
}

func TestRouteManager_BestRoute_MultiHopBuyWalksBackward(t *testing.T) {
	dot := testNode(asset.ChainPolkadot, asset.NativeAssetMarker)
	usdt := testNode(asset.ChainAssetHub, "1984")
	usdc := testNode(asset.ChainAssetHub, "1337")

	first := newFakeEdge(dot, usdt, 1, 2)  // halves
	second := newFakeEdge(usdt, usdc, 1, 5) // fifths

	m := newTestRouteManager(fakePrices{})

	route, err := m.BestRoute(context.Background(),
		[]domain.Path{{first, second}}, big.NewInt(10), domain.DirectionBuy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 10 USDC needs 50 USDT, which needs 100 DOT.
	if got := route.Items[1].AmountIn; got.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("second segment input = %s, want 50", got)
	}
	if got := route.AmountIn(); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("route input = %s, want 100", got)
	}
	if got := route.AmountOut(); got.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("route output = %s, want 10", got)
	}
}
