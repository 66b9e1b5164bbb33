package app

import (
	"context"
	"io"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelDebug, "test", nil)
}

func testNode(chain, assetID string) domain.AssetNode {
	return domain.AssetNode{ChainID: chain, AssetID: assetID}
}

// fakeEdge quotes with a fixed rational rate: selling amount yields
// amount*rateNum/rateDen, buying inverts it.
type fakeEdge struct {
	origin      domain.AssetNode
	destination domain.AssetNode
	venue       string
	weight      int64
	rateNum     int64
	rateDen     int64
	quoteErr    error

	mergeable       bool
	fee             *domain.OperationFee
	execTime        time.Duration
	costUSD         decimal.Decimal
	ignoreFeeReq    bool
	canPayNonNative bool
	keepAlive       bool

	submitFn func(ctx context.Context, limit domain.SwapLimit) (*big.Int, error)
}

func newFakeEdge(origin, destination domain.AssetNode, rateNum, rateDen int64) *fakeEdge {
	return &fakeEdge{
		origin:      origin,
		destination: destination,
		venue:       "test",
		weight:      1,
		rateNum:     rateNum,
		rateDen:     rateDen,
		execTime:    time.Second,
		costUSD:     decimal.Zero,
	}
}

func (e *fakeEdge) Origin() domain.AssetNode { return e.origin }

func (e *fakeEdge) Destination() domain.AssetNode { return e.destination }

func (e *fakeEdge) Weight() int64 { return e.weight }

func (e *fakeEdge) Quote(_ context.Context, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	if e.quoteErr != nil {
		return nil, e.quoteErr
	}
	return applyRate(amount, e.rateNum, e.rateDen, direction), nil
}

func applyRate(amount *big.Int, num, den int64, direction domain.Direction) *big.Int {
	out := new(big.Int).Set(amount)
	if direction == domain.DirectionBuy {
		out.Mul(out, big.NewInt(den))
		out.Div(out, big.NewInt(num))
		return out
	}
	out.Mul(out, big.NewInt(num))
	out.Div(out, big.NewInt(den))
	return out
}

func (e *fakeEdge) BeginOperation(args domain.AtomicOperationArgs) (domain.AtomicOperation, error) {
	return &fakeOperation{
		assetIn:  e.origin,
		assetOut: e.destination,
		args:     args,
		rateNum:  e.rateNum,
		rateDen:  e.rateDen,
		fee:      e.fee,
		venue:    e.venue,
		submitFn: e.submitFn,
	}, nil
}

func (e *fakeEdge) AppendToOperation(op domain.AtomicOperation, _ domain.AtomicOperationArgs) domain.AtomicOperation {
	if !e.mergeable {
		return nil
	}
	prev, ok := op.(*fakeOperation)
	if !ok || prev.venue != e.venue || prev.assetOut != e.origin {
		return nil
	}

	merged := *prev
	merged.assetOut = e.destination
	merged.rateNum *= e.rateNum
	merged.rateDen *= e.rateDen
	return &merged
}

func (e *fakeEdge) BeginMetaOperation(amountIn, amountOut *big.Int) (*domain.MetaOperation, error) {
	return &domain.MetaOperation{
		Label:     e.venue,
		AssetIn:   e.origin,
		AssetOut:  e.destination,
		AmountIn:  amountIn,
		AmountOut: amountOut,
	}, nil
}

func (e *fakeEdge) AppendToMetaOperation(op *domain.MetaOperation, _, amountOut *big.Int) (*domain.MetaOperation, error) {
	if !e.mergeable || op.Label != e.venue || op.AssetOut != e.origin {
		return nil, nil
	}

	merged := *op
	merged.AssetOut = e.destination
	merged.AmountOut = amountOut
	return &merged, nil
}

func (e *fakeEdge) OperationPrototype() (domain.OperationPrototype, error) {
	return fakePrototype{costUSD: e.costUSD, execTime: e.execTime}, nil
}

func (e *fakeEdge) ShouldIgnoreFeeRequirement(_ domain.Edge) bool { return e.ignoreFeeReq }

func (e *fakeEdge) CanPayNonNativeFeesInIntermediatePosition() bool { return e.canPayNonNative }

func (e *fakeEdge) RequiresOriginKeepAlive() bool { return e.keepAlive }

type fakePrototype struct {
	costUSD  decimal.Decimal
	execTime time.Duration
}

func (p fakePrototype) EstimatedCostInUSD(_ context.Context, _ domain.PriceStore) (decimal.Decimal, error) {
	return p.costUSD, nil
}

func (p fakePrototype) EstimatedExecutionTime() time.Duration { return p.execTime }

type fakeOperation struct {
	assetIn  domain.AssetNode
	assetOut domain.AssetNode
	args     domain.AtomicOperationArgs
	rateNum  int64
	rateDen  int64
	fee      *domain.OperationFee
	venue    string

	submitFn func(ctx context.Context, limit domain.SwapLimit) (*big.Int, error)
}

func (o *fakeOperation) SwapLimit() domain.SwapLimit { return o.args.SwapLimit }

func (o *fakeOperation) AssetIn() domain.AssetNode { return o.assetIn }

func (o *fakeOperation) AssetOut() domain.AssetNode { return o.assetOut }

func (o *fakeOperation) FeeAsset() domain.AssetNode { return o.args.FeeAsset }

func (o *fakeOperation) EstimateFee(_ context.Context) (*domain.OperationFee, error) {
	if o.fee != nil {
		return o.fee, nil
	}
	return &domain.OperationFee{}, nil
}

func (o *fakeOperation) RequiredAmountToGetAmountOut(_ context.Context, amountOutClosure func() (*big.Int, error)) (*big.Int, error) {
	amountOut, err := amountOutClosure()
	if err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 {
		return big.NewInt(0), nil
	}
	return applyRate(amountOut, o.rateNum, o.rateDen, domain.DirectionBuy), nil
}

func (o *fakeOperation) Submit(ctx context.Context, limit domain.SwapLimit) (*big.Int, error) {
	if o.submitFn != nil {
		return o.submitFn(ctx, limit)
	}
	return applyRate(limit.AmountIn, o.rateNum, o.rateDen, domain.DirectionSell), nil
}

// fakePrices serves fixed USD unit prices.
type fakePrices map[domain.AssetNode]decimal.Decimal

func (p fakePrices) PriceUSD(node domain.AssetNode) (decimal.Decimal, bool) {
	price, ok := p[node]
	return price, ok
}

// staticGraph is a GraphSource pinned to one graph.
type staticGraph struct {
	graph *domain.Graph
}

func (s staticGraph) CurrentGraph() *domain.Graph { return s.graph }

// Admission fakes keyed by chain or node.

type fakeWallet map[string]bool

func (w fakeWallet) HasAccount(chainID string) bool { return w[chainID] }

type fakeDelayed map[string]bool

func (d fakeDelayed) ExecutesCallWithDelay(chainID string) bool { return d[chainID] }

type fakeSufficiency map[domain.AssetNode]bool

func (s fakeSufficiency) IsSufficient(node domain.AssetNode) bool {
	sufficient, ok := s[node]
	if !ok {
		return true
	}
	return sufficient
}

type fakeFeeSupport map[domain.AssetNode]bool

func (f fakeFeeSupport) CanPayFeeInNonNativeAsset(node domain.AssetNode) bool { return f[node] }
