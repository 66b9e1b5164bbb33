package crosschain

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/asset"
)

// defaultEdgeWeight ranks a cross-chain transfer above same-chain swaps
// when the service does not report its own weight.
const defaultEdgeWeight int64 = 3

var _ domain.Edge = (*Edge)(nil)

// Edge is one transferable pair between two chains.
type Edge struct {
	client      *Client
	origin      domain.AssetNode
	destination domain.AssetNode
	weight      int64

	requiresKeepAlive   bool
	canPayNonNativeFees bool
	costUSD             decimal.Decimal
	deliveryTime        time.Duration
}

func newEdge(client *Client, dto connectionDTO) *Edge {
	weight := dto.Weight
	if weight <= 0 {
		weight = defaultEdgeWeight
	}

	return &Edge{
		client:              client,
		origin:              asset.NewChainAssetID(dto.OriginChain, dto.OriginAsset),
		destination:         asset.NewChainAssetID(dto.DestinationChain, dto.DestinationAsset),
		weight:              weight,
		requiresKeepAlive:   dto.RequiresOriginKeepAlive,
		canPayNonNativeFees: dto.CanPayNonNativeFees,
		costUSD:             decimal.NewFromFloat(dto.EstimatedCostUSD),
		deliveryTime:        time.Duration(dto.EstimatedDeliverySeconds) * time.Second,
	}
}

func (e *Edge) Origin() domain.AssetNode      { return e.origin }
func (e *Edge) Destination() domain.AssetNode { return e.destination }
func (e *Edge) Weight() int64                 { return e.weight }

func (e *Edge) Quote(ctx context.Context, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	return e.client.Quote(ctx, quoteRequest{
		OriginChain:      e.origin.ChainID,
		OriginAsset:      e.origin.AssetID,
		DestinationChain: e.destination.ChainID,
		DestinationAsset: e.destination.AssetID,
		Amount:           amount.String(),
		Direction:        string(direction),
	})
}

func (e *Edge) BeginOperation(args domain.AtomicOperationArgs) (domain.AtomicOperation, error) {
	return &Operation{edge: e, args: args}, nil
}

// AppendToOperation always declines: each transfer settles on a
// different chain and cannot absorb further hops.
func (e *Edge) AppendToOperation(domain.AtomicOperation, domain.AtomicOperationArgs) domain.AtomicOperation {
	return nil
}

func (e *Edge) BeginMetaOperation(amountIn, amountOut *big.Int) (*domain.MetaOperation, error) {
	return &domain.MetaOperation{
		Label:     "crosschain transfer",
		AssetIn:   e.origin,
		AssetOut:  e.destination,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
	}, nil
}

func (e *Edge) AppendToMetaOperation(*domain.MetaOperation, *big.Int, *big.Int) (*domain.MetaOperation, error) {
	return nil, nil
}

func (e *Edge) OperationPrototype() (domain.OperationPrototype, error) {
	return &prototype{costUSD: e.costUSD, deliveryTime: e.deliveryTime}, nil
}

func (e *Edge) ShouldIgnoreFeeRequirement(domain.Edge) bool { return false }

// CanPayNonNativeFeesInIntermediatePosition reflects the service's
// per-connection capability of deducting fees from the sent asset.
func (e *Edge) CanPayNonNativeFeesInIntermediatePosition() bool {
	return e.canPayNonNativeFees
}

func (e *Edge) RequiresOriginKeepAlive() bool { return e.requiresKeepAlive }

// prototype reports the service's own cost and delivery estimates.
type prototype struct {
	costUSD      decimal.Decimal
	deliveryTime time.Duration
}

func (p *prototype) EstimatedCostInUSD(context.Context, domain.PriceStore) (decimal.Decimal, error) {
	return p.costUSD, nil
}

func (p *prototype) EstimatedExecutionTime() time.Duration {
	if p.deliveryTime <= 0 {
		return 2 * time.Minute
	}
	return p.deliveryTime
}
