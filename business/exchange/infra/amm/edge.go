package amm

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/asset"
)

// edgeWeight ranks AMM hops between a streaming market maker (cheaper)
// and a cross-chain transfer (pricier).
const edgeWeight int64 = 2

const metaLabel = "amm swap"

// estimatedInclusionTime is the expected delay until a submitted swap
// lands in a block.
const estimatedInclusionTime = 15 * time.Second

// defaultSwapGas is the gas assumed for a single-hop swap before any
// amounts are known.
const defaultSwapGas = 200_000

var _ domain.Edge = (*Edge)(nil)

// Edge is one direct ERC20 pair on the venue's chain.
type Edge struct {
	host        *Host
	origin      domain.AssetNode
	destination domain.AssetNode
	tokenIn     common.Address
	tokenOut    common.Address
}

func (e *Edge) Origin() domain.AssetNode      { return e.origin }
func (e *Edge) Destination() domain.AssetNode { return e.destination }
func (e *Edge) Weight() int64                 { return edgeWeight }

// Quote converts amount across the pair: output for sells, required
// input for buys.
func (e *Edge) Quote(ctx context.Context, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	switch direction {
	case domain.DirectionBuy:
		quote, _, err := e.host.quoteExactOutputSingle(ctx, e.tokenIn, e.tokenOut, amount)
		if err != nil {
			return nil, err
		}
		return quote.Amount, nil
	default:
		quote, _, err := e.host.quoteExactInputSingle(ctx, e.tokenIn, e.tokenOut, amount)
		if err != nil {
			return nil, err
		}
		return quote.Amount, nil
	}
}

// BeginOperation starts a fresh single-hop operation.
func (e *Edge) BeginOperation(args domain.AtomicOperationArgs) (domain.AtomicOperation, error) {
	return &Operation{
		host:     e.host,
		hops:     []hop{{tokenIn: e.tokenIn, tokenOut: e.tokenOut}},
		assetIn:  e.origin,
		assetOut: e.destination,
		args:     args,
	}, nil
}

// AppendToOperation extends a same-venue operation into a multi-hop
// swap executed atomically through the router. Anything else returns
// nil so the factory starts a fresh operation.
func (e *Edge) AppendToOperation(op domain.AtomicOperation, args domain.AtomicOperationArgs) domain.AtomicOperation {
	prev, ok := op.(*Operation)
	if !ok || prev.host != e.host || prev.assetOut != e.origin {
		return nil
	}

	hops := make([]hop, len(prev.hops), len(prev.hops)+1)
	copy(hops, prev.hops)
	hops = append(hops, hop{tokenIn: e.tokenIn, tokenOut: e.tokenOut})

	merged := prev.args
	merged.SwapLimit = domain.NewSwapLimit(
		prev.args.SwapLimit.Direction,
		prev.args.SwapLimit.AmountIn,
		args.SwapLimit.AmountOut,
		prev.args.SwapLimit.Slippage,
	)

	return &Operation{
		host:     e.host,
		hops:     hops,
		assetIn:  prev.assetIn,
		assetOut: e.destination,
		args:     merged,
	}
}

// BeginMetaOperation describes a fresh swap for display.
func (e *Edge) BeginMetaOperation(amountIn, amountOut *big.Int) (*domain.MetaOperation, error) {
	return &domain.MetaOperation{
		Label:     metaLabel,
		AssetIn:   e.origin,
		AssetOut:  e.destination,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
	}, nil
}

// AppendToMetaOperation merges a continuation hop into the previous
// description when it belongs to this venue.
func (e *Edge) AppendToMetaOperation(op *domain.MetaOperation, _, amountOut *big.Int) (*domain.MetaOperation, error) {
	if op == nil || op.Label != metaLabel || op.AssetOut != e.origin {
		return nil, nil
	}

	return &domain.MetaOperation{
		Label:     metaLabel,
		AssetIn:   op.AssetIn,
		AssetOut:  e.destination,
		AmountIn:  new(big.Int).Set(op.AmountIn),
		AmountOut: new(big.Int).Set(amountOut),
	}, nil
}

// OperationPrototype estimates cost and timing before amounts exist.
func (e *Edge) OperationPrototype() (domain.OperationPrototype, error) {
	return &prototype{host: e.host}, nil
}

// ShouldIgnoreFeeRequirement lets a same-venue continuation skip the
// intermediate fee check: merged hops submit as one transaction, so the
// continuation pays no separate fee.
func (e *Edge) ShouldIgnoreFeeRequirement(predecessor domain.Edge) bool {
	prev, ok := predecessor.(*Edge)
	return ok && prev.host == e.host
}

// CanPayNonNativeFeesInIntermediatePosition is false: gas is always
// paid in the chain's native asset.
func (e *Edge) CanPayNonNativeFeesInIntermediatePosition() bool { return false }

// RequiresOriginKeepAlive is false: EVM accounts are not reaped.
func (e *Edge) RequiresOriginKeepAlive() bool { return false }

// prototype estimates a swap's execution profile from the current gas
// price and the native asset's USD price.
type prototype struct {
	host *Host
}

func (p *prototype) EstimatedCostInUSD(ctx context.Context, prices domain.PriceStore) (decimal.Decimal, error) {
	gasPrice, err := p.host.gasOracle.GasPrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	native := asset.NewNativeAssetID(p.host.chainID)
	nativeAsset, ok := p.host.registry.Get(native)
	if !ok {
		return decimal.Zero, apperror.Routing(apperror.CodeAssetNotFound, native.String())
	}

	priceUSD, ok := prices.PriceUSD(native)
	if !ok {
		return decimal.Zero, nil
	}

	costWei := new(big.Int).Mul(gasPrice, big.NewInt(defaultSwapGas))
	costUnits := decimal.NewFromBigInt(costWei, -int32(nativeAsset.Decimals()))

	return costUnits.Mul(priceUSD), nil
}

func (p *prototype) EstimatedExecutionTime() time.Duration {
	return estimatedInclusionTime
}
