package stream

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
)

var _ domain.AtomicOperation = (*Operation)(nil)

// Operation is a single fill request against the market maker.
type Operation struct {
	edge *Edge
	args domain.AtomicOperationArgs
}

func (o *Operation) SwapLimit() domain.SwapLimit {
	return o.args.SwapLimit
}

func (o *Operation) AssetIn() domain.AssetNode {
	return o.edge.origin
}

func (o *Operation) AssetOut() domain.AssetNode {
	return o.edge.destination
}

func (o *Operation) FeeAsset() domain.AssetNode {
	return o.args.FeeAsset
}

// EstimateFee reports the maker's cut of the traded amount. The maker
// deducts it inside the fill, so it is not charged to the account.
func (o *Operation) EstimateFee(_ context.Context) (*domain.OperationFee, error) {
	state, ok := o.edge.venue.pairStateFor(o.edge.origin, o.edge.destination)
	if !ok {
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "pair no longer quoted by the feed")
	}

	return &domain.OperationFee{
		Components: []domain.FeeComponent{
			{
				Amount:              state.feePortion(o.args.SwapLimit.AmountIn),
				Asset:               o.edge.origin,
				FromSelectedAccount: false,
			},
		},
	}, nil
}

func (o *Operation) RequiredAmountToGetAmountOut(_ context.Context, amountOutClosure func() (*big.Int, error)) (*big.Int, error) {
	amountOut, err := amountOutClosure()
	if err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 {
		return big.NewInt(0), nil
	}

	state, ok := o.edge.venue.pairStateFor(o.edge.origin, o.edge.destination)
	if !ok {
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "pair no longer quoted by the feed")
	}

	return state.amountIn(amountOut)
}

// Submit sends the order and waits for the maker's fill result.
func (o *Operation) Submit(ctx context.Context, limit domain.SwapLimit) (*big.Int, error) {
	minOut, err := o.minimumOut(limit)
	if err != nil {
		return nil, err
	}

	req := orderRequest{
		BaseChain:  o.edge.origin.ChainID,
		BaseAsset:  o.edge.origin.AssetID,
		QuoteChain: o.edge.destination.ChainID,
		QuoteAsset: o.edge.destination.AssetID,
		AmountIn:   limit.AmountIn.String(),
		MinOut:     minOut.String(),
	}

	filled, err := o.edge.venue.sendOrder(ctx, req)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSegmentExecutionFailed, "stream fill")
	}

	amountOut, ok := new(big.Int).SetString(filled, 10)
	if !ok {
		return nil, apperror.Routing(apperror.CodeSegmentExecutionFailed,
			"malformed fill amount: "+filled)
	}
	return amountOut, nil
}

// minimumOut is the floor the maker must clear: a fixed-output limit
// keeps its amount, a fixed-input limit gets the live quote reduced by
// the slippage tolerance.
func (o *Operation) minimumOut(limit domain.SwapLimit) (*big.Int, error) {
	if limit.Direction == domain.DirectionBuy {
		return limit.AmountOut, nil
	}

	state, ok := o.edge.venue.pairStateFor(o.edge.origin, o.edge.destination)
	if !ok {
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "pair no longer quoted by the feed")
	}

	quoted, err := state.amountOut(limit.AmountIn)
	if err != nil {
		return nil, err
	}

	factor := decimal.NewFromInt(1).Sub(limit.Slippage)
	minOut := decimal.NewFromBigInt(quoted, 0).Mul(factor).Truncate(0).BigInt()
	return minOut, nil
}
