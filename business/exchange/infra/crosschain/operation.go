package crosschain

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
)

var _ domain.AtomicOperation = (*Operation)(nil)

// Operation is one cross-chain transfer.
type Operation struct {
	edge *Edge
	args domain.AtomicOperationArgs
}

func (o *Operation) SwapLimit() domain.SwapLimit { return o.args.SwapLimit }
func (o *Operation) AssetIn() domain.AssetNode   { return o.edge.origin }
func (o *Operation) AssetOut() domain.AssetNode  { return o.edge.destination }
func (o *Operation) FeeAsset() domain.AssetNode  { return o.args.FeeAsset }

func (o *Operation) EstimateFee(ctx context.Context) (*domain.OperationFee, error) {
	components, err := o.edge.client.Fee(ctx, feeRequest{
		OriginChain:      o.edge.origin.ChainID,
		OriginAsset:      o.edge.origin.AssetID,
		DestinationChain: o.edge.destination.ChainID,
		DestinationAsset: o.edge.destination.AssetID,
		Amount:           o.args.SwapLimit.AmountIn.String(),
		FeeChain:         o.args.FeeAsset.ChainID,
		FeeAsset:         o.args.FeeAsset.AssetID,
	})
	if err != nil {
		return nil, err
	}

	fee := &domain.OperationFee{Components: make([]domain.FeeComponent, 0, len(components))}
	for _, c := range components {
		amount, err := parseAmount(c.Amount)
		if err != nil {
			return nil, err
		}
		fee.Components = append(fee.Components, domain.FeeComponent{
			Amount:              amount,
			Asset:               domain.AssetNode{ChainID: c.Chain, AssetID: c.Asset},
			FromSelectedAccount: c.FromSelectedAccount,
		})
	}

	return fee, nil
}

func (o *Operation) RequiredAmountToGetAmountOut(ctx context.Context, amountOutClosure func() (*big.Int, error)) (*big.Int, error) {
	amountOut, err := amountOutClosure()
	if err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 {
		return big.NewInt(0), nil
	}

	return o.edge.Quote(ctx, amountOut, domain.DirectionBuy)
}

func (o *Operation) Submit(ctx context.Context, limit domain.SwapLimit) (*big.Int, error) {
	minOut := limit.AmountOut
	if limit.Direction == domain.DirectionSell {
		factor := decimal.NewFromInt(1).Sub(limit.Slippage)
		minOut = decimal.NewFromBigInt(limit.AmountOut, 0).Mul(factor).Truncate(0).BigInt()
	}

	return o.edge.client.Transfer(ctx, transferRequest{
		OriginChain:      o.edge.origin.ChainID,
		OriginAsset:      o.edge.origin.AssetID,
		DestinationChain: o.edge.destination.ChainID,
		DestinationAsset: o.edge.destination.AssetID,
		AmountIn:         limit.AmountIn.String(),
		MinAmountOut:     minOut.String(),
	})
}
