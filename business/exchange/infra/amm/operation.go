package amm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/business/exchange/infra/evm"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/asset"
)

// hop is one pool traversal inside a (possibly multi-hop) swap.
type hop struct {
	tokenIn  common.Address
	tokenOut common.Address
}

var _ domain.AtomicOperation = (*Operation)(nil)

// Operation is one atomic router transaction covering one or more
// merged hops on this venue.
type Operation struct {
	host     *Host
	hops     []hop
	assetIn  domain.AssetNode
	assetOut domain.AssetNode
	args     domain.AtomicOperationArgs
}

func (o *Operation) SwapLimit() domain.SwapLimit { return o.args.SwapLimit }
func (o *Operation) AssetIn() domain.AssetNode   { return o.assetIn }
func (o *Operation) AssetOut() domain.AssetNode  { return o.assetOut }
func (o *Operation) FeeAsset() domain.AssetNode  { return o.args.FeeAsset }

// resolveTiers picks the best fee tier per hop by quoting forward with
// the given input, returning the path tokens, tiers and the realized
// output quote.
func (o *Operation) resolveTiers(ctx context.Context, amountIn *big.Int) ([]common.Address, []int, *QuoteResult, error) {
	tokens := make([]common.Address, 0, len(o.hops)+1)
	tiers := make([]int, 0, len(o.hops))

	tokens = append(tokens, o.hops[0].tokenIn)

	amount := new(big.Int).Set(amountIn)
	var last *QuoteResult
	gasTotal := big.NewInt(0)

	for _, hp := range o.hops {
		quote, tier, err := o.host.quoteExactInputSingle(ctx, hp.tokenIn, hp.tokenOut, amount)
		if err != nil {
			return nil, nil, nil, err
		}

		tokens = append(tokens, hp.tokenOut)
		tiers = append(tiers, tier)
		gasTotal.Add(gasTotal, quote.GasEstimate)
		amount = quote.Amount
		last = quote
	}

	return tokens, tiers, &QuoteResult{Amount: last.Amount, GasEstimate: gasTotal}, nil
}

// EstimateFee quotes the swap's gas cost. The fee is a single component
// in the chain's native asset, paid by the submitting account.
func (o *Operation) EstimateFee(ctx context.Context) (*domain.OperationFee, error) {
	_, _, quote, err := o.resolveTiers(ctx, o.args.SwapLimit.AmountIn)
	if err != nil {
		return nil, err
	}

	gasPrice, err := o.host.gasOracle.GasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasCost := new(big.Int).Mul(quote.GasEstimate, gasPrice)

	return &domain.OperationFee{
		Components: []domain.FeeComponent{{
			Amount:              gasCost,
			Asset:               asset.NewNativeAssetID(o.host.chainID),
			FromSelectedAccount: true,
		}},
	}, nil
}

// RequiredAmountToGetAmountOut inverse-quotes the swap hop by hop, from
// the last pool back to the first.
func (o *Operation) RequiredAmountToGetAmountOut(ctx context.Context, amountOutClosure func() (*big.Int, error)) (*big.Int, error) {
	amountOut, err := amountOutClosure()
	if err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 {
		return big.NewInt(0), nil
	}

	needed := new(big.Int).Set(amountOut)
	for i := len(o.hops) - 1; i >= 0; i-- {
		quote, _, err := o.host.quoteExactOutputSingle(ctx, o.hops[i].tokenIn, o.hops[i].tokenOut, needed)
		if err != nil {
			return nil, err
		}
		needed = quote.Amount
	}

	return needed, nil
}

// Submit quotes the final path, signs the router call and waits for it
// to mine, returning the realized output read from the receipt.
func (o *Operation) Submit(ctx context.Context, limit domain.SwapLimit) (*big.Int, error) {
	tokens, tiers, quote, err := o.resolveTiers(ctx, limit.AmountIn)
	if err != nil {
		return nil, err
	}

	minOut := minimumOut(quote.Amount, limit)

	var callData []byte
	if len(o.hops) == 1 {
		callData, err = o.host.routerABI.Pack("exactInputSingle", ExactInputSingleParams{
			TokenIn:           tokens[0],
			TokenOut:          tokens[1],
			Fee:               big.NewInt(int64(tiers[0])),
			Recipient:         o.host.signer.Address(),
			AmountIn:          limit.AmountIn,
			AmountOutMinimum:  minOut,
			SqrtPriceLimitX96: big.NewInt(0),
		})
	} else {
		callData, err = o.host.routerABI.Pack("exactInput", ExactInputParams{
			Path:             encodePath(tokens, tiers),
			Recipient:        o.host.signer.Address(),
			AmountIn:         limit.AmountIn,
			AmountOutMinimum: minOut,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("encode swap call: %w", err)
	}

	// Headroom over the quoter's estimate; unused gas is refunded.
	gasLimit := quote.GasEstimate.Uint64()*2 + 100_000

	o.host.metrics.swapsTotal.Add(ctx, 1)
	o.host.logger.Info(ctx, "submitting swap",
		"asset_in", o.assetIn, "asset_out", o.assetOut,
		"amount_in", limit.AmountIn, "min_out", minOut, "hops", len(o.hops))

	receipt, err := o.host.signer.SendAndWait(ctx, o.host.client, evm.CallArgs{
		To:       o.host.router,
		Data:     callData,
		GasLimit: gasLimit,
	})
	if err != nil {
		return nil, apperror.External(apperror.CodeSegmentExecutionFailed, "amm swap", err)
	}

	amountOut, ok := o.amountOutFromReceipt(receipt, tokens[len(tokens)-1])
	if !ok {
		// The swap settled but the output transfer was not in the logs;
		// fall back to the pre-send quote.
		o.host.logger.Warn(ctx, "output transfer not found in receipt, using quote",
			"tx", receipt.TxHash)
		amountOut = quote.Amount
	}

	return amountOut, nil
}

// amountOutFromReceipt reads the realized output from the ERC20
// Transfer event delivering tokenOut to the signing account.
func (o *Operation) amountOutFromReceipt(receipt *types.Receipt, tokenOut common.Address) (*big.Int, bool) {
	recipient := common.BytesToHash(o.host.signer.Address().Bytes())

	for i := len(receipt.Logs) - 1; i >= 0; i-- {
		log := receipt.Logs[i]
		if log.Address != tokenOut || len(log.Topics) != 3 {
			continue
		}
		if log.Topics[0] != transferEventSig || log.Topics[2] != recipient {
			continue
		}
		return new(big.Int).SetBytes(log.Data), true
	}

	return nil, false
}

// minimumOut derives the slippage floor: a buy targets the exact
// requested output, a sell tolerates the configured slippage below the
// quote.
func minimumOut(quoted *big.Int, limit domain.SwapLimit) *big.Int {
	if limit.Direction == domain.DirectionBuy {
		return new(big.Int).Set(limit.AmountOut)
	}

	factor := decimal.NewFromInt(1).Sub(limit.Slippage)
	return decimal.NewFromBigInt(quoted, 0).Mul(factor).Truncate(0).BigInt()
}
