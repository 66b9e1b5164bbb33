package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/internal/apperror"
)

// Fee is the full cost picture of a route: one OperationFee per atomic
// operation, plus the aggregate of all downstream fees re-expressed in
// the route's origin asset.
type Fee struct {
	Route         *Route
	OperationFees []*OperationFee
	// IntermediateFeesInAssetIn is the extra amount of the origin asset
	// that must be carried through the first operation so every
	// downstream operation's fee is covered.
	IntermediateFeesInAssetIn *big.Int
	Slippage                  decimal.Decimal
	// FeeAssetID is the asset the first operation's fee is paid in.
	// Later operations always pay in their own origin asset.
	FeeAssetID AssetNode
}

// FeeArgs are the inputs of a fee estimation request.
type FeeArgs struct {
	Route      *Route
	Slippage   decimal.Decimal
	FeeAssetID AssetNode
}

// OriginFee returns the first operation's fee.
func (f *Fee) OriginFee() *OperationFee {
	if len(f.OperationFees) == 0 {
		return nil
	}
	return f.OperationFees[0]
}

// AddingIntermediateFees returns a copy carrying the given aggregate of
// downstream fees in the origin asset.
func (f *Fee) AddingIntermediateFees(amount *big.Int) *Fee {
	clone := *f
	clone.IntermediateFeesInAssetIn = new(big.Int).Set(amount)
	return &clone
}

// InitialAmountIn computes the amount of the origin asset required at
// execution start: the first segment's input, the carried intermediate
// fees, and the portion of the first fee held in the origin asset.
func (f *Fee) InitialAmountIn() (*big.Int, error) {
	if f.Route == nil || len(f.Route.Items) == 0 {
		return nil, apperror.Routing(apperror.CodeMismatchBetweenFeeAndRoute, "fee has empty route")
	}
	originFee := f.OriginFee()
	if originFee == nil {
		return nil, apperror.Routing(apperror.CodeMismatchBetweenFeeAndRoute, "fee has no origin entry")
	}

	assetIn := f.Route.AssetIn()

	total := new(big.Int).Set(f.Route.AmountIn())
	if f.IntermediateFeesInAssetIn != nil {
		total.Add(total, f.IntermediateFeesInAssetIn)
	}
	total.Add(total, originFee.TotalEnsuringSubmissionAsset(assetIn))

	return total, nil
}
