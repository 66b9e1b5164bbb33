package domain

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// AtomicOperation is one independently-submittable execution unit of a
// route. A single operation may cover several adjacent edges when the
// owning venue can execute them atomically.
type AtomicOperation interface {
	// SwapLimit returns the amounts and slippage this operation was
	// created (or last extended) with.
	SwapLimit() SwapLimit

	// AssetIn and AssetOut are the operation's endpoint nodes. A merged
	// operation spans several edges; the endpoints are the outermost ones.
	AssetIn() AssetNode
	AssetOut() AssetNode

	// FeeAsset is the asset the operation pays its fee in.
	FeeAsset() AssetNode

	// EstimateFee computes the operation's fee without submitting.
	EstimateFee(ctx context.Context) (*OperationFee, error)

	// RequiredAmountToGetAmountOut back-computes the input needed to
	// produce the amount returned by amountOutClosure, which resolves
	// only when called (it typically reads the downstream requirement).
	RequiredAmountToGetAmountOut(ctx context.Context, amountOutClosure func() (*big.Int, error)) (*big.Int, error)

	// Submit executes the operation with the given limit (typically the
	// construction limit with the input replaced by the amount actually
	// received from the previous segment) and resolves to the amount
	// received in the operation's destination asset.
	Submit(ctx context.Context, limit SwapLimit) (*big.Int, error)
}

// OperationPrototype estimates static properties of an operation before
// amounts are known.
type OperationPrototype interface {
	// EstimatedCostInUSD is the flat execution cost attributed to the
	// operation, in USD.
	EstimatedCostInUSD(ctx context.Context, prices PriceStore) (decimal.Decimal, error)

	// EstimatedExecutionTime is how long a submission is expected to take.
	EstimatedExecutionTime() time.Duration
}

// PriceStore resolves an asset's USD unit price at quote time. The price
// is per whole unit of the asset, not per raw unit.
type PriceStore interface {
	PriceUSD(node AssetNode) (decimal.Decimal, bool)
}

// MetaOperation describes one operation of a quote for display and
// analysis without being executable.
type MetaOperation struct {
	Label    string
	AssetIn  AssetNode
	AssetOut AssetNode
	AmountIn *big.Int
	// AmountOut holds the expected output for the amounts the quote was
	// produced with.
	AmountOut *big.Int
}

// FeeComponent is one constituent of an operation's fee.
type FeeComponent struct {
	Amount *big.Int
	Asset  AssetNode
	// FromSelectedAccount marks components the user's account pays
	// directly, as opposed to amounts deducted inside the venue.
	FromSelectedAccount bool
}

// OperationFee is the full fee breakdown of a single atomic operation.
type OperationFee struct {
	Components []FeeComponent
}

// TotalEnsuringSubmissionAsset sums the components payable by the
// selected account in the given asset. Components in other assets or
// paid internally by the venue do not reduce the submission amount.
func (f *OperationFee) TotalEnsuringSubmissionAsset(node AssetNode) *big.Int {
	total := big.NewInt(0)
	if f == nil {
		return total
	}
	for _, c := range f.Components {
		if !c.FromSelectedAccount || c.Asset != node || c.Amount == nil {
			continue
		}
		total.Add(total, c.Amount)
	}
	return total
}

// TotalByAccount sums the components the selected account pays
// directly in the given asset.
func (f *OperationFee) TotalByAccount(node AssetNode) *big.Int {
	return f.TotalEnsuringSubmissionAsset(node)
}

// TotalFromAmount sums the components deducted inside the venue in the
// given asset. These never reduce the submission amount.
func (f *OperationFee) TotalFromAmount(node AssetNode) *big.Int {
	total := big.NewInt(0)
	if f == nil {
		return total
	}
	for _, c := range f.Components {
		if c.FromSelectedAccount || c.Asset != node || c.Amount == nil {
			continue
		}
		total.Add(total, c.Amount)
	}
	return total
}

// TotalInAsset sums every component denominated in the given asset
// regardless of payer.
func (f *OperationFee) TotalInAsset(node AssetNode) *big.Int {
	total := big.NewInt(0)
	if f == nil {
		return total
	}
	for _, c := range f.Components {
		if c.Asset != node || c.Amount == nil {
			continue
		}
		total.Add(total, c.Amount)
	}
	return total
}
