// Package domain contains the core domain types for the exchange context.
package domain

// Direction tells which side of a swap is fixed by the caller.
type Direction string

const (
	// DirectionSell fixes the input amount ("sell exactly amountIn").
	DirectionSell Direction = "sell"
	// DirectionBuy fixes the output amount ("buy exactly amountOut").
	DirectionBuy Direction = "buy"
)

// IsValid reports whether d is one of the known directions.
func (d Direction) IsValid() bool {
	return d == DirectionSell || d == DirectionBuy
}
