package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// SwapLimit bounds one atomic operation: the fixed side, both amounts and
// the tolerated slippage.
type SwapLimit struct {
	Direction Direction
	AmountIn  *big.Int
	AmountOut *big.Int
	Slippage  decimal.Decimal
}

// NewSwapLimit creates a swap limit with defensive copies of the amounts.
func NewSwapLimit(direction Direction, amountIn, amountOut *big.Int, slippage decimal.Decimal) SwapLimit {
	return SwapLimit{
		Direction: direction,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
		Slippage:  slippage,
	}
}

// ReplacingAmountIn returns a copy with a new input amount. When
// replaceBuyWithSell is set, a buy limit is converted to a sell of the new
// amount: intermediate segments always execute in sell-exact mode because
// only the first segment's direction is user-chosen.
func (l SwapLimit) ReplacingAmountIn(amountIn *big.Int, replaceBuyWithSell bool) SwapLimit {
	direction := l.Direction
	if replaceBuyWithSell && direction == DirectionBuy {
		direction = DirectionSell
	}

	return SwapLimit{
		Direction: direction,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(l.AmountOut),
		Slippage:  l.Slippage,
	}
}
