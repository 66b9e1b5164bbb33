package domain

import (
	"math/big"
	"time"
)

// RouteItem is one hop of a resolved route: an edge plus the concrete
// amounts the quote produced for it.
type RouteItem struct {
	Edge      Edge
	AmountIn  *big.Int
	AmountOut *big.Int
}

// Route is a concrete, amount-resolved path.
type Route struct {
	Items     []RouteItem
	Direction Direction
}

// AmountIn returns the route's total input (first segment's input).
func (r *Route) AmountIn() *big.Int {
	if len(r.Items) == 0 {
		return big.NewInt(0)
	}
	return r.Items[0].AmountIn
}

// AmountOut returns the route's total output (last segment's output).
func (r *Route) AmountOut() *big.Int {
	if len(r.Items) == 0 {
		return big.NewInt(0)
	}
	return r.Items[len(r.Items)-1].AmountOut
}

// AssetIn returns the route's origin node.
func (r *Route) AssetIn() AssetNode {
	if len(r.Items) == 0 {
		return AssetNode{}
	}
	return r.Items[0].Edge.Origin()
}

// AssetOut returns the route's destination node.
func (r *Route) AssetOut() AssetNode {
	if len(r.Items) == 0 {
		return AssetNode{}
	}
	return r.Items[len(r.Items)-1].Edge.Destination()
}

// Quote is the user-facing result of a quote request: the chosen route
// plus descriptive metadata per atomic operation.
type Quote struct {
	Route *Route
	// MetaOperations describes each atomic operation of the route (edges
	// merged by venue), in execution order.
	MetaOperations []*MetaOperation
	// ExecutionTimes holds the estimated duration per atomic operation,
	// aligned with MetaOperations.
	ExecutionTimes []time.Duration
}

// TotalExecutionTime sums the per-operation estimates.
func (q *Quote) TotalExecutionTime() time.Duration {
	var total time.Duration
	for _, t := range q.ExecutionTimes {
		total += t
	}
	return total
}

// QuoteArgs are the inputs of a quote request.
type QuoteArgs struct {
	AssetIn   AssetNode
	AssetOut  AssetNode
	Amount    *big.Int
	Direction Direction
}
