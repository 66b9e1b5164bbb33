package domain

import (
	"context"
	"math/big"
)

// AtomicOperationArgs carries everything an edge needs to realize one
// segment of a route.
type AtomicOperationArgs struct {
	SwapLimit SwapLimit
	// FeeAsset is the asset the segment's fee is paid in. On the first
	// segment it is caller-configurable; every later segment pays in its
	// own origin asset.
	FeeAsset AssetNode
}

// Edge is one direct convertibility between two asset nodes, owned by a
// specific venue. Multiple edges between the same pair (from different
// venues, or different pools of one venue) may coexist.
type Edge interface {
	Origin() AssetNode
	Destination() AssetNode

	// Weight orders edges during path search; lower is preferred.
	Weight() int64

	// Quote converts an amount across the edge. For DirectionSell the
	// amount is the input and the result the output; for DirectionBuy the
	// amount is the desired output and the result the required input.
	Quote(ctx context.Context, amount *big.Int, direction Direction) (*big.Int, error)

	// BeginOperation starts a new atomic operation realizing this edge.
	BeginOperation(args AtomicOperationArgs) (AtomicOperation, error)

	// AppendToOperation tries to extend an existing operation with this
	// edge (two adjacent hops on the same venue collapse into one atomic
	// operation). Returns nil when the operation cannot absorb the edge.
	AppendToOperation(op AtomicOperation, args AtomicOperationArgs) AtomicOperation

	// BeginMetaOperation starts a new descriptive operation for quoting.
	BeginMetaOperation(amountIn, amountOut *big.Int) (*MetaOperation, error)

	// AppendToMetaOperation mirrors AppendToOperation for descriptions.
	// Returns nil when not mergeable.
	AppendToMetaOperation(op *MetaOperation, amountIn, amountOut *big.Int) (*MetaOperation, error)

	// OperationPrototype returns a lightweight stand-in used for cost and
	// execution-time estimation before any amounts are known.
	OperationPrototype() (OperationPrototype, error)

	// ShouldIgnoreFeeRequirement reports that the edge may skip the usual
	// intermediate-fee admissibility check when it directly follows the
	// given predecessor (e.g. same-venue continuation).
	ShouldIgnoreFeeRequirement(predecessor Edge) bool

	// CanPayNonNativeFeesInIntermediatePosition reports whether the edge
	// can pay its fee in its origin asset while sitting in the middle of
	// a route.
	CanPayNonNativeFeesInIntermediatePosition() bool

	// RequiresOriginKeepAlive reports whether using the edge from an
	// intermediate position risks reaping the origin account.
	RequiresOriginKeepAlive() bool
}

// Path is an ordered, contiguous list of edges:
// path[i].Destination() == path[i+1].Origin().
type Path []Edge

// Origin returns the path's starting node.
func (p Path) Origin() AssetNode {
	if len(p) == 0 {
		return AssetNode{}
	}
	return p[0].Origin()
}

// Destination returns the path's final node.
func (p Path) Destination() AssetNode {
	if len(p) == 0 {
		return AssetNode{}
	}
	return p[len(p)-1].Destination()
}

// TotalWeight sums the edge weights.
func (p Path) TotalWeight() int64 {
	var total int64
	for _, e := range p {
		total += e.Weight()
	}
	return total
}
