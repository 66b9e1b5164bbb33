package stream

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
)

const (
	// Market-maker quotes beat on-chain pools on price, so the feed
	// gets the lowest default weight of the three venues.
	defaultEdgeWeight = 1

	metaLabel = "stream fill"

	// Fills settle off-chain on the maker's side.
	estimatedFillTime = 5 * time.Second

	bpsDenominator = 10_000
)

// pairState is the last pushed quotable state for one pair. Quoting is
// constant-product over the maker's advertised reserves with the fee
// taken from the input side.
type pairState struct {
	base         domain.AssetNode
	quote        domain.AssetNode
	baseReserve  *big.Int
	quoteReserve *big.Int
	feeBps       int64
	weight       int64
}

func newPairState(dto pairDTO) (*pairState, error) {
	baseReserve, ok := new(big.Int).SetString(dto.BaseReserve, 10)
	if !ok || baseReserve.Sign() <= 0 {
		return nil, fmt.Errorf("invalid base reserve %q", dto.BaseReserve)
	}
	quoteReserve, ok := new(big.Int).SetString(dto.QuoteReserve, 10)
	if !ok || quoteReserve.Sign() <= 0 {
		return nil, fmt.Errorf("invalid quote reserve %q", dto.QuoteReserve)
	}
	if dto.FeeBps < 0 || dto.FeeBps >= bpsDenominator {
		return nil, fmt.Errorf("invalid fee %d bps", dto.FeeBps)
	}

	weight := dto.Weight
	if weight <= 0 {
		weight = defaultEdgeWeight
	}

	return &pairState{
		base:         nodeFrom(dto.BaseChain, dto.BaseAsset),
		quote:        nodeFrom(dto.QuoteChain, dto.QuoteAsset),
		baseReserve:  baseReserve,
		quoteReserve: quoteReserve,
		feeBps:       dto.FeeBps,
		weight:       weight,
	}, nil
}

func (s *pairState) key() pairKey {
	return pairKey{base: s.base, quote: s.quote}
}

// amountOut quotes base in, quote out:
//
//	out = quoteReserve * in' / (baseReserve + in')  where in' = in * (1 - fee)
func (s *pairState) amountOut(amountIn *big.Int) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "amount in must be positive")
	}

	inAfterFee := new(big.Int).Mul(amountIn, big.NewInt(bpsDenominator-s.feeBps))
	inAfterFee.Div(inAfterFee, big.NewInt(bpsDenominator))

	numerator := new(big.Int).Mul(s.quoteReserve, inAfterFee)
	denominator := new(big.Int).Add(s.baseReserve, inAfterFee)

	return numerator.Div(numerator, denominator), nil
}

// amountIn inverts amountOut: the base needed to receive amountOut quote.
func (s *pairState) amountIn(amountOut *big.Int) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "amount out must be positive")
	}
	if amountOut.Cmp(s.quoteReserve) >= 0 {
		return nil, apperror.Routing(apperror.CodeInsufficientLiquidity, "amount out exceeds available liquidity")
	}

	// Post-fee input required by the invariant, rounded up.
	numerator := new(big.Int).Mul(s.baseReserve, amountOut)
	denominator := new(big.Int).Sub(s.quoteReserve, amountOut)
	inAfterFee := ceilDiv(numerator, denominator)

	// Gross up for the fee in a second step so the forward quote's own
	// fee truncation cannot eat the rounding margin.
	grossed := inAfterFee.Mul(inAfterFee, big.NewInt(bpsDenominator))
	return ceilDiv(grossed, big.NewInt(bpsDenominator-s.feeBps)), nil
}

func ceilDiv(numerator, denominator *big.Int) *big.Int {
	out := new(big.Int).Add(numerator, new(big.Int).Sub(denominator, big.NewInt(1)))
	return out.Div(out, denominator)
}

// feePortion is the part of amountIn kept by the maker.
func (s *pairState) feePortion(amountIn *big.Int) *big.Int {
	fee := new(big.Int).Mul(amountIn, big.NewInt(s.feeBps))
	return fee.Div(fee, big.NewInt(bpsDenominator))
}

var _ domain.Edge = (*Edge)(nil)

// Edge quotes locally from the last pushed pair state and fills over
// the feed connection.
type Edge struct {
	venue       *Venue
	origin      domain.AssetNode
	destination domain.AssetNode
}

func (e *Edge) Origin() domain.AssetNode {
	return e.origin
}

func (e *Edge) Destination() domain.AssetNode {
	return e.destination
}

func (e *Edge) Weight() int64 {
	if state, ok := e.venue.pairStateFor(e.origin, e.destination); ok {
		return state.weight
	}
	return defaultEdgeWeight
}

// Quote prices the edge against the pushed reserves without touching
// the network.
func (e *Edge) Quote(ctx context.Context, amount *big.Int, direction domain.Direction) (*big.Int, error) {
	state, ok := e.venue.pairStateFor(e.origin, e.destination)
	if !ok {
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "pair no longer quoted by the feed")
	}

	switch direction {
	case domain.DirectionSell:
		return state.amountOut(amount)
	case domain.DirectionBuy:
		return state.amountIn(amount)
	default:
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "unknown direction")
	}
}

func (e *Edge) BeginOperation(args domain.AtomicOperationArgs) (domain.AtomicOperation, error) {
	return &Operation{edge: e, args: args}, nil
}

// AppendToOperation never merges: each fill is a separate order to the
// maker.
func (e *Edge) AppendToOperation(_ domain.AtomicOperation, _ domain.AtomicOperationArgs) domain.AtomicOperation {
	return nil
}

func (e *Edge) BeginMetaOperation(amountIn, amountOut *big.Int) (*domain.MetaOperation, error) {
	return &domain.MetaOperation{
		Label:     metaLabel,
		AssetIn:   e.origin,
		AssetOut:  e.destination,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
	}, nil
}

func (e *Edge) AppendToMetaOperation(_ *domain.MetaOperation, _, _ *big.Int) (*domain.MetaOperation, error) {
	return nil, nil
}

func (e *Edge) OperationPrototype() (domain.OperationPrototype, error) {
	return prototype{}, nil
}

func (e *Edge) ShouldIgnoreFeeRequirement(_ domain.Edge) bool {
	return false
}

// The maker takes its fee out of the traded amount, so no separate fee
// balance is needed at the origin.
func (e *Edge) CanPayNonNativeFeesInIntermediatePosition() bool {
	return true
}

func (e *Edge) RequiresOriginKeepAlive() bool {
	return false
}

type prototype struct{}

// EstimatedCostInUSD is zero: the maker's fee is already priced into
// the quote and the taker pays no gas.
func (prototype) EstimatedCostInUSD(_ context.Context, _ domain.PriceStore) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (prototype) EstimatedExecutionTime() time.Duration {
	return estimatedFillTime
}
