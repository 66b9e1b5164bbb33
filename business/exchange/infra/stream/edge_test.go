package stream

import (
	"math/big"
	"testing"

	"github.com/routefi/exchange-router/internal/apperror"
)

func testPair(t *testing.T, baseReserve, quoteReserve string, feeBps int64) *pairState {
	t.Helper()
	state, err := newPairState(pairDTO{
		BaseChain:    "polkadot",
		BaseAsset:    "native",
		QuoteChain:   "assethub",
		QuoteAsset:   "1984",
		BaseReserve:  baseReserve,
		QuoteReserve: quoteReserve,
		FeeBps:       feeBps,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return state
}

func TestNewPairState_Validation(t *testing.T) {
	tests := []struct {
		name string
		dto  pairDTO
	}{
		{"zero_base_reserve", pairDTO{BaseReserve: "0", QuoteReserve: "100"}},
		{"negative_quote_reserve", pairDTO{BaseReserve: "100", QuoteReserve: "-5"}},
		{"garbage_reserve", pairDTO{BaseReserve: "1e18", QuoteReserve: "100"}},
		{"negative_fee", pairDTO{BaseReserve: "100", QuoteReserve: "100", FeeBps: -1}},
		{"fee_at_denominator", pairDTO{BaseReserve: "100", QuoteReserve: "100", FeeBps: 10_000}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newPairState(tc.dto); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNewPairState_DefaultWeight(t *testing.T) {
	state := testPair(t, "100", "100", 0)
	if state.weight != defaultEdgeWeight {
		t.Errorf("weight = %d, want %d", state.weight, defaultEdgeWeight)
	}
}

func TestPairState_AmountOut(t *testing.T) {
	tests := []struct {
		name         string
		baseReserve  string
		quoteReserve string
		feeBps       int64
		amountIn     int64
		want         string
	}{
		// 1000 * 100 / (1000 + 100) = 90.9..
		{"no_fee", "1000", "1000", 0, 100, "90"},
		// in' = 100 * 0.997 = 99; 1000*99/1099 = 90.08..
		{"thirty_bps_fee", "1000", "1000", 30, 100, "90"},
		// in' = 97; 1000*97/1097 = 88.4..
		{"three_percent_fee", "1000", "1000", 300, 100, "88"},
		{"skewed_reserves", "1000", "2000000", 0, 100, "181818"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := testPair(t, tc.baseReserve, tc.quoteReserve, tc.feeBps)

			got, err := state.amountOut(big.NewInt(tc.amountIn))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Errorf("amountOut(%d) = %s, want %s", tc.amountIn, got, tc.want)
			}
		})
	}
}

func TestPairState_AmountOut_RejectsNonPositive(t *testing.T) {
	state := testPair(t, "1000", "1000", 30)

	_, err := state.amountOut(big.NewInt(0))
	if !apperror.IsCode(err, apperror.CodeVenueQuoteFailed) {
		t.Errorf("expected quote-failed error, got %v", err)
	}
}

// The inverse quote must always cover the forward quote: selling
// amountIn(x) yields at least x.
func TestPairState_AmountIn_CoversAmountOut(t *testing.T) {
	states := []*pairState{
		testPair(t, "1000000", "1000000", 0),
		testPair(t, "1000000", "1000000", 30),
		testPair(t, "734561", "9912345", 300),
	}
	outputs := []int64{1, 7, 999, 123_456}

	for _, state := range states {
		for _, want := range outputs {
			in, err := state.amountIn(big.NewInt(want))
			if err != nil {
				t.Fatalf("amountIn(%d): %v", want, err)
			}

			out, err := state.amountOut(in)
			if err != nil {
				t.Fatalf("amountOut(%s): %v", in, err)
			}
			if out.Cmp(big.NewInt(want)) < 0 {
				t.Errorf("fee %d bps: amountOut(amountIn(%d)) = %s, undershoots", state.feeBps, want, out)
			}

			// The rounded-up input must still be tight: one unit less
			// must not also cover the target.
			if in.Cmp(big.NewInt(1)) > 0 {
				short, err := state.amountOut(new(big.Int).Sub(in, big.NewInt(1)))
				if err != nil {
					t.Fatalf("amountOut short probe: %v", err)
				}
				if short.Cmp(big.NewInt(want)) >= 0 {
					t.Errorf("fee %d bps: amountIn(%d) = %s is not minimal", state.feeBps, want, in)
				}
			}
		}
	}
}

func TestPairState_AmountIn_InsufficientLiquidity(t *testing.T) {
	state := testPair(t, "1000", "1000", 0)

	_, err := state.amountIn(big.NewInt(1000))
	if !apperror.IsCode(err, apperror.CodeInsufficientLiquidity) {
		t.Errorf("expected insufficient-liquidity error, got %v", err)
	}
}

func TestPairState_FeePortion(t *testing.T) {
	state := testPair(t, "1000", "1000", 25)

	got := state.feePortion(big.NewInt(40_000))
	if got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("feePortion(40000) = %s, want 100", got)
	}
}
