package asset_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/routefi/exchange-router/internal/asset"
)

var (
	testDOT  = asset.NewAsset(asset.NewNativeAssetID(asset.ChainPolkadot), "DOT", 10)
	testUSDT = asset.NewAsset(asset.NewChainAssetID(asset.ChainAssetHub, "1984"), "USDT", 6)
)

func TestAmount_Basic(t *testing.T) {
	// 1 DOT = 1e10 planck
	oneDOT := asset.NewAmount(testDOT, big.NewInt(1e10))

	if oneDOT.IsZero() {
		t.Error("expected non-zero amount")
	}

	if d := oneDOT.ToDecimal(); !d.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", d.String())
	}

	if oneDOT.String() != "1 DOT" {
		t.Errorf("expected '1 DOT', got '%s'", oneDOT.String())
	}
}

func TestAmount_Add(t *testing.T) {
	one := asset.NewAmount(testDOT, big.NewInt(1e10))
	two := asset.NewAmount(testDOT, big.NewInt(2e10))

	sum, err := one.Add(two)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.ToDecimal().Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3, got %s", sum.ToDecimal())
	}
}

func TestAmount_AddMismatchedAssets(t *testing.T) {
	dot := asset.NewAmount(testDOT, big.NewInt(1e10))
	usdt := asset.NewAmount(testUSDT, big.NewInt(1e6))

	if _, err := dot.Add(usdt); err == nil {
		t.Fatal("expected an asset mismatch error")
	}
}

func TestAmount_Sub(t *testing.T) {
	two := asset.NewAmount(testDOT, big.NewInt(2e10))
	one := asset.NewAmount(testDOT, big.NewInt(1e10))

	diff, err := two.Sub(one)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", diff.ToDecimal())
	}

	if _, err := one.Sub(two); err == nil {
		t.Fatal("expected a negative-result error")
	}
}

func TestAmount_SubOrZero(t *testing.T) {
	one := asset.NewAmount(testDOT, big.NewInt(1e10))
	two := asset.NewAmount(testDOT, big.NewInt(2e10))

	clamped, err := one.SubOrZero(two)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !clamped.IsZero() {
		t.Errorf("expected 0, got %s", clamped.ToDecimal())
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		asset   *asset.Asset
		input   string
		wantRaw string
		wantErr bool
	}{
		{"whole_units", testDOT, "1.5", "15000000000", false},
		{"smallest_unit", testUSDT, "0.000001", "1", false},
		{"too_many_decimals", testUSDT, "0.0000001", "", true},
		{"negative", testDOT, "-1", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tc.input)
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}

			amount, err := asset.ParseDecimal(tc.asset, d)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := amount.Raw().String(); got != tc.wantRaw {
				t.Errorf("raw = %s, want %s", got, tc.wantRaw)
			}
		})
	}
}

func TestPrice_RateRoundTrip(t *testing.T) {
	rate := decimal.RequireFromString("4.2")
	price := asset.NewPrice(testDOT, testUSDT, rate, time.Now())

	if !price.Rate().Equal(rate) {
		t.Errorf("rate = %s, want %s", price.Rate(), rate)
	}
	if price.IsZero() {
		t.Error("expected a non-zero price")
	}
}

func TestPrice_Convert(t *testing.T) {
	// 4 USDT per DOT: 2 DOT -> 8 USDT, minding the decimal gap (10 vs 6).
	price := asset.NewPrice(testDOT, testUSDT, decimal.NewFromInt(4), time.Now())

	converted, err := price.Convert(asset.NewAmount(testDOT, big.NewInt(2e10)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if converted.Raw().Cmp(big.NewInt(8e6)) != 0 {
		t.Errorf("converted = %s, want 8000000", converted.Raw())
	}

	if _, err := price.Convert(asset.NewAmount(testUSDT, big.NewInt(1))); err == nil {
		t.Fatal("expected a mismatch error converting the quote asset")
	}
}

func TestPrice_Invert(t *testing.T) {
	price := asset.NewPrice(testDOT, testUSDT, decimal.NewFromInt(4), time.Now())

	inverted := price.Invert()
	if inverted.Base() != testUSDT || inverted.Quote() != testDOT {
		t.Error("expected base and quote to swap")
	}
	if !inverted.Rate().Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("inverted rate = %s, want 0.25", inverted.Rate())
	}
}
