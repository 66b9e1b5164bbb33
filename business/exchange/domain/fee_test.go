package domain

import (
	"math/big"
	"testing"

	"github.com/routefi/exchange-router/internal/apperror"
)

func TestOperationFee_TotalEnsuringSubmissionAsset(t *testing.T) {
	dot := node("polkadot", "native")
	usdt := node("assethub", "1984")

	fee := &OperationFee{Components: []FeeComponent{
		{Amount: big.NewInt(10), Asset: dot, FromSelectedAccount: true},
		{Amount: big.NewInt(7), Asset: dot, FromSelectedAccount: true},
		// Paid inside the venue, must not reduce the submission amount.
		{Amount: big.NewInt(100), Asset: dot, FromSelectedAccount: false},
		// Different asset, must not count either.
		{Amount: big.NewInt(50), Asset: usdt, FromSelectedAccount: true},
	}}

	if got := fee.TotalEnsuringSubmissionAsset(dot); got.Cmp(big.NewInt(17)) != 0 {
		t.Errorf("expected 17, got %s", got)
	}
	if got := fee.TotalEnsuringSubmissionAsset(usdt); got.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("expected 50, got %s", got)
	}

	var nilFee *OperationFee
	if got := nilFee.TotalEnsuringSubmissionAsset(dot); got.Sign() != 0 {
		t.Errorf("expected 0 for nil fee, got %s", got)
	}
}

func TestOperationFee_PayerSplit(t *testing.T) {
	dot := node("polkadot", "native")

	fee := &OperationFee{Components: []FeeComponent{
		{Amount: big.NewInt(10), Asset: dot, FromSelectedAccount: true},
		{Amount: big.NewInt(5), Asset: dot, FromSelectedAccount: false},
	}}

	if got := fee.TotalInAsset(dot); got.Cmp(big.NewInt(15)) != 0 {
		t.Errorf("expected 15, got %s", got)
	}
	if got := fee.TotalByAccount(dot); got.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("expected 10 by account, got %s", got)
	}
	if got := fee.TotalFromAmount(dot); got.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("expected 5 from amount, got %s", got)
	}
}

func TestFee_AddingIntermediateFees(t *testing.T) {
	base := &Fee{FeeAssetID: node("polkadot", "native")}

	carried := base.AddingIntermediateFees(big.NewInt(42))
	if carried.IntermediateFeesInAssetIn.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("expected 42, got %s", carried.IntermediateFeesInAssetIn)
	}
	if base.IntermediateFeesInAssetIn != nil {
		t.Error("expected the original fee to stay untouched")
	}
}

func TestFee_InitialAmountIn(t *testing.T) {
	dot := node("polkadot", "native")
	e := edge("polkadot", "native", "assethub", "1984", 1)

	route := &Route{
		Items: []RouteItem{
			{Edge: e, AmountIn: big.NewInt(1000), AmountOut: big.NewInt(500)},
		},
		Direction: DirectionSell,
	}

	fee := &Fee{
		Route: route,
		OperationFees: []*OperationFee{
			{Components: []FeeComponent{
				{Amount: big.NewInt(30), Asset: dot, FromSelectedAccount: true},
			}},
		},
		IntermediateFeesInAssetIn: big.NewInt(20),
		FeeAssetID:                dot,
	}

	got, err := fee.InitialAmountIn()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// route amount + intermediate fees + origin fee held in the origin asset
	if got.Cmp(big.NewInt(1050)) != 0 {
		t.Errorf("expected 1050, got %s", got)
	}
}

func TestFee_InitialAmountIn_AllowsNilIntermediate(t *testing.T) {
	e := edge("polkadot", "native", "assethub", "1984", 1)

	fee := &Fee{
		Route: &Route{
			Items: []RouteItem{{Edge: e, AmountIn: big.NewInt(100), AmountOut: big.NewInt(50)}},
		},
		OperationFees: []*OperationFee{{}},
	}

	got, err := fee.InitialAmountIn()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected 100, got %s", got)
	}
}

func TestFee_InitialAmountIn_EmptyRoute(t *testing.T) {
	fee := &Fee{Route: &Route{}}

	_, err := fee.InitialAmountIn()
	if !apperror.IsCode(err, apperror.CodeMismatchBetweenFeeAndRoute) {
		t.Errorf("expected mismatch error, got %v", err)
	}
}

func TestFee_InitialAmountIn_MissingOriginFee(t *testing.T) {
	e := edge("polkadot", "native", "assethub", "1984", 1)

	fee := &Fee{
		Route: &Route{
			Items: []RouteItem{{Edge: e, AmountIn: big.NewInt(100), AmountOut: big.NewInt(50)}},
		},
	}

	_, err := fee.InitialAmountIn()
	if !apperror.IsCode(err, apperror.CodeMismatchBetweenFeeAndRoute) {
		t.Errorf("expected mismatch error, got %v", err)
	}
}
