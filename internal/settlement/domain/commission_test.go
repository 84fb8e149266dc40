package domain

import (
	"testing"

	"github.com/tair/gym-settlement/pkg/money"
)

func TestComputeCommissionSplitsEvenly(t *testing.T) {
	b, err := ComputeCommission(200, 50)
	if err != nil {
		t.Fatalf("ComputeCommission: %v", err)
	}
	if b.CoachPayout != 100 || b.GymShare != 100 {
		t.Fatalf("200 at 50%%: got payout=%v share=%v, want 100/100", b.CoachPayout, b.GymShare)
	}
	if b.SessionPrice != 200 || b.PercentUsed != 50 {
		t.Fatalf("breakdown echo: got price=%v percent=%v", b.SessionPrice, b.PercentUsed)
	}
}

// The gym share is derived from the rounded payout, so the two always sum to
// the rounded price even when the split lands on an odd cent.
func TestComputeCommissionSumInvariant(t *testing.T) {
	cases := []struct {
		price   float64
		percent float64
	}{
		{99.99, 33.33},
		{100.01, 50},
		{149.95, 17.5},
		{0.01, 99},
		{73.333, 66.67},
	}
	for _, tc := range cases {
		b, err := ComputeCommission(tc.price, tc.percent)
		if err != nil {
			t.Fatalf("ComputeCommission(%v, %v): %v", tc.price, tc.percent, err)
		}
		if got := money.Round2(b.CoachPayout + b.GymShare); got != b.SessionPrice {
			t.Errorf("%v at %v%%: payout %v + share %v = %v, want %v",
				tc.price, tc.percent, b.CoachPayout, b.GymShare, got, b.SessionPrice)
		}
	}
}

func TestComputeCommissionRejectsBadInput(t *testing.T) {
	if _, err := ComputeCommission(0, 50); err == nil {
		t.Error("zero price must be rejected")
	}
	if _, err := ComputeCommission(-10, 50); err == nil {
		t.Error("negative price must be rejected")
	}
	if _, err := ComputeCommission(100, -1); err == nil {
		t.Error("negative percent must be rejected")
	}
	if _, err := ComputeCommission(100, 100.5); err == nil {
		t.Error("percent above 100 must be rejected")
	}

	_, err := ComputeCommission(100, 101)
	e, ok := AsError(err)
	if !ok || e.Code != CodeCommissionPercentInvalid {
		t.Fatalf("expected %s, got %v", CodeCommissionPercentInvalid, err)
	}
}

func TestComputeCommissionBoundaryPercents(t *testing.T) {
	b, err := ComputeCommission(80, 0)
	if err != nil {
		t.Fatalf("0%%: %v", err)
	}
	if b.CoachPayout != 0 || b.GymShare != 80 {
		t.Fatalf("0%%: got payout=%v share=%v", b.CoachPayout, b.GymShare)
	}

	b, err = ComputeCommission(80, 100)
	if err != nil {
		t.Fatalf("100%%: %v", err)
	}
	if b.CoachPayout != 80 || b.GymShare != 0 {
		t.Fatalf("100%%: got payout=%v share=%v", b.CoachPayout, b.GymShare)
	}
}

func TestComputeCommissionPreviewAllowsZeroPrice(t *testing.T) {
	b, err := ComputeCommissionPreview(0, 40)
	if err != nil {
		t.Fatalf("preview with unpriced session: %v", err)
	}
	if b.CoachPayout != 0 || b.GymShare != 0 {
		t.Fatalf("preview of zero price: got payout=%v share=%v", b.CoachPayout, b.GymShare)
	}
	if _, err := ComputeCommissionPreview(-1, 40); err == nil {
		t.Error("preview must still reject negative prices")
	}
}
