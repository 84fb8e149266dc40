package money

import "testing"

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.005, 1.01},
		{1.004, 1.00},
		{2.675, 2.68},
		{-1.005, -1.01},
		{199.999, 200.00},
		{33.326667, 33.33},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClampNonNegFloorsAtZero(t *testing.T) {
	if got := ClampNonNeg(-0.003); got != 0 {
		t.Errorf("ClampNonNeg(-0.003): got %v, want 0", got)
	}
	if got := ClampNonNeg(-12.5); got != 0 {
		t.Errorf("ClampNonNeg(-12.5): got %v, want 0", got)
	}
	if got := ClampNonNeg(4.567); got != 4.57 {
		t.Errorf("ClampNonNeg(4.567): got %v, want 4.57", got)
	}
}

func TestApproxZeroTolerance(t *testing.T) {
	if !ApproxZero(0.004) {
		t.Error("0.004 should be treated as settled")
	}
	if !ApproxZero(-0.0049) {
		t.Error("-0.0049 should be treated as settled")
	}
	if ApproxZero(0.005) {
		t.Error("0.005 is a representable half-cent, not zero")
	}
	if ApproxZero(0.01) {
		t.Error("a whole cent is never zero")
	}
}

func TestMin(t *testing.T) {
	if got := Min(3, 7); got != 3 {
		t.Errorf("Min(3, 7): got %v", got)
	}
	if got := Min(7, 3); got != 3 {
		t.Errorf("Min(7, 3): got %v", got)
	}
}
