package domain

import (
	"github.com/tair/gym-settlement/pkg/money"
)

// CommissionBreakdown splits a session price between the servicing coach and
// the gym. CoachPayout + GymShare always equals the rounded session price.
type CommissionBreakdown struct {
	SessionPrice float64 `json:"session_price"`
	PercentUsed  float64 `json:"commission_percent_used"`
	CoachPayout  float64 `json:"trainer_payout"`
	GymShare     float64 `json:"gym_share"`
}

// ComputeCommission computes the coach/gym split for a session. The price
// must be positive and the percent within [0,100].
func ComputeCommission(sessionPrice, percent float64) (CommissionBreakdown, error) {
	if sessionPrice <= 0 {
		return CommissionBreakdown{}, NewValidationError(
			CodeSessionPriceInvalid,
			"session price must be a positive amount",
			"يجب أن يكون سعر الجلسة مبلغًا موجبًا",
		)
	}
	return computeCommission(sessionPrice, percent)
}

// ComputeCommissionPreview is the zero-tolerant variant used by preview
// contexts where a not-yet-priced session is acceptable.
func ComputeCommissionPreview(sessionPrice, percent float64) (CommissionBreakdown, error) {
	if sessionPrice < 0 {
		return CommissionBreakdown{}, NewValidationError(
			CodeSessionPriceInvalid,
			"session price must not be negative",
			"يجب ألا يكون سعر الجلسة سالبًا",
		)
	}
	return computeCommission(sessionPrice, percent)
}

func computeCommission(sessionPrice, percent float64) (CommissionBreakdown, error) {
	if err := ValidateCommissionPercent(percent); err != nil {
		return CommissionBreakdown{}, err
	}

	price := money.Round2(sessionPrice)
	payout := money.Round2(price * percent / 100)
	// The gym share is derived from the payout so the two always sum to the
	// rounded price, whichever way the payout rounding went.
	share := money.Round2(price - payout)

	return CommissionBreakdown{
		SessionPrice: price,
		PercentUsed:  percent,
		CoachPayout:  payout,
		GymShare:     share,
	}, nil
}

// ValidateCommissionPercent checks a percent is within [0,100].
func ValidateCommissionPercent(percent float64) error {
	if percent < 0 || percent > 100 {
		return NewValidationError(
			CodeCommissionPercentInvalid,
			"commission percent must be between 0 and 100",
			"يجب أن تكون نسبة العمولة بين 0 و 100",
		)
	}
	return nil
}
