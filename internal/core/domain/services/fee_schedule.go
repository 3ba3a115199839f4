package services

import (
	"math"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

// FeeTier charges PerMile for every mile up to UpToMiles. A zero UpToMiles
// makes the tier unbounded.
type FeeTier struct {
	UpToMiles float64
	PerMile   decimal.Decimal
}

// FeeSchedule turns a distance into a delivery fee and a delivery time.
type FeeSchedule struct {
	// IncludedMiles are covered by the base fee alone.
	IncludedMiles float64
	// Tiers must be sorted by UpToMiles with the unbounded tier last.
	Tiers      []FeeTier
	RoundUpTo  decimal.Decimal
	MinimumFee kernel.Money

	PrepMinutes   int
	BufferMinutes int
}

// DefaultFeeSchedule returns the standard marketplace schedule.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		IncludedMiles: 3,
		Tiers: []FeeTier{
			{UpToMiles: 8, PerMile: decimal.RequireFromString("1.50")},
			{UpToMiles: 15, PerMile: decimal.RequireFromString("1.00")},
			{UpToMiles: 0, PerMile: decimal.RequireFromString("0.75")},
		},
		RoundUpTo:     decimal.RequireFromString("0.25"),
		MinimumFee:    kernel.Zero,
		PrepMinutes:   15,
		BufferMinutes: 5,
	}
}

// Fee returns base for distances within IncludedMiles. Beyond it the tiered
// surcharge is added, the sum is rounded up to RoundUpTo and floored at the
// larger of MinimumFee and base.
func (s FeeSchedule) Fee(miles float64, base kernel.Money) kernel.Money {
	if miles <= s.IncludedMiles || math.IsNaN(miles) {
		return base
	}

	surcharge := decimal.Zero
	from := s.IncludedMiles
	for _, tier := range s.Tiers {
		to := miles
		if tier.UpToMiles > 0 && tier.UpToMiles < miles {
			to = tier.UpToMiles
		}
		if to > from {
			surcharge = surcharge.Add(decimal.NewFromFloat(to - from).Round(6).Mul(tier.PerMile))
		}
		if tier.UpToMiles <= 0 || tier.UpToMiles >= miles {
			break
		}
		from = tier.UpToMiles
	}

	fee := base.Decimal().Add(surcharge)
	if s.RoundUpTo.IsPositive() {
		fee = fee.Div(s.RoundUpTo).Ceil().Mul(s.RoundUpTo)
	}

	floor := base.Decimal()
	if s.MinimumFee.Decimal().GreaterThan(floor) {
		floor = s.MinimumFee.Decimal()
	}
	if fee.LessThan(floor) {
		fee = floor
	}

	out, err := kernel.NewMoney(fee)
	if err != nil {
		return base
	}
	return out
}

// ETAMinutes is preparation time plus the drive rounded up to whole minutes
// plus the buffer.
func (s FeeSchedule) ETAMinutes(driveSeconds int) int {
	if driveSeconds < 0 {
		driveSeconds = 0
	}
	drive := int(math.Ceil(float64(driveSeconds) / 60))
	return s.PrepMinutes + drive + s.BufferMinutes
}
