package services_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(t *testing.T, s string) kernel.Money {
	t.Helper()
	m, err := kernel.MoneyFromString(s)
	require.NoError(t, err)
	return m
}

func TestFeeSchedule_Fee(t *testing.T) {
	schedule := services.DefaultFeeSchedule()
	base := money(t, "5.00")

	tests := []struct {
		name  string
		miles float64
		want  string
	}{
		{"zero distance", 0, "5.00"},
		{"within included miles", 2.4, "5.00"},
		{"exactly included miles", 3, "5.00"},
		{"just beyond included miles rounds up", 3.1, "5.25"},
		{"end of first tier", 8, "12.50"},
		{"ten miles", 10, "14.50"},
		{"end of second tier", 15, "19.50"},
		{"long haul", 20, "23.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.Fee(tt.miles, base).String())
		})
	}
}

func TestFeeSchedule_FeeIsBaseWithinIncludedMiles(t *testing.T) {
	schedule := services.DefaultFeeSchedule()
	schedule.MinimumFee = money(t, "9.00")

	for _, base := range []string{"0.00", "3.99", "5.00", "12.00"} {
		b := money(t, base)
		for miles := 0.0; miles <= 3.0; miles += 0.25 {
			assert.True(t, schedule.Fee(miles, b).Equal(b), "base %s at %.2f mi", base, miles)
		}
	}
}

func TestFeeSchedule_FeeIsMonotonic(t *testing.T) {
	schedule := services.DefaultFeeSchedule()
	schedule.MinimumFee = money(t, "7.00")
	base := money(t, "5.00")

	prev := schedule.Fee(0, base)
	for i := 1; i <= 600; i++ {
		miles := float64(i) * 0.05
		fee := schedule.Fee(miles, base)
		assert.False(t, prev.GreaterThan(fee), "fee decreased at %.2f mi: %s > %s", miles, prev, fee)
		prev = fee
	}
}

func TestFeeSchedule_MinimumFeeFloor(t *testing.T) {
	schedule := services.DefaultFeeSchedule()
	schedule.MinimumFee = money(t, "7.00")

	assert.Equal(t, "7.00", schedule.Fee(3.1, money(t, "5.00")).String())
	assert.Equal(t, "8.25", schedule.Fee(3.1, money(t, "8.00")).String())
}

func TestFeeSchedule_ETAMinutes(t *testing.T) {
	schedule := services.DefaultFeeSchedule()

	assert.Equal(t, 50, schedule.ETAMinutes(1800))
	assert.Equal(t, 22, schedule.ETAMinutes(61))
	assert.Equal(t, 20, schedule.ETAMinutes(0))
	assert.Equal(t, 20, schedule.ETAMinutes(-30))
}
