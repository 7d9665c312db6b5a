package domain

import (
	"errors"
	"testing"
	"time"

	"campus-wallet/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reasonCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected an AppError, got %v", err)
	return appErr.Code
}

func TestFeePolicy_FeeFor(t *testing.T) {
	p := FeePolicy{FreeDailyTransactions: 5, Fee: 5}

	// 4 prior completed transactions today: the 5th is still free.
	assert.Equal(t, Money(0), p.FeeFor(4))
	// 5 prior: the 6th pays the flat fee.
	assert.Equal(t, Money(5), p.FeeFor(5))
	assert.Equal(t, Money(0), p.FeeFor(0))
	assert.Equal(t, Money(5), p.FeeFor(100))
}

func TestLimitPolicy_Validate(t *testing.T) {
	p := LimitPolicy{MinAmount: 10, MaxAmount: 50000, LoadMinAmount: 100}

	tests := []struct {
		name       string
		amount     Money
		fee        Money
		balance    Money
		dailyLimit Money
		dailySpent Money
		wantCode   string
	}{
		{name: "valid", amount: 2000, balance: 25000, dailyLimit: 50000},
		{name: "zero amount", amount: 0, balance: 25000, dailyLimit: 50000, wantCode: "invalid-amount"},
		{name: "below minimum", amount: 5, balance: 25000, dailyLimit: 50000, wantCode: "below-minimum"},
		{name: "above maximum", amount: 50001, balance: 100000, dailyLimit: 500000, wantCode: "above-maximum"},
		{name: "exactly minimum", amount: 10, balance: 25000, dailyLimit: 50000},
		{name: "exactly maximum", amount: 50000, balance: 100000, dailyLimit: 50000},
		{name: "insufficient balance", amount: 2000, balance: 1999, dailyLimit: 50000, wantCode: "insufficient-balance"},
		{name: "fee tips balance over", amount: 2000, fee: 5, balance: 2004, dailyLimit: 50000, wantCode: "insufficient-balance"},
		{name: "balance exactly amount plus fee", amount: 2000, fee: 5, balance: 2005, dailyLimit: 50000},
		{name: "daily limit exceeded", amount: 2000, balance: 25000, dailyLimit: 50000, dailySpent: 49000, wantCode: "daily-limit-exceeded"},
		{name: "daily limit exact", amount: 1000, balance: 25000, dailyLimit: 50000, dailySpent: 49000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.amount, tt.fee, tt.balance, tt.dailyLimit, tt.dailySpent)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, reasonCode(t, err))
		})
	}
}

func TestLimitPolicy_ValidateLoad(t *testing.T) {
	p := LimitPolicy{MinAmount: 10, MaxAmount: 50000, LoadMinAmount: 100}

	assert.NoError(t, p.ValidateLoad(100))
	assert.NoError(t, p.ValidateLoad(5000))

	err := p.ValidateLoad(50)
	require.Error(t, err)
	assert.Equal(t, "below-minimum", reasonCode(t, err))

	err = p.ValidateLoad(0)
	require.Error(t, err)
	assert.Equal(t, "invalid-amount", reasonCode(t, err))
}

func TestStartOfDay(t *testing.T) {
	lagos, err := time.LoadLocation("Africa/Lagos")
	require.NoError(t, err)

	// 23:30 UTC is 00:30 next day in Lagos (UTC+1); the window anchors to
	// Lagos midnight.
	instant := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	start := StartOfDay(instant, lagos)

	assert.Equal(t, 2026, start.Year())
	assert.Equal(t, time.March, start.Month())
	assert.Equal(t, 15, start.Day())
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, lagos, start.Location())
}
