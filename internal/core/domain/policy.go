package domain

import (
	"time"

	"campus-wallet/pkg/apperror"
)

// FeePolicy grants a daily quota of free outgoing transactions, then a flat
// fee. Pure: the caller supplies the count of completed same-day outgoing
// transfer/payment transactions (loads never consume quota).
type FeePolicy struct {
	FreeDailyTransactions int
	Fee                   Money
}

// FeeFor returns the fee for the next transaction given how many the sender
// has already completed today.
func (p FeePolicy) FeeFor(completedToday int) Money {
	if completedToday < p.FreeDailyTransactions {
		return 0
	}
	return p.Fee
}

// LimitPolicy validates a transfer amount against per-transaction bounds,
// the sender's balance and the rolling daily cap. Checks run in order and
// the first failing rule wins.
type LimitPolicy struct {
	MinAmount     Money
	MaxAmount     Money
	LoadMinAmount Money
}

// Validate checks an outgoing transfer or payment. fee is the charge the
// sender will bear on top of amount; dailySpent is the sum of completed
// outgoing transfer/payment amounts since the start of the calendar day,
// fees excluded.
func (p LimitPolicy) Validate(amount, fee, balance, dailyLimit, dailySpent Money) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if amount < p.MinAmount {
		return apperror.ErrBelowMinimum(int64(p.MinAmount))
	}
	if amount > p.MaxAmount {
		return apperror.ErrAboveMaximum(int64(p.MaxAmount))
	}
	if amount.Add(fee) > balance {
		return apperror.ErrInsufficientBalance()
	}
	if dailySpent.Add(amount) > dailyLimit {
		return apperror.ErrDailyLimitExceeded()
	}
	return nil
}

// ValidateLoad checks a system credit, which has its own lower minimum and
// no balance or daily-limit constraints.
func (p LimitPolicy) ValidateLoad(amount Money) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if amount < p.LoadMinAmount {
		return apperror.ErrBelowMinimum(int64(p.LoadMinAmount))
	}
	return nil
}

// StartOfDay returns local midnight for t in the given zone. Daily windows
// (fee quota, spending cap) are anchored here.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
