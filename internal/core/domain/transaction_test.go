package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_Involves(t *testing.T) {
	sender, receiver, other := uuid.New(), uuid.New(), uuid.New()
	txn := &Transaction{SenderID: sender, ReceiverID: receiver}

	assert.True(t, txn.Involves(sender))
	assert.True(t, txn.Involves(receiver))
	assert.False(t, txn.Involves(other))
}

func TestTransaction_IsReversible(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		txType TransactionType
		status TransactionStatus
		want   bool
	}{
		{"completed transfer", TransactionTypeTransfer, TransactionStatusCompleted, true},
		{"completed payment", TransactionTypePayment, TransactionStatusCompleted, true},
		{"completed load", TransactionTypeLoad, TransactionStatusCompleted, false},
		{"completed refund", TransactionTypeRefund, TransactionStatusCompleted, false},
		{"already reversed", TransactionTypeTransfer, TransactionStatusReversed, false},
		{"failed transfer", TransactionTypeTransfer, TransactionStatusFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &Transaction{Type: tt.txType, Status: tt.status, CompletedAt: &now}
			assert.Equal(t, tt.want, txn.IsReversible())
		})
	}
}

func TestMerchantProfile_Commission(t *testing.T) {
	p := &MerchantProfile{CommissionRate: decimal.NewFromFloat(1.5)}
	assert.Equal(t, Money(23), p.Commission(1500))

	p = &MerchantProfile{CommissionRate: decimal.NewFromInt(2)}
	assert.Equal(t, Money(20), p.Commission(1000))
}
