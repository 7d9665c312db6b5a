package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the kind of money movement.
type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypePayment  TransactionType = "payment"
	TransactionTypeLoad     TransactionType = "load"
	TransactionTypeRefund   TransactionType = "refund"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// Transaction is an immutable record of one money movement. Once completed,
// sender/receiver/amount/fee never change; a reversal appends a counter
// transaction of kind refund instead of editing the original.
type Transaction struct {
	ID           uuid.UUID         `json:"id"`
	Reference    string            `json:"reference"`
	SenderID     uuid.UUID         `json:"sender_id"`
	SenderName   string            `json:"sender_name"`
	ReceiverID   uuid.UUID         `json:"receiver_id"`
	ReceiverName string            `json:"receiver_name"`
	Amount       Money             `json:"amount"`
	Fee          Money             `json:"fee"`
	Type         TransactionType   `json:"type"`
	Status       TransactionStatus `json:"status"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Involves reports whether the user is the sender or receiver.
func (t *Transaction) Involves(userID uuid.UUID) bool {
	return t.SenderID == userID || t.ReceiverID == userID
}

// IsReversible reports whether an admin may reverse this transaction.
func (t *Transaction) IsReversible() bool {
	if t.Status != TransactionStatusCompleted {
		return false
	}
	return t.Type == TransactionTypeTransfer || t.Type == TransactionTypePayment
}
