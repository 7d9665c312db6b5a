package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletStatus is the administrative state of a wallet.
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "active"
	WalletStatusFrozen WalletStatus = "frozen"
)

// Wallet holds a single user's balance. The balance is mutated only by the
// ledger engine inside a locked transaction scope; Version is bumped on
// every balance write.
type Wallet struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Balance   Money        `json:"balance"`
	Currency  string       `json:"currency"`
	Status    WalletStatus `json:"status"`
	Version   int64        `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsFrozen reports whether the wallet rejects credits and debits.
func (w *Wallet) IsFrozen() bool {
	return w.Status == WalletStatusFrozen
}
