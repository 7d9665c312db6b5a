package ports

import (
	"context"
	"time"

	"campus-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository is the read-mostly user/merchant directory. The ledger
// engine only ever reads from it.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByStudentID(ctx context.Context, studentID string) (*domain.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error
	List(ctx context.Context, params UserListParams) ([]domain.User, int64, error)
	GetStats(ctx context.Context) (*UserStats, error)

	CreateMerchantProfile(ctx context.Context, profile *domain.MerchantProfile) error
	GetMerchantProfile(ctx context.Context, userID uuid.UUID) (*domain.MerchantProfile, error)
}

// UserListParams holds filters + pagination for the admin user listing.
type UserListParams struct {
	Role     *domain.Role
	Status   *domain.UserStatus
	Search   string // matches name, student id or email
	Page     int
	PageSize int
}

// UserStats holds directory counts for the admin dashboard.
type UserStats struct {
	Total     int64
	Students  int64
	Merchants int64
	Active    int64
	Suspended int64
}

// WalletRepository owns balance records. Methods taking pgx.Tx run inside a
// ledger lock scope; UpdateBalance bumps the wallet version.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	// GetByUserIDForUpdate acquires a row lock; must run inside a transaction.
	// Call sites lock wallets in ascending user-id order to avoid deadlock.
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance domain.Money) error
	UpdateStatus(ctx context.Context, userID uuid.UUID, status domain.WalletStatus) error
	SumBalances(ctx context.Context) (domain.Money, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// UpdateStatus exists solely for the reversal flow (completed -> reversed).
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error

	// In-scope aggregates, read under the sender's wallet lock so policy
	// checks and the commit are serialized. Only completed outgoing
	// transfer/payment rows count.
	CountSentSince(ctx context.Context, tx pgx.Tx, senderID uuid.UUID, since time.Time) (int, error)
	SumSentSince(ctx context.Context, tx pgx.Tx, senderID uuid.UUID, since time.Time) (domain.Money, error)

	// Reporting queries (unlocked reads).
	ListForUser(ctx context.Context, userID uuid.UUID, params TransactionListParams) ([]domain.Transaction, int64, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	SumSent(ctx context.Context, senderID uuid.UUID, since time.Time) (domain.Money, error)
	SumReceived(ctx context.Context, receiverID uuid.UUID, since time.Time) (domain.Money, error)
	SalesSummary(ctx context.Context, merchantID uuid.UUID, from, to time.Time) (*SalesSummary, error)
	GetSystemStats(ctx context.Context, todayStart time.Time) (*SystemTxStats, error)
}

// TransactionListParams holds filters + pagination for history listings,
// ordered newest-first.
type TransactionListParams struct {
	Type     *domain.TransactionType
	Status   *domain.TransactionStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// SalesSummary aggregates a merchant's completed incoming payments.
type SalesSummary struct {
	TotalSales domain.Money // gross amounts
	TotalFees  domain.Money // commissions retained by the platform
	Count      int64
}

// NetRevenue is what the merchant actually received.
func (s *SalesSummary) NetRevenue() domain.Money {
	return s.TotalSales.Sub(s.TotalFees)
}

// SystemTxStats aggregates platform-wide transaction activity.
type SystemTxStats struct {
	Total       int64
	Today       int64
	TodayVolume domain.Money // completed amounts only
}

// DBTransactor provides the transaction boundary for one ledger operation.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
