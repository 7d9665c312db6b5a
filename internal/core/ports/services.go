package ports

import (
	"context"
	"time"

	"campus-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// ---- Ledger ----

// TransferRequest moves funds between two member wallets.
type TransferRequest struct {
	SenderID          uuid.UUID
	ReceiverStudentID string
	Amount            domain.Money
	Description       string
}

// PaymentRequest pays a merchant. The student bears exactly Amount; the
// merchant is credited Amount minus commission.
type PaymentRequest struct {
	StudentID  uuid.UUID // payer
	MerchantID uuid.UUID
	Amount     domain.Money
	Category   string
}

// LoadRequest credits a wallet from outside the ledger (campus card top-up).
type LoadRequest struct {
	UserID uuid.UUID
	Amount domain.Money
	Source string // recorded in the description, e.g. "card"
}

// TransferResult is the committed outcome of a ledger operation.
type TransferResult struct {
	Transaction      *domain.Transaction
	NewBalance       domain.Money
	CounterpartyName string
}

// LedgerService executes the money-moving operations. Every method either
// commits the full double entry or leaves no trace.
type LedgerService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	MerchantPayment(ctx context.Context, req PaymentRequest) (*TransferResult, error)
	Load(ctx context.Context, req LoadRequest) (*TransferResult, error)
	// Reverse posts a compensating refund for a completed transfer or
	// payment and marks the original reversed. Admin only.
	Reverse(ctx context.Context, transactionID uuid.UUID, reason string) (*TransferResult, error)
}

// ---- Auth ----

// RegisterRequest creates a user plus an empty wallet.
type RegisterRequest struct {
	StudentID string
	Name      string
	Email     string
	PIN       string
	Role      domain.Role

	// Merchant-only fields, ignored for students.
	BusinessName string
	BusinessType string
	Location     string
}

// AuthResult is a successful login or registration.
type AuthResult struct {
	User  *domain.User
	Token string
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, studentID, pin string) (*AuthResult, error)
}

// TokenClaims is what the middleware extracts from a bearer token.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// HashService hashes and verifies wallet PINs.
type HashService interface {
	Hash(pin string) (string, error)
	Verify(pin, encodedHash string) (bool, error)
}

// ---- Reporting ----

// WalletSummary is the wallet view returned to its owner.
type WalletSummary struct {
	Wallet         *domain.Wallet
	DailySpent     domain.Money
	DailyRemaining domain.Money
	TodayReceived  domain.Money
}

// SalesReport is a merchant's revenue view over a period.
type SalesReport struct {
	From       time.Time
	To         time.Time
	TotalSales domain.Money
	TotalFees  domain.Money
	NetRevenue domain.Money
	Count      int64
}

// SystemStats is the admin dashboard aggregate.
type SystemStats struct {
	Users        *UserStats
	Transactions *SystemTxStats
	TotalBalance domain.Money
}

type ReportingService interface {
	WalletSummary(ctx context.Context, userID uuid.UUID) (*WalletSummary, error)
	History(ctx context.Context, userID uuid.UUID, params TransactionListParams) ([]domain.Transaction, int64, error)
	TransactionByReference(ctx context.Context, userID uuid.UUID, role domain.Role, reference string) (*domain.Transaction, error)
	Sales(ctx context.Context, merchantID uuid.UUID, from, to time.Time) (*SalesReport, error)
	SystemStats(ctx context.Context) (*SystemStats, error)
}

// ---- Admin ----

type AdminService interface {
	ListUsers(ctx context.Context, params UserListParams) ([]domain.User, int64, error)
	SetUserStatus(ctx context.Context, userID uuid.UUID, status domain.UserStatus) error
	SetWalletStatus(ctx context.Context, userID uuid.UUID, status domain.WalletStatus) error
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}
