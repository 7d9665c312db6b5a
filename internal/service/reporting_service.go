package service

import (
	"context"
	"fmt"
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReportingServiceImpl implements ports.ReportingService: read-only views
// over the wallet store and transaction log.
type ReportingServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	loc        *time.Location
	log        zerolog.Logger
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	loc *time.Location,
	log zerolog.Logger,
) *ReportingServiceImpl {
	return &ReportingServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		loc:        loc,
		log:        log,
	}
}

// WalletSummary returns the owner's balance plus today's activity. The
// daily aggregates are unlocked reads; a transfer racing the summary may
// shift them by one transaction, which is fine for a dashboard.
func (s *ReportingServiceImpl) WalletSummary(ctx context.Context, userID uuid.UUID) (*ports.WalletSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	dayStart := domain.StartOfDay(time.Now(), s.loc)
	spent, err := s.txRepo.SumSent(ctx, userID, dayStart)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum daily spend: %w", err))
	}
	received, err := s.txRepo.SumReceived(ctx, userID, dayStart)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum daily received: %w", err))
	}

	remaining := user.DailyLimit.Sub(spent)
	if remaining < 0 {
		remaining = 0
	}

	return &ports.WalletSummary{
		Wallet:         wallet,
		DailySpent:     spent,
		DailyRemaining: remaining,
		TodayReceived:  received,
	}, nil
}

// History returns a page of the user's transactions, newest first.
func (s *ReportingServiceImpl) History(ctx context.Context, userID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	txs, total, err := s.txRepo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txs, total, nil
}

// TransactionByReference resolves a reference for a party to the
// transaction. Admins may look up any transaction.
func (s *ReportingServiceImpl) TransactionByReference(ctx context.Context, userID uuid.UUID, role domain.Role, reference string) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	if role != domain.RoleAdmin && !txn.Involves(userID) {
		return nil, apperror.ErrForbidden()
	}
	return txn, nil
}

// Sales aggregates a merchant's completed incoming payments over [from, to).
func (s *ReportingServiceImpl) Sales(ctx context.Context, merchantID uuid.UUID, from, to time.Time) (*ports.SalesReport, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = domain.StartOfDay(to, s.loc)
	}
	if !from.Before(to) {
		return nil, apperror.Validation("Report period start must be before its end")
	}

	summary, err := s.txRepo.SalesSummary(ctx, merchantID, from, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sales summary: %w", err))
	}

	return &ports.SalesReport{
		From:       from,
		To:         to,
		TotalSales: summary.TotalSales,
		TotalFees:  summary.TotalFees,
		NetRevenue: summary.NetRevenue(),
		Count:      summary.Count,
	}, nil
}

// SystemStats assembles the admin dashboard aggregate.
func (s *ReportingServiceImpl) SystemStats(ctx context.Context) (*ports.SystemStats, error) {
	userStats, err := s.userRepo.GetStats(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("user stats: %w", err))
	}

	dayStart := domain.StartOfDay(time.Now(), s.loc)
	txStats, err := s.txRepo.GetSystemStats(ctx, dayStart)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transaction stats: %w", err))
	}

	totalBalance, err := s.walletRepo.SumBalances(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum balances: %w", err))
	}

	return &ports.SystemStats{
		Users:        userStats,
		Transactions: txStats,
		TotalBalance: totalBalance,
	}, nil
}
