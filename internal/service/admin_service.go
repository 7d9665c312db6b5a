package service

import (
	"context"
	"fmt"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminServiceImpl implements ports.AdminService.
type AdminServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	log        zerolog.Logger
}

// NewAdminService creates a new AdminServiceImpl.
func NewAdminService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	log zerolog.Logger,
) *AdminServiceImpl {
	return &AdminServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		log:        log,
	}
}

// ListUsers returns a page of the user directory.
func (s *AdminServiceImpl) ListUsers(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list users: %w", err))
	}
	return users, total, nil
}

// SetUserStatus suspends, reactivates or closes an account.
func (s *AdminServiceImpl) SetUserStatus(ctx context.Context, userID uuid.UUID, status domain.UserStatus) error {
	switch status {
	case domain.UserStatusActive, domain.UserStatusSuspended, domain.UserStatusClosed:
	default:
		return apperror.Validation("Status must be active, suspended or closed")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lookup user: %w", err))
	}
	if user == nil {
		return apperror.ErrUserNotFound()
	}
	if user.Role == domain.RoleAdmin {
		return apperror.ErrForbidden()
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return apperror.InternalError(fmt.Errorf("update user status: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("status", string(status)).
		Msg("user status changed")
	return nil
}

// SetWalletStatus freezes or unfreezes a wallet.
func (s *AdminServiceImpl) SetWalletStatus(ctx context.Context, userID uuid.UUID, status domain.WalletStatus) error {
	switch status {
	case domain.WalletStatusActive, domain.WalletStatusFrozen:
	default:
		return apperror.Validation("Status must be active or frozen")
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lookup wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrWalletNotFound()
	}

	if err := s.walletRepo.UpdateStatus(ctx, userID, status); err != nil {
		return apperror.InternalError(fmt.Errorf("update wallet status: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("status", string(status)).
		Msg("wallet status changed")
	return nil
}

// ListTransactions returns a page of the full transaction log.
func (s *AdminServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	txs, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txs, total, nil
}
