package postgres

import (
	"context"
	"errors"
	"fmt"

	"campus-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, user_id, balance, currency, status, version, created_at, updated_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.UserID, &w.Balance, &w.Currency,
		&w.Status, &w.Version, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Create inserts a new wallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, balance, currency, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Balance, w.Currency,
		w.Status, w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserID fetches a wallet by owner (non-locking read). Returns
// (nil, nil) when absent.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// GetByUserIDForUpdate fetches a wallet with a pessimistic row lock.
// MUST be called within a transaction.
func (r *WalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateBalance sets a wallet's balance and bumps its version within a
// transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance domain.Money) error {
	query := `UPDATE wallets SET balance = $1, version = version + 1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// UpdateStatus freezes or unfreezes a wallet.
func (r *WalletRepo) UpdateStatus(ctx context.Context, userID uuid.UUID, status domain.WalletStatus) error {
	query := `UPDATE wallets SET status = $1, updated_at = NOW() WHERE user_id = $2`

	tag, err := r.pool.Exec(ctx, query, status, userID)
	if err != nil {
		return fmt.Errorf("update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found for user: %s", userID)
	}
	return nil
}

// SumBalances returns the total money held across all wallets.
func (r *WalletRepo) SumBalances(ctx context.Context) (domain.Money, error) {
	query := `SELECT COALESCE(SUM(balance), 0) FROM wallets`

	var total domain.Money
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum wallet balances: %w", err)
	}
	return total, nil
}
