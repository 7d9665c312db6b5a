package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, reference, sender_id, sender_name, receiver_id, receiver_name,
		amount, fee, type, status, description, category, completed_at, created_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Reference, &t.SenderID, &t.SenderName, &t.ReceiverID, &t.ReceiverName,
		&t.Amount, &t.Fee, &t.Type, &t.Status, &t.Description, &t.Category,
		&t.CompletedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create appends a transaction row inside the ledger transaction. A
// reference collision surfaces as a retryable error: the enclosing
// transaction rolls back without trace, so the caller may retry with a
// fresh reference.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, reference, sender_id, sender_name, receiver_id, receiver_name,
			amount, fee, type, status, description, category, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Reference, t.SenderID, t.SenderName, t.ReceiverID, t.ReceiverName,
		t.Amount, t.Fee, t.Type, t.Status, t.Description, t.Category,
		t.CompletedAt, t.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperror.RetryableError(fmt.Errorf("duplicate reference %s: %w", t.Reference, err))
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID. Returns (nil, nil) when absent.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// GetByReference fetches a transaction by its public reference. Returns
// (nil, nil) when absent.
func (r *TransactionRepo) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return t, nil
}

// UpdateStatus transitions a transaction's status inside a ledger
// transaction (reversal flow).
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	query := `UPDATE transactions SET status = $1 WHERE id = $2`

	tag, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// outgoingSpendFilter matches completed money the sender actually spent:
// transfers and merchant payments. Loads and refunds never count against
// quota or daily limit.
const outgoingSpendFilter = `sender_id = $1 AND status = 'completed' AND type IN ('transfer', 'payment') AND completed_at >= $2`

// CountSentSince counts the sender's completed outgoing transfers/payments
// since the given instant. Read under the sender's wallet lock.
func (r *TransactionRepo) CountSentSince(ctx context.Context, tx pgx.Tx, senderID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE ` + outgoingSpendFilter

	var n int
	if err := tx.QueryRow(ctx, query, senderID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sent since: %w", err)
	}
	return n, nil
}

// SumSentSince sums the sender's completed outgoing transfer/payment
// amounts (fees excluded) since the given instant. Read under the sender's
// wallet lock.
func (r *TransactionRepo) SumSentSince(ctx context.Context, tx pgx.Tx, senderID uuid.UUID, since time.Time) (domain.Money, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE ` + outgoingSpendFilter

	var total domain.Money
	if err := tx.QueryRow(ctx, query, senderID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum sent since: %w", err)
	}
	return total, nil
}

// SumSent is the unlocked variant of SumSentSince, used for reporting.
func (r *TransactionRepo) SumSent(ctx context.Context, senderID uuid.UUID, since time.Time) (domain.Money, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE ` + outgoingSpendFilter

	var total domain.Money
	if err := r.pool.QueryRow(ctx, query, senderID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum sent: %w", err)
	}
	return total, nil
}

// SumReceived sums completed credits to a user since the given instant.
// Payment receivers are credited net of commission; everyone else gets the
// full amount.
func (r *TransactionRepo) SumReceived(ctx context.Context, receiverID uuid.UUID, since time.Time) (domain.Money, error) {
	query := `SELECT COALESCE(SUM(amount - CASE WHEN type = 'payment' THEN fee ELSE 0 END), 0) FROM transactions
		WHERE receiver_id = $1 AND status = 'completed' AND completed_at >= $2`

	var total domain.Money
	if err := r.pool.QueryRow(ctx, query, receiverID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum received: %w", err)
	}
	return total, nil
}

// ListForUser returns a page of the user's transactions (either direction),
// newest first, plus the unpaged total.
func (r *TransactionRepo) ListForUser(ctx context.Context, userID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	where, args := buildTxFilter(params, &userID)
	return r.listPage(ctx, where, args, params)
}

// List returns a page of all transactions, newest first (admin view).
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	where, args := buildTxFilter(params, nil)
	return r.listPage(ctx, where, args, params)
}

func (r *TransactionRepo) listPage(ctx context.Context, where string, args []any, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit, offset := pageBounds(params.Page, params.PageSize)
	query := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID, &t.Reference, &t.SenderID, &t.SenderName, &t.ReceiverID, &t.ReceiverName,
			&t.Amount, &t.Fee, &t.Type, &t.Status, &t.Description, &t.Category,
			&t.CompletedAt, &t.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, total, nil
}

func buildTxFilter(params ports.TransactionListParams, userID *uuid.UUID) (string, []any) {
	var conds []string
	var args []any
	if userID != nil {
		args = append(args, *userID)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(sender_id = $%d OR receiver_id = $%d)", n, n))
	}
	if params.Type != nil {
		args = append(args, *params.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SalesSummary aggregates a merchant's completed incoming payments over
// [from, to).
func (r *TransactionRepo) SalesSummary(ctx context.Context, merchantID uuid.UUID, from, to time.Time) (*ports.SalesSummary, error) {
	query := `SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(fee), 0), COUNT(*)
		FROM transactions
		WHERE receiver_id = $1 AND type = 'payment' AND status = 'completed'
		  AND completed_at >= $2 AND completed_at < $3`

	s := &ports.SalesSummary{}
	if err := r.pool.QueryRow(ctx, query, merchantID, from, to).Scan(&s.TotalSales, &s.TotalFees, &s.Count); err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}
	return s, nil
}

// GetSystemStats aggregates platform-wide transaction activity.
func (r *TransactionRepo) GetSystemStats(ctx context.Context, todayStart time.Time) (*ports.SystemTxStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE created_at >= $1),
		COALESCE(SUM(amount) FILTER (WHERE status = 'completed' AND completed_at >= $1), 0)
	FROM transactions`

	s := &ports.SystemTxStats{}
	if err := r.pool.QueryRow(ctx, query, todayStart).Scan(&s.Total, &s.Today, &s.TodayVolume); err != nil {
		return nil, fmt.Errorf("system transaction stats: %w", err)
	}
	return s, nil
}
