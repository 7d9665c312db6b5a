package postgres

import (
	"context"
	"testing"
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(senderID, receiverID uuid.UUID) *domain.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Transaction{
		ID:           uuid.New(),
		Reference:    "REF-TESTABC-000001",
		SenderID:     senderID,
		SenderName:   "Ada Obi",
		ReceiverID:   receiverID,
		ReceiverName: "Campus Cafe",
		Amount:       1500,
		Fee:          0,
		Type:         domain.TransactionTypePayment,
		Status:       domain.TransactionStatusCompleted,
		Description:  "Payment to Campus Cafe",
		Category:     "food",
		CompletedAt:  &now,
		CreatedAt:    now,
	}
}

func txCols() []string {
	return []string{"id", "reference", "sender_id", "sender_name", "receiver_id", "receiver_name",
		"amount", "fee", "type", "status", "description", "category", "completed_at", "created_at"}
}

func txRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(txCols()).AddRow(
		t.ID, t.Reference, t.SenderID, t.SenderName, t.ReceiverID, t.ReceiverName,
		t.Amount, t.Fee, t.Type, t.Status, t.Description, t.Category,
		t.CompletedAt, t.CreatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			txn.ID, txn.Reference, txn.SenderID, txn.SenderName, txn.ReceiverID, txn.ReceiverName,
			txn.Amount, txn.Fee, txn.Type, txn.Status, txn.Description, txn.Category,
			txn.CompletedAt, txn.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), uuid.New())

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE reference").
		WithArgs(txn.Reference).
		WillReturnRows(txRow(txn))

	result, err := repo.GetByReference(context.Background(), txn.Reference)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, domain.Money(1500), result.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByReference_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE reference").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(txCols()))

	result, err := repo.GetByReference(context.Background(), "REF-UNKNOWN-000000")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_CountSentSince(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	senderID := uuid.New()
	since := time.Now().UTC().Truncate(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions`).
		WithArgs(senderID, since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	n, err := repo.CountSentSince(context.Background(), tx, senderID, since)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SumSentSince(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	senderID := uuid.New()
	since := time.Now().UTC().Truncate(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions`).
		WithArgs(senderID, since).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(domain.Money(49000)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	total, err := repo.SumSentSince(context.Background(), tx, senderID, since)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(49000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(domain.TransactionStatusReversed, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), tx, id, domain.TransactionStatusReversed)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	userID := uuid.New()
	txn := newTestTransaction(userID, uuid.New())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM transactions .+ ORDER BY created_at DESC").
		WithArgs(userID, 20, 0).
		WillReturnRows(txRow(txn))

	txs, total, err := repo.ListForUser(context.Background(), userID, ports.TransactionListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txs, 1)
	assert.Equal(t, txn.Reference, txs[0].Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SalesSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	merchantID := uuid.New()
	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\), COALESCE\(SUM\(fee\), 0\), COUNT\(\*\)`).
		WithArgs(merchantID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"sales", "fees", "count"}).
			AddRow(domain.Money(10000), domain.Money(150), int64(7)))

	s, err := repo.SalesSummary(context.Background(), merchantID, from, to)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(10000), s.TotalSales)
	assert.Equal(t, domain.Money(150), s.TotalFees)
	assert.Equal(t, domain.Money(9850), s.NetRevenue())
	assert.Equal(t, int64(7), s.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
