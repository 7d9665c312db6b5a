package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/internal/service"
	"campus-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerHarness drives the ledger service directly over the in-memory
// store, bypassing HTTP so concurrency tests are not throttled.
type ledgerHarness struct {
	store      *memStore
	walletRepo *memWalletRepo
	ledgerSvc  ports.LedgerService
}

func newLedgerHarness(t *testing.T) *ledgerHarness {
	t.Helper()

	store := newMemStore()
	userRepo := &memUserRepo{store: store}
	walletRepo := &memWalletRepo{store: store}
	txRepo := &memTransactionRepo{store: store}
	transactor := &memTransactor{store: store}

	limits := domain.LimitPolicy{MinAmount: 10, MaxAmount: 50000, LoadMinAmount: 100}
	// A large free quota keeps fees out of the arithmetic here.
	fees := domain.FeePolicy{FreeDailyTransactions: 1000, Fee: 5}

	ledgerSvc := service.NewLedgerService(userRepo, walletRepo, txRepo, transactor, limits, fees, time.UTC, nil, zerolog.Nop())
	return &ledgerHarness{store: store, walletRepo: walletRepo, ledgerSvc: ledgerSvc}
}

// seedMember plants a user with a funded wallet directly in the store.
func (h *ledgerHarness) seedMember(studentID, name string, balance domain.Money) uuid.UUID {
	id := uuid.New()
	now := time.Now().UTC()
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.users[id] = &domain.User{
		ID:         id,
		StudentID:  studentID,
		Name:       name,
		Role:       domain.RoleStudent,
		Status:     domain.UserStatusActive,
		DailyLimit: 50000,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	walletID := uuid.New()
	h.store.wallets[id] = &domain.Wallet{
		ID:        walletID,
		UserID:    id,
		Balance:   balance,
		Currency:  "NGN",
		Status:    domain.WalletStatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	h.store.walletIx[walletID] = id
	return id
}

func (h *ledgerHarness) balanceOf(t *testing.T, userID uuid.UUID) domain.Money {
	t.Helper()
	w, err := h.walletRepo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Balance
}

// Twenty concurrent transfers race a balance that only covers ten of them.
// Exactly ten must commit; the rest are rejected cleanly and no wallet ever
// goes negative.
func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	h := newLedgerHarness(t)
	aliceID := h.seedMember("CS-0001", "Alice Bello", 1000)
	bobID := h.seedMember("CS-0002", "Bob Eze", 0)

	const attempts = 20
	var (
		wg           sync.WaitGroup
		succeeded    atomic.Int64
		insufficient atomic.Int64
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ledgerSvc.Transfer(context.Background(), ports.TransferRequest{
				SenderID:          aliceID,
				ReceiverStudentID: "CS-0002",
				Amount:            100,
			})
			if err == nil {
				succeeded.Add(1)
				return
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == "insufficient-balance" {
				insufficient.Add(1)
				return
			}
			t.Errorf("unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), succeeded.Load())
	assert.Equal(t, int64(10), insufficient.Load())
	assert.Equal(t, domain.Money(0), h.balanceOf(t, aliceID))
	assert.Equal(t, domain.Money(1000), h.balanceOf(t, bobID))

	total, err := h.walletRepo.SumBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Money(1000), total)
}

// Transfers in both directions at once exercise the ascending lock order;
// the test completing at all proves there is no deadlock, and the balances
// prove nothing was lost.
func TestConcurrentBidirectionalTransfers(t *testing.T) {
	h := newLedgerHarness(t)
	aliceID := h.seedMember("CS-0001", "Alice Bello", 1000)
	bobID := h.seedMember("CS-0002", "Bob Eze", 1000)

	const perDirection = 25
	var wg sync.WaitGroup
	transfer := func(senderID uuid.UUID, receiverStudentID string) {
		defer wg.Done()
		_, err := h.ledgerSvc.Transfer(context.Background(), ports.TransferRequest{
			SenderID:          senderID,
			ReceiverStudentID: receiverStudentID,
			Amount:            10,
		})
		if err != nil {
			t.Errorf("transfer failed: %v", err)
		}
	}
	for i := 0; i < perDirection; i++ {
		wg.Add(2)
		go transfer(aliceID, "CS-0002")
		go transfer(bobID, "CS-0001")
	}
	wg.Wait()

	// Equal flows in both directions cancel out.
	assert.Equal(t, domain.Money(1000), h.balanceOf(t, aliceID))
	assert.Equal(t, domain.Money(1000), h.balanceOf(t, bobID))

	total, err := h.walletRepo.SumBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Money(2000), total)
}

// Concurrent loads against one wallet serialize on its row lock; every
// credit lands.
func TestConcurrentLoadsAllLand(t *testing.T) {
	h := newLedgerHarness(t)
	aliceID := h.seedMember("CS-0001", "Alice Bello", 0)

	const loads = 30
	var wg sync.WaitGroup
	for i := 0; i < loads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ledgerSvc.Load(context.Background(), ports.LoadRequest{
				UserID: aliceID,
				Amount: 100,
			})
			if err != nil {
				t.Errorf("load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.Money(3000), h.balanceOf(t, aliceID))
}
