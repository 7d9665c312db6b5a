package integration

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore is a single in-memory database shared by the in-memory repos.
// Row locks on wallets emulate SELECT ... FOR UPDATE: a memTx holds them
// until Commit or Rollback, and all writes are buffered and applied
// atomically at Commit, so a rejected operation truly leaves no trace.
type memStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*domain.User
	profiles map[uuid.UUID]*domain.MerchantProfile
	wallets  map[uuid.UUID]*domain.Wallet // by user ID
	walletIx map[uuid.UUID]uuid.UUID      // wallet ID -> user ID
	txns     []*domain.Transaction
	refs     map[string]*domain.Transaction

	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex // per wallet row, by user ID
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*domain.User),
		profiles: make(map[uuid.UUID]*domain.MerchantProfile),
		wallets:  make(map[uuid.UUID]*domain.Wallet),
		walletIx: make(map[uuid.UUID]uuid.UUID),
		refs:     make(map[string]*domain.Transaction),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memStore) rowLock(userID uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// memTx implements the pgx.Tx surface the repos use. Balance, status and
// transaction-log writes are buffered until Commit.
type memTx struct {
	pgx.Tx
	store *memStore
	held  []*sync.Mutex

	balanceWrites map[uuid.UUID]domain.Money // by wallet ID
	statusWrites  map[uuid.UUID]domain.TransactionStatus
	created       []*domain.Transaction
	done          bool
}

func newMemTx(store *memStore) *memTx {
	return &memTx{
		store:         store,
		balanceWrites: make(map[uuid.UUID]domain.Money),
		statusWrites:  make(map[uuid.UUID]domain.TransactionStatus),
	}
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return errors.New("tx already closed")
	}
	t.store.mu.Lock()
	for _, txn := range t.created {
		if _, exists := t.store.refs[txn.Reference]; exists {
			t.store.mu.Unlock()
			t.release()
			return apperror.RetryableError(errors.New("duplicate reference"))
		}
	}
	for walletID, balance := range t.balanceWrites {
		userID := t.store.walletIx[walletID]
		if w, ok := t.store.wallets[userID]; ok {
			w.Balance = balance
			w.Version++
			w.UpdatedAt = time.Now().UTC()
		}
	}
	for id, status := range t.statusWrites {
		for _, txn := range t.store.txns {
			if txn.ID == id {
				txn.Status = status
			}
		}
	}
	for _, txn := range t.created {
		cp := *txn
		t.store.txns = append(t.store.txns, &cp)
		t.store.refs[cp.Reference] = &cp
	}
	t.store.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *memTx) release() {
	t.done = true
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

// --- Transactor ---

type memTransactor struct {
	store *memStore
}

func (tr *memTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return newMemTx(tr.store), nil
}

// --- User repo ---

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.StudentID == u.StudentID {
			return errors.New("student id already exists")
		}
	}
	cp := *u
	r.store.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByStudentID(_ context.Context, studentID string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.StudentID == studentID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.UserStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memUserRepo) List(_ context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var all []domain.User
	for _, u := range r.store.users {
		if params.Role != nil && u.Role != *params.Role {
			continue
		}
		if params.Status != nil && u.Status != *params.Status {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(u.Name+u.StudentID+u.Email), strings.ToLower(params.Search)) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, params.Page, params.PageSize)
}

func (r *memUserRepo) GetStats(_ context.Context) (*ports.UserStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	stats := &ports.UserStats{}
	for _, u := range r.store.users {
		stats.Total++
		switch u.Role {
		case domain.RoleStudent:
			stats.Students++
		case domain.RoleMerchant:
			stats.Merchants++
		}
		switch u.Status {
		case domain.UserStatusActive:
			stats.Active++
		case domain.UserStatusSuspended:
			stats.Suspended++
		}
	}
	return stats, nil
}

func (r *memUserRepo) CreateMerchantProfile(_ context.Context, p *domain.MerchantProfile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *p
	r.store.profiles[p.UserID] = &cp
	return nil
}

func (r *memUserRepo) GetMerchantProfile(_ context.Context, userID uuid.UUID) (*domain.MerchantProfile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// --- Wallet repo ---

type memWalletRepo struct {
	store *memStore
}

func (r *memWalletRepo) Create(_ context.Context, w *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *w
	r.store.wallets[w.UserID] = &cp
	r.store.walletIx[w.ID] = w.UserID
	return nil
}

func (r *memWalletRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	w, ok := r.store.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// GetByUserIDForUpdate takes the wallet's row lock, holding it until the
// transaction commits or rolls back. Callers lock in ascending user-id
// order, so this cannot deadlock.
func (r *memWalletRepo) GetByUserIDForUpdate(_ context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	mtx, ok := tx.(*memTx)
	if !ok {
		return nil, errors.New("not a memTx")
	}
	r.store.mu.RLock()
	_, exists := r.store.wallets[userID]
	r.store.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	lock := r.store.rowLock(userID)
	lock.Lock()
	mtx.held = append(mtx.held, lock)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	cp := *r.store.wallets[userID]
	return &cp, nil
}

func (r *memWalletRepo) UpdateBalance(_ context.Context, tx pgx.Tx, walletID uuid.UUID, balance domain.Money) error {
	mtx, ok := tx.(*memTx)
	if !ok {
		return errors.New("not a memTx")
	}
	mtx.balanceWrites[walletID] = balance
	return nil
}

func (r *memWalletRepo) UpdateStatus(_ context.Context, userID uuid.UUID, status domain.WalletStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[userID]
	if !ok {
		return errors.New("wallet not found")
	}
	w.Status = status
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memWalletRepo) SumBalances(_ context.Context) (domain.Money, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var total domain.Money
	for _, w := range r.store.wallets {
		total = total.Add(w.Balance)
	}
	return total, nil
}

// --- Transaction repo ---

type memTransactionRepo struct {
	store *memStore
}

func (r *memTransactionRepo) Create(_ context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mtx, ok := tx.(*memTx)
	if !ok {
		return errors.New("not a memTx")
	}
	r.store.mu.RLock()
	_, dup := r.store.refs[t.Reference]
	r.store.mu.RUnlock()
	if dup {
		return apperror.RetryableError(errors.New("duplicate reference"))
	}
	cp := *t
	mtx.created = append(mtx.created, &cp)
	return nil
}

func (r *memTransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.txns {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTransactionRepo) GetByReference(_ context.Context, reference string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.refs[reference]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memTransactionRepo) UpdateStatus(_ context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	mtx, ok := tx.(*memTx)
	if !ok {
		return errors.New("not a memTx")
	}
	mtx.statusWrites[id] = status
	return nil
}

// countsTowardSpend mirrors the outgoing-spend filter: completed transfers
// and payments only.
func countsTowardSpend(t *domain.Transaction, senderID uuid.UUID, since time.Time) bool {
	if t.SenderID != senderID || t.Status != domain.TransactionStatusCompleted {
		return false
	}
	if t.Type != domain.TransactionTypeTransfer && t.Type != domain.TransactionTypePayment {
		return false
	}
	return t.CompletedAt != nil && !t.CompletedAt.Before(since)
}

func (r *memTransactionRepo) CountSentSince(_ context.Context, _ pgx.Tx, senderID uuid.UUID, since time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, t := range r.store.txns {
		if countsTowardSpend(t, senderID, since) {
			count++
		}
	}
	return count, nil
}

func (r *memTransactionRepo) SumSentSince(_ context.Context, _ pgx.Tx, senderID uuid.UUID, since time.Time) (domain.Money, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var sum domain.Money
	for _, t := range r.store.txns {
		if countsTowardSpend(t, senderID, since) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (r *memTransactionRepo) ListForUser(_ context.Context, userID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var all []domain.Transaction
	for _, t := range r.store.txns {
		if !t.Involves(userID) {
			continue
		}
		if matchesTxFilter(t, params) {
			all = append(all, *t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, params.Page, params.PageSize)
}

func (r *memTransactionRepo) List(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var all []domain.Transaction
	for _, t := range r.store.txns {
		if matchesTxFilter(t, params) {
			all = append(all, *t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, params.Page, params.PageSize)
}

func matchesTxFilter(t *domain.Transaction, params ports.TransactionListParams) bool {
	if params.Type != nil && t.Type != *params.Type {
		return false
	}
	if params.Status != nil && t.Status != *params.Status {
		return false
	}
	if params.From != nil && t.CreatedAt.Before(*params.From) {
		return false
	}
	if params.To != nil && !t.CreatedAt.Before(*params.To) {
		return false
	}
	return true
}

func (r *memTransactionRepo) SumSent(ctx context.Context, senderID uuid.UUID, since time.Time) (domain.Money, error) {
	return r.SumSentSince(ctx, nil, senderID, since)
}

func (r *memTransactionRepo) SumReceived(_ context.Context, receiverID uuid.UUID, since time.Time) (domain.Money, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var sum domain.Money
	for _, t := range r.store.txns {
		if t.ReceiverID != receiverID || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if t.CompletedAt == nil || t.CompletedAt.Before(since) {
			continue
		}
		credit := t.Amount
		if t.Type == domain.TransactionTypePayment {
			credit = credit.Sub(t.Fee)
		}
		sum = sum.Add(credit)
	}
	return sum, nil
}

func (r *memTransactionRepo) SalesSummary(_ context.Context, merchantID uuid.UUID, from, to time.Time) (*ports.SalesSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	summary := &ports.SalesSummary{}
	for _, t := range r.store.txns {
		if t.ReceiverID != merchantID || t.Type != domain.TransactionTypePayment || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if t.CompletedAt == nil || t.CompletedAt.Before(from) || !t.CompletedAt.Before(to) {
			continue
		}
		summary.TotalSales = summary.TotalSales.Add(t.Amount)
		summary.TotalFees = summary.TotalFees.Add(t.Fee)
		summary.Count++
	}
	return summary, nil
}

func (r *memTransactionRepo) GetSystemStats(_ context.Context, todayStart time.Time) (*ports.SystemTxStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	stats := &ports.SystemTxStats{}
	for _, t := range r.store.txns {
		stats.Total++
		if t.CreatedAt.Before(todayStart) {
			continue
		}
		stats.Today++
		if t.Status == domain.TransactionStatusCompleted {
			stats.TodayVolume = stats.TodayVolume.Add(t.Amount)
		}
	}
	return stats, nil
}

func paginate[T any](all []T, page, pageSize int) ([]T, int64, error) {
	total := int64(len(all))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []T{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}
