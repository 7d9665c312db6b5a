package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/internal/obs"
	"campus-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService. Every operation runs as
// one database transaction: lock the involved wallets, validate against the
// policies, move the money and append the transaction record, then commit.
// A rejection anywhere rolls the whole thing back and leaves no trace.
type LedgerServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	limits     domain.LimitPolicy
	fees       domain.FeePolicy
	loc        *time.Location
	metrics    *obs.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	limits domain.LimitPolicy,
	fees domain.FeePolicy,
	loc *time.Location,
	metrics *obs.Metrics,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		limits:     limits,
		fees:       fees,
		loc:        loc,
		metrics:    metrics,
		log:        log,
		now:        time.Now,
	}
}

// Transfer moves funds between two member wallets. The sender is debited
// amount plus the tiered fee; the receiver is credited the full amount; the
// fee is retained by the platform.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (result *ports.TransferResult, err error) {
	defer s.observe("transfer", req.Amount, s.now(), &result, &err)

	sender, err := s.activeUser(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}

	receiver, err := s.userRepo.GetByStudentID(ctx, req.ReceiverStudentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup receiver: %w", err))
	}
	if receiver == nil {
		return nil, apperror.ErrReceiverNotFound()
	}
	if receiver.ID == sender.ID {
		return nil, apperror.ErrSelfTransfer()
	}
	if !receiver.IsActive() {
		return nil, apperror.ErrReceiverInactive()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	senderWallet, receiverWallet, err := s.lockPair(ctx, dbTx, sender.ID, receiver.ID)
	if err != nil {
		return nil, err
	}
	if senderWallet.IsFrozen() || receiverWallet.IsFrozen() {
		return nil, apperror.ErrWalletFrozen()
	}

	fee, dailySpent, err := s.senderDayState(ctx, dbTx, sender.ID)
	if err != nil {
		return nil, err
	}
	if err := s.limits.Validate(req.Amount, fee, senderWallet.Balance, sender.DailyLimit, dailySpent); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	txn := &domain.Transaction{
		ID:           uuid.New(),
		Reference:    domain.GenerateReference(),
		SenderID:     sender.ID,
		SenderName:   sender.Name,
		ReceiverID:   receiver.ID,
		ReceiverName: receiver.Name,
		Amount:       req.Amount,
		Fee:          fee,
		Type:         domain.TransactionTypeTransfer,
		Status:       domain.TransactionStatusCompleted,
		Description:  req.Description,
		Category:     "transfer",
		CompletedAt:  &now,
		CreatedAt:    now,
	}

	newSenderBalance := senderWallet.Balance.Sub(req.Amount.Add(fee))
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, senderWallet.ID, newSenderBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, receiverWallet.ID, receiverWallet.Balance.Add(req.Amount)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit receiver: %w", err))
	}
	if err := s.appendAndCommit(ctx, dbTx, txn); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("reference", txn.Reference).
		Str("sender_id", sender.ID.String()).
		Str("receiver_id", receiver.ID.String()).
		Int64("amount", int64(req.Amount)).
		Int64("fee", int64(fee)).
		Msg("transfer completed")

	return &ports.TransferResult{
		Transaction:      txn,
		NewBalance:       newSenderBalance,
		CounterpartyName: receiver.Name,
	}, nil
}

// MerchantPayment charges a student for a merchant sale. The student pays
// exactly the amount; the merchant is credited amount minus commission,
// which the platform retains.
func (s *LedgerServiceImpl) MerchantPayment(ctx context.Context, req ports.PaymentRequest) (result *ports.TransferResult, err error) {
	defer s.observe("payment", req.Amount, s.now(), &result, &err)

	student, err := s.activeUser(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student.Role != domain.RoleStudent {
		return nil, apperror.ErrForbidden()
	}

	merchant, err := s.userRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup merchant: %w", err))
	}
	if merchant == nil || merchant.Role != domain.RoleMerchant {
		return nil, apperror.ErrReceiverNotFound()
	}
	if !merchant.IsActive() {
		return nil, apperror.ErrReceiverInactive()
	}

	profile, err := s.userRepo.GetMerchantProfile(ctx, merchant.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup merchant profile: %w", err))
	}
	if profile == nil {
		return nil, apperror.ErrReceiverNotFound()
	}
	commission := profile.Commission(req.Amount)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	studentWallet, merchantWallet, err := s.lockPair(ctx, dbTx, student.ID, merchant.ID)
	if err != nil {
		return nil, err
	}
	if studentWallet.IsFrozen() || merchantWallet.IsFrozen() {
		return nil, apperror.ErrWalletFrozen()
	}

	// No flat fee on payments; the commission comes out of the merchant's
	// credit. The student's daily limit still applies.
	_, dailySpent, err := s.senderDayState(ctx, dbTx, student.ID)
	if err != nil {
		return nil, err
	}
	if err := s.limits.Validate(req.Amount, 0, studentWallet.Balance, student.DailyLimit, dailySpent); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	category := req.Category
	if category == "" {
		category = "purchase"
	}
	txn := &domain.Transaction{
		ID:           uuid.New(),
		Reference:    domain.GenerateReference(),
		SenderID:     student.ID,
		SenderName:   student.Name,
		ReceiverID:   merchant.ID,
		ReceiverName: profile.BusinessName,
		Amount:       req.Amount,
		Fee:          commission,
		Type:         domain.TransactionTypePayment,
		Status:       domain.TransactionStatusCompleted,
		Description:  "Payment to " + profile.BusinessName,
		Category:     category,
		CompletedAt:  &now,
		CreatedAt:    now,
	}

	newStudentBalance := studentWallet.Balance.Sub(req.Amount)
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, studentWallet.ID, newStudentBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit student: %w", err))
	}
	merchantCredit := req.Amount.Sub(commission)
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, merchantWallet.ID, merchantWallet.Balance.Add(merchantCredit)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit merchant: %w", err))
	}
	if err := s.appendAndCommit(ctx, dbTx, txn); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("reference", txn.Reference).
		Str("student_id", student.ID.String()).
		Str("merchant_id", merchant.ID.String()).
		Int64("amount", int64(req.Amount)).
		Int64("commission", int64(commission)).
		Msg("merchant payment completed")

	return &ports.TransferResult{
		Transaction:      txn,
		NewBalance:       newStudentBalance,
		CounterpartyName: profile.BusinessName,
	}, nil
}

// Load credits a wallet from outside the ledger. Single-wallet operation;
// the sender is the system sentinel and no fee applies.
func (s *LedgerServiceImpl) Load(ctx context.Context, req ports.LoadRequest) (result *ports.TransferResult, err error) {
	defer s.observe("load", req.Amount, s.now(), &result, &err)

	user, err := s.activeUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.limits.ValidateLoad(req.Amount); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.lockWallet(ctx, dbTx, user.ID)
	if err != nil {
		return nil, err
	}
	if wallet.IsFrozen() {
		return nil, apperror.ErrWalletFrozen()
	}

	now := s.now().UTC()
	source := req.Source
	if source == "" {
		source = "card"
	}
	txn := &domain.Transaction{
		ID:           uuid.New(),
		Reference:    domain.GenerateReference(),
		SenderID:     domain.SystemUserID,
		SenderName:   domain.SystemUserName,
		ReceiverID:   user.ID,
		ReceiverName: user.Name,
		Amount:       req.Amount,
		Fee:          0,
		Type:         domain.TransactionTypeLoad,
		Status:       domain.TransactionStatusCompleted,
		Description:  "Wallet load via " + source,
		Category:     "load",
		CompletedAt:  &now,
		CreatedAt:    now,
	}

	newBalance := wallet.Balance.Add(req.Amount)
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}
	if err := s.appendAndCommit(ctx, dbTx, txn); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("reference", txn.Reference).
		Str("user_id", user.ID.String()).
		Int64("amount", int64(req.Amount)).
		Msg("wallet loaded")

	return &ports.TransferResult{
		Transaction:      txn,
		NewBalance:       newBalance,
		CounterpartyName: domain.SystemUserName,
	}, nil
}

// Reverse unwinds a completed transfer or payment: the original movement is
// undone in full (the platform returns any retained fee or commission), a
// refund transaction is appended and the original is marked reversed.
func (s *LedgerServiceImpl) Reverse(ctx context.Context, transactionID uuid.UUID, reason string) (result *ports.TransferResult, err error) {
	defer s.observe("refund", 0, s.now(), &result, &err)

	original, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup transaction: %w", err))
	}
	if original == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	if !original.IsReversible() {
		return nil, apperror.ErrNotReversible()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	senderWallet, receiverWallet, err := s.lockPair(ctx, dbTx, original.SenderID, original.ReceiverID)
	if err != nil {
		return nil, err
	}

	// What each side originally moved. For a payment the merchant was
	// credited net of commission; the sender always gets back everything
	// they were debited, the platform surrendering its cut.
	senderRefund := original.Amount
	receiverDebit := original.Amount
	if original.Type == domain.TransactionTypeTransfer {
		senderRefund = original.Amount.Add(original.Fee)
	} else {
		receiverDebit = original.Amount.Sub(original.Fee)
	}
	if receiverWallet.Balance < receiverDebit {
		return nil, apperror.ErrInsufficientBalance()
	}

	now := s.now().UTC()
	if reason == "" {
		reason = "admin reversal"
	}
	refund := &domain.Transaction{
		ID:           uuid.New(),
		Reference:    domain.GenerateReference(),
		SenderID:     original.ReceiverID,
		SenderName:   original.ReceiverName,
		ReceiverID:   original.SenderID,
		ReceiverName: original.SenderName,
		Amount:       original.Amount,
		Fee:          0,
		Type:         domain.TransactionTypeRefund,
		Status:       domain.TransactionStatusCompleted,
		Description:  fmt.Sprintf("Reversal of %s: %s", original.Reference, reason),
		Category:     "refund",
		CompletedAt:  &now,
		CreatedAt:    now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, receiverWallet.ID, receiverWallet.Balance.Sub(receiverDebit)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit original receiver: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, senderWallet.ID, senderWallet.Balance.Add(senderRefund)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit original sender: %w", err))
	}
	if err := s.txRepo.UpdateStatus(ctx, dbTx, original.ID, domain.TransactionStatusReversed); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark original reversed: %w", err))
	}
	if err := s.appendAndCommit(ctx, dbTx, refund); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("reference", refund.Reference).
		Str("original_reference", original.Reference).
		Int64("amount", int64(original.Amount)).
		Msg("transaction reversed")

	return &ports.TransferResult{
		Transaction:      refund,
		NewBalance:       senderWallet.Balance.Add(senderRefund),
		CounterpartyName: original.SenderName,
	}, nil
}

// activeUser loads a user and checks they may transact.
func (s *LedgerServiceImpl) activeUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}
	if !user.IsActive() {
		return nil, apperror.ErrAccountSuspended()
	}
	return user, nil
}

// lockPair acquires row locks on both wallets in ascending user-id order,
// the global ordering that keeps concurrent operations deadlock-free. The
// wallets are returned in (first, second) argument order.
func (s *LedgerServiceImpl) lockPair(ctx context.Context, dbTx pgx.Tx, firstUserID, secondUserID uuid.UUID) (*domain.Wallet, *domain.Wallet, error) {
	a, b := firstUserID, secondUserID
	swapped := false
	if uuidLess(b, a) {
		a, b = b, a
		swapped = true
	}

	walletA, err := s.lockWallet(ctx, dbTx, a)
	if err != nil {
		return nil, nil, err
	}
	walletB, err := s.lockWallet(ctx, dbTx, b)
	if err != nil {
		return nil, nil, err
	}

	if swapped {
		return walletB, walletA, nil
	}
	return walletA, walletB, nil
}

func (s *LedgerServiceImpl) lockWallet(ctx context.Context, dbTx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return w, nil
}

// uuidLess orders UUIDs by their byte representation.
func uuidLess(a, b uuid.UUID) bool {
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// senderDayState reads, under the sender's wallet lock, the two same-day
// aggregates the policies need: the fee for the next transaction and the
// amount already spent today.
func (s *LedgerServiceImpl) senderDayState(ctx context.Context, dbTx pgx.Tx, senderID uuid.UUID) (domain.Money, domain.Money, error) {
	dayStart := domain.StartOfDay(s.now(), s.loc)

	count, err := s.txRepo.CountSentSince(ctx, dbTx, senderID, dayStart)
	if err != nil {
		return 0, 0, apperror.InternalError(fmt.Errorf("count today's transactions: %w", err))
	}
	spent, err := s.txRepo.SumSentSince(ctx, dbTx, senderID, dayStart)
	if err != nil {
		return 0, 0, apperror.InternalError(fmt.Errorf("sum today's spend: %w", err))
	}
	return s.fees.FeeFor(count), spent, nil
}

// appendAndCommit writes the transaction record and commits. The repository
// reports a reference collision as a retryable AppError, which passes
// through untouched; anything else becomes an internal error.
func (s *LedgerServiceImpl) appendAndCommit(ctx context.Context, dbTx pgx.Tx, txn *domain.Transaction) error {
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.InternalError(fmt.Errorf("append transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// observe emits the operation metric once the outcome is known.
func (s *LedgerServiceImpl) observe(opType string, amount domain.Money, start time.Time, result **ports.TransferResult, errp *error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	var fee domain.Money
	if *errp != nil {
		outcome = "internal"
		var appErr *apperror.AppError
		if errors.As(*errp, &appErr) {
			outcome = appErr.Code
		}
	} else if *result != nil && (*result).Transaction != nil {
		fee = (*result).Transaction.Fee
		amount = (*result).Transaction.Amount
	}
	s.metrics.ObserveLedgerOp(opType, outcome, int64(amount), int64(fee), time.Since(start))
}
