package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	studentIDPattern = regexp.MustCompile(`^[A-Z0-9/-]{4,20}$`)
	pinPattern       = regexp.MustCompile(`^[0-9]{4,6}$`)
)

// defaultCommissionRate applies to merchants registered without an explicit
// rate (percent).
var defaultCommissionRate = decimal.NewFromFloat(1.5)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo          ports.UserRepository
	walletRepo        ports.WalletRepository
	hashSvc           ports.HashService
	tokenSvc          ports.TokenService
	defaultDailyLimit domain.Money
	log               zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	defaultDailyLimit domain.Money,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:          userRepo,
		walletRepo:        walletRepo,
		hashSvc:           hashSvc,
		tokenSvc:          tokenSvc,
		defaultDailyLimit: defaultDailyLimit,
		log:               log,
	}
}

// Register creates a user, an empty wallet and, for merchants, a profile,
// then issues a token.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResult, error) {
	studentID := strings.ToUpper(strings.TrimSpace(req.StudentID))
	if !studentIDPattern.MatchString(studentID) {
		return nil, apperror.Validation("Student ID must be 4-20 characters (letters, digits, / or -)")
	}
	if !pinPattern.MatchString(req.PIN) {
		return nil, apperror.Validation("PIN must be 4-6 digits")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperror.Validation("Name is required")
	}
	role := req.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if role != domain.RoleStudent && role != domain.RoleMerchant {
		return nil, apperror.Validation("Role must be student or merchant")
	}
	if role == domain.RoleMerchant && strings.TrimSpace(req.BusinessName) == "" {
		return nil, apperror.Validation("Business name is required for merchants")
	}

	existing, err := s.userRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check student id: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrStudentIDExists()
	}

	pinHash, err := s.hashSvc.Hash(req.PIN)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:         uuid.New(),
		StudentID:  studentID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		PINHash:    pinHash,
		Role:       role,
		Status:     domain.UserStatusActive,
		DailyLimit: s.defaultDailyLimit,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    user.ID,
		Balance:   0,
		Currency:  "NGN",
		Status:    domain.WalletStatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	if role == domain.RoleMerchant {
		profile := &domain.MerchantProfile{
			ID:             uuid.New(),
			UserID:         user.ID,
			BusinessName:   strings.TrimSpace(req.BusinessName),
			BusinessType:   strings.TrimSpace(req.BusinessType),
			Location:       strings.TrimSpace(req.Location),
			CommissionRate: defaultCommissionRate,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.userRepo.CreateMerchantProfile(ctx, profile); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create merchant profile: %w", err))
		}
	}

	token, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("student_id", user.StudentID).
		Str("role", string(user.Role)).
		Msg("user registered")

	return &ports.AuthResult{User: user, Token: token}, nil
}

// Login verifies the student ID + PIN pair and issues a token. Lookup and
// verification failures are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, studentID, pin string) (*ports.AuthResult, error) {
	user, err := s.userRepo.GetByStudentID(ctx, strings.ToUpper(strings.TrimSpace(studentID)))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(pin, user.PINHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify pin: %w", err))
	}
	if !ok {
		return nil, apperror.ErrInvalidCredentials()
	}

	if !user.IsActive() {
		return nil, apperror.ErrAccountSuspended()
	}

	token, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Msg("user logged in")

	return &ports.AuthResult{User: user, Token: token}, nil
}
