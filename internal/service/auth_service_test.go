package service

import (
	"context"
	"testing"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc        *AuthServiceImpl
	userRepo   *mocks.MockUserRepository
	walletRepo *mocks.MockWalletRepository
	hashSvc    *mocks.MockHashService
	tokenSvc   *mocks.MockTokenService
	ctrl       *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		hashSvc:    mocks.NewMockHashService(ctrl),
		tokenSvc:   mocks.NewMockTokenService(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewAuthService(d.userRepo, d.walletRepo, d.hashSvc, d.tokenSvc, 50000, zerolog.Nop())
	return d
}

func TestAuthService_Register_Student(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.userRepo.EXPECT().GetByStudentID(ctx, "CS-1001").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("1234").Return("$argon2id$hash", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, u *domain.User) error {
			assert.Equal(t, "CS-1001", u.StudentID)
			assert.Equal(t, "Ada Obi", u.Name)
			assert.Equal(t, domain.RoleStudent, u.Role)
			assert.Equal(t, domain.UserStatusActive, u.Status)
			assert.Equal(t, domain.Money(50000), u.DailyLimit)
			assert.Equal(t, "$argon2id$hash", u.PINHash)
			return nil
		})
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, w *domain.Wallet) error {
			assert.Equal(t, domain.Money(0), w.Balance)
			assert.Equal(t, "NGN", w.Currency)
			assert.Equal(t, domain.WalletStatusActive, w.Status)
			return nil
		})
	d.tokenSvc.EXPECT().Generate(gomock.Any(), domain.RoleStudent).Return("token-abc", nil)

	result, err := d.svc.Register(ctx, ports.RegisterRequest{
		StudentID: "cs-1001",
		Name:      "Ada Obi",
		PIN:       "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-abc", result.Token)
	assert.Equal(t, "CS-1001", result.User.StudentID)
}

func TestAuthService_Register_MerchantGetsProfile(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.userRepo.EXPECT().GetByStudentID(ctx, "M-0001").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("123456").Return("hash", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.userRepo.EXPECT().CreateMerchantProfile(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, p *domain.MerchantProfile) error {
			assert.Equal(t, "Campus Cafe", p.BusinessName)
			assert.True(t, p.CommissionRate.Equal(defaultCommissionRate))
			return nil
		})
	d.tokenSvc.EXPECT().Generate(gomock.Any(), domain.RoleMerchant).Return("token", nil)

	_, err := d.svc.Register(ctx, ports.RegisterRequest{
		StudentID:    "M-0001",
		Name:         "Chidi Eze",
		PIN:          "123456",
		Role:         domain.RoleMerchant,
		BusinessName: "Campus Cafe",
	})
	require.NoError(t, err)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  ports.RegisterRequest
	}{
		{"bad student id", ports.RegisterRequest{StudentID: "ab", Name: "X", PIN: "1234"}},
		{"bad pin", ports.RegisterRequest{StudentID: "CS-1001", Name: "X", PIN: "12ab"}},
		{"missing name", ports.RegisterRequest{StudentID: "CS-1001", Name: "  ", PIN: "1234"}},
		{"bad role", ports.RegisterRequest{StudentID: "CS-1001", Name: "X", PIN: "1234", Role: domain.RoleAdmin}},
		{"merchant without business name", ports.RegisterRequest{StudentID: "M-0001", Name: "X", PIN: "1234", Role: domain.RoleMerchant}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupAuthService(t)
			defer d.ctrl.Finish()

			_, err := d.svc.Register(context.Background(), tt.req)
			assertReason(t, err, "validation")
		})
	}
}

func TestAuthService_Register_DuplicateStudentID(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByStudentID(ctx, "CS-1001").
		Return(&domain.User{StudentID: "CS-1001"}, nil)

	_, err := d.svc.Register(ctx, ports.RegisterRequest{
		StudentID: "CS-1001",
		Name:      "Ada Obi",
		PIN:       "1234",
	})
	assertReason(t, err, "student-id-exists")
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := activeUserFixture(lowUserID, "CS-1001", "Ada Obi", domain.RoleStudent)
	user.PINHash = "stored-hash"

	d.userRepo.EXPECT().GetByStudentID(ctx, "CS-1001").Return(user, nil)
	d.hashSvc.EXPECT().Verify("1234", "stored-hash").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(user.ID, domain.RoleStudent).Return("token", nil)

	result, err := d.svc.Login(ctx, "cs-1001", "1234")
	require.NoError(t, err)
	assert.Equal(t, "token", result.Token)
}

func TestAuthService_Login_WrongPIN(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := activeUserFixture(lowUserID, "CS-1001", "Ada Obi", domain.RoleStudent)
	user.PINHash = "stored-hash"

	d.userRepo.EXPECT().GetByStudentID(ctx, "CS-1001").Return(user, nil)
	d.hashSvc.EXPECT().Verify("9999", "stored-hash").Return(false, nil)

	_, err := d.svc.Login(ctx, "CS-1001", "9999")
	assertReason(t, err, "invalid-credentials")
}

func TestAuthService_Login_UnknownStudentID(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByStudentID(ctx, "CS-9999").Return(nil, nil)

	// Same reason code as a wrong PIN so callers cannot probe for accounts.
	_, err := d.svc.Login(ctx, "CS-9999", "1234")
	assertReason(t, err, "invalid-credentials")
}

func TestAuthService_Login_SuspendedAccount(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := activeUserFixture(lowUserID, "CS-1001", "Ada Obi", domain.RoleStudent)
	user.PINHash = "stored-hash"
	user.Status = domain.UserStatusSuspended

	d.userRepo.EXPECT().GetByStudentID(ctx, "CS-1001").Return(user, nil)
	d.hashSvc.EXPECT().Verify("1234", "stored-hash").Return(true, nil)

	_, err := d.svc.Login(ctx, "CS-1001", "1234")
	assertReason(t, err, "account-suspended")
}
