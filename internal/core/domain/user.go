package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is a user's platform role.
type Role string

const (
	RoleStudent  Role = "student"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

// UserStatus is the administrative state of a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusClosed    UserStatus = "closed"
)

// SystemUserID is the sentinel sender for system credits (wallet loads).
var SystemUserID = uuid.Nil

// SystemUserName is the display name recorded for system credits.
const SystemUserName = "System"

// User is a directory entry: the ledger engine reads it for role, status
// and daily limit, and never mutates it.
type User struct {
	ID         uuid.UUID  `json:"id"`
	StudentID  string     `json:"student_id"` // campus identifier, uppercase
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	PINHash    string     `json:"-"`
	Role       Role       `json:"role"`
	Status     UserStatus `json:"status"`
	DailyLimit Money      `json:"daily_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsActive reports whether the account may participate in transfers.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// MerchantProfile carries merchant-specific settings for a user with the
// merchant role.
type MerchantProfile struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	BusinessName   string          `json:"business_name"`
	BusinessType   string          `json:"business_type"`
	Location       string          `json:"location"`
	CommissionRate decimal.Decimal `json:"commission_rate"` // percent, default 1.5
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Commission returns the platform's cut of a payment, rounded half-up.
func (m *MerchantProfile) Commission(amount Money) Money {
	return amount.PercentOf(m.CommissionRate)
}
