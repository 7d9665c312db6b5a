package dto

import (
	"time"

	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
)

// RegisterRequest is the request body for account registration. Amounts are
// whole naira everywhere; balances start at zero.
type RegisterRequest struct {
	StudentID string `json:"student_id" binding:"required,min=4,max=20"`
	Name      string `json:"name" binding:"required,min=1,max=100"`
	Email     string `json:"email" binding:"omitempty,email,max=100"`
	PIN       string `json:"pin" binding:"required,len_between_4_6"`
	Role      string `json:"role" binding:"omitempty,oneof=student merchant"`

	// Merchant-only fields.
	BusinessName string `json:"business_name" binding:"omitempty,max=100"`
	BusinessType string `json:"business_type" binding:"omitempty,max=50"`
	Location     string `json:"location" binding:"omitempty,max=100"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	PIN       string `json:"pin" binding:"required"`
}

// AuthResponse is the response body for successful registration or login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
// Amount is a decimal string of whole naira ("2000"); fractional kobo are
// rejected by the parser, not the binding layer.
type TransferRequest struct {
	ReceiverStudentID string `json:"receiver_student_id" binding:"required,min=4,max=20"`
	Amount            string `json:"amount" binding:"required,max=20"`
	Description       string `json:"description" binding:"omitempty,max=200"`
}

// PaymentRequest is the request body for a merchant payment.
type PaymentRequest struct {
	MerchantID string `json:"merchant_id" binding:"required,uuid"`
	Amount     string `json:"amount" binding:"required,max=20"`
	Category   string `json:"category" binding:"omitempty,max=50"`
}

// LoadRequest is the request body for a wallet load.
type LoadRequest struct {
	Amount string `json:"amount" binding:"required,max=20"`
	Source string `json:"source" binding:"omitempty,max=50"`
}

// ReverseRequest is the admin request body for a reversal.
type ReverseRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=200"`
}

// UserStatusRequest is the admin request body for suspending or closing an
// account.
type UserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended closed"`
}

// WalletStatusRequest is the admin request body for freezing a wallet.
type WalletStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active frozen"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	DailyLimit int64  `json:"daily_limit"`
	CreatedAt  string `json:"created_at"`
}

// ToUserResponse converts a domain.User to its DTO.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		StudentID:  u.StudentID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		Status:     string(u.Status),
		DailyLimit: int64(u.DailyLimit),
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

// WalletSummaryResponse is the owner's view of their wallet.
type WalletSummaryResponse struct {
	Balance        int64  `json:"balance"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	DailySpent     int64  `json:"daily_spent"`
	DailyRemaining int64  `json:"daily_remaining"`
	TodayReceived  int64  `json:"today_received"`
}

// ToWalletSummaryResponse converts a ports.WalletSummary to its DTO.
func ToWalletSummaryResponse(s *ports.WalletSummary) WalletSummaryResponse {
	return WalletSummaryResponse{
		Balance:        int64(s.Wallet.Balance),
		Currency:       s.Wallet.Currency,
		Status:         string(s.Wallet.Status),
		DailySpent:     int64(s.DailySpent),
		DailyRemaining: int64(s.DailyRemaining),
		TodayReceived:  int64(s.TodayReceived),
	}
}

// TransactionResponse is the public view of one ledger entry.
type TransactionResponse struct {
	ID           string  `json:"id"`
	Reference    string  `json:"reference"`
	SenderName   string  `json:"sender_name"`
	ReceiverName string  `json:"receiver_name"`
	Amount       int64   `json:"amount"`
	Fee          int64   `json:"fee"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category,omitempty"`
	CreatedAt    string  `json:"created_at"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:           t.ID.String(),
		Reference:    t.Reference,
		SenderName:   t.SenderName,
		ReceiverName: t.ReceiverName,
		Amount:       int64(t.Amount),
		Fee:          int64(t.Fee),
		Type:         string(t.Type),
		Status:       string(t.Status),
		Description:  t.Description,
		Category:     t.Category,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

// TransferResultResponse is the committed outcome of a ledger operation.
type TransferResultResponse struct {
	Transaction  TransactionResponse `json:"transaction"`
	NewBalance   int64               `json:"new_balance"`
	Counterparty string              `json:"counterparty"`
}

// ToTransferResultResponse converts a ports.TransferResult to its DTO.
func ToTransferResultResponse(r *ports.TransferResult) TransferResultResponse {
	return TransferResultResponse{
		Transaction:  ToTransactionResponse(r.Transaction),
		NewBalance:   int64(r.NewBalance),
		Counterparty: r.CounterpartyName,
	}
}

// SalesReportResponse is a merchant's revenue view over a period.
type SalesReportResponse struct {
	From       string `json:"from"`
	To         string `json:"to"`
	TotalSales int64  `json:"total_sales"`
	TotalFees  int64  `json:"total_fees"`
	NetRevenue int64  `json:"net_revenue"`
	Count      int64  `json:"count"`
}

// SystemStatsResponse is the admin dashboard aggregate.
type SystemStatsResponse struct {
	TotalUsers        int64 `json:"total_users"`
	Students          int64 `json:"students"`
	Merchants         int64 `json:"merchants"`
	ActiveUsers       int64 `json:"active_users"`
	SuspendedUsers    int64 `json:"suspended_users"`
	TotalTransactions int64 `json:"total_transactions"`
	TodayTransactions int64 `json:"today_transactions"`
	TodayVolume       int64 `json:"today_volume"`
	TotalBalance      int64 `json:"total_balance"`
}
