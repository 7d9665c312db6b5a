package handler

import (
	"strconv"

	"campus-wallet/internal/adapter/http/dto"
	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"
	"campus-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles the admin console endpoints.
type AdminHandler struct {
	adminSvc     ports.AdminService
	ledgerSvc    ports.LedgerService
	reportingSvc ports.ReportingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminSvc ports.AdminService, ledgerSvc ports.LedgerService, reportingSvc ports.ReportingService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, ledgerSvc: ledgerSvc, reportingSvc: reportingSvc}
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.UserListParams{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if r := c.Query("role"); r != "" {
		role := domain.Role(r)
		params.Role = &role
	}
	if s := c.Query("status"); s != "" {
		status := domain.UserStatus(s)
		params.Status = &status
	}

	users, total, err := h.adminSvc.ListUsers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.ToUserResponse(&users[i]))
	}
	response.Paginated(c, items, page, pageSize, total)
}

// SetUserStatus handles PUT /api/v1/admin/users/:id/status.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	var req dto.UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.adminSvc.SetUserStatus(c.Request.Context(), userID, domain.UserStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user_id": userID.String(), "status": req.Status})
}

// SetWalletStatus handles PUT /api/v1/admin/wallets/:user_id/status.
func (h *AdminHandler) SetWalletStatus(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a UUID"))
		return
	}

	var req dto.WalletStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.adminSvc.SetWalletStatus(c.Request.Context(), userID, domain.WalletStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user_id": userID.String(), "status": req.Status})
}

// ListTransactions handles GET /api/v1/admin/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	params := listParams(c)
	txns, total, err := h.adminSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.ToTransactionResponse(&txns[i]))
	}
	response.Paginated(c, items, params.Page, params.PageSize, total)
}

// LoadFunds handles POST /api/v1/admin/wallets/:user_id/load. Credits a
// member wallet through the ledger engine, recorded with an admin source.
func (h *AdminHandler) LoadFunds(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a UUID"))
		return
	}

	var req dto.LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	result, err := h.ledgerSvc.Load(c.Request.Context(), ports.LoadRequest{
		UserID: userID,
		Amount: amount,
		Source: "admin",
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransferResultResponse(result))
}

// Reverse handles POST /api/v1/admin/transactions/:id/reverse.
func (h *AdminHandler) Reverse(c *gin.Context) {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	var req dto.ReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.ledgerSvc.Reverse(c.Request.Context(), txID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransferResultResponse(result))
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.reportingSvc.SystemStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SystemStatsResponse{
		TotalUsers:        stats.Users.Total,
		Students:          stats.Users.Students,
		Merchants:         stats.Users.Merchants,
		ActiveUsers:       stats.Users.Active,
		SuspendedUsers:    stats.Users.Suspended,
		TotalTransactions: stats.Transactions.Total,
		TodayTransactions: stats.Transactions.Today,
		TodayVolume:       int64(stats.Transactions.TodayVolume),
		TotalBalance:      int64(stats.TotalBalance),
	})
}
