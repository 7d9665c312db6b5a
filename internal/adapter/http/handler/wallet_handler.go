package handler

import (
	"campus-wallet/internal/adapter/http/dto"
	"campus-wallet/internal/adapter/http/middleware"
	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"
	"campus-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles the owner-facing wallet endpoints.
type WalletHandler struct {
	ledgerSvc    ports.LedgerService
	reportingSvc ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService, reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc, reportingSvc: reportingSvc}
}

// Summary handles GET /api/v1/wallets/me.
func (h *WalletHandler) Summary(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	summary, err := h.reportingSvc.WalletSummary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWalletSummaryResponse(summary))
}

// Load handles POST /api/v1/wallets/load.
func (h *WalletHandler) Load(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
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
		Source: req.Source,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransferResultResponse(result))
}

// callerID reads the authenticated user ID set by the JWT middleware.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// callerRole reads the authenticated role set by the JWT middleware.
func callerRole(c *gin.Context) domain.Role {
	v, ok := c.Get(middleware.CtxRole)
	if !ok {
		return ""
	}
	role, _ := v.(domain.Role)
	return role
}
