package handler

import (
	"strconv"
	"time"

	"campus-wallet/internal/adapter/http/dto"
	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"
	"campus-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles the money-moving and history endpoints.
type TransactionHandler struct {
	ledgerSvc    ports.LedgerService
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService, reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, reportingSvc: reportingSvc}
}

// Transfer handles POST /api/v1/transfers.
func (h *TransactionHandler) Transfer(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
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

	result, err := h.ledgerSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:          userID,
		ReceiverStudentID: req.ReceiverStudentID,
		Amount:            amount,
		Description:       req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransferResultResponse(result))
}

// Pay handles POST /api/v1/payments.
func (h *TransactionHandler) Pay(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		response.Error(c, apperror.Validation("merchant_id must be a UUID"))
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	result, err := h.ledgerSvc.MerchantPayment(c.Request.Context(), ports.PaymentRequest{
		StudentID:  userID,
		MerchantID: merchantID,
		Amount:     amount,
		Category:   req.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransferResultResponse(result))
}

// History handles GET /api/v1/transactions.
func (h *TransactionHandler) History(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	params := listParams(c)
	txns, total, err := h.reportingSvc.History(c.Request.Context(), userID, params)
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

// GetByReference handles GET /api/v1/transactions/:reference.
func (h *TransactionHandler) GetByReference(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txn, err := h.reportingSvc.TransactionByReference(c.Request.Context(), userID, callerRole(c), c.Param("reference"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionResponse(txn))
}

// listParams parses the shared history filters + pagination from the query
// string.
func listParams(c *gin.Context) ports.TransactionListParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.TransactionListParams{Page: page, PageSize: pageSize}
	if t := c.Query("type"); t != "" {
		txType := domain.TransactionType(t)
		params.Type = &txType
	}
	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		params.Status = &status
	}
	if f := c.Query("from"); f != "" {
		if v, err := time.Parse(time.RFC3339, f); err == nil {
			params.From = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := time.Parse(time.RFC3339, t); err == nil {
			params.To = &v
		}
	}
	return params
}
