package handler

import (
	"time"

	"campus-wallet/internal/adapter/http/dto"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"
	"campus-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles merchant-facing reporting endpoints.
type MerchantHandler struct {
	reportingSvc ports.ReportingService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(reportingSvc ports.ReportingService) *MerchantHandler {
	return &MerchantHandler{reportingSvc: reportingSvc}
}

// Sales handles GET /api/v1/merchants/me/sales. Defaults to today when no
// period is given.
func (h *MerchantHandler) Sales(c *gin.Context) {
	merchantID, ok := callerID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var from, to time.Time
	if f := c.Query("from"); f != "" {
		v, err := time.Parse(time.RFC3339, f)
		if err != nil {
			response.Error(c, apperror.Validation("from must be an RFC3339 timestamp"))
			return
		}
		from = v
	}
	if t := c.Query("to"); t != "" {
		v, err := time.Parse(time.RFC3339, t)
		if err != nil {
			response.Error(c, apperror.Validation("to must be an RFC3339 timestamp"))
			return
		}
		to = v
	}

	report, err := h.reportingSvc.Sales(c.Request.Context(), merchantID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SalesReportResponse{
		From:       report.From.Format(time.RFC3339),
		To:         report.To.Format(time.RFC3339),
		TotalSales: int64(report.TotalSales),
		TotalFees:  int64(report.TotalFees),
		NetRevenue: int64(report.NetRevenue),
		Count:      report.Count,
	})
}
