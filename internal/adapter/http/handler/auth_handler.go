package handler

import (
	"net/http"

	"campus-wallet/internal/adapter/http/dto"
	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/pkg/apperror"
	"campus-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.authSvc.Register(c.Request.Context(), ports.RegisterRequest{
		StudentID:    req.StudentID,
		Name:         req.Name,
		Email:        req.Email,
		PIN:          req.PIN,
		Role:         domain.Role(req.Role),
		BusinessName: req.BusinessName,
		BusinessType: req.BusinessType,
		Location:     req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.AuthResponse{
		Token: result.Token,
		User:  dto.ToUserResponse(result.User),
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.StudentID, req.PIN)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AuthResponse{
		Token: result.Token,
		User:  dto.ToUserResponse(result.User),
	})
}

// HealthCheck handles GET /health, pinging every storage dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
