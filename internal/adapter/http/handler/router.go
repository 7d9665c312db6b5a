package handler

import (
	"campus-wallet/internal/adapter/http/middleware"
	redisStore "campus-wallet/internal/adapter/storage/redis"
	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/internal/obs"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	ReportingSvc   ports.ReportingService
	AdminSvc       ports.AdminService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Metrics        *obs.Metrics // nil = metrics disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules; return a noop when the store is absent.
	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc)
	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.ReportingSvc)
	txHandler := NewTransactionHandler(deps.LedgerSvc, deps.ReportingSvc)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/me", rl("reads"), walletHandler.Summary)
		wallets.POST("/load", rl("loads"), walletHandler.Load)
	}

	v1.POST("/transfers", jwtAuth, rl("transfers"), txHandler.Transfer)
	v1.POST("/payments", jwtAuth, rl("payments"), txHandler.Pay)

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("reads"), txHandler.History)
		transactions.GET("/:reference", rl("reads"), txHandler.GetByReference)
	}

	// --- Merchant routes ---
	merchantHandler := NewMerchantHandler(deps.ReportingSvc)
	merchants := v1.Group("/merchants/me", jwtAuth, middleware.RequireRole(domain.RoleMerchant))
	{
		merchants.GET("/sales", rl("reads"), merchantHandler.Sales)
	}

	// --- Admin routes ---
	adminHandler := NewAdminHandler(deps.AdminSvc, deps.LedgerSvc, deps.ReportingSvc)
	admin := v1.Group("/admin", jwtAuth, middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/users", rl("admin"), adminHandler.ListUsers)
		admin.PUT("/users/:id/status", rl("admin"), adminHandler.SetUserStatus)
		admin.PUT("/wallets/:user_id/status", rl("admin"), adminHandler.SetWalletStatus)
		admin.POST("/wallets/:user_id/load", rl("admin"), adminHandler.LoadFunds)
		admin.GET("/transactions", rl("admin"), adminHandler.ListTransactions)
		admin.POST("/transactions/:id/reverse", rl("admin"), adminHandler.Reverse)
		admin.GET("/stats", rl("admin"), adminHandler.Stats)
	}

	return r
}
