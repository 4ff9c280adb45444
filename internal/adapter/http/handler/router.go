package handler

import (
	"pix-wallet/internal/adapter/http/middleware"
	"pix-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 20 // 1 MB

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger         ports.LedgerService
	PixKeys        ports.PixKeyService
	Transfers      ports.TransferService
	Settlement     ports.SettlementService
	WebhookTokens  ports.WebhookTokenService
	RateLimiter    ports.RateLimiter // nil = rate limiting disabled
	RateLimit      middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	OpenAPISpec    []byte
	Mode           string // gin mode; release when empty
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxRequestBody))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep: verifies every configured dependency)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	docs := NewDocsHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", docs.UI)
		swagger.GET("/spec", docs.Spec)
	}

	rules := middleware.DefaultRateLimitRules(deps.RateLimit)

	// Helper: return rate limiter middleware if a limiter is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimiter == nil || !ok || rule.Limit <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.Ledger)
	pixKeyHandler := NewPixKeyHandler(deps.PixKeys)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets_write"), walletHandler.Create)
		wallets.POST("/transfer", rl("wallets_write"), walletHandler.Transfer)
		wallets.GET("/:id", rl("wallets_read"), walletHandler.Get)
		wallets.GET("/:id/balance", rl("wallets_read"), walletHandler.Balance)
		wallets.GET("/:id/transactions", rl("wallets_read"), walletHandler.Transactions)
		wallets.POST("/:id/credit", rl("wallets_write"), walletHandler.Credit)
		wallets.POST("/:id/debit", rl("wallets_write"), walletHandler.Debit)
		wallets.POST("/:id/pix-keys", rl("pix_keys"), pixKeyHandler.Register)
	}

	v1.GET("/pix-keys/:type/:value", rl("pix_keys"), pixKeyHandler.Resolve)

	transferHandler := NewTransferHandler(deps.Transfers)
	transfers := v1.Group("/transfers")
	{
		transfers.POST("", rl("transfers"), transferHandler.Initiate)
		transfers.GET("/:end_to_end_id", rl("transfers_read"), transferHandler.Get)
	}

	// --- Settlement provider callbacks (JWT-authenticated) ---
	settlementHandler := NewSettlementHandler(deps.Settlement)
	webhooks := v1.Group("/webhooks", middleware.WebhookAuth(deps.WebhookTokens, deps.Logger))
	{
		webhooks.POST("/settlement", rl("webhooks"), settlementHandler.Handle)
	}

	return r
}
