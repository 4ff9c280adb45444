package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// Actions are resolved from the matched route template; handlers may set
// CtxWalletID and CtxResourceID to enrich the entry.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method != http.MethodPost {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath())
		if action == "" {
			return
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			WalletID:     auditWalletID(c),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxResourceID),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func auditWalletID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(CtxWalletID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	if id, err := uuid.Parse(c.Param("id")); err == nil {
		return &id
	}
	return nil
}

func mapRouteToAction(route string) (domain.AuditAction, string) {
	switch route {
	case "/api/v1/wallets":
		return domain.AuditActionCreateWallet, "wallet"
	case "/api/v1/wallets/transfer":
		return domain.AuditActionWalletTransfer, "wallet"
	case "/api/v1/wallets/:id/credit":
		return domain.AuditActionCredit, "wallet"
	case "/api/v1/wallets/:id/debit":
		return domain.AuditActionDebit, "wallet"
	case "/api/v1/wallets/:id/pix-keys":
		return domain.AuditActionRegisterPixKey, "pix_key"
	case "/api/v1/transfers":
		return domain.AuditActionInitiateTransfer, "transfer"
	case "/api/v1/webhooks/settlement":
		return domain.AuditActionSettlementEvent, "transfer"
	}
	return "", ""
}
