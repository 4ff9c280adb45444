package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreateWallet     AuditAction = "CREATE_WALLET"
	AuditActionCredit           AuditAction = "CREDIT"
	AuditActionDebit            AuditAction = "DEBIT"
	AuditActionRegisterPixKey   AuditAction = "REGISTER_PIX_KEY"
	AuditActionInitiateTransfer AuditAction = "INITIATE_TRANSFER"
	AuditActionSettlementEvent  AuditAction = "SETTLEMENT_EVENT"
	AuditActionWalletTransfer   AuditAction = "WALLET_TRANSFER"
)

// AuditLog records a single audited write request.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	WalletID     *uuid.UUID  `json:"wallet_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
