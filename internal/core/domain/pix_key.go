package domain

import (
	"time"

	"github.com/google/uuid"
)

// PixKeyType is the kind of alias a pix key represents.
type PixKeyType string

const (
	PixKeyTypeEmail PixKeyType = "EMAIL"
	PixKeyTypePhone PixKeyType = "PHONE"
	// PixKeyTypeEVP is a random key; its value is generated by the directory.
	PixKeyTypeEVP PixKeyType = "EVP"
)

// IsValid reports whether t is a known key type.
func (t PixKeyType) IsValid() bool {
	switch t {
	case PixKeyTypeEmail, PixKeyTypePhone, PixKeyTypeEVP:
		return true
	}
	return false
}

// PixKey maps an alias to the wallet that receives transfers sent to it.
// The (Type, Value) pair is unique and the key never changes after creation.
type PixKey struct {
	ID        uuid.UUID  `json:"id"`
	Type      PixKeyType `json:"type"`
	Value     string     `json:"value"`
	WalletID  uuid.UUID  `json:"wallet_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewEVPValue returns a fresh random key value.
func NewEVPValue() string {
	return uuid.NewString()
}
