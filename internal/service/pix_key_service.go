package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// evpAttempts bounds regeneration of a random key value after a collision.
const evpAttempts = 3

// PixKeyServiceImpl implements ports.PixKeyService.
type PixKeyServiceImpl struct {
	keyRepo    ports.PixKeyRepository
	walletRepo ports.WalletRepository
	validator  ports.PixKeyValidator
	newEVP     func() string
	now        func() time.Time
	log        zerolog.Logger
}

// NewPixKeyService creates a new PixKeyServiceImpl.
func NewPixKeyService(
	keyRepo ports.PixKeyRepository,
	walletRepo ports.WalletRepository,
	validator ports.PixKeyValidator,
	log zerolog.Logger,
) *PixKeyServiceImpl {
	return &PixKeyServiceImpl{
		keyRepo:    keyRepo,
		walletRepo: walletRepo,
		validator:  validator,
		newEVP:     domain.NewEVPValue,
		now:        utcNow,
		log:        log,
	}
}

// Register binds an alias to an existing wallet. For EVP keys the supplied
// value is ignored and a random one is generated.
func (s *PixKeyServiceImpl) Register(ctx context.Context, keyType domain.PixKeyType, value string, walletID uuid.UUID) (*domain.PixKey, error) {
	if !keyType.IsValid() {
		return nil, apperror.ErrInvalidPixKey()
	}
	if keyType != domain.PixKeyTypeEVP && !s.validator.Valid(keyType, value) {
		return nil, apperror.ErrInvalidPixKey()
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	key := &domain.PixKey{
		Type:      keyType,
		Value:     value,
		WalletID:  walletID,
		CreatedAt: s.now(),
	}

	attempts := 1
	if keyType == domain.PixKeyTypeEVP {
		attempts = evpAttempts
	}

	for i := 0; i < attempts; i++ {
		key.ID = uuid.New()
		if keyType == domain.PixKeyTypeEVP {
			key.Value = s.newEVP()
		}

		err = s.keyRepo.Create(ctx, key)
		if err == nil {
			s.log.Info().
				Str("pix_key_id", key.ID.String()).
				Str("type", string(key.Type)).
				Str("wallet_id", walletID.String()).
				Msg("pix key registered")
			return key, nil
		}
		if !errors.Is(err, domain.ErrDuplicatePixKey) {
			return nil, apperror.InternalError(fmt.Errorf("create pix key: %w", err))
		}
		if keyType == domain.PixKeyTypeEVP {
			s.log.Warn().Str("value", key.Value).Msg("evp value collision, regenerating")
		}
	}

	return nil, apperror.ErrPixKeyExists()
}

// Resolve returns the key registered for (keyType, value).
func (s *PixKeyServiceImpl) Resolve(ctx context.Context, keyType domain.PixKeyType, value string) (*domain.PixKey, error) {
	if !keyType.IsValid() {
		return nil, apperror.ErrInvalidPixKey()
	}

	key, err := s.keyRepo.GetByTypeAndValue(ctx, keyType, value)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve pix key: %w", err))
	}
	if key == nil {
		return nil, apperror.ErrNotFound("pix key")
	}
	return key, nil
}
