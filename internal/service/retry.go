package service

import (
	"context"
	"errors"
	"time"

	"pix-wallet/internal/core/domain"
)

// retryOnConflict runs fn up to attempts times while it fails with
// domain.ErrVersionConflict. Any other outcome is returned immediately.
func retryOnConflict(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// utcNow is truncated to the precision PostgreSQL stores.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
