package repository

import (
	"fmt"

	"github.com/btmxh/gym-tsfr/internal/domain"
)

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
