package repository

import (
	"context"

	"github.com/avdeyev/reviewflow/internal/domain/model"
)

// MerchantRepository describes persistence operations with merchants.
type MerchantRepository interface {
	Create(ctx context.Context, name string, chatID int64) (*model.Merchant, error)
	GetByID(ctx context.Context, merchantID int64) (*model.Merchant, error)
}
