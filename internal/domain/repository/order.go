package repository

import (
	"context"

	"github.com/avdeyev/reviewflow/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, merchantID, customerUserID int64, price float64) (*model.Order, error)
	GetByID(ctx context.Context, orderID int64) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	SelectCompletedWithoutReview(ctx context.Context, limit int) ([]model.Order, error)
	MarkReviewPrompted(ctx context.Context, orderID int64) error
}
