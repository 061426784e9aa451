package repository

import (
	"context"

	"github.com/avdeyev/reviewflow/internal/domain/model"
)

// ReviewRepository describes persistence operations with reviews.
// At most one review may exist per order; Create reports ErrAlreadyExists
// on a second attempt. Confirm is a guarded transition and reports
// ErrAlreadyConfirmed when replayed.
type ReviewRepository interface {
	Create(ctx context.Context, orderID, merchantID, customerUserID int64, rating model.Rating, textReview *string) (*model.Review, error)
	GetByOrderID(ctx context.Context, orderID int64) (*model.Review, error)
	GetDetails(ctx context.Context, reviewID int64) (*model.ReviewDetails, error)
	Confirm(ctx context.Context, reviewID int64) error
}
