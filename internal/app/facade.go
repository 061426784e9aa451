package app

import (
	"context"
	"log/slog"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
	"github.com/avdeyev/reviewflow/internal/usecase"
)

// MarketFacade aggregates the operations exposed to the HTTP handlers and
// the trigger worker.
type MarketFacade struct {
	flow      *usecase.ReviewFlow
	orders    repository.OrderRepository
	merchants repository.MerchantRepository
	reviews   repository.ReviewRepository
	logger    *slog.Logger
}

// NewMarketFacade constructs the application facade.
func NewMarketFacade(
	flow *usecase.ReviewFlow,
	orders repository.OrderRepository,
	merchants repository.MerchantRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *MarketFacade {
	return &MarketFacade{flow: flow, orders: orders, merchants: merchants, reviews: reviews, logger: logger}
}

// CreateMerchant registers a merchant with their notification chat.
func (f *MarketFacade) CreateMerchant(ctx context.Context, name string, chatID int64) (*model.Merchant, error) {
	if name == "" || chatID == 0 {
		return nil, domainErrors.ErrInvalidArgument
	}
	return f.merchants.Create(ctx, name, chatID)
}

// CreateOrder registers an order for an existing merchant.
func (f *MarketFacade) CreateOrder(ctx context.Context, merchantID, customerUserID int64, price float64) (*model.Order, error) {
	if price <= 0 || customerUserID == 0 {
		return nil, domainErrors.ErrInvalidArgument
	}
	if _, err := f.merchants.GetByID(ctx, merchantID); err != nil {
		return nil, err
	}
	return f.orders.Create(ctx, merchantID, customerUserID, price)
}

// CompleteOrder marks the order completed and fires the review trigger
// immediately. The prompt stamp keeps the poll worker from sending a second
// invitation for the same order. The returned bool is the trigger outcome.
func (f *MarketFacade) CompleteOrder(ctx context.Context, orderID int64) (*model.Order, bool, error) {
	order, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	switch order.Status {
	case model.OrderStatusPending, model.OrderStatusInProgress:
	default:
		return nil, false, domainErrors.ErrInvalidStatus
	}

	if err := f.orders.UpdateStatus(ctx, orderID, model.OrderStatusCompleted); err != nil {
		return nil, false, err
	}
	if err := f.orders.MarkReviewPrompted(ctx, orderID); err != nil {
		f.logger.Warn("mark review prompted failed",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
	}

	triggered := f.flow.TriggerReviewFlow(ctx, orderID, order.MerchantID, order.CustomerUserID)

	completed, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, triggered, err
	}
	return completed, triggered, nil
}

// ReviewDetails returns the joined review view for the internal API.
func (f *MarketFacade) ReviewDetails(ctx context.Context, reviewID int64) (*model.ReviewDetails, error) {
	return f.reviews.GetDetails(ctx, reviewID)
}

// PendingReviewOrders returns completed orders still awaiting a prompt.
func (f *MarketFacade) PendingReviewOrders(ctx context.Context, limit int) ([]model.Order, error) {
	return f.orders.SelectCompletedWithoutReview(ctx, limit)
}

// TriggerReviewFlow starts the review cycle for one order.
func (f *MarketFacade) TriggerReviewFlow(ctx context.Context, orderID, merchantID, customerUserID int64) bool {
	return f.flow.TriggerReviewFlow(ctx, orderID, merchantID, customerUserID)
}
