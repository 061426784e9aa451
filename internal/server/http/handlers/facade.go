package handlers

import (
	"context"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/domain/model"
)

// MerchantFacade describes merchant operations exposed via HTTP.
type MerchantFacade interface {
	CreateMerchant(ctx context.Context, name string, chatID int64) (*model.Merchant, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, merchantID, customerUserID int64, price float64) (*model.Order, error)
	CompleteOrder(ctx context.Context, orderID int64) (*model.Order, bool, error)
}

// ReviewFacade provides review lookups for the internal API.
type ReviewFacade interface {
	ReviewDetails(ctx context.Context, reviewID int64) (*model.ReviewDetails, error)
}

// MarketFacade aggregates the full set of operations used across handlers.
type MarketFacade interface {
	MerchantFacade
	OrderFacade
	ReviewFacade
}

// UpdateDispatcher routes webhook updates into the bot dialog layer.
type UpdateDispatcher interface {
	HandleUpdate(ctx context.Context, update telegram.Update)
}
