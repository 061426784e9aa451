package dto

import "time"

// CreateOrderRequest is the payload of POST /api/orders.
type CreateOrderRequest struct {
	MerchantID     int64   `json:"merchant_id" binding:"required"`
	CustomerUserID int64   `json:"customer_user_id" binding:"required"`
	Price          float64 `json:"price" binding:"required"`
}

// OrderResponse is the order representation returned by the API.
type OrderResponse struct {
	ID             int64      `json:"id"`
	MerchantID     int64      `json:"merchant_id"`
	CustomerUserID int64      `json:"customer_user_id"`
	Price          float64    `json:"price"`
	Status         string     `json:"status"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CompleteOrderResponse reports the completion together with the review
// trigger outcome.
type CompleteOrderResponse struct {
	Order           OrderResponse `json:"order"`
	ReviewTriggered bool          `json:"review_triggered"`
}
