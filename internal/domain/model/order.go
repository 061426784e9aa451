package model

import "time"

// OrderStatus describes the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReviewed   OrderStatus = "reviewed"
)

// Order describes a transaction between a customer and a merchant.
// Only completed orders admit review triggering.
type Order struct {
	ID             int64
	MerchantID     int64
	CustomerUserID int64
	Price          float64
	Status         OrderStatus
	CompletedAt    *time.Time
	CreatedAt      time.Time
}
