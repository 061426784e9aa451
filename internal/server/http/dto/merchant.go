package dto

import "time"

// CreateMerchantRequest is the payload of POST /api/merchants.
type CreateMerchantRequest struct {
	Name   string `json:"name" binding:"required"`
	ChatID int64  `json:"chat_id" binding:"required"`
}

// MerchantResponse is the merchant representation returned by the API.
type MerchantResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ChatID    int64     `json:"chat_id"`
	CreatedAt time.Time `json:"created_at"`
}
