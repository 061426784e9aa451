package dto

import "time"

// ReviewResponse is the joined review view returned by GET /api/reviews/:id.
type ReviewResponse struct {
	ID                    int64          `json:"id"`
	OrderID               int64          `json:"order_id"`
	MerchantID            int64          `json:"merchant_id"`
	MerchantName          string         `json:"merchant_name"`
	CustomerUserID        int64          `json:"customer_user_id"`
	CustomerUsername      string         `json:"customer_username"`
	Scores                map[string]int `json:"scores"`
	MeanScore             float64        `json:"mean_score"`
	TextReview            *string        `json:"text_review,omitempty"`
	Status                string         `json:"status"`
	IsConfirmedByMerchant bool           `json:"is_confirmed_by_merchant"`
	CreatedAt             time.Time      `json:"created_at"`
}
