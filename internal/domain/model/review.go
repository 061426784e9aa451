package model

import "time"

// ReviewStatus describes the review confirmation lifecycle.
type ReviewStatus string

const (
	ReviewStatusPendingMerchant ReviewStatus = "pending_merchant_review"
	ReviewStatusCompleted       ReviewStatus = "completed"
)

// Review is the customer's five-dimension rating attached to exactly one order.
type Review struct {
	ID                    int64
	OrderID               int64
	MerchantID            int64
	CustomerUserID        int64
	Rating                Rating
	TextReview            *string
	Status                ReviewStatus
	IsConfirmedByMerchant bool
	CreatedAt             time.Time
}

// ReviewDetails is the review joined with display fields for notifications
// and the public report.
type ReviewDetails struct {
	Review
	MerchantName     string
	CustomerUsername string
}
