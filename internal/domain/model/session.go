package model

// SessionState tags the step an in-progress rating conversation is on.
type SessionState string

const (
	SessionStateAwaitingRating     SessionState = "awaiting_rating"
	SessionStateAwaitingTextReview SessionState = "awaiting_text_review"
	SessionStateMerchantConfirming SessionState = "merchant_confirming"
)

// RatingSession is the transient per-customer conversation state held while
// scores are being collected. It lives in the session store, keyed by
// customer id, and is dropped once the review is submitted or cancelled.
type RatingSession struct {
	CustomerUserID int64             `json:"customer_user_id"`
	OrderID        int64             `json:"order_id"`
	MerchantID     int64             `json:"merchant_id"`
	MerchantName   string            `json:"merchant_name"`
	State          SessionState      `json:"state"`
	Scores         map[Dimension]int `json:"scores"`
	TextReview     string            `json:"text_review,omitempty"`
	PanelChatID    int64             `json:"panel_chat_id"`
	PanelMessageID int64             `json:"panel_message_id"`
}

// SetScore records one dimension score.
func (s *RatingSession) SetScore(d Dimension, value int) {
	if s.Scores == nil {
		s.Scores = make(map[Dimension]int, len(Dimensions))
	}
	s.Scores[d] = value
}

// NextDimension returns the first unrated dimension in collection order.
func (s *RatingSession) NextDimension() (Dimension, bool) {
	for _, d := range Dimensions {
		if v, ok := s.Scores[d]; !ok || v < RatingMin || v > RatingMax {
			return d, true
		}
	}
	return "", false
}

// Complete reports whether all five dimensions carry a valid score.
func (s *RatingSession) Complete() bool {
	_, missing := s.NextDimension()
	return !missing
}

// Rating assembles the final rating from collected scores.
func (s *RatingSession) Rating() Rating {
	return RatingFromScores(s.Scores)
}
