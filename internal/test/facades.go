package test

import (
	"context"
	"sync"
	"time"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/session"
)

// MarketFacadeStub lets HTTP tests control facade behaviour per call.
type MarketFacadeStub struct {
	CreateMerchantFn func(ctx context.Context, name string, chatID int64) (*model.Merchant, error)
	CreateOrderFn    func(ctx context.Context, merchantID, customerUserID int64, price float64) (*model.Order, error)
	CompleteOrderFn  func(ctx context.Context, orderID int64) (*model.Order, bool, error)
	ReviewDetailsFn  func(ctx context.Context, reviewID int64) (*model.ReviewDetails, error)
}

// CreateMerchant applies override or returns a canned merchant.
func (s MarketFacadeStub) CreateMerchant(ctx context.Context, name string, chatID int64) (*model.Merchant, error) {
	if s.CreateMerchantFn != nil {
		return s.CreateMerchantFn(ctx, name, chatID)
	}
	return &model.Merchant{ID: 1, Name: name, ChatID: chatID, CreatedAt: time.Unix(0, 0)}, nil
}

// CreateOrder applies override or returns a canned order.
func (s MarketFacadeStub) CreateOrder(ctx context.Context, merchantID, customerUserID int64, price float64) (*model.Order, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, merchantID, customerUserID, price)
	}
	return &model.Order{ID: 1, MerchantID: merchantID, CustomerUserID: customerUserID, Price: price, Status: model.OrderStatusPending, CreatedAt: time.Unix(0, 0)}, nil
}

// CompleteOrder applies override or returns a canned completed order.
func (s MarketFacadeStub) CompleteOrder(ctx context.Context, orderID int64) (*model.Order, bool, error) {
	if s.CompleteOrderFn != nil {
		return s.CompleteOrderFn(ctx, orderID)
	}
	completed := time.Unix(0, 0)
	return &model.Order{ID: orderID, Status: model.OrderStatusCompleted, CompletedAt: &completed, CreatedAt: completed}, true, nil
}

// ReviewDetails applies override or returns a canned review view.
func (s MarketFacadeStub) ReviewDetails(ctx context.Context, reviewID int64) (*model.ReviewDetails, error) {
	if s.ReviewDetailsFn != nil {
		return s.ReviewDetailsFn(ctx, reviewID)
	}
	return &model.ReviewDetails{
		Review: model.Review{
			ID:      reviewID,
			OrderID: 1001,
			Rating:  model.Rating{Appearance: 8, Figure: 9, Service: 10, Attitude: 9, Environment: 8},
			Status:  model.ReviewStatusCompleted,
		},
		MerchantName:     "小美",
		CustomerUsername: "alice",
	}, nil
}

// DispatcherStub records updates handed to the bot layer.
type DispatcherStub struct {
	Updates []telegram.Update
}

// HandleUpdate records the update.
func (d *DispatcherStub) HandleUpdate(ctx context.Context, update telegram.Update) {
	d.Updates = append(d.Updates, update)
}

// WorkerFacadeStub feeds the trigger worker canned batches and records
// triggered orders. Safe for concurrent use.
type WorkerFacadeStub struct {
	sync.Mutex
	Batches   [][]model.Order
	Triggered []int64
	TriggerOK bool
	Err       error
}

// PendingReviewOrders pops the next configured batch.
func (s *WorkerFacadeStub) PendingReviewOrders(ctx context.Context, limit int) ([]model.Order, error) {
	s.Lock()
	defer s.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Batches) == 0 {
		return nil, nil
	}
	batch := s.Batches[0]
	s.Batches = s.Batches[1:]
	return batch, nil
}

// TriggerReviewFlow records the order id and returns the configured outcome.
func (s *WorkerFacadeStub) TriggerReviewFlow(ctx context.Context, orderID, merchantID, customerUserID int64) bool {
	s.Lock()
	defer s.Unlock()
	s.Triggered = append(s.Triggered, orderID)
	return s.TriggerOK
}

// SessionStoreStub keeps rating sessions in a map for tests.
type SessionStoreStub struct {
	Sessions map[int64]*model.RatingSession
	Err      error
}

// NewSessionStoreStub constructs stub store with initialized map.
func NewSessionStoreStub() *SessionStoreStub {
	return &SessionStoreStub{Sessions: make(map[int64]*model.RatingSession)}
}

// Get returns the stored session or the store's not found error.
func (s *SessionStoreStub) Get(ctx context.Context, customerUserID int64) (*model.RatingSession, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if sess, ok := s.Sessions[customerUserID]; ok {
		return sess, nil
	}
	return nil, session.ErrNotFound
}

// Save stores the session.
func (s *SessionStoreStub) Save(ctx context.Context, sess *model.RatingSession) error {
	if s.Err != nil {
		return s.Err
	}
	s.Sessions[sess.CustomerUserID] = sess
	return nil
}

// Delete removes the session.
func (s *SessionStoreStub) Delete(ctx context.Context, customerUserID int64) error {
	if s.Err != nil {
		return s.Err
	}
	delete(s.Sessions, customerUserID)
	return nil
}

// SubmitCall records one SubmitReview invocation.
type SubmitCall struct {
	OrderID        int64
	MerchantID     int64
	CustomerUserID int64
	Rating         model.Rating
	TextReview     *string
}

// NotifyCall records one NotifyMerchantForConfirmation invocation.
type NotifyCall struct {
	ReviewID   int64
	OrderID    int64
	MerchantID int64
	Rating     model.Rating
}

// DecisionCall records one ProcessMerchantConfirmation invocation.
type DecisionCall struct {
	ReviewID   int64
	MerchantID int64
	Confirmed  bool
}

// FlowStub records orchestrator calls and returns configured outcomes.
type FlowStub struct {
	SubmitID     int64
	SubmitOK     bool
	NotifyOK     bool
	DecisionOK   bool
	Submits      []SubmitCall
	Notifies     []NotifyCall
	Decisions    []DecisionCall
	TriggerCalls []int64
	TriggerOK    bool
}

// NewFlowStub constructs a stub where every operation succeeds.
func NewFlowStub() *FlowStub {
	return &FlowStub{SubmitID: 1, SubmitOK: true, NotifyOK: true, DecisionOK: true, TriggerOK: true}
}

// TriggerReviewFlow records the order id and returns the configured outcome.
func (f *FlowStub) TriggerReviewFlow(ctx context.Context, orderID, merchantID, customerUserID int64) bool {
	f.TriggerCalls = append(f.TriggerCalls, orderID)
	return f.TriggerOK
}

// SubmitReview records the call and returns the configured outcome.
func (f *FlowStub) SubmitReview(ctx context.Context, orderID, merchantID, customerUserID int64, rating model.Rating, textReview *string) (int64, bool) {
	f.Submits = append(f.Submits, SubmitCall{orderID, merchantID, customerUserID, rating, textReview})
	return f.SubmitID, f.SubmitOK
}

// NotifyMerchantForConfirmation records the call and returns the configured outcome.
func (f *FlowStub) NotifyMerchantForConfirmation(ctx context.Context, reviewID, orderID, merchantID int64, rating model.Rating, textReview *string) bool {
	f.Notifies = append(f.Notifies, NotifyCall{reviewID, orderID, merchantID, rating})
	return f.NotifyOK
}

// ProcessMerchantConfirmation records the call and returns the configured outcome.
func (f *FlowStub) ProcessMerchantConfirmation(ctx context.Context, reviewID, merchantID int64, confirmed bool) bool {
	f.Decisions = append(f.Decisions, DecisionCall{reviewID, merchantID, confirmed})
	return f.DecisionOK
}
