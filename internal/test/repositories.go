package test

import (
	"context"
	"encoding/json"
	"time"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
)

// OrderRepositoryStub allows tests to customize behaviour.
type OrderRepositoryStub struct {
	CreateFn                       func(context.Context, int64, int64, float64) (*model.Order, error)
	GetByIDFn                      func(context.Context, int64) (*model.Order, error)
	UpdateStatusFn                 func(context.Context, int64, model.OrderStatus) error
	SelectCompletedWithoutReviewFn func(context.Context, int) ([]model.Order, error)

	Orders      map[int64]*model.Order
	Pending     []model.Order
	UpdateCalls []OrderUpdateCall
	Prompted    []int64
	Next        int64
}

// OrderUpdateCall records one UpdateStatus invocation.
type OrderUpdateCall struct {
	OrderID int64
	Status  model.OrderStatus
}

// NewOrderRepositoryStub constructs stub repository with initialized maps.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[int64]*model.Order), Next: 1}
}

// Create registers order with autoincremented identifier.
func (s *OrderRepositoryStub) Create(ctx context.Context, merchantID, customerUserID int64, price float64) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, merchantID, customerUserID, price)
	}
	if s.Orders == nil {
		s.Orders = make(map[int64]*model.Order)
	}
	if s.Next == 0 {
		s.Next = 1
	}
	order := &model.Order{
		ID:             s.Next,
		MerchantID:     merchantID,
		CustomerUserID: customerUserID,
		Price:          price,
		Status:         model.OrderStatusPending,
		CreatedAt:      time.Now(),
	}
	s.Next++
	s.Orders[order.ID] = order
	return order, nil
}

// GetByID fetches order by identifier or returns not found.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, orderID)
	}
	if order, ok := s.Orders[orderID]; ok {
		return order, nil
	}
	return nil, domainErrors.ErrNotFound
}

// UpdateStatus records update invocations.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, orderID, status)
	}
	s.UpdateCalls = append(s.UpdateCalls, OrderUpdateCall{OrderID: orderID, Status: status})
	if order, ok := s.Orders[orderID]; ok {
		order.Status = status
	}
	return nil
}

// MarkReviewPrompted records the order as already prompted.
func (s *OrderRepositoryStub) MarkReviewPrompted(ctx context.Context, orderID int64) error {
	if _, ok := s.Orders[orderID]; !ok {
		return domainErrors.ErrNotFound
	}
	s.Prompted = append(s.Prompted, orderID)
	return nil
}

// SelectCompletedWithoutReview returns orders queued for review prompts.
func (s *OrderRepositoryStub) SelectCompletedWithoutReview(ctx context.Context, limit int) ([]model.Order, error) {
	if s.SelectCompletedWithoutReviewFn != nil {
		return s.SelectCompletedWithoutReviewFn(ctx, limit)
	}
	if limit > len(s.Pending) {
		limit = len(s.Pending)
	}
	batch := s.Pending[:limit]
	s.Pending = s.Pending[limit:]
	return batch, nil
}

// ReviewRepositoryStub stores reviews in-memory for tests.
type ReviewRepositoryStub struct {
	CreateFn     func(context.Context, int64, int64, int64, model.Rating, *string) (*model.Review, error)
	GetDetailsFn func(context.Context, int64) (*model.ReviewDetails, error)
	ConfirmFn    func(context.Context, int64) error

	Reviews map[int64]*model.Review
	ByOrder map[int64]*model.Review
	Details map[int64]*model.ReviewDetails
	Next    int64
}

// NewReviewRepositoryStub constructs stub repository with initialized maps.
func NewReviewRepositoryStub() *ReviewRepositoryStub {
	return &ReviewRepositoryStub{
		Reviews: make(map[int64]*model.Review),
		ByOrder: make(map[int64]*model.Review),
		Details: make(map[int64]*model.ReviewDetails),
		Next:    1,
	}
}

// Create registers review unless the order already has one.
func (s *ReviewRepositoryStub) Create(ctx context.Context, orderID, merchantID, customerUserID int64, rating model.Rating, textReview *string) (*model.Review, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, orderID, merchantID, customerUserID, rating, textReview)
	}
	if _, exists := s.ByOrder[orderID]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	review := &model.Review{
		ID:             s.Next,
		OrderID:        orderID,
		MerchantID:     merchantID,
		CustomerUserID: customerUserID,
		Rating:         rating,
		TextReview:     textReview,
		Status:         model.ReviewStatusPendingMerchant,
		CreatedAt:      time.Now(),
	}
	s.Next++
	s.Reviews[review.ID] = review
	s.ByOrder[orderID] = review
	return review, nil
}

// GetByOrderID fetches review by order or returns not found.
func (s *ReviewRepositoryStub) GetByOrderID(ctx context.Context, orderID int64) (*model.Review, error) {
	if review, ok := s.ByOrder[orderID]; ok {
		return review, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetDetails returns configured details or builds them from the stored review.
func (s *ReviewRepositoryStub) GetDetails(ctx context.Context, reviewID int64) (*model.ReviewDetails, error) {
	if s.GetDetailsFn != nil {
		return s.GetDetailsFn(ctx, reviewID)
	}
	if details, ok := s.Details[reviewID]; ok {
		return details, nil
	}
	if review, ok := s.Reviews[reviewID]; ok {
		return &model.ReviewDetails{Review: *review}, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Confirm performs guarded transition semantics of the real repository.
func (s *ReviewRepositoryStub) Confirm(ctx context.Context, reviewID int64) error {
	if s.ConfirmFn != nil {
		return s.ConfirmFn(ctx, reviewID)
	}
	review, ok := s.Reviews[reviewID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if review.IsConfirmedByMerchant {
		return domainErrors.ErrAlreadyConfirmed
	}
	review.IsConfirmedByMerchant = true
	review.Status = model.ReviewStatusCompleted
	if details, exists := s.Details[reviewID]; exists {
		details.IsConfirmedByMerchant = true
		details.Status = model.ReviewStatusCompleted
	}
	return nil
}

// MerchantRepositoryStub stores merchants in-memory for tests.
type MerchantRepositoryStub struct {
	Merchants map[int64]*model.Merchant
	Next      int64
	Err       error
}

// NewMerchantRepositoryStub constructs stub repository with initialized map.
func NewMerchantRepositoryStub() *MerchantRepositoryStub {
	return &MerchantRepositoryStub{Merchants: make(map[int64]*model.Merchant), Next: 1}
}

// Create registers merchant with autoincremented identifier.
func (s *MerchantRepositoryStub) Create(ctx context.Context, name string, chatID int64) (*model.Merchant, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	merchant := &model.Merchant{ID: s.Next, Name: name, ChatID: chatID, CreatedAt: time.Now()}
	s.Next++
	s.Merchants[merchant.ID] = merchant
	return merchant, nil
}

// GetByID fetches merchant by identifier or returns not found.
func (s *MerchantRepositoryStub) GetByID(ctx context.Context, merchantID int64) (*model.Merchant, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if merchant, ok := s.Merchants[merchantID]; ok {
		return merchant, nil
	}
	return nil, domainErrors.ErrNotFound
}

// UserRepositoryStub stores users and granted rewards in-memory for tests.
type UserRepositoryStub struct {
	GrantRewardsFn func(context.Context, int64, int, int, string) error

	Users  map[int64]*model.User
	Grants []GrantCall
	Levels []LevelCall
}

// GrantCall records one GrantRewards invocation.
type GrantCall struct {
	UserID int64
	Points int
	XP     int
	Reason string
}

// LevelCall records one UpdateLevel invocation.
type LevelCall struct {
	UserID    int64
	LevelName string
}

// NewUserRepositoryStub constructs stub repository with initialized map.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{Users: make(map[int64]*model.User)}
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	if user, ok := s.Users[userID]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Upsert registers user on first sight and refreshes the username after.
func (s *UserRepositoryStub) Upsert(ctx context.Context, userID int64, username string) (*model.User, error) {
	if user, ok := s.Users[userID]; ok {
		user.Username = username
		return user, nil
	}
	user := &model.User{ID: userID, Username: username, LevelName: "新手", CreatedAt: time.Now()}
	s.Users[userID] = user
	return user, nil
}

// GrantRewards records the grant and applies it to the stored user.
func (s *UserRepositoryStub) GrantRewards(ctx context.Context, userID int64, points, xp int, reason string) error {
	if s.GrantRewardsFn != nil {
		return s.GrantRewardsFn(ctx, userID, points, xp, reason)
	}
	user, ok := s.Users[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.Points += points
	user.XP += xp
	s.Grants = append(s.Grants, GrantCall{UserID: userID, Points: points, XP: xp, Reason: reason})
	return nil
}

// UpdateLevel records level changes.
func (s *UserRepositoryStub) UpdateLevel(ctx context.Context, userID int64, levelName string) error {
	user, ok := s.Users[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	user.LevelName = levelName
	s.Levels = append(s.Levels, LevelCall{UserID: userID, LevelName: levelName})
	return nil
}

// ConfigRepositoryStub serves settings from an in-memory map of JSON values.
type ConfigRepositoryStub struct {
	Values map[string]string
	Err    error
}

// NewConfigRepositoryStub constructs stub repository with initialized map.
func NewConfigRepositoryStub() *ConfigRepositoryStub {
	return &ConfigRepositoryStub{Values: make(map[string]string)}
}

// GetInt decodes integer setting or returns the default.
func (s *ConfigRepositoryStub) GetInt(ctx context.Context, key string, def int) (int, error) {
	if s.Err != nil {
		return def, s.Err
	}
	raw, ok := s.Values[key]
	if !ok {
		return def, nil
	}
	var value int
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return def, err
	}
	return value, nil
}

// GetString decodes string setting or returns the default.
func (s *ConfigRepositoryStub) GetString(ctx context.Context, key string, def string) (string, error) {
	if s.Err != nil {
		return def, s.Err
	}
	raw, ok := s.Values[key]
	if !ok {
		return def, nil
	}
	var value string
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return def, err
	}
	return value, nil
}

// GetJSON decodes setting into dest or returns not found.
func (s *ConfigRepositoryStub) GetJSON(ctx context.Context, key string, dest any) error {
	if s.Err != nil {
		return s.Err
	}
	raw, ok := s.Values[key]
	if !ok {
		return domainErrors.ErrNotFound
	}
	return json.Unmarshal([]byte(raw), dest)
}

// Set stores the JSON encoding of value.
func (s *ConfigRepositoryStub) Set(ctx context.Context, key string, value any) error {
	if s.Err != nil {
		return s.Err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.Values[key] = string(raw)
	return nil
}

// FactoryStub bundles repository stubs behind the factory interface.
type FactoryStub struct {
	OrderRepo    *OrderRepositoryStub
	ReviewRepo   *ReviewRepositoryStub
	MerchantRepo *MerchantRepositoryStub
	UserRepo     *UserRepositoryStub
	ConfigRepo   *ConfigRepositoryStub
}

// NewFactoryStub constructs factory with fresh stubs.
func NewFactoryStub() *FactoryStub {
	return &FactoryStub{
		OrderRepo:    NewOrderRepositoryStub(),
		ReviewRepo:   NewReviewRepositoryStub(),
		MerchantRepo: NewMerchantRepositoryStub(),
		UserRepo:     NewUserRepositoryStub(),
		ConfigRepo:   NewConfigRepositoryStub(),
	}
}

func (f *FactoryStub) Orders() repository.OrderRepository       { return f.OrderRepo }
func (f *FactoryStub) Reviews() repository.ReviewRepository     { return f.ReviewRepo }
func (f *FactoryStub) Merchants() repository.MerchantRepository { return f.MerchantRepo }
func (f *FactoryStub) Users() repository.UserRepository         { return f.UserRepo }
func (f *FactoryStub) Configs() repository.ConfigRepository     { return f.ConfigRepo }
