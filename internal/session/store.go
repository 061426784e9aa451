package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avdeyev/reviewflow/internal/domain/model"
)

const keyPrefix = "review_session:"

// ErrNotFound indicates no rating session exists for the customer.
var ErrNotFound = errors.New("rating session not found")

// Store keeps in-progress rating sessions in Redis, keyed by customer id.
// Sessions expire after the configured TTL so abandoned conversations
// clean themselves up.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed session store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(customerUserID int64) string {
	return keyPrefix + strconv.FormatInt(customerUserID, 10)
}

// Get retrieves the rating session for a customer.
func (s *Store) Get(ctx context.Context, customerUserID int64) (*model.RatingSession, error) {
	data, err := s.client.Get(ctx, key(customerUserID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session model.RatingSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &session, nil
}

// Save persists the rating session with the configured TTL.
func (s *Store) Save(ctx context.Context, session *model.RatingSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, key(session.CustomerUserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Delete removes the rating session for a customer.
func (s *Store) Delete(ctx context.Context, customerUserID int64) error {
	if err := s.client.Del(ctx, key(customerUserID)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}

	return nil
}
