package repository

import (
	"context"

	"github.com/avdeyev/reviewflow/internal/domain/model"
)

// UserRepository describes persistence operations with users and the
// reward ledger. GrantRewards is an additive credit recorded together
// with its reason.
type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*model.User, error)
	Upsert(ctx context.Context, userID int64, username string) (*model.User, error)
	GrantRewards(ctx context.Context, userID int64, points, xp int, reason string) error
	UpdateLevel(ctx context.Context, userID int64, levelName string) error
}
