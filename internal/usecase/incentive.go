package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
)

// ConfigKeyLevels holds the JSON array of level thresholds.
const ConfigKeyLevels = "level_thresholds"

// defaultLevels apply when no level table is configured.
var defaultLevels = []model.Level{
	{XPThreshold: 0, Name: "新手"},
	{XPThreshold: 100, Name: "入门"},
	{XPThreshold: 500, Name: "熟客"},
	{XPThreshold: 1500, Name: "达人"},
	{XPThreshold: 5000, Name: "大师"},
}

// IncentiveUseCase credits points and experience to users and keeps their
// level in line with the configured thresholds.
type IncentiveUseCase struct {
	users   repository.UserRepository
	configs repository.ConfigRepository
	logger  *slog.Logger
}

func NewIncentiveUseCase(users repository.UserRepository, configs repository.ConfigRepository, logger *slog.Logger) *IncentiveUseCase {
	return &IncentiveUseCase{users: users, configs: configs, logger: logger}
}

// GrantReviewReward credits the user and recomputes their level. The grant
// is the authoritative part: a level recompute failure is logged only.
func (u *IncentiveUseCase) GrantReviewReward(ctx context.Context, userID int64, points, xp int, reason string) error {
	if err := u.users.GrantRewards(ctx, userID, points, xp, reason); err != nil {
		return err
	}
	if err := u.recomputeLevel(ctx, userID); err != nil {
		u.logger.Warn("level recompute failed",
			slog.Int64("user_id", userID), slog.String("error", err.Error()))
	}
	return nil
}

func (u *IncentiveUseCase) recomputeLevel(ctx context.Context, userID int64) error {
	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	target := levelFor(u.levels(ctx), user.XP)
	if target == "" || target == user.LevelName {
		return nil
	}

	if err := u.users.UpdateLevel(ctx, userID, target); err != nil {
		return err
	}
	u.logger.Info("user level changed",
		slog.Int64("user_id", userID),
		slog.String("from", user.LevelName),
		slog.String("to", target),
	)
	return nil
}

func (u *IncentiveUseCase) levels(ctx context.Context) []model.Level {
	var configured []model.Level
	err := u.configs.GetJSON(ctx, ConfigKeyLevels, &configured)
	switch {
	case err == nil && len(configured) > 0:
		return configured
	case err != nil && !errors.Is(err, domainErrors.ErrNotFound):
		u.logger.Warn("level thresholds config unavailable, using defaults",
			slog.String("error", err.Error()))
	}
	return defaultLevels
}

// levelFor picks the highest threshold not exceeding the experience value.
func levelFor(levels []model.Level, xp int) string {
	sorted := make([]model.Level, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].XPThreshold < sorted[j].XPThreshold })

	name := ""
	for _, lvl := range sorted {
		if xp >= lvl.XPThreshold {
			name = lvl.Name
		}
	}
	return name
}
