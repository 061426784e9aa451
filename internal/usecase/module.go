package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/config"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
)

// Module exposes use case implementations to fx graph.
var Module = fx.Options(
	fx.Provide(NewIncentiveUseCase),
	fx.Provide(newReviewFlow),
)

type reviewFlowParams struct {
	fx.In

	Orders    repository.OrderRepository
	Reviews   repository.ReviewRepository
	Merchants repository.MerchantRepository
	Users     repository.UserRepository
	Configs   repository.ConfigRepository
	Gateway   telegram.Client
	Incentive *IncentiveUseCase
	Config    *config.Config
	Logger    *slog.Logger
}

func newReviewFlow(p reviewFlowParams) *ReviewFlow {
	return NewReviewFlow(
		p.Orders, p.Reviews, p.Merchants, p.Users, p.Configs,
		p.Gateway, p.Incentive, p.Config.AdminChatIDs, p.Logger,
	)
}
