package bot

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/domain/repository"
	"github.com/avdeyev/reviewflow/internal/session"
	"github.com/avdeyev/reviewflow/internal/usecase"
)

// Module exposes the update dispatcher to fx graph.
var Module = fx.Provide(newDispatcher)

type dispatcherParams struct {
	fx.In

	Sessions  *session.Store
	Flow      *usecase.ReviewFlow
	Orders    repository.OrderRepository
	Reviews   repository.ReviewRepository
	Merchants repository.MerchantRepository
	Users     repository.UserRepository
	Gateway   telegram.Client
	Logger    *slog.Logger
}

func newDispatcher(p dispatcherParams) *Dispatcher {
	return NewDispatcher(p.Sessions, p.Flow, p.Orders, p.Reviews, p.Merchants, p.Users, p.Gateway, p.Logger)
}
