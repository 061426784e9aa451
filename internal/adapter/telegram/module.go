package telegram

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/avdeyev/reviewflow/internal/config"
)

// Module exposes Bot API client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.TelegramAPIBase, p.Config.TelegramToken, p.Logger)
}
