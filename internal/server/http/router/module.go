package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/avdeyev/reviewflow/internal/app"
	"github.com/avdeyev/reviewflow/internal/bot"
	"github.com/avdeyev/reviewflow/internal/config"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(newRouter)

type routerParams struct {
	fx.In

	Facade     *app.MarketFacade
	Dispatcher *bot.Dispatcher
	Config     *config.Config
	Logger     *slog.Logger
}

func newRouter(p routerParams) *gin.Engine {
	return Setup(p.Facade, p.Dispatcher, p.Config.AdminTokenHash, p.Logger)
}
