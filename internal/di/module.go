package di

import (
	"go.uber.org/fx"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
	"github.com/avdeyev/reviewflow/internal/app"
	"github.com/avdeyev/reviewflow/internal/bot"
	"github.com/avdeyev/reviewflow/internal/config"
	"github.com/avdeyev/reviewflow/internal/logger"
	"github.com/avdeyev/reviewflow/internal/server/http/router"
	"github.com/avdeyev/reviewflow/internal/session"
	"github.com/avdeyev/reviewflow/internal/storage/postgres"
	"github.com/avdeyev/reviewflow/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		session.Module,
		telegram.Module,
		usecase.Module,
		bot.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
