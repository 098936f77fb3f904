package main

import (
	"signal_bot/internal/account"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/gateway"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/httpserver"
	"signal_bot/internal/modules/observability"
	"signal_bot/internal/modules/webhook"
	"signal_bot/internal/notify"
	"signal_bot/internal/runner"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		config.Module(),
		observability.Module(),
		health.Module(),
		gateway.Module(),
		account.Module(),
		notify.Module(),
		runner.Module(),
		httpserver.Module(),
		webhook.Module(),
	).Run()
}
