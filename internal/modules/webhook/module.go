package webhook

import (
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health/service"
	"signal_bot/internal/runner"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func newHandler(cfg *config.Config, d *runner.Dispatcher, ex *runner.SignalExecutor, state *service.State) *Handler {
	return NewHandler(cfg.Webhook.Token, Defaults{
		Leverage:      cfg.DefaultLeverage(),
		PositionRatio: cfg.DefaultPositionRatio(),
	}, d, ex, state)
}

func register(r *gin.Engine, h *Handler) {
	h.Register(r)
}

func Module() fx.Option {
	return fx.Module("webhook",
		fx.Provide(newHandler),
		fx.Invoke(register),
	)
}
