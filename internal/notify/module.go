package notify

import (
	"signal_bot/internal/modules/config"
	"signal_bot/internal/runner"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newNotifier(cfg *config.Config, log *zap.Logger) runner.Notifier {
	out := Multi{NewLog(log.Named("report"))}
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		return out
	}
	tg, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		log.Warn("telegram disabled", zap.Error(err))
		return out
	}
	return append(out, tg)
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(newNotifier),
	)
}
