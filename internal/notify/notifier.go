package notify

import (
	"context"
	"fmt"
	"strings"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers execution reports to a human.
type Notifier interface {
	Notify(ctx context.Context, r models.ExecutionReport)
}

type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram pushes every report to a single chat.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Notify(_ context.Context, r models.ExecutionReport) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, FormatReport(r))); err != nil {
		logger.Error("telegram send failed: %v", err)
	}
}

// Log writes reports to the process logger; used when Telegram is not configured.
type Log struct {
	log *zap.Logger
}

func NewLog(l *zap.Logger) *Log { return &Log{log: l} }

func (s *Log) Notify(_ context.Context, r models.ExecutionReport) {
	s.log.Info(FormatReport(r))
}

// Multi fans a report out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, r models.ExecutionReport) {
	for _, n := range m {
		n.Notify(ctx, r)
	}
}

func FormatReport(r models.ExecutionReport) string {
	var b strings.Builder

	head := "✅"
	switch {
	case r.Err != nil:
		head = "❗️"
	case r.Skipped != "":
		head = "⏭"
	case r.Outcome != nil && r.Outcome.Kind != models.OutcomeFilled && r.FallbackOrderID == "":
		head = "⚠️"
	}

	sym := r.Symbol
	if sym == "" {
		sym = r.Ticker
	}
	fmt.Fprintf(&b, "%s [%s] %s/%s", head, sym, r.Action, r.Sentiment)

	if r.Side != "" {
		fmt.Fprintf(&b, "\n%s %s @ %s lev=%sx", r.Side, r.Quantity, r.Price, r.Leverage)
	}
	if r.OrderID != "" {
		fmt.Fprintf(&b, "\norder %s", r.OrderID)
		if r.Outcome != nil {
			fmt.Fprintf(&b, ": %s", r.Outcome.Kind)
			if r.Outcome.Kind != models.OutcomeFilled {
				if r.Outcome.Cancelled {
					b.WriteString(" (cancelled)")
				} else {
					b.WriteString(" (cancel failed)")
				}
			}
		}
	}
	if r.FallbackOrderID != "" {
		fmt.Fprintf(&b, "\nmarket fallback %s", r.FallbackOrderID)
	}
	if r.Skipped != "" {
		fmt.Fprintf(&b, "\nskipped: %s", r.Skipped)
	}
	if r.Err != nil {
		fmt.Fprintf(&b, "\nerror: %v", r.Err)
	}
	return b.String()
}
