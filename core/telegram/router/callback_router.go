package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/chimchimster/balance-bot/core/telegram"
	"github.com/chimchimster/balance-bot/core/telegram/callbacks"
	"github.com/chimchimster/balance-bot/core/telegram/middleware"
)

// CallbackRoute returns a handler that feeds every callback press into the sink.
func CallbackRoute(sink Sink) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		_ = c.Respond()

		if sink == nil {
			logHandlerSummary(c, name, start, nil, extras...)
			return nil
		}

		return handleWithSummary(c, name, start, func() error {
			return sink.HandleCallback(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
