package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/chimchimster/balance-bot/core/telegram"
	"github.com/chimchimster/balance-bot/core/telegram/middleware"
)

// Sink receives updates that were not consumed by registered commands.
// The session engine implements it: every event passes through the
// authentication-state guard before a state handler runs.
type Sink interface {
	HandleText(c tele.Context) error
	HandleCallback(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for inbound text messages. Commands found in
// the registry run directly; everything else is pushed into the sink.
func TextRoutes(reg *tg.Registry, sink Sink, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, func() error {
					return cmd.Handler(c)
				})
			}
		}

		if sink != nil {
			return handleWithSummary(c, "session", start, func() error {
				return sink.HandleText(c)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}
