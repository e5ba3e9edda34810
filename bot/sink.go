package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/chimchimster/balance-bot/core/telegram/callbacks"
	tghelpers "github.com/chimchimster/balance-bot/core/telegram/helpers"
	"github.com/chimchimster/balance-bot/session"
)

// Sink feeds telebot updates into the session engine, implementing
// router.Sink. It is the only place transport types are converted into
// engine events.
type Sink struct {
	engine *session.Engine
}

func NewSink(engine *session.Engine) *Sink { return &Sink{engine: engine} }

func (s *Sink) HandleText(c tele.Context) error {
	ev := baseEvent(c)
	ev.Kind = session.KindMessage
	ev.Text = c.Text()
	return s.engine.Handle(tghelpers.BuildContext(c), ev)
}

func (s *Sink) HandleCallback(c tele.Context) error {
	ev := baseEvent(c)
	ev.Kind = session.KindCallback
	ev.CallbackKey, ev.CallbackPayload = callbacks.ParseCallbackData(c.Callback())
	return s.engine.Handle(tghelpers.BuildContext(c), ev)
}

func baseEvent(c tele.Context) session.Event {
	var ev session.Event
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		ev.UserID = sender.ID
	}
	return ev
}
