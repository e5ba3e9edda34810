package bot

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/chimchimster/balance-bot/session"
)

// Transport implements session.Transport over a telebot instance. The bot is
// attached after RunTelegram builds it, via the OnStart hook.
type Transport struct {
	bot atomic.Pointer[tele.Bot]
}

func NewTransport() *Transport { return &Transport{} }

// Attach installs the live bot. Deliver and Retract fail until it is called.
func (t *Transport) Attach(b *tele.Bot) { t.bot.Store(b) }

func (t *Transport) Deliver(_ context.Context, chatID int64, content session.Content) (int, error) {
	b := t.bot.Load()
	if b == nil {
		return 0, fmt.Errorf("transport: bot not attached")
	}

	recipient := &tele.Chat{ID: chatID}
	var opts []any
	if markup, ok := content.Controls.(*tele.ReplyMarkup); ok && markup != nil {
		opts = append(opts, markup)
	}

	var (
		msg *tele.Message
		err error
	)
	if content.Photo != "" {
		photo := &tele.Photo{File: photoFile(content.Photo), Caption: content.Text}
		msg, err = b.Send(recipient, photo, opts...)
	} else {
		msg, err = b.Send(recipient, content.Text, opts...)
	}
	if err != nil {
		return 0, fmt.Errorf("transport: send to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

// Retract deletes a previously rendered message. An already-deleted message
// is not an error; the ledger entry was simply stale.
func (t *Transport) Retract(_ context.Context, chatID int64, messageID int) error {
	b := t.bot.Load()
	if b == nil {
		return fmt.Errorf("transport: bot not attached")
	}
	err := b.Delete(tele.StoredMessage{ChatID: chatID, MessageID: fmt.Sprintf("%d", messageID)})
	if err == nil || isAlreadyGone(err) {
		return nil
	}
	return fmt.Errorf("transport: delete %d in %d: %w", messageID, chatID, err)
}

func photoFile(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.FromDisk(ref)
}

func isAlreadyGone(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "message to delete not found") ||
		strings.Contains(msg, "message can't be deleted")
}
