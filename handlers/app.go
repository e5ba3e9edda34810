package handlers

import (
	"context"

	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/session"
)

// mainMenu renders the hub. It also serves as the fallback for events no
// other handler claims.
func (d *Deps) mainMenu(_ context.Context, sc *session.Scope) error {
	sc.ReplyText("Balance store. What would you like to do?", keyboards.MainMenu(d.SupportURL))
	sc.ResetToHub()
	return nil
}
