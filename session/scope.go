package session

// Scope is what a state handler gets to work with: the inbound event, a
// mutable working copy of the ChatState, and an outbox of queued replies.
// Nothing the handler does is visible outside until it returns nil: the
// engine then persists the state and flushes the outbox through the render
// ledger. A non-nil return discards every staged change.
type Scope struct {
	Event Event
	State *ChatState

	replies []Content
	next    *State
	reset   bool
}

// Reply queues one outbound content item.
func (sc *Scope) Reply(c Content) { sc.replies = append(sc.replies, c) }

// ReplyText queues a text reply with an optional keyboard.
func (sc *Scope) ReplyText(text string, controls ...any) {
	c := Content{Text: text}
	if len(controls) > 0 {
		c.Controls = controls[0]
	}
	sc.Reply(c)
}

// ReplyPhoto queues a photo reply with an optional caption and keyboard.
func (sc *Scope) ReplyPhoto(photo, caption string, controls ...any) {
	c := Content{Photo: photo, Text: caption}
	if len(controls) > 0 {
		c.Controls = controls[0]
	}
	sc.Reply(c)
}

// Transition declares the successor state. Not calling it re-arms the current
// state, which is how validation failures re-prompt without advancing.
func (sc *Scope) Transition(next State) { sc.next = &next }

// ResetToHub terminates the flow: the state returns to the hub and scratch
// data is pruned down to the allow-listed subset.
func (sc *Scope) ResetToHub() {
	sc.reset = true
	sc.Transition(RootToApplication)
}
