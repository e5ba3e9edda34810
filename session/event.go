package session

// EventKind distinguishes the two inbound event shapes a state can accept.
type EventKind int

const (
	KindMessage EventKind = iota
	KindCallback
)

func (k EventKind) String() string {
	if k == KindCallback {
		return "callback"
	}
	return "message"
}

// Event is one inbound user interaction, already stripped of transport
// detail. CallbackKey/CallbackPayload are set only for KindCallback.
type Event struct {
	Kind            EventKind
	ChatID          int64
	UserID          int64
	Text            string
	CallbackKey     string
	CallbackPayload string
}

// Input returns the value a state handler should validate: the pressed
// button's payload for callbacks, the typed text otherwise.
func (e Event) Input() string {
	if e.Kind == KindCallback {
		if e.CallbackPayload != "" {
			return e.CallbackPayload
		}
		return e.CallbackKey
	}
	return e.Text
}
