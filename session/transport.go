package session

import "context"

// Content is one outbound reply. Controls carries a transport-specific
// keyboard value that the engine passes through untouched.
type Content struct {
	Text     string
	Photo    string // file id or URL; empty for text-only replies
	Controls any
}

// Transport renders replies and retracts previously rendered ones. Retract is
// best-effort: an already-deleted message must not surface as an error.
type Transport interface {
	Deliver(ctx context.Context, chatID int64, content Content) (messageID int, err error)
	Retract(ctx context.Context, chatID int64, messageID int) error
}
