package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chimchimster/balance-bot/auth"
	"github.com/chimchimster/balance-bot/core/logger"
)

// Handler processes one inbound event for a chat. It stages replies and a
// transition on the Scope; returning an error discards everything staged and
// leaves the persisted ChatState untouched.
type Handler func(ctx context.Context, sc *Scope) error

// Resolver classifies the user before any dispatch happens. Satisfied by
// *auth.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, externalID int64) auth.Signal
}

const lockStripes = 64

// Options wires the engine's collaborators and the fixed replies it emits on
// guard decisions.
type Options struct {
	Store     Store
	Transport Transport
	Resolver  Resolver

	// TransientReply is sent when resolution fails; the event is dropped
	// without touching ChatState.
	TransientReply Content
}

// Engine routes every inbound event: the auth signal is resolved first and
// either permits dispatch into the chat's current state, or redirects into
// the registration/authentication flows. State transitions and replies are
// committed only after the selected handler returns nil.
type Engine struct {
	store     Store
	transport Transport
	resolver  Resolver

	states     map[State]Handler
	callbacks  map[string]Handler
	interrupts map[string]Handler
	hub        Handler

	onNotRegistered    Handler
	onNotAuthenticated Handler

	transientReply Content

	locks [lockStripes]stripe
}

// stripe is a channel-based mutex so acquisition can honor ctx cancellation.
type stripe struct{ ch chan struct{} }

func NewEngine(opts Options) *Engine {
	e := &Engine{
		store:          opts.Store,
		transport:      opts.Transport,
		resolver:       opts.Resolver,
		states:         make(map[State]Handler),
		callbacks:      make(map[string]Handler),
		interrupts:     make(map[string]Handler),
		transientReply: opts.TransientReply,
	}
	if e.transientReply.Text == "" {
		e.transientReply.Text = "Something went wrong, please try again later."
	}
	for i := range e.locks {
		e.locks[i] = stripe{ch: make(chan struct{}, 1)}
	}
	return e
}

// Register binds a handler to a flow state.
func (e *Engine) Register(state State, h Handler) { e.states[state] = h }

// RegisterCallback binds a handler to a callback key, dispatched when the
// chat is at the hub rather than inside a flow.
func (e *Engine) RegisterCallback(key string, h Handler) { e.callbacks[key] = h }

// RegisterInterrupt binds a callback key that is legal while the user is not
// authenticated, regardless of the chat's current state. Used by the
// password-restore entry and cancel controls.
func (e *Engine) RegisterInterrupt(key string, h Handler) { e.interrupts[key] = h }

// SetHub installs the steady-state handler that renders the main menu.
func (e *Engine) SetHub(h Handler) { e.hub = h }

// SetGuardRedirects installs the handlers run when the resolver reports
// NotRegistered or NotAuthenticated for a chat that is not already inside the
// corresponding flow.
func (e *Engine) SetGuardRedirects(notRegistered, notAuthenticated Handler) {
	e.onNotRegistered = notRegistered
	e.onNotAuthenticated = notAuthenticated
}

// Handle processes one inbound event end to end. Events for the same chat are
// serialized on a striped per-chat lock; the transport is expected to already
// deliver them one at a time, the lock closes the double-submit race.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	lock := e.locks[uint64(ev.ChatID)%lockStripes]
	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-lock.ch }()

	start := time.Now()
	log := logger.Component("session")

	stored, err := e.store.Load(ctx, ev.ChatID)
	if err != nil {
		log.Warn("state load failed",
			slog.String("event", "handle"),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("err", err.Error()),
		)
		e.deliverOnly(ctx, ev.ChatID, e.transientReply)
		return err
	}
	if stored == nil {
		stored = NewChatState(ev.ChatID)
	}

	sc := &Scope{Event: ev, State: stored.Clone()}

	sig := e.resolver.Resolve(ctx, ev.UserID)
	handler, name := e.selectHandler(sig, sc)

	log.Debug("event dispatched",
		slog.String("event", "dispatch"),
		slog.String("rid", logger.RIDFrom(ctx)),
		slog.Int64("chat_id", ev.ChatID),
		slog.String("kind", ev.Kind.String()),
		slog.String("signal", sig.String()),
		slog.String("state", string(stored.Current)),
		slog.String("handler", name),
	)

	if sig == auth.TransientError {
		// Short-circuit: generic retryable reply, no transition committed.
		e.deliverOnly(ctx, ev.ChatID, e.transientReply)
		return nil
	}
	if handler == nil {
		return nil
	}

	if err := handler(ctx, sc); err != nil {
		log.Warn("handler failed",
			slog.String("event", "handle"),
			slog.String("rid", logger.RIDFrom(ctx)),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("handler", name),
			slog.String("state", string(stored.Current)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("err", err.Error()),
		)
		e.deliverOnly(ctx, ev.ChatID, e.transientReply)
		return err
	}

	return e.commit(ctx, log, sc)
}

// selectHandler applies the guard rule: the auth signal decides whether the
// chat's own transition table is consulted at all.
func (e *Engine) selectHandler(sig auth.Signal, sc *Scope) (Handler, string) {
	current := sc.State.Current

	switch sig {
	case auth.TransientError:
		return nil, "transient"

	case auth.NotRegistered:
		// A chat already walking the registration flow keeps walking it.
		if current.InFlow(FlowRegistration) || current == RootToRegistration {
			if h, ok := e.states[current]; ok {
				return h, string(current)
			}
		}
		return e.onNotRegistered, "guard.not_registered"

	case auth.NotAuthenticated:
		// Global interrupts: restore entry/cancel work from any state.
		if sc.Event.Kind == KindCallback {
			if h, ok := e.interrupts[sc.Event.CallbackKey]; ok {
				return h, "interrupt." + sc.Event.CallbackKey
			}
		}
		// In-flight restore, registration or login flows are resumed, not
		// restarted.
		if current.InFlow(FlowRestore) || current.InFlow(FlowRegistration) ||
			current == RootToAuthentication || current == RootToRegistration {
			if h, ok := e.states[current]; ok {
				return h, string(current)
			}
		}
		return e.onNotAuthenticated, "guard.not_authenticated"
	}

	// Authenticated: state table first, then hub-level callbacks.
	if !current.IsHub() {
		if h, ok := e.states[current]; ok {
			return h, string(current)
		}
	}
	if sc.Event.Kind == KindCallback {
		if h, ok := e.callbacks[sc.Event.CallbackKey]; ok {
			return h, "callback." + sc.Event.CallbackKey
		}
	}
	return e.hub, "hub"
}

// commit applies the staged transition, flushes the reply outbox through the
// render ledger and persists the resulting state.
func (e *Engine) commit(ctx context.Context, log *slog.Logger, sc *Scope) error {
	state := sc.State

	if sc.next != nil {
		state.Current = *sc.next
	}
	if sc.reset {
		state.Prune()
	}

	if len(sc.replies) > 0 {
		ledger, err := e.render(ctx, state.ChatID, state.Ledger, sc.replies)
		if err != nil {
			log.Warn("render failed",
				slog.String("event", "render"),
				slog.Int64("chat_id", state.ChatID),
				slog.String("err", err.Error()),
			)
			return err
		}
		state.Ledger = ledger
	}

	if err := e.store.Save(ctx, state); err != nil {
		log.Warn("state save failed",
			slog.String("event", "handle"),
			slog.Int64("chat_id", state.ChatID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("session: commit chat %d: %w", state.ChatID, err)
	}
	return nil
}

// render retracts the previously live messages, then delivers the queued
// replies and records the new live message ids.
func (e *Engine) render(ctx context.Context, chatID int64, prev RenderLedger, replies []Content) (RenderLedger, error) {
	if prev.TextMessageID != 0 {
		_ = e.transport.Retract(ctx, chatID, prev.TextMessageID)
	}
	if prev.PhotoMessageID != 0 {
		_ = e.transport.Retract(ctx, chatID, prev.PhotoMessageID)
	}

	var next RenderLedger
	for _, c := range replies {
		id, err := e.transport.Deliver(ctx, chatID, c)
		if err != nil {
			return next, err
		}
		if c.Photo != "" {
			next.PhotoMessageID = id
		} else {
			next.TextMessageID = id
		}
	}
	return next, nil
}

// deliverOnly sends a one-off reply outside the render ledger. Used for
// transient-failure notices that must not disturb the live prompt.
func (e *Engine) deliverOnly(ctx context.Context, chatID int64, c Content) {
	if _, err := e.transport.Deliver(ctx, chatID, c); err != nil {
		logger.Component("session").Warn("fallback reply failed",
			slog.String("event", "render"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
