package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chimchimster/balance-bot/auth"
)

// fakeTransport records deliveries and retractions, handing out incrementing
// message ids the way a chat transport would.
type fakeTransport struct {
	nextID     int
	delivered  []Content
	retracted  []int
	deliverErr error
}

func (f *fakeTransport) Deliver(_ context.Context, _ int64, c Content) (int, error) {
	if f.deliverErr != nil {
		return 0, f.deliverErr
	}
	f.nextID++
	f.delivered = append(f.delivered, c)
	return f.nextID, nil
}

func (f *fakeTransport) Retract(_ context.Context, _ int64, msgID int) error {
	f.retracted = append(f.retracted, msgID)
	return nil
}

func (f *fakeTransport) lastText() string {
	if len(f.delivered) == 0 {
		return ""
	}
	return f.delivered[len(f.delivered)-1].Text
}

type fixedResolver struct{ sig auth.Signal }

func (r fixedResolver) Resolve(context.Context, int64) auth.Signal { return r.sig }

func newTestEngine(t *testing.T, sig auth.Signal) (*Engine, *fakeTransport, Store) {
	t.Helper()
	tr := &fakeTransport{}
	store := NewMemoryStore()
	e := NewEngine(Options{
		Store:     store,
		Transport: tr,
		Resolver:  fixedResolver{sig: sig},
	})
	return e, tr, store
}

func msg(chatID int64, text string) Event {
	return Event{Kind: KindMessage, ChatID: chatID, UserID: chatID, Text: text}
}

func callback(chatID int64, key string) Event {
	return Event{Kind: KindCallback, ChatID: chatID, UserID: chatID, CallbackKey: key}
}

// step builds the validate-store-advance handler shape every flow state uses:
// valid input is stashed under key and the chat advances, invalid input
// re-prompts without a transition.
func step(pattern, key string, next State, errPrompt, okPrompt string) Handler {
	re := regexp.MustCompile(pattern)
	return func(_ context.Context, sc *Scope) error {
		in := sc.Event.Input()
		if !re.MatchString(in) {
			sc.ReplyText(errPrompt)
			return nil
		}
		if err := sc.State.SetData(key, in); err != nil {
			return err
		}
		sc.ReplyText(okPrompt)
		sc.Transition(next)
		return nil
	}
}

type savedAddress struct {
	Region, City, Street, Apartment, State, PostCode, Phone string
}

// registerAddressFlow wires the full delivery-address flow onto the engine,
// persisting through the given sink so the test can count durable writes.
func registerAddressFlow(e *Engine, persisted *[]savedAddress) {
	e.SetHub(func(_ context.Context, sc *Scope) error {
		sc.ReplyText("Main menu")
		return nil
	})
	e.RegisterCallback("add_address", func(_ context.Context, sc *Scope) error {
		sc.ReplyText("Choose a region")
		sc.Transition(AddressRegion)
		return nil
	})
	e.Register(AddressRegion, step(`^(ru|kz)$`, "addr_region", AddressCity, "Pick ru or kz", "Enter your city"))
	e.Register(AddressCity, step(`^[A-Za-z\s-]{1,50}$`, "addr_city", AddressStreet, "City looks wrong", "Enter your street"))
	e.Register(AddressStreet, step(`^[\w\s,.-]{1,255}$`, "addr_street", AddressApartment, "Street looks wrong", "Enter your apartment"))
	e.Register(AddressApartment, step(`^[\w\s-]{1,10}$`, "addr_apartment", AddressState, "Apartment looks wrong", "Enter your state"))
	e.Register(AddressState, step(`^[A-Za-z\s-]{1,50}$`, "addr_state", AddressPostCode, "State looks wrong", "Enter your post code"))
	e.Register(AddressPostCode, step(`^\d{6}$`, "addr_post_code", AddressPhone, "Post code must be 6 digits", "Enter your phone"))
	e.Register(AddressPhone, func(_ context.Context, sc *Scope) error {
		phone := sc.Event.Input()
		if !regexp.MustCompile(`^(\+7|8)\d{7,10}$`).MatchString(phone) {
			sc.ReplyText("Phone looks wrong")
			return nil
		}
		*persisted = append(*persisted, savedAddress{
			Region:    sc.State.GetString("addr_region"),
			City:      sc.State.GetString("addr_city"),
			Street:    sc.State.GetString("addr_street"),
			Apartment: sc.State.GetString("addr_apartment"),
			State:     sc.State.GetString("addr_state"),
			PostCode:  sc.State.GetString("addr_post_code"),
			Phone:     phone,
		})
		sc.ReplyText("Address saved")
		sc.ResetToHub()
		return nil
	})
}

func TestAddressFlowEndToEnd(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	var persisted []savedAddress
	registerAddressFlow(e, &persisted)

	require.NoError(t, e.Handle(ctx, callback(1, "add_address")))
	for _, input := range []string{"ru", "Moscow", "Lenina 1", "12", "Moscow region", "123456", "+79990000000"} {
		require.NoError(t, e.Handle(ctx, msg(1, input)))
	}

	require.Len(t, persisted, 1)
	require.Equal(t, savedAddress{
		Region:    "ru",
		City:      "Moscow",
		Street:    "Lenina 1",
		Apartment: "12",
		State:     "Moscow region",
		PostCode:  "123456",
		Phone:     "+79990000000",
	}, persisted[0])
	require.Equal(t, "Address saved", tr.lastText())

	final, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, RootToApplication, final.Current)
	// ResetToHub pruned the flow scratch data.
	require.NotContains(t, final.Data, "addr_city")
}

func TestValidationFailureReArmsState(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	var persisted []savedAddress
	registerAddressFlow(e, &persisted)

	require.NoError(t, e.Handle(ctx, callback(1, "add_address")))
	require.NoError(t, e.Handle(ctx, msg(1, "nowhere"))) // not ru/kz

	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, AddressRegion, st.Current)
	require.Equal(t, "Pick ru or kz", tr.lastText())

	// The bad attempt replaced the live prompt, not stacked on it.
	require.Equal(t, []int{1}, tr.retracted)

	// A valid retry resumes the walk.
	require.NoError(t, e.Handle(ctx, msg(1, "ru")))
	st, err = store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, AddressCity, st.Current)
}

func TestRetractThenReplaceLedger(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	e.SetHub(func(_ context.Context, sc *Scope) error {
		sc.ReplyText("menu")
		return nil
	})

	require.NoError(t, e.Handle(ctx, msg(1, "/start")))
	require.Empty(t, tr.retracted)

	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, st.Ledger.TextMessageID)

	require.NoError(t, e.Handle(ctx, msg(1, "/start")))
	require.Equal(t, []int{1}, tr.retracted)

	st, err = store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, st.Ledger.TextMessageID)
}

func TestPhotoAndTextLedgerSlots(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	e.SetHub(func(_ context.Context, sc *Scope) error {
		sc.ReplyPhoto("item.jpg", "caption")
		sc.ReplyText("controls")
		return nil
	})

	require.NoError(t, e.Handle(ctx, msg(1, "show")))
	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, st.Ledger.PhotoMessageID)
	require.Equal(t, 2, st.Ledger.TextMessageID)

	require.NoError(t, e.Handle(ctx, msg(1, "again")))
	require.ElementsMatch(t, []int{1, 2}, tr.retracted)
}

func TestTransientSignalShortCircuits(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.TransientError)
	ctx := context.Background()

	called := false
	e.SetHub(func(_ context.Context, sc *Scope) error {
		called = true
		return nil
	})

	require.NoError(t, e.Handle(ctx, msg(1, "hello")))
	require.False(t, called)
	require.Equal(t, "Something went wrong, please try again later.", tr.lastText())

	// Nothing was committed for the chat.
	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, st)
}

func TestHandlerErrorDiscardsStagedChanges(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	boom := errors.New("db down")
	e.SetHub(func(_ context.Context, sc *Scope) error {
		sc.ReplyText("you never see this")
		sc.Transition(AddressRegion)
		return boom
	})

	require.ErrorIs(t, e.Handle(ctx, msg(1, "hi")), boom)
	require.Equal(t, "Something went wrong, please try again later.", tr.lastText())
	require.Len(t, tr.delivered, 1)

	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, st)
}

func TestNotRegisteredRedirectsUnlessRegistering(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.NotRegistered)
	ctx := context.Background()

	e.SetGuardRedirects(
		func(_ context.Context, sc *Scope) error {
			sc.ReplyText("Please register first")
			sc.Transition(RootToRegistration)
			return nil
		},
		nil,
	)
	e.Register(RegistrationInputFirstName,
		step(`^.+$`, "first_name", RegistrationInputLastName, "Bad name", "Enter your last name"))

	require.NoError(t, e.Handle(ctx, msg(1, "/start")))
	require.Equal(t, "Please register first", tr.lastText())

	// Simulate the registration flow already in progress: the redirect must
	// not clobber it.
	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	st.Current = RegistrationInputFirstName
	require.NoError(t, store.Save(ctx, st))

	require.NoError(t, e.Handle(ctx, msg(1, "Ann")))
	st, err = store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, RegistrationInputLastName, st.Current)
	require.Equal(t, "Enter your last name", tr.lastText())
}

func TestNotAuthenticatedInterruptsWork(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.NotAuthenticated)
	ctx := context.Background()

	e.SetGuardRedirects(nil, func(_ context.Context, sc *Scope) error {
		sc.ReplyText("Enter your password")
		sc.Transition(RootToAuthentication)
		return nil
	})
	e.RegisterInterrupt("restore_password", func(_ context.Context, sc *Scope) error {
		sc.ReplyText("Check your mailbox")
		sc.Transition(RestoreInit)
		return nil
	})
	e.Register(RootToAuthentication, func(_ context.Context, sc *Scope) error {
		sc.ReplyText("Wrong password")
		return nil
	})

	require.NoError(t, e.Handle(ctx, msg(1, "/start")))
	require.Equal(t, "Enter your password", tr.lastText())

	// The interrupt fires even though the chat sits in the login state.
	require.NoError(t, e.Handle(ctx, callback(1, "restore_password")))
	require.Equal(t, "Check your mailbox", tr.lastText())

	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, RestoreInit, st.Current)
}

func TestResetToHubKeepsCartSnapshot(t *testing.T) {
	e, _, store := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	seed := NewChatState(1)
	seed.Current = AddressPhone
	require.NoError(t, seed.SetData(DataKeyCart, []string{"snapshot"}))
	require.NoError(t, seed.SetData("addr_city", "Moscow"))
	require.NoError(t, store.Save(ctx, seed))

	e.Register(AddressPhone, func(_ context.Context, sc *Scope) error {
		sc.ReplyText("done")
		sc.ResetToHub()
		return nil
	})

	require.NoError(t, e.Handle(ctx, msg(1, "+79990000000")))

	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, RootToApplication, st.Current)
	require.Contains(t, st.Data, DataKeyCart)
	require.NotContains(t, st.Data, "addr_city")
}

func TestDeliverFailureAbortsCommit(t *testing.T) {
	e, tr, store := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	tr.deliverErr = fmt.Errorf("network down")
	e.SetHub(func(_ context.Context, sc *Scope) error {
		sc.ReplyText("menu")
		sc.Transition(AddressRegion)
		return nil
	})

	require.Error(t, e.Handle(ctx, msg(1, "/start")))

	st, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, st)
}

func TestCallbackDispatchOnlyAtHub(t *testing.T) {
	e, tr, _ := newTestEngine(t, auth.Authenticated)
	ctx := context.Background()

	var persisted []savedAddress
	registerAddressFlow(e, &persisted)

	// Enter the flow, then press the same hub button again: the flow state
	// owns the event, not the callback table.
	require.NoError(t, e.Handle(ctx, callback(1, "add_address")))
	require.NoError(t, e.Handle(ctx, callback(1, "add_address")))
	require.Equal(t, "Pick ru or kz", tr.lastText())
}
