package handlers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/session"
	"github.com/chimchimster/balance-bot/storage"
)

func newPagingDeps() *Deps {
	carts, paginators := NewRegistries()
	return &Deps{Carts: carts, Paginators: paginators}
}

func pageScope(t *testing.T, activePage string) *session.Scope {
	t.Helper()
	st := session.NewChatState(7)
	if activePage != "" {
		require.NoError(t, st.SetData(dataActivePage, activePage))
	}
	return &session.Scope{
		Event: session.Event{Kind: session.KindCallback, ChatID: 7, UserID: 7, CallbackPayload: "1"},
		State: st,
	}
}

func catalogItems(n int) []storage.Item {
	items := make([]storage.Item, n)
	for i := range items {
		items[i] = storage.Item{ID: int64(i + 1), Title: "shirt", Price: decimal.NewFromInt(10)}
	}
	return items
}

func TestStaleOrdersKeyboardDoesNotStepCatalogCursor(t *testing.T) {
	d := newPagingDeps()

	// The filtered catalog owns the shared cursor.
	pg := d.Paginators.GetOrCreate(7)
	pg.Reset(catalogItems(3))
	require.NoError(t, d.paginateItems(context.Background(), pageScope(t, keyboards.KeyItemsPage)))
	require.Equal(t, 0, pg.Position())

	// A press on the superseded orders keyboard must leave it alone.
	require.NoError(t, d.paginateOrders(context.Background(), pageScope(t, keyboards.KeyItemsPage)))
	require.Equal(t, 0, pg.Position())
}

func TestStaleCatalogKeyboardDoesNotStepOrdersCursor(t *testing.T) {
	d := newPagingDeps()

	pg := d.Paginators.GetOrCreate(7)
	pg.Reset(catalogItems(2))
	require.NoError(t, d.paginateOrders(context.Background(), pageScope(t, keyboards.KeyOrdersPage)))
	require.Equal(t, 0, pg.Position())

	require.NoError(t, d.paginateItems(context.Background(), pageScope(t, keyboards.KeyOrdersPage)))
	require.Equal(t, 0, pg.Position())
}

func TestPagePressWithoutOpenListIsIgnored(t *testing.T) {
	// No registries wired: the guard must trip before the cursor is touched.
	d := &Deps{}
	require.NoError(t, d.paginateOrders(context.Background(), pageScope(t, "")))
	require.NoError(t, d.paginateItems(context.Background(), pageScope(t, "")))
}
