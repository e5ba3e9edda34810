package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatStateDataRoundTrip(t *testing.T) {
	s := NewChatState(1)

	require.NoError(t, s.SetData("field", "value"))
	require.Equal(t, "value", s.GetString("field"))

	var missing string
	ok, err := s.GetData("absent", &missing)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestChatStatePruneKeepsAllowList(t *testing.T) {
	s := NewChatState(1)
	require.NoError(t, s.SetData(DataKeyCart, []string{"snapshot"}))
	require.NoError(t, s.SetData(DataKeyAddress, int64(7)))
	require.NoError(t, s.SetData("first_name", "Ann"))
	require.NoError(t, s.SetData("restore_pwd_code", "x"))

	s.Prune()

	require.Contains(t, s.Data, DataKeyCart)
	require.Contains(t, s.Data, DataKeyAddress)
	require.NotContains(t, s.Data, "first_name")
	require.NotContains(t, s.Data, "restore_pwd_code")
}

func TestChatStateCloneIsDeep(t *testing.T) {
	s := NewChatState(1)
	require.NoError(t, s.SetData("k", "orig"))
	s.Ledger = RenderLedger{TextMessageID: 5}

	c := s.Clone()
	require.NoError(t, c.SetData("k", "changed"))
	c.Ledger.TextMessageID = 9

	require.Equal(t, "orig", s.GetString("k"))
	require.Equal(t, 5, s.Ledger.TextMessageID)
}

func TestChatStateSurvivesJSON(t *testing.T) {
	s := NewChatState(42)
	s.Current = AddressCity
	require.NoError(t, s.SetData("addr_region", "ru"))
	require.NoError(t, s.AddFilter(FilterSelection{Attribute: "brand", ID: 3, Label: "Acme"}))

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var back ChatState
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, AddressCity, back.Current)
	require.Equal(t, "ru", back.GetString("addr_region"))
	require.Equal(t, []FilterSelection{{Attribute: "brand", ID: 3, Label: "Acme"}}, back.Filters())
}

func TestAddFilterReplacesSameAttribute(t *testing.T) {
	s := NewChatState(1)
	require.NoError(t, s.AddFilter(FilterSelection{Attribute: "brand", ID: 1, Label: "A"}))
	require.NoError(t, s.AddFilter(FilterSelection{Attribute: "brand", ID: 2, Label: "B"}))

	filters := s.Filters()
	require.Len(t, filters, 1)
	require.Equal(t, int64(2), filters[0].ID)
}

func TestRemoveFilterDropsOneAttribute(t *testing.T) {
	s := NewChatState(1)
	require.NoError(t, s.AddFilter(FilterSelection{Attribute: "brand", ID: 1, Label: "A"}))
	require.NoError(t, s.AddFilter(FilterSelection{Attribute: "color", ID: 4, Label: "red"}))

	require.NoError(t, s.RemoveFilter("brand"))
	filters := s.Filters()
	require.Len(t, filters, 1)
	require.Equal(t, "color", filters[0].Attribute)

	require.NoError(t, s.RemoveFilter("color"))
	require.Empty(t, s.Filters())
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := NewChatState(1)
	require.NoError(t, s.SetData("k", "v"))
	require.NoError(t, store.Save(ctx, s))

	// Mutating the saved state must not leak into the store.
	require.NoError(t, s.SetData("k", "mutated"))

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "v", loaded.GetString("k"))

	missing, err := store.Load(ctx, 999)
	require.NoError(t, err)
	require.Nil(t, missing)
}
