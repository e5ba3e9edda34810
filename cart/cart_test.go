package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func sel(id int64, price string) ItemSelection {
	return ItemSelection{
		ItemID:    id,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  1,
	}
}

func TestAddItemMergesQuantity(t *testing.T) {
	c := New(1)
	c.AddItem(sel(10, "99.90"))
	c.AddItem(sel(10, "99.90"))

	items := c.Items()
	require.Len(t, items, 1, "same item id must fold into one line")
	require.Equal(t, 2, items[0].Quantity)
}

func TestAddItemDistinctVariants(t *testing.T) {
	c := New(1)
	a := sel(10, "50")
	a.Attributes = map[string]string{"size": "41"}
	b := sel(10, "50")
	b.Attributes = map[string]string{"size": "42"}

	c.AddItem(a)
	c.AddItem(b)
	require.Equal(t, 2, c.Len(), "different variants are different lines")
}

func TestRemoveItemRestoresPriorList(t *testing.T) {
	c := New(1)
	c.AddItem(sel(10, "50"))
	c.AddItem(sel(20, "30"))
	before := c.Items()

	x := sel(30, "10")
	c.AddItem(x)
	require.True(t, c.RemoveItem(x))
	require.Equal(t, before, c.Items())

	require.False(t, c.RemoveItem(sel(99, "1")), "removal matches on identity")
}

func TestRemoveItemDecrementsQuantity(t *testing.T) {
	c := New(1)
	c.AddItem(sel(10, "50"))
	c.AddItem(sel(10, "50"))

	require.True(t, c.RemoveItem(sel(10, "50")))
	items := c.Items()
	require.Len(t, items, 1)
	require.Equal(t, 1, items[0].Quantity)

	require.True(t, c.RemoveItem(sel(10, "50")))
	require.Zero(t, c.Len())
}

func TestFillUpRoundTrip(t *testing.T) {
	snapshot := []ItemSelection{
		{ItemID: 3, UnitPrice: decimal.RequireFromString("10.50"), Quantity: 2},
		{ItemID: 1, UnitPrice: decimal.RequireFromString("5.25"), Quantity: 1},
	}

	c := New(1)
	c.FillUp(snapshot)
	require.Equal(t, snapshot, c.Items(), "order must be preserved")
}

func TestCalculateSum(t *testing.T) {
	c := New(1)
	c.AddItem(ItemSelection{ItemID: 1, UnitPrice: decimal.RequireFromString("10.333"), Quantity: 3})
	c.AddItem(ItemSelection{ItemID: 2, UnitPrice: decimal.RequireFromString("0.005"), Quantity: 1})

	require.Equal(t, "31.00", c.CalculateSum().StringFixed(2))

	c.Clear()
	require.True(t, c.CalculateSum().IsZero())
}
