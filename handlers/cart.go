package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chimchimster/balance-bot/cart"
	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/session"
)

// hydratedCart fetches the owner's cart handle and rehydrates it from the
// durable snapshot in the chat state. The registry handle is a cache; the
// snapshot is the source of truth between events.
func (d *Deps) hydratedCart(sc *session.Scope) (*cart.Cart, error) {
	c := d.Carts.GetOrCreate(sc.Event.UserID)
	var snapshot []cart.ItemSelection
	if _, err := sc.State.GetData(session.DataKeyCart, &snapshot); err != nil {
		return nil, err
	}
	c.FillUp(snapshot)
	return c, nil
}

// snapshotCart writes the cart contents back to the chat state.
func snapshotCart(sc *session.Scope, c *cart.Cart) error {
	return sc.State.SetData(session.DataKeyCart, c.Items())
}

func (d *Deps) currentSelection(sc *session.Scope) (cart.ItemSelection, bool, error) {
	var sel cart.ItemSelection
	ok, err := sc.State.GetData(dataCurrentItem, &sel)
	return sel, ok, err
}

// quantityInCart reports how many of the item the snapshot currently holds,
// for annotating the add button.
func (d *Deps) quantityInCart(sc *session.Scope, itemID int64) int {
	var snapshot []cart.ItemSelection
	if ok, err := sc.State.GetData(session.DataKeyCart, &snapshot); !ok || err != nil {
		return 0
	}
	total := 0
	for _, it := range snapshot {
		if it.ItemID == itemID {
			total += it.Quantity
		}
	}
	return total
}

// addToCart puts the shown item into the cart, merging quantity into an
// existing line. The overflow guard caps the summed quantity.
func (d *Deps) addToCart(_ context.Context, sc *session.Scope) error {
	sel, ok, err := d.currentSelection(sc)
	if err != nil || !ok {
		if err != nil {
			return err
		}
		sc.ReplyText("Open an item first, then add it to the cart.")
		return nil
	}

	c, err := d.hydratedCart(sc)
	if err != nil {
		return err
	}
	if d.MaxCartItems > 0 && c.TotalQuantity() >= d.MaxCartItems {
		sc.ReplyText(fmt.Sprintf("Your cart is full (%d items max).", d.MaxCartItems),
			keyboards.CartView())
		return nil
	}

	c.AddItem(sel)
	if err := snapshotCart(sc, c); err != nil {
		return err
	}
	sc.ReplyText(fmt.Sprintf("%s added to your cart (%d in cart).",
		sel.Title, d.quantityInCart(sc, sel.ItemID)), keyboards.CartView())
	return nil
}

// deleteFromCart removes one unit of the shown item, matching by identity.
func (d *Deps) deleteFromCart(_ context.Context, sc *session.Scope) error {
	sel, ok, err := d.currentSelection(sc)
	if err != nil || !ok {
		if err != nil {
			return err
		}
		sc.ReplyText("Open an item first to remove it from the cart.")
		return nil
	}

	c, err := d.hydratedCart(sc)
	if err != nil {
		return err
	}
	if !c.RemoveItem(sel) {
		sc.ReplyText("That item is not in your cart.", keyboards.CartView())
		return nil
	}
	if err := snapshotCart(sc, c); err != nil {
		return err
	}
	sc.ReplyText(fmt.Sprintf("%s removed from your cart.", sel.Title), keyboards.CartView())
	return nil
}

// showCart renders the cart lines and total.
func (d *Deps) showCart(_ context.Context, sc *session.Scope) error {
	c, err := d.hydratedCart(sc)
	if err != nil {
		return err
	}
	if c.Len() == 0 {
		sc.ReplyText("Your cart is empty.", keyboards.MainMenu(d.SupportURL))
		return nil
	}

	var b strings.Builder
	b.WriteString("Your cart:\n")
	for i, it := range c.Items() {
		fmt.Fprintf(&b, "\n%d. %s x%d = %s", i+1, it.Title, it.Quantity,
			it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2))
	}
	fmt.Fprintf(&b, "\n\nTotal: %s", c.CalculateSum().StringFixed(2))
	sc.ReplyText(b.String(), keyboards.CartView())
	return nil
}
