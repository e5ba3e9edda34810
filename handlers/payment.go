package handlers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/session"
	"github.com/chimchimster/balance-bot/storage"
)

// startPayment turns the cart into a durable order against the selected
// shipping address and enters the payment state. The cart snapshot is
// cleared only after the order transaction commits.
func (d *Deps) startPayment(ctx context.Context, sc *session.Scope) error {
	c, err := d.hydratedCart(sc)
	if err != nil {
		return err
	}
	if c.Len() == 0 {
		sc.ReplyText("Your cart is empty.", keyboards.MainMenu(d.SupportURL))
		return nil
	}

	userID, err := d.userID(ctx, sc)
	if err != nil {
		return err
	}

	addressID, err := d.shippingAddressID(ctx, sc, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			sc.ReplyText("Add a delivery address before checking out.",
				keyboards.PersonalAccount(d.SupportURL))
			return nil
		}
		return err
	}

	// Lines are priced from the catalog at order time, not from the price
	// the item carried when it was put in the cart.
	lines := make([]storage.OrderLine, 0, c.Len())
	for _, it := range c.Items() {
		current, err := d.Store.FetchItem(ctx, it.ItemID)
		if err != nil {
			if storage.IsNotFound(err) {
				sc.ReplyText(fmt.Sprintf("%s is no longer available, remove it from your cart first.", it.Title),
					keyboards.CartView())
				return nil
			}
			return err
		}
		lines = append(lines, storage.OrderLine{
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			UnitPrice: current.Price,
		})
	}

	orderID, err := d.Store.CreateOrder(ctx, userID, addressID, lines)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	c.Clear()
	sc.State.DeleteData(session.DataKeyCart)

	sc.ReplyText(fmt.Sprintf(
		"Order #%d created, total %s.\nComplete the payment with your provider, then return to the menu.",
		orderID, total.StringFixed(2)), keyboards.MainMenu(d.SupportURL))
	sc.Transition(session.PaymentStarted)
	return nil
}

// paymentStarted keeps the chat parked until the user returns to the menu.
func (d *Deps) paymentStarted(ctx context.Context, sc *session.Scope) error {
	if sc.Event.Kind == session.KindCallback && sc.Event.CallbackKey == keyboards.KeyBackToMainMenu {
		return d.mainMenu(ctx, sc)
	}
	sc.ReplyText("Your payment is being processed. Return to the menu when you are done.",
		keyboards.MainMenu(d.SupportURL))
	return nil
}

// shippingAddressID prefers the address picked by the address flow and falls
// back to the most recent saved one.
func (d *Deps) shippingAddressID(ctx context.Context, sc *session.Scope, userID int64) (int64, error) {
	var selected int64
	if ok, err := sc.State.GetData(session.DataKeyAddress, &selected); err == nil && ok && selected != 0 {
		if _, err := d.Store.FetchAddress(ctx, userID, selected); err == nil {
			return selected, nil
		}
	}

	addresses, err := d.Store.ListAddresses(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(addresses) == 0 {
		return 0, storage.NotFound("handlers: no delivery address")
	}
	return addresses[0].ID, nil
}
