package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/paginator"
	"github.com/chimchimster/balance-bot/session"
	"github.com/chimchimster/balance-bot/storage"
)

// Scratch keys of the address flow.
const (
	dataAddrRegion    = "addr_region"
	dataAddrCity      = "addr_city"
	dataAddrStreet    = "addr_street"
	dataAddrApartment = "addr_apartment"
	dataAddrState     = "addr_state"
	dataAddrPostCode  = "addr_post_code"
)

// dataActivePage names the page key of the result set the shared cursor
// currently walks. Presses from a superseded list keyboard are ignored so
// they cannot step whatever cursor replaced it.
const dataActivePage = "active_page"

// personalAccount renders the profile summary page.
func (d *Deps) personalAccount(ctx context.Context, sc *session.Scope) error {
	userID, err := d.userID(ctx, sc)
	if err != nil {
		if storage.IsNotFound(err) {
			sc.ReplyText("User not found.")
			return nil
		}
		return err
	}
	summary, err := d.Store.FetchAccountSummary(ctx, userID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b,
		"Your account\n\nName: %s %s\nEmail: %s\nSaved addresses: %d\nOrders: %d\n",
		summary.FirstName, summary.LastName, summary.Email,
		summary.AddressCount, summary.OrderCount,
	)

	purchases, err := d.Store.ListPurchases(ctx, userID)
	if err != nil {
		return err
	}
	if len(purchases) > 0 {
		b.WriteString("\nRecent orders:\n")
		for i, p := range purchases {
			if i == maxRecentOrders {
				break
			}
			fmt.Fprintf(&b, "#%d on %s: %d items, %s\n",
				p.OrderID, p.DateCreated.Format("2006-01-02"),
				p.ItemCount, p.Total.StringFixed(2))
		}
	}
	sc.ReplyText(b.String(), keyboards.PersonalAccount(d.SupportURL))
	return nil
}

const maxRecentOrders = 5

// listOrders fetches the bought items and opens a fresh paginator over them.
// A new result set always replaces the previous cursor, never merges.
func (d *Deps) listOrders(ctx context.Context, sc *session.Scope) error {
	userID, err := d.userID(ctx, sc)
	if err != nil {
		return err
	}
	items, err := d.Store.ListPurchasedItems(ctx, userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		sc.ReplyText("You have no orders yet.", keyboards.BackToAccount(d.SupportURL))
		return nil
	}

	pg := d.Paginators.GetOrCreate(sc.Event.UserID)
	pg.Reset(items)
	if err := sc.State.SetData(dataActivePage, keyboards.KeyOrdersPage); err != nil {
		return err
	}

	return d.stepAndRender(sc, pg, paginator.Forward, keyboards.KeyOrdersPage, false)
}

// paginateOrders steps the bought-items cursor in the pressed direction.
func (d *Deps) paginateOrders(_ context.Context, sc *session.Scope) error {
	if sc.State.GetString(dataActivePage) != keyboards.KeyOrdersPage {
		sc.ReplyText("That list is no longer active, open your orders again.")
		return nil
	}
	pg := d.Paginators.GetOrCreate(sc.Event.UserID)
	return d.stepAndRender(sc, pg, directionFrom(sc.Event), keyboards.KeyOrdersPage, false)
}

// stepAndRender advances the paginator and renders the resulting item card.
// Exhaustion keeps the current card and only says the boundary was reached.
func (d *Deps) stepAndRender(sc *session.Scope, pg *paginator.Paginator[storage.Item],
	dir paginator.Direction, pageKey string, withCartControls bool) error {

	item, err := pg.Step(dir)
	if err != nil {
		sc.ReplyText("Nothing more in that direction.",
			keyboards.ItemNav(pageKey, pg.HasPrev(), pg.HasNext(), 0, withCartControls))
		return nil
	}

	if err := sc.State.SetData(dataCurrentItem, selectionFromItem(item)); err != nil {
		return err
	}

	markup := keyboards.ItemNav(pageKey, pg.HasPrev(), pg.HasNext(),
		d.quantityInCart(sc, item.ID), withCartControls)
	caption := renderItemCard(item, pg.Position(), pg.Len())
	if item.ImagePath.Valid && item.ImagePath.String != "" {
		sc.ReplyPhoto(item.ImagePath.String, caption, markup)
	} else {
		sc.ReplyText(caption, markup)
	}
	return nil
}

func renderItemCard(item storage.Item, position, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", item.Title)
	if item.BrandTitle.Valid {
		fmt.Fprintf(&b, "Brand: %s\n", item.BrandTitle.String)
	}
	if item.Description.Valid {
		fmt.Fprintf(&b, "%s\n", item.Description.String)
	}
	fmt.Fprintf(&b, "Price: %s\n", item.Price.StringFixed(2))
	fmt.Fprintf(&b, "%d of %d", position+1, total)
	return b.String()
}

// directionFrom derives the step direction from the pressed control; it is
// never remembered between presses.
func directionFrom(ev session.Event) paginator.Direction {
	if ev.CallbackPayload == "0" {
		return paginator.Backward
	}
	return paginator.Forward
}

// showAddresses renders the saved address list.
func (d *Deps) showAddresses(ctx context.Context, sc *session.Scope) error {
	userID, err := d.userID(ctx, sc)
	if err != nil {
		return err
	}
	addresses, err := d.Store.ListAddresses(ctx, userID)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		sc.ReplyText("You have no saved addresses yet.", keyboards.BackToAccount(d.SupportURL))
		return nil
	}

	var b strings.Builder
	b.WriteString("Your addresses:\n")
	for i, a := range addresses {
		fmt.Fprintf(&b, "\n%d. %s, %s, %s %s, %s\n   %s, phone %s\n",
			i+1, strings.ToUpper(a.Country), a.City, a.Street, a.Apartment,
			a.PostCode, a.Region, a.Phone)
	}
	sc.ReplyText(b.String(), keyboards.BackToAccount(d.SupportURL))
	return nil
}

// addAddress opens the address flow.
func (d *Deps) addAddress(_ context.Context, sc *session.Scope) error {
	sc.ReplyText("Choose your region:", keyboards.RegionChoice())
	sc.Transition(session.AddressRegion)
	return nil
}

func (d *Deps) addressRegion(_ context.Context, sc *session.Scope) error {
	choice := strings.ToLower(sc.Event.Input())
	if choice != "ru" && choice != "kz" {
		sc.ReplyText("Please choose ru or kz:", keyboards.RegionChoice())
		return nil
	}
	if err := sc.State.SetData(dataAddrRegion, choice); err != nil {
		return err
	}
	sc.ReplyText("Enter the city name:")
	sc.Transition(session.AddressCity)
	return nil
}

func (d *Deps) addressCity(_ context.Context, sc *session.Scope) error {
	return inputField(sc, cityRe, dataAddrCity, session.AddressStreet,
		"Enter the street name:",
		"A city name must be 1 to 50 letters.")
}

func (d *Deps) addressStreet(_ context.Context, sc *session.Scope) error {
	return inputField(sc, streetRe, dataAddrStreet, session.AddressApartment,
		"Enter the house and apartment as house-apartment:",
		"A street name must be 1 to 255 characters.")
}

func (d *Deps) addressApartment(_ context.Context, sc *session.Scope) error {
	return inputField(sc, apartmentRe, dataAddrApartment, session.AddressState,
		"Enter the state or district:",
		"Use 1 to 10 characters for the house and apartment.")
}

func (d *Deps) addressState(_ context.Context, sc *session.Scope) error {
	return inputField(sc, regionRe, dataAddrState, session.AddressPostCode,
		"Enter the 6-digit postal code:",
		"A state or district name must be 1 to 50 letters.")
}

func (d *Deps) addressPostCode(_ context.Context, sc *session.Scope) error {
	return inputField(sc, postCodeRe, dataAddrPostCode, session.AddressPhone,
		"Enter your phone number as +79999999999:",
		"A postal code is exactly 6 digits.")
}

// addressPhone closes the flow: the collected fields are persisted in one
// transaction and the saved address becomes the selected shipping address.
func (d *Deps) addressPhone(ctx context.Context, sc *session.Scope) error {
	phone := sc.Event.Input()
	if !phoneRe.MatchString(phone) {
		sc.ReplyText("The accepted phone format is +79999999999.")
		return nil
	}

	userID, err := d.userID(ctx, sc)
	if err != nil {
		return err
	}

	saved, err := d.Store.SetAddress(ctx, storage.Address{
		UserID:    userID,
		Country:   strings.ToUpper(sc.State.GetString(dataAddrRegion)),
		City:      sc.State.GetString(dataAddrCity),
		Street:    sc.State.GetString(dataAddrStreet),
		Apartment: sc.State.GetString(dataAddrApartment),
		Region:    sc.State.GetString(dataAddrState),
		PostCode:  sc.State.GetString(dataAddrPostCode),
		Phone:     phone,
	})
	if err != nil {
		return err
	}

	if err := sc.State.SetData(session.DataKeyAddress, saved.ID); err != nil {
		return err
	}
	sc.ReplyText("Address saved!", keyboards.MainMenu(d.SupportURL))
	sc.ResetToHub()
	return nil
}
