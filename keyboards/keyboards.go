// Package keyboards builds the inline and reply markups of the storefront.
// Callback uniques here are the keys the session engine dispatches on.
package keyboards

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/chimchimster/balance-bot/core/telegram/keyboard"
	"github.com/chimchimster/balance-bot/session"
)

// Callback keys wired into the session engine.
const (
	KeyToRegistration  = "to_registration"
	KeyRestorePassword = "restore_password"
	KeyRefuseRestore   = "refuse_operations"

	KeyPersonalAccount = "personal_account"
	KeyPurchases       = "purchases"
	KeyShowCart        = "show_cart"
	KeyBackToMainMenu  = "back_to_main_menu"

	KeyOrders        = "orders"
	KeyOrdersPage    = "orders_page"
	KeyShowAddresses = "show_addresses"
	KeyAddAddress    = "add_address"

	KeyChooseFilter   = "choose_filter"
	KeySetFilter      = "set_filter"
	KeyApplyFilters   = "apply_filters"
	KeyItemsPage      = "items_page"
	KeyAddToCart      = "add_to_cart"
	KeyDeleteFromCart = "delete_from_cart"

	KeyStartPayment = "start_payment"
)

func supportBtn(supportURL string) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: "Contact support", URL: supportURL}
}

// MainMenu is the hub keyboard.
func MainMenu(supportURL string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "My account", Unique: KeyPersonalAccount},
		{Text: "To purchases", Unique: KeyPurchases},
		{Text: "My cart", Unique: KeyShowCart},
		supportBtn(supportURL),
	})
}

// Registration invites an unregistered user into the registration flow.
func Registration() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "Register", Unique: KeyToRegistration},
	})
}

// ConfirmChoice is the yes/no reply keyboard of the registration summary.
func ConfirmChoice() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{"yes", "no"})
}

// RestorePassword offers the restore entry while asking for a password.
func RestorePassword() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "Restore password", Unique: KeyRestorePassword},
	})
}

// RefuseRestore lets the user abandon an in-flight restore.
func RefuseRestore() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "Cancel restore", Unique: KeyRefuseRestore},
	})
}

// PersonalAccount is the account page keyboard.
func PersonalAccount(supportURL string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "My orders", Unique: KeyOrders},
		{Text: "My addresses", Unique: KeyShowAddresses},
		{Text: "Add delivery address", Unique: KeyAddAddress},
		{Text: "My cart", Unique: KeyShowCart},
		supportBtn(supportURL),
		{Text: "Back to main menu", Unique: KeyBackToMainMenu},
	})
}

// BackToAccount closes account sub-pages.
func BackToAccount(supportURL string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "Back to account", Unique: KeyPersonalAccount},
		{Text: "My cart", Unique: KeyShowCart},
		supportBtn(supportURL),
		{Text: "Back to main menu", Unique: KeyBackToMainMenu},
	})
}

// RegionChoice is the reply keyboard opening the address flow.
func RegionChoice() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{"ru", "kz"})
}

// FilterAttributes enumerates the catalog filter attributes in display order.
var FilterAttributes = []string{"brand", "color", "size", "sex"}

// SearchFilter shows one button per filter attribute with its current
// selection, plus the apply control.
func SearchFilter(filters []session.FilterSelection) *tele.ReplyMarkup {
	selected := make(map[string]string, len(filters))
	for _, f := range filters {
		selected[f.Attribute] = f.Label
	}

	buttons := make([]keyboard.InlineBtn, 0, len(FilterAttributes)+2)
	for _, attr := range FilterAttributes {
		label := selected[attr]
		if label == "" {
			label = "any"
		}
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s%s: %s", strings.ToUpper(attr[:1]), attr[1:], label),
			Unique: KeyChooseFilter,
			Data:   attr,
		})
	}
	buttons = append(buttons,
		keyboard.InlineBtn{Text: "Apply filters", Unique: KeyApplyFilters},
		keyboard.InlineBtn{Text: "Back to main menu", Unique: KeyBackToMainMenu},
	)
	return keyboard.InlineButtons(buttons)
}

// FilterChoice lists the selectable values of one attribute; payload carries
// the structured selection as "attribute|id|label". The leading "Any" option
// (id 0) clears the attribute's filter.
func FilterChoice(attribute string, options []FilterOption) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(options)+2)
	buttons = append(buttons, keyboard.InlineBtn{
		Text:   "Any",
		Unique: KeySetFilter,
		Data:   fmt.Sprintf("%s|0|any", attribute),
	})
	for _, o := range options {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   o.Title,
			Unique: KeySetFilter,
			Data:   fmt.Sprintf("%s|%d|%s", attribute, o.ID, o.Title),
		})
	}
	buttons = append(buttons, keyboard.InlineBtn{Text: "Back", Unique: KeyPurchases})
	return keyboard.InlineButtons(buttons)
}

// FilterOption is one selectable filter value.
type FilterOption struct {
	ID    int64
	Title string
}

// ItemNav is the catalog/orders pagination keyboard. pageKey selects which
// paginator the press drives; inCart annotates the add button with the
// current quantity of the shown item.
func ItemNav(pageKey string, hasPrev, hasNext bool, inCart int, withCartControls bool) *tele.ReplyMarkup {
	var nav []keyboard.InlineBtn
	if hasPrev {
		nav = append(nav, keyboard.InlineBtn{Text: "Prev", Unique: pageKey, Data: "0"})
	}
	if hasNext {
		nav = append(nav, keyboard.InlineBtn{Text: "Next", Unique: pageKey, Data: "1"})
	}

	var rows [][]keyboard.InlineBtn
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	if withCartControls {
		addLabel := "Add to cart"
		if inCart > 0 {
			addLabel = fmt.Sprintf("Add to cart (%d)", inCart)
		}
		rows = append(rows, []keyboard.InlineBtn{
			{Text: addLabel, Unique: KeyAddToCart},
			{Text: "Remove", Unique: KeyDeleteFromCart},
		})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{{Text: "My cart", Unique: KeyShowCart}},
		[]keyboard.InlineBtn{{Text: "Back to main menu", Unique: KeyBackToMainMenu}},
	)
	return keyboard.InlineButtonsRows(rows...)
}

// CartView is the cart page keyboard.
func CartView() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "Checkout", Unique: KeyStartPayment},
		{Text: "Back to main menu", Unique: KeyBackToMainMenu},
	})
}
