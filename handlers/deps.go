// Package handlers implements the storefront flows on top of the session
// engine: registration, login, password restore, account and address
// management, catalog browsing, cart and checkout.
package handlers

import (
	"context"

	"github.com/chimchimster/balance-bot/auth"
	"github.com/chimchimster/balance-bot/cart"
	"github.com/chimchimster/balance-bot/ephemeral"
	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/mail"
	"github.com/chimchimster/balance-bot/paginator"
	"github.com/chimchimster/balance-bot/session"
	"github.com/chimchimster/balance-bot/storage"
)

// Deps carries everything the flow handlers need. Registries are injected,
// never package-level.
type Deps struct {
	Store    *storage.Store
	Resolver *auth.Resolver
	Mail     mail.Sender

	Carts      *ephemeral.Registry[*cart.Cart]
	Paginators *ephemeral.Registry[*paginator.Paginator[storage.Item]]

	// MaxCartItems caps the summed quantity a cart may hold.
	MaxCartItems int
	SupportURL   string
}

// NewRegistries builds the ephemeral registries with their factories.
func NewRegistries() (*ephemeral.Registry[*cart.Cart], *ephemeral.Registry[*paginator.Paginator[storage.Item]]) {
	carts := ephemeral.NewRegistry(func(ownerID int64) *cart.Cart {
		return cart.New(ownerID)
	})
	paginators := ephemeral.NewRegistry(func(int64) *paginator.Paginator[storage.Item] {
		return paginator.New[storage.Item](nil)
	})
	return carts, paginators
}

// Register wires every flow state, callback and interrupt into the engine.
func Register(e *session.Engine, d *Deps) {
	e.SetHub(d.mainMenu)
	e.SetGuardRedirects(d.inviteRegistration, d.askPassword)

	// Registration.
	e.Register(session.RootToRegistration, d.startRegistration)
	e.Register(session.RegistrationInputFirstName, d.inputFirstName)
	e.Register(session.RegistrationInputLastName, d.inputLastName)
	e.Register(session.RegistrationInputEmail, d.inputEmail)
	e.Register(session.RegistrationInputPassword, d.inputPassword)
	e.Register(session.RegistrationInputPasswordConfirmation, d.inputPasswordConfirmation)
	e.Register(session.RegistrationConfirm, d.confirmRegistration)

	// Login and restore.
	e.Register(session.RootToAuthentication, d.authenticate)
	e.Register(session.RestoreInit, d.validateRestoreCode)
	e.Register(session.RestoreNewPassword, d.restoreNewPassword)
	e.Register(session.RestoreNewPasswordConfirmation, d.restoreConfirmPassword)
	e.RegisterInterrupt(keyboards.KeyRestorePassword, d.beginRestore)
	e.RegisterInterrupt(keyboards.KeyRefuseRestore, d.refuseRestore)

	// Address flow.
	e.Register(session.AddressRegion, d.addressRegion)
	e.Register(session.AddressCity, d.addressCity)
	e.Register(session.AddressStreet, d.addressStreet)
	e.Register(session.AddressApartment, d.addressApartment)
	e.Register(session.AddressState, d.addressState)
	e.Register(session.AddressPostCode, d.addressPostCode)
	e.Register(session.AddressPhone, d.addressPhone)

	// Checkout.
	e.Register(session.PaymentStarted, d.paymentStarted)

	// Hub callbacks.
	e.RegisterCallback(keyboards.KeyBackToMainMenu, d.mainMenu)
	e.RegisterCallback(keyboards.KeyPersonalAccount, d.personalAccount)
	e.RegisterCallback(keyboards.KeyOrders, d.listOrders)
	e.RegisterCallback(keyboards.KeyOrdersPage, d.paginateOrders)
	e.RegisterCallback(keyboards.KeyShowAddresses, d.showAddresses)
	e.RegisterCallback(keyboards.KeyAddAddress, d.addAddress)
	e.RegisterCallback(keyboards.KeyPurchases, d.searchFilters)
	e.RegisterCallback(keyboards.KeyChooseFilter, d.chooseFilter)
	e.RegisterCallback(keyboards.KeySetFilter, d.setFilter)
	e.RegisterCallback(keyboards.KeyApplyFilters, d.applyFilters)
	e.RegisterCallback(keyboards.KeyItemsPage, d.paginateItems)
	e.RegisterCallback(keyboards.KeyAddToCart, d.addToCart)
	e.RegisterCallback(keyboards.KeyDeleteFromCart, d.deleteFromCart)
	e.RegisterCallback(keyboards.KeyShowCart, d.showCart)
	e.RegisterCallback(keyboards.KeyStartPayment, d.startPayment)
}

// userID resolves the durable user id for the event's sender. The guard has
// already classified the user, so a missing row here is a storage-level
// NotFound rather than a routing decision.
func (d *Deps) userID(ctx context.Context, sc *session.Scope) (int64, error) {
	id, found, err := d.Store.LookupUserID(ctx, sc.Event.UserID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, storage.NotFound("handlers: user for external id")
	}
	return id, nil
}
