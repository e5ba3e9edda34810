package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/chimchimster/balance-bot/cart"
	"github.com/chimchimster/balance-bot/keyboards"
	"github.com/chimchimster/balance-bot/paginator"
	"github.com/chimchimster/balance-bot/session"
	"github.com/chimchimster/balance-bot/storage"
)

// dataCurrentItem holds the ItemSelection of the item card currently shown,
// so the cart controls know what to add or remove.
const dataCurrentItem = "current_item"

func selectionFromItem(item storage.Item) cart.ItemSelection {
	sel := cart.ItemSelection{
		ItemID:    item.ID,
		Title:     item.Title,
		UnitPrice: item.Price,
		Quantity:  1,
	}
	if item.BrandTitle.Valid {
		sel.Attributes = map[string]string{"brand": item.BrandTitle.String}
	}
	return sel
}

// searchFilters opens the catalog: current filters plus the apply control.
func (d *Deps) searchFilters(_ context.Context, sc *session.Scope) error {
	sc.ReplyText("Pick the filters that suit you:", keyboards.SearchFilter(sc.State.Filters()))
	return nil
}

// chooseFilter lists the selectable values of the attribute named by the
// pressed button's payload. Brands are narrowed to those with available
// items; the other attributes list their whole lookup table.
func (d *Deps) chooseFilter(ctx context.Context, sc *session.Scope) error {
	attribute := sc.Event.CallbackPayload

	var options []keyboards.FilterOption
	if attribute == "brand" {
		brands, err := d.Store.ListBrands(ctx)
		if err != nil {
			return err
		}
		for _, b := range brands {
			options = append(options, keyboards.FilterOption{ID: b.ID, Title: b.Title})
		}
	} else {
		values, err := d.Store.ListFilterOptions(ctx, attribute)
		if err != nil {
			if storage.IsValidation(err) {
				sc.ReplyText("Pick the filters that suit you:", keyboards.SearchFilter(sc.State.Filters()))
				return nil
			}
			return err
		}
		for _, v := range values {
			options = append(options, keyboards.FilterOption{ID: v.ID, Title: v.Title})
		}
	}

	if len(options) == 0 {
		sc.ReplyText("Nothing to filter by yet.", keyboards.SearchFilter(sc.State.Filters()))
		return nil
	}
	sc.ReplyText("Choose a "+attribute+":", keyboards.FilterChoice(attribute, options))
	return nil
}

// setFilter records one structured selection from a filter button payload
// ("attribute|id|label"). Id zero clears the attribute's filter; a malformed
// payload just re-renders the filters.
func (d *Deps) setFilter(_ context.Context, sc *session.Scope) error {
	parts := strings.SplitN(sc.Event.CallbackPayload, "|", 3)
	if len(parts) == 3 {
		id, err := strconv.ParseInt(parts[1], 10, 64)
		switch {
		case err != nil:
		case id == 0:
			if err := sc.State.RemoveFilter(parts[0]); err != nil {
				return err
			}
		default:
			if err := sc.State.AddFilter(session.FilterSelection{
				Attribute: parts[0],
				ID:        id,
				Label:     parts[2],
			}); err != nil {
				return err
			}
		}
	}
	sc.ReplyText("Pick the filters that suit you:", keyboards.SearchFilter(sc.State.Filters()))
	return nil
}

// applyFilters runs the catalog query and opens a fresh item paginator.
func (d *Deps) applyFilters(ctx context.Context, sc *session.Scope) error {
	selections := sc.State.Filters()
	filters := make([]storage.Filter, len(selections))
	for i, f := range selections {
		filters[i] = storage.Filter{Attribute: f.Attribute, ID: f.ID}
	}

	items, err := d.Store.ListItems(ctx, filters)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		sc.ReplyText("Unfortunately nothing matched your filters.\nWant to search again?",
			keyboards.SearchFilter(selections))
		return nil
	}

	pg := d.Paginators.GetOrCreate(sc.Event.UserID)
	pg.Reset(items)
	if err := sc.State.SetData(dataActivePage, keyboards.KeyItemsPage); err != nil {
		return err
	}
	return d.stepAndRender(sc, pg, paginator.Forward, keyboards.KeyItemsPage, true)
}

// paginateItems steps the catalog cursor in the pressed direction. Presses
// from a list the cursor no longer walks are ignored.
func (d *Deps) paginateItems(_ context.Context, sc *session.Scope) error {
	if sc.State.GetString(dataActivePage) != keyboards.KeyItemsPage {
		sc.ReplyText("That list is no longer active, run the search again.")
		return nil
	}
	pg := d.Paginators.GetOrCreate(sc.Event.UserID)
	return d.stepAndRender(sc, pg, directionFrom(sc.Event), keyboards.KeyItemsPage, true)
}
