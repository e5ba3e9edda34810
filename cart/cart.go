// Package cart implements the per-user shopping cart held in the ephemeral
// registry and snapshotted into the chat state between events.
package cart

import (
	"github.com/shopspring/decimal"
)

// ItemSelection is one cart line: a catalog item plus the variant the user
// picked. Two selections are the same line when the item id and every
// variant attribute match; quantity is folded into the line, never into
// duplicate entries.
type ItemSelection struct {
	ItemID     int64             `json:"item_id"`
	Title      string            `json:"title,omitempty"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (s ItemSelection) sameLine(other ItemSelection) bool {
	if s.ItemID != other.ItemID || len(s.Attributes) != len(other.Attributes) {
		return false
	}
	for k, v := range s.Attributes {
		if other.Attributes[k] != v {
			return false
		}
	}
	return true
}

// Cart is the ordered list of selections for one owner. It is not
// self-synchronizing: the session engine's per-chat lock serializes access.
type Cart struct {
	ownerID int64
	items   []ItemSelection
}

func New(ownerID int64) *Cart {
	return &Cart{ownerID: ownerID}
}

func (c *Cart) OwnerID() int64 { return c.ownerID }

// AddItem merges the selection into an existing line when identity matches,
// otherwise appends a new line. A zero quantity counts as one.
func (c *Cart) AddItem(sel ItemSelection) {
	if sel.Quantity <= 0 {
		sel.Quantity = 1
	}
	for i := range c.items {
		if c.items[i].sameLine(sel) {
			c.items[i].Quantity += sel.Quantity
			return
		}
	}
	c.items = append(c.items, sel)
}

// RemoveItem decrements the matching line by the selection's quantity and
// drops the line when it reaches zero. Matching is by identity, not
// position. Returns false when no line matches.
func (c *Cart) RemoveItem(sel ItemSelection) bool {
	if sel.Quantity <= 0 {
		sel.Quantity = 1
	}
	for i := range c.items {
		if c.items[i].sameLine(sel) {
			c.items[i].Quantity -= sel.Quantity
			if c.items[i].Quantity <= 0 {
				c.items = append(c.items[:i], c.items[i+1:]...)
			}
			return true
		}
	}
	return false
}

// Items returns a snapshot of the current lines, order preserved. The caller
// writes it back to the chat state after mutation.
func (c *Cart) Items() []ItemSelection {
	out := make([]ItemSelection, len(c.items))
	copy(out, c.items)
	return out
}

// FillUp replaces the cart contents from a durable snapshot. Used to
// rehydrate a freshly created registry handle.
func (c *Cart) FillUp(snapshot []ItemSelection) {
	c.items = make([]ItemSelection, len(snapshot))
	copy(c.items, snapshot)
}

// Clear drops every line.
func (c *Cart) Clear() { c.items = nil }

// Len reports the number of distinct lines.
func (c *Cart) Len() int { return len(c.items) }

// TotalQuantity reports the summed quantity across lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

// CalculateSum returns the cart total, unit price times quantity per line,
// rounded to two decimal places.
func (c *Cart) CalculateSum() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Round(2)
}
