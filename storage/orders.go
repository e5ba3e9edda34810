package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// OrderLine is one item of a checkout, priced at order time.
type OrderLine struct {
	ItemID    int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateOrder persists a checkout: the order row, its lines and the chosen
// delivery address, all in one transaction. Returns the new order id.
func (s *Store) CreateOrder(ctx context.Context, userID, addressID int64, lines []OrderLine) (int64, error) {
	if len(lines) == 0 {
		return 0, Validation("orders: empty cart")
	}

	var orderID int64
	err := s.inTx(ctx, "orders: create", func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &orderID,
			`INSERT INTO orders (user_id, address_id) VALUES ($1, $2) RETURNING id`,
			userID, addressID)
		if err != nil {
			return classify("orders: insert order", err)
		}
		for _, line := range lines {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, item_id, quantity, unit_price)
				 VALUES ($1, $2, $3, $4)`,
				orderID, line.ItemID, line.Quantity, line.UnitPrice)
			if err != nil {
				return classify("orders: insert line", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// Purchase summarizes one past order for the account view.
type Purchase struct {
	OrderID     int64           `db:"order_id"`
	DateCreated time.Time       `db:"date_created"`
	ItemCount   int             `db:"item_count"`
	Total       decimal.Decimal `db:"total"`
}

// ListPurchases returns the user's orders, newest first.
func (s *Store) ListPurchases(ctx context.Context, userID int64) ([]Purchase, error) {
	var out []Purchase
	err := s.db.SelectContext(ctx, &out,
		`SELECT o.id AS order_id,
		        o.date_created,
		        COALESCE(SUM(oi.quantity), 0) AS item_count,
		        COALESCE(SUM(oi.quantity * oi.unit_price), 0) AS total
		 FROM orders o
		 LEFT JOIN order_items oi ON oi.order_id = o.id
		 WHERE o.user_id = $1
		 GROUP BY o.id, o.date_created
		 ORDER BY o.date_created DESC`, userID)
	if err != nil {
		return nil, Transient("orders: list purchases", err)
	}
	return out, nil
}

// ListPurchasedItems returns the catalog items across all of the user's
// orders, for the bought-items pagination view.
func (s *Store) ListPurchasedItems(ctx context.Context, userID int64) ([]Item, error) {
	var out []Item
	err := s.db.SelectContext(ctx, &out,
		`SELECT DISTINCT `+itemColumns+`
		 FROM orders o
		 JOIN order_items oi ON oi.order_id = o.id
		 JOIN items i ON i.id = oi.item_id
		 LEFT JOIN brands b ON b.id = i.brand_id
		 WHERE o.user_id = $1
		 ORDER BY i.id`, userID)
	if err != nil {
		return nil, Transient("orders: list purchased items", err)
	}
	return out, nil
}

// AccountSummary aggregates the profile counters shown on the account page.
type AccountSummary struct {
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	Email        string `db:"email"`
	AddressCount int    `db:"address_count"`
	OrderCount   int    `db:"order_count"`
}

// FetchAccountSummary loads the account page data in one query.
func (s *Store) FetchAccountSummary(ctx context.Context, userID int64) (*AccountSummary, error) {
	var out AccountSummary
	err := s.db.GetContext(ctx, &out,
		`SELECT COALESCE(u.first_name, '') AS first_name,
		        COALESCE(u.last_name, '')  AS last_name,
		        COALESCE(u.email, '')      AS email,
		        (SELECT COUNT(*) FROM addresses a WHERE a.user_id = u.id) AS address_count,
		        (SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id)    AS order_count
		 FROM users u
		 WHERE u.id = $1`, userID)
	if err != nil {
		return nil, Transient("orders: account summary", err)
	}
	return &out, nil
}
