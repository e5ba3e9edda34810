package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Item mirrors a catalog row joined with its brand and first image.
type Item struct {
	ID          int64           `db:"id"`
	Title       string          `db:"title"`
	Description sql.NullString  `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Available   bool            `db:"available"`
	BrandID     sql.NullInt64   `db:"brand_id"`
	BrandTitle  sql.NullString  `db:"brand_title"`
	ImagePath   sql.NullString  `db:"image_path"`
}

// Brand mirrors one brand row.
type Brand struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

// Filter narrows a catalog query to one attribute value, e.g. brand=3.
type Filter struct {
	Attribute string
	ID        int64
}

// FilterOption is one selectable value of a filter attribute.
type FilterOption struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

// filterColumns maps a filter attribute to the column it constrains. Brand
// lives on the item row; the rest sit on item_meta.
var filterColumns = map[string]string{
	"brand": "i.brand_id",
	"color": "m.color_id",
	"size":  "m.size_id",
	"sex":   "m.sex_id",
}

// filterTables maps a filter attribute to its lookup table.
var filterTables = map[string]string{
	"brand": "brands",
	"color": "colors",
	"size":  "sizes",
	"sex":   "sexes",
}

const itemColumns = `
	i.id, i.title, i.description, i.price, i.available, i.brand_id,
	b.title AS brand_title,
	(SELECT img.path FROM images img
	   JOIN items_images ii ON ii.image_id = img.id
	  WHERE ii.item_id = i.id
	  ORDER BY img.id
	  LIMIT 1) AS image_path`

// ListItems returns available items matching every filter, ordered by id.
// Only known filter attributes are applied; unknown ones are rejected so a
// bad callback payload cannot widen the query.
func (s *Store) ListItems(ctx context.Context, filters []Filter) ([]Item, error) {
	var (
		where = []string{"i.available"}
		args  []any
	)
	for _, f := range filters {
		column, ok := filterColumns[f.Attribute]
		if !ok {
			return nil, Validation("catalog: unknown filter attribute " + f.Attribute)
		}
		args = append(args, f.ID)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	query := `SELECT ` + itemColumns + `
		 FROM items i
		 LEFT JOIN brands b ON b.id = i.brand_id
		 LEFT JOIN item_meta m ON m.item_id = i.id
		 WHERE ` + strings.Join(where, " AND ") + `
		 ORDER BY i.id`

	var out []Item
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, Transient("catalog: list items", err)
	}
	return out, nil
}

// FetchItem loads a single catalog item.
func (s *Store) FetchItem(ctx context.Context, itemID int64) (*Item, error) {
	query := `SELECT ` + itemColumns + `
		 FROM items i
		 LEFT JOIN brands b ON b.id = i.brand_id
		 WHERE i.id = $1`

	var item Item
	err := s.db.GetContext(ctx, &item, query, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound(fmt.Sprintf("catalog: item %d", itemID))
	}
	if err != nil {
		return nil, Transient("catalog: fetch item", err)
	}
	return &item, nil
}

// ListBrands returns the brands that currently have available items.
func (s *Store) ListBrands(ctx context.Context) ([]Brand, error) {
	var out []Brand
	err := s.db.SelectContext(ctx, &out,
		`SELECT DISTINCT b.id, b.title
		 FROM brands b
		 JOIN items i ON i.brand_id = b.id
		 WHERE i.available
		 ORDER BY b.title`)
	if err != nil {
		return nil, Transient("catalog: list brands", err)
	}
	return out, nil
}

// ListFilterOptions returns the selectable values of one filter attribute.
// The attribute names its lookup table; unknown attributes are rejected.
func (s *Store) ListFilterOptions(ctx context.Context, attribute string) ([]FilterOption, error) {
	table, ok := filterTables[attribute]
	if !ok {
		return nil, Validation("catalog: unknown filter attribute " + attribute)
	}
	var out []FilterOption
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, title FROM `+table+` ORDER BY title`)
	if err != nil {
		return nil, Transient("catalog: list "+table, err)
	}
	return out, nil
}
