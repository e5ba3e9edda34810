package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Address mirrors one row of the addresses table.
type Address struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Country   string `db:"country"`
	City      string `db:"city"`
	Street    string `db:"street"`
	Apartment string `db:"apartment"`
	Region    string `db:"region"`
	PostCode  string `db:"post_code"`
	Phone     string `db:"phone"`
}

// SetAddress inserts the address collected by the address flow. When the
// insert races another submit into the unique (user_id, city, street,
// apartment) constraint, the most recent matching row is re-read and
// returned instead of failing the flow.
func (s *Store) SetAddress(ctx context.Context, addr Address) (*Address, error) {
	err := s.inTx(ctx, "addresses: insert", func(tx *sqlx.Tx) error {
		insertErr := tx.GetContext(ctx, &addr.ID,
			`INSERT INTO addresses (user_id, country, city, street, apartment, region, post_code, phone)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			addr.UserID, addr.Country, addr.City, addr.Street,
			addr.Apartment, addr.Region, addr.PostCode, addr.Phone,
		)
		if insertErr != nil {
			return classify("addresses: insert", insertErr)
		}
		return nil
	})
	if err == nil {
		return &addr, nil
	}
	if !IsConflict(err) {
		return nil, err
	}

	var existing Address
	readErr := s.db.GetContext(ctx, &existing,
		`SELECT id, user_id, country, city, street, apartment, region, post_code, phone
		 FROM addresses
		 WHERE user_id = $1 AND city = $2 AND street = $3 AND apartment = $4
		 ORDER BY id DESC
		 LIMIT 1`,
		addr.UserID, addr.City, addr.Street, addr.Apartment,
	)
	if readErr != nil {
		return nil, Transient("addresses: conflict re-read", readErr)
	}
	return &existing, nil
}

// ListAddresses returns the user's saved addresses, newest first.
func (s *Store) ListAddresses(ctx context.Context, userID int64) ([]Address, error) {
	var out []Address
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, user_id, country, city, street, apartment, region, post_code, phone
		 FROM addresses
		 WHERE user_id = $1
		 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, Transient("addresses: list", err)
	}
	return out, nil
}

// FetchAddress loads one address owned by the user.
func (s *Store) FetchAddress(ctx context.Context, userID, addressID int64) (*Address, error) {
	var addr Address
	err := s.db.GetContext(ctx, &addr,
		`SELECT id, user_id, country, city, street, apartment, region, post_code, phone
		 FROM addresses
		 WHERE id = $1 AND user_id = $2`, addressID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound(fmt.Sprintf("addresses: %d for user %d", addressID, userID))
	}
	if err != nil {
		return nil, Transient("addresses: fetch", err)
	}
	return &addr, nil
}
