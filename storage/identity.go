// Package storage is the durable identity and commerce layer on PostgreSQL.
// Every exported operation runs inside a single transaction and returns
// classified *Error values.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

// Credential mirrors one row of the credentials table.
type Credential struct {
	UserID       int64          `db:"user_id"`
	PasswordHash sql.NullString `db:"password_hash"`
	AuthHash     sql.NullString `db:"auth_hash"`
	LastSeen     sql.NullInt64  `db:"last_seen"`
}

// User mirrors one row of the users table.
type User struct {
	ID        int64          `db:"id"`
	TgID      int64          `db:"tg_id"`
	FirstName sql.NullString `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
	Email     sql.NullString `db:"email"`
}

// NewUser carries the fields the registration flow collects.
type NewUser struct {
	TgID      int64
	FirstName string
	LastName  string
	Email     string
	Password  string
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Transient(op+": begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return Transient(op+": commit", err)
	}
	return nil
}

// LookupUserID resolves the durable user id for an external (Telegram) id.
// found is false for an unknown id; errors mean the store itself failed.
func (s *Store) LookupUserID(ctx context.Context, externalID int64) (int64, bool, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `SELECT id FROM users WHERE tg_id = $1`, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, Transient("identity: lookup user", err)
	}
	return id, true, nil
}

// FetchCredential loads the credential row for a user.
func (s *Store) FetchCredential(ctx context.Context, userID int64) (*Credential, error) {
	var cred Credential
	err := s.db.GetContext(ctx, &cred,
		`SELECT user_id, password_hash, auth_hash, last_seen FROM credentials WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound(fmt.Sprintf("identity: credential for user %d", userID))
	}
	if err != nil {
		return nil, Transient("identity: fetch credential", err)
	}
	return &cred, nil
}

// TouchCredential refreshes the stored auth fingerprint for a known user.
// Used by the resolver's cache-repair path.
func (s *Store) TouchCredential(ctx context.Context, userID int64, fingerprint string) error {
	return s.inTx(ctx, "identity: touch credential", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE credentials SET auth_hash = $1 WHERE user_id = $2`, fingerprint, userID)
		if err != nil {
			return classify("identity: touch credential", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO credentials (user_id, auth_hash) VALUES ($1, $2)`, userID, fingerprint)
			if err != nil {
				return classify("identity: touch credential", err)
			}
		}
		return nil
	})
}

// CreateUser registers a user together with their bcrypt credential in one
// transaction. A duplicate tg_id surfaces as a conflict.
func (s *Store) CreateUser(ctx context.Context, nu NewUser) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, Transient("identity: hash password", err)
	}

	var userID int64
	err = s.inTx(ctx, "identity: create user", func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &userID,
			`INSERT INTO users (tg_id, first_name, last_name, email)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			nu.TgID, nu.FirstName, nu.LastName, nu.Email)
		if err != nil {
			return classify("identity: insert user", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO credentials (user_id, password_hash) VALUES ($1, $2)`,
			userID, string(hash))
		if err != nil {
			return classify("identity: insert credential", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// SetCredential replaces the user's password hash. Used by the restore flow.
func (s *Store) SetCredential(ctx context.Context, userID int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Transient("identity: hash password", err)
	}
	return s.inTx(ctx, "identity: set credential", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE credentials SET password_hash = $1 WHERE user_id = $2`,
			string(hash), userID)
		if err != nil {
			return classify("identity: set credential", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFound(fmt.Sprintf("identity: credential for user %d", userID))
		}
		return nil
	})
}

// VerifyPassword checks a plaintext password against the stored hash.
// A mismatch is reported as (false, nil); missing rows as NotFound.
func (s *Store) VerifyPassword(ctx context.Context, userID int64, password string) (bool, error) {
	cred, err := s.FetchCredential(ctx, userID)
	if err != nil {
		return false, err
	}
	if !cred.PasswordHash.Valid {
		return false, nil
	}
	err = bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash.String), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, Transient("identity: verify password", err)
	}
	return true, nil
}

// FetchUser loads the profile row for a user id.
func (s *Store) FetchUser(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		`SELECT id, tg_id, first_name, last_name, email FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound(fmt.Sprintf("identity: user %d", userID))
	}
	if err != nil {
		return nil, Transient("identity: fetch user", err)
	}
	return &u, nil
}
