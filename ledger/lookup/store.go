// Package lookup is the read-only existence-check collaborator backed
// by the local relational store. Every check is a live read; nothing is
// cached across requests.
package lookup

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"finbot/core/logger"
	"finbot/ledger"
	"log/slog"
)

// User is one row of the users dataset used by report exports.
type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
}

// Store answers existence questions and serves the users dataset.
// Safe for concurrent use; sqlx.DB pools connections internally.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// UserExists reports whether a user with the given username is registered.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	logger.Lookup.Debug("user checked",
		slog.String("event", "lookup.user"),
		slog.String("username", logger.SanitizeLimit(username, 64)),
		slog.Bool("exists", exists),
	)
	return exists, nil
}

// RecordExists reports whether a record of the given kind exists. An ID
// that does not parse as an integer cannot exist.
func (s *Store) RecordExists(ctx context.Context, kind ledger.Kind, id string) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("record exists: unknown kind %q", kind)
	}
	recordID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false, nil
	}

	table := "expenses"
	if kind == ledger.KindIncome {
		table = "incomes"
	}
	var exists bool
	err = s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, recordID)
	if err != nil {
		return false, fmt.Errorf("record exists: %w", err)
	}
	logger.Lookup.Debug("record checked",
		slog.String("event", "lookup.record"),
		slog.String("kind", string(kind)),
		slog.String("record_id", id),
		slog.Bool("exists", exists),
	)
	return exists, nil
}

// ListUsers returns all registered users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.db.SelectContext(ctx, &users,
		`SELECT id, username, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	logger.Lookup.Debug("users listed",
		slog.String("event", "lookup.users"),
		slog.Int("rows", len(users)),
	)
	return users, nil
}
