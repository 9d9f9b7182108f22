package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/wiremsg-server/internal/store"
)

const userColumns = `id, username, password_hash, is_staff, date_joined`

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLStore) CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (*store.User, error) {
	query := s.rebind(`
		INSERT INTO users (username, password_hash, is_staff, date_joined)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	err := s.db.QueryRowContext(ctx, query, username, passwordHash, isStaff, time.Now().UTC()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user %q: %w", username, store.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// ListUsers lists users ordered by id, optionally filtered by username substring.
func (s *SQLStore) ListUsers(ctx context.Context, q string) ([]*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if q = strings.TrimSpace(q); q != "" {
		query += ` WHERE LOWER(username) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(q))
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*store.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateUser applies the non-nil fields of upd.
func (s *SQLStore) UpdateUser(ctx context.Context, id int64, upd store.UserUpdate) (*store.User, error) {
	var sets []string
	var args []any
	if upd.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *upd.Username)
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *upd.PasswordHash)
	}
	if upd.IsStaff != nil {
		sets = append(sets, "is_staff = ?")
		args = append(args, *upd.IsStaff)
	}
	if len(sets) == 0 {
		return s.GetUserByID(ctx, id)
	}

	query := s.rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update user %d: %w", id, store.ErrDuplicate)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}

	return s.GetUserByID(ctx, id)
}

// DeleteUser removes a user. Tokens and messages go with it via ON DELETE CASCADE.
func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func scanUser(row rowScanner) (*store.User, error) {
	var user store.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsStaff,
		&user.DateJoined,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
