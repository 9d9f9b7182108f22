package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/wiremsg-server/internal/store"
)

// ==== TokenStore implementation ====

// GetOrCreateToken returns the user's token, storing newKey if none exists.
// Concurrent callers for the same user all end up with the same key.
func (s *SQLStore) GetOrCreateToken(ctx context.Context, userID int64, newKey string) (*store.Token, error) {
	insert := s.rebind(`
		INSERT INTO auth_tokens (token, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`)
	if _, err := s.db.ExecContext(ctx, insert, newKey, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}

	query := s.rebind(`SELECT token, user_id, created_at FROM auth_tokens WHERE user_id = ?`)
	var token store.Token
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token for user %d: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query token: %w", err)
	}

	return &token, nil
}

// GetUserByToken resolves a token key to its owner.
func (s *SQLStore) GetUserByToken(ctx context.Context, key string) (*store.User, error) {
	query := s.rebind(`
		SELECT u.id, u.username, u.password_hash, u.is_staff, u.date_joined
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = ?
	`)
	user, err := scanUser(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query token owner: %w", err)
	}
	return user, nil
}
