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

const messageSelect = `
	SELECT m.id, m.sender_id, COALESCE(su.username, ''), m.recipient_id, COALESCE(ru.username, ''),
	       m.title, m.body, m.created_at, m.is_viewed, m.viewed_at
	FROM messages m
	LEFT JOIN users su ON su.id = m.sender_id
	LEFT JOIN users ru ON ru.id = m.recipient_id
`

// ==== MessageStore implementation ====

// CreateMessage persists a message and fills in its ID.
func (s *SQLStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	query := s.rebind(`
		INSERT INTO messages (sender_id, recipient_id, title, body, created_at, is_viewed, viewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		msg.SenderID,
		msg.RecipientID,
		msg.Title,
		msg.Body,
		msg.CreatedAt,
		msg.IsViewed,
		msg.ViewedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	msg.ID = id
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := s.rebind(messageSelect + ` WHERE m.id = ?`)
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// ListMessages returns messages matching filter, newest id first.
func (s *SQLStore) ListMessages(ctx context.Context, filter store.MessageFilter) ([]*store.Message, error) {
	var conds []string
	var args []any

	if filter.ParticipantID != nil {
		conds = append(conds, "(m.sender_id = ? OR m.recipient_id = ?)")
		args = append(args, *filter.ParticipantID, *filter.ParticipantID)
	}
	if filter.RecipientID != nil {
		conds = append(conds, "m.recipient_id = ?")
		args = append(args, *filter.RecipientID)
	}
	if filter.UnreadOnly {
		conds = append(conds, "m.is_viewed = ?")
		args = append(args, false)
	}
	for _, term := range filter.SearchTerms {
		pattern := likePattern(term)
		conds = append(conds, `(LOWER(COALESCE(su.username, '')) LIKE ? ESCAPE '\'`+
			` OR LOWER(COALESCE(ru.username, '')) LIKE ? ESCAPE '\'`+
			` OR LOWER(m.title) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	query := messageSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY m.id DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// MarkViewed flips an unviewed message to viewed. The guard on is_viewed makes
// concurrent callers race on a single row update, so viewed_at is stamped once.
func (s *SQLStore) MarkViewed(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := s.rebind(`
		UPDATE messages
		SET is_viewed = ?, viewed_at = ?
		WHERE id = ? AND is_viewed = ?
	`)
	result, err := s.db.ExecContext(ctx, query, true, at.UTC(), id, false)
	if err != nil {
		return false, fmt.Errorf("mark message viewed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows == 1, nil
}

// UpdateMessage applies the non-nil fields of upd.
func (s *SQLStore) UpdateMessage(ctx context.Context, id int64, upd store.MessageUpdate) (*store.Message, error) {
	var sets []string
	var args []any
	if upd.RecipientID != nil {
		sets = append(sets, "recipient_id = ?")
		args = append(args, *upd.RecipientID)
	}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *upd.Body)
	}
	if len(sets) == 0 {
		return s.GetMessage(ctx, id)
	}

	query := s.rebind(`UPDATE messages SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}

	return s.GetMessage(ctx, id)
}

// DeleteMessage removes a message.
func (s *SQLStore) DeleteMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var msg store.Message
	var senderID, recipientID sql.NullInt64
	var viewedAt sql.NullTime

	if err := row.Scan(
		&msg.ID,
		&senderID,
		&msg.SenderUsername,
		&recipientID,
		&msg.RecipientUsername,
		&msg.Title,
		&msg.Body,
		&msg.CreatedAt,
		&msg.IsViewed,
		&viewedAt,
	); err != nil {
		return nil, err
	}

	if senderID.Valid {
		msg.SenderID = &senderID.Int64
	}
	if recipientID.Valid {
		msg.RecipientID = &recipientID.Int64
	}
	if viewedAt.Valid {
		msg.ViewedAt = &viewedAt.Time
	}

	return &msg, nil
}
