package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert or update violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

// User represents an account in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsStaff      bool
	DateJoined   time.Time
}

// Token is the opaque API key issued to a user on login.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}

// Message represents a persisted direct message.
// SenderID and RecipientID are nil only for rows whose user reference was cleared.
type Message struct {
	ID                int64
	SenderID          *int64
	SenderUsername    string
	RecipientID       *int64
	RecipientUsername string
	Title             string
	Body              string
	CreatedAt         time.Time
	IsViewed          bool
	ViewedAt          *time.Time
}

// MessageFilter selects messages. Zero-value fields do not constrain the query.
// Set fields are combined with AND.
type MessageFilter struct {
	// ParticipantID matches messages where the user is sender OR recipient.
	ParticipantID *int64
	// RecipientID matches messages addressed to the user.
	RecipientID *int64
	// UnreadOnly restricts to messages with is_viewed = false.
	UnreadOnly bool
	// SearchTerms must each match sender username, recipient username or title.
	SearchTerms []string
}

// MessageUpdate carries the mutable message fields. Nil fields are left unchanged.
type MessageUpdate struct {
	RecipientID *int64
	Title       *string
	Body        *string
}

// UserUpdate carries the mutable user fields. Nil fields are left unchanged.
type UserUpdate struct {
	Username     *string
	PasswordHash *string
	IsStaff      *bool
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers lists users ordered by id. An empty query lists everyone,
	// otherwise usernames are matched by case-insensitive substring.
	ListUsers(ctx context.Context, query string) ([]*User, error)

	// UpdateUser applies the non-nil fields of upd.
	UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error)

	// DeleteUser removes a user together with its token and messages.
	DeleteUser(ctx context.Context, id int64) error
}

// TokenStore handles API token persistence.
type TokenStore interface {
	// GetOrCreateToken returns the user's token, storing newKey if none exists.
	GetOrCreateToken(ctx context.Context, userID int64, newKey string) (*Token, error)

	// GetUserByToken resolves a token key to its owner.
	GetUserByToken(ctx context.Context, key string) (*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists msg and fills in its ID.
	CreateMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// ListMessages returns messages matching filter, newest id first.
	ListMessages(ctx context.Context, filter MessageFilter) ([]*Message, error)

	// MarkViewed flips an unviewed message to viewed at the given time.
	// Reports false when the message was already viewed.
	MarkViewed(ctx context.Context, id int64, at time.Time) (bool, error)

	// UpdateMessage applies the non-nil fields of upd.
	UpdateMessage(ctx context.Context, id int64, upd MessageUpdate) (*Message, error)

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, id int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	TokenStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
