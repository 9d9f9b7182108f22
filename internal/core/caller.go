package core

import "github.com/vovakirdan/wiremsg-server/internal/store"

// Caller is the authenticated principal of a request. A nil *Caller is anonymous.
type Caller struct {
	ID       int64
	Username string
	IsStaff  bool
}

// CallerFromUser builds a Caller from a stored user.
func CallerFromUser(u *store.User) *Caller {
	if u == nil {
		return nil
	}
	return &Caller{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

// Authenticated reports whether c identifies a user.
func (c *Caller) Authenticated() bool {
	return c != nil
}

// Action names an operation on a resource.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"

	// Message-only listings.
	ActionReceived          Action = "received"
	ActionUnread            Action = "unread"
	ActionStaffUserMessages Action = "staff_user_messages"
	ActionStaffUnreadByUser Action = "staff_unread_by_user"
)
