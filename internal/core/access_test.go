package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wiremsg-server/internal/store"
)

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var cerr *Error
	require.True(t, errors.As(err, &cerr), "expected *core.Error, got %v", err)
	return cerr.Kind
}

func Test_AuthorizeMessage_Anonymous(t *testing.T) {
	req := require.New(t)

	for _, action := range []Action{
		ActionList, ActionRetrieve, ActionCreate, ActionUpdate,
		ActionPartialUpdate, ActionDestroy, ActionReceived, ActionUnread,
		ActionStaffUserMessages, ActionStaffUnreadByUser,
	} {
		err := AuthorizeMessage(action, nil)
		req.Error(err, "action %s", action)
		req.Equal(KindUnauthenticated, kindOf(t, err), "action %s", action)
	}
}

func Test_AuthorizeMessage_UnreadUsesExplicitMessage(t *testing.T) {
	req := require.New(t)

	var cerr *Error
	req.True(errors.As(AuthorizeMessage(ActionUnread, nil), &cerr))
	req.Equal(MsgAuthRequired, cerr.Message)

	req.True(errors.As(AuthorizeMessage(ActionList, nil), &cerr))
	req.Equal(MsgNotAuthenticated, cerr.Message)
}

func Test_AuthorizeMessage_StaffOnly(t *testing.T) {
	req := require.New(t)
	alice := &Caller{ID: 1, Username: "alice"}
	admin := &Caller{ID: 2, Username: "admin", IsStaff: true}

	err := AuthorizeMessage(ActionStaffUserMessages, alice)
	req.Equal(KindPermissionDenied, kindOf(t, err))
	req.True(errors.Is(err, ErrPermissionDenied))
	req.Equal(MsgStaffRequired, err.Error())

	req.NoError(AuthorizeMessage(ActionStaffUserMessages, admin))
	req.NoError(AuthorizeMessage(ActionStaffUnreadByUser, admin))
}

func Test_AuthorizeMessageObject(t *testing.T) {
	sender, recipient := int64(1), int64(2)
	msg := &store.Message{ID: 10, SenderID: &sender, RecipientID: &recipient}

	tests := []struct {
		name   string
		caller *Caller
		action Action
		kind   Kind
	}{
		{name: "sender retrieves", caller: &Caller{ID: 1}, action: ActionRetrieve},
		{name: "recipient retrieves", caller: &Caller{ID: 2}, action: ActionRetrieve},
		{name: "recipient destroys", caller: &Caller{ID: 2}, action: ActionDestroy},
		{name: "third party retrieves", caller: &Caller{ID: 3}, action: ActionRetrieve, kind: KindPermissionDenied},
		{name: "third party updates", caller: &Caller{ID: 3}, action: ActionPartialUpdate, kind: KindPermissionDenied},
		{name: "staff is not a party", caller: &Caller{ID: 4, IsStaff: true}, action: ActionUpdate, kind: KindPermissionDenied},
		{name: "anonymous", caller: nil, action: ActionRetrieve, kind: KindUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeMessageObject(tt.action, tt.caller, msg)
			if tt.kind == "" {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tt.kind, kindOf(t, err))
		})
	}
}

func Test_AuthorizeMessageObject_ClearedParties(t *testing.T) {
	req := require.New(t)
	msg := &store.Message{ID: 1}

	req.Equal(KindPermissionDenied, kindOf(t, AuthorizeMessageObject(ActionRetrieve, &Caller{ID: 1}, msg)))
}

func Test_AuthorizeUser(t *testing.T) {
	req := require.New(t)
	self := &Caller{ID: 5}
	other := &store.User{ID: 6}

	req.NoError(AuthorizeUser(ActionCreate, nil))
	req.Equal(KindUnauthenticated, kindOf(t, AuthorizeUser(ActionList, nil)))
	req.NoError(AuthorizeUser(ActionList, self))

	req.NoError(AuthorizeUserObject(ActionRetrieve, self, &store.User{ID: 5}))
	req.Equal(KindPermissionDenied, kindOf(t, AuthorizeUserObject(ActionRetrieve, self, other)))
	req.Equal(KindPermissionDenied, kindOf(t, AuthorizeUserObject(ActionDestroy, self, other)))
	req.Equal(KindUnauthenticated, kindOf(t, AuthorizeUserObject(ActionDestroy, nil, other)))
}
