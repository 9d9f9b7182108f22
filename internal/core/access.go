package core

import "github.com/vovakirdan/wiremsg-server/internal/store"

// AuthorizeMessage checks whether caller may perform action on the message
// resource as a whole. It returns nil or a *Error.
func AuthorizeMessage(action Action, caller *Caller) error {
	switch action {
	case ActionStaffUserMessages, ActionStaffUnreadByUser:
		return RequireStaff(caller)
	case ActionUnread:
		if !caller.Authenticated() {
			return Unauthenticated(MsgAuthRequired)
		}
		return nil
	case ActionList, ActionRetrieve, ActionCreate, ActionUpdate,
		ActionPartialUpdate, ActionDestroy, ActionReceived:
		if !caller.Authenticated() {
			return Unauthenticated(MsgNotAuthenticated)
		}
		return nil
	default:
		return PermissionDenied(MsgPermissionDenied)
	}
}

// AuthorizeMessageObject checks object-level access to msg.
// Only its sender and recipient may touch a message.
func AuthorizeMessageObject(action Action, caller *Caller, msg *store.Message) error {
	if err := AuthorizeMessage(action, caller); err != nil {
		return err
	}
	switch action {
	case ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		if isParty(caller.ID, msg) {
			return nil
		}
		return PermissionDenied(MsgPermissionDenied)
	default:
		return nil
	}
}

// RequireStaff allows only authenticated staff callers.
func RequireStaff(caller *Caller) error {
	if !caller.Authenticated() {
		return Unauthenticated(MsgAuthRequired)
	}
	if !caller.IsStaff {
		return PermissionDenied(MsgStaffRequired)
	}
	return nil
}

// AuthorizeUser checks access to the user resource. Registration is open.
func AuthorizeUser(action Action, caller *Caller) error {
	switch action {
	case ActionCreate:
		return nil
	case ActionList, ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		if !caller.Authenticated() {
			return Unauthenticated(MsgNotAuthenticated)
		}
		return nil
	default:
		return PermissionDenied(MsgPermissionDenied)
	}
}

// AuthorizeUserObject allows users to act only on their own account.
func AuthorizeUserObject(action Action, caller *Caller, target *store.User) error {
	if err := AuthorizeUser(action, caller); err != nil {
		return err
	}
	switch action {
	case ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		if caller.ID == target.ID {
			return nil
		}
		return PermissionDenied(MsgPermissionDenied)
	default:
		return nil
	}
}

func isParty(userID int64, msg *store.Message) bool {
	return (msg.SenderID != nil && *msg.SenderID == userID) ||
		(msg.RecipientID != nil && *msg.RecipientID == userID)
}
