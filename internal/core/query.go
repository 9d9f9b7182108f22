package core

import (
	"strings"

	"github.com/samber/lo"

	"github.com/vovakirdan/wiremsg-server/internal/store"
)

// ListMode selects one of the message retrieval variants.
type ListMode int

const (
	// ModeAll lists messages the caller sent or received.
	ModeAll ListMode = iota
	// ModeReceived lists messages addressed to the caller.
	ModeReceived
	// ModeUnread lists unviewed messages addressed to the caller.
	ModeUnread
	// ModeStaffUser lists every message where the target user is a party.
	ModeStaffUser
	// ModeStaffUnread lists unviewed messages addressed to the target user.
	ModeStaffUnread
)

// Action returns the access action guarding the mode.
func (m ListMode) Action() Action {
	switch m {
	case ModeReceived:
		return ActionReceived
	case ModeUnread:
		return ActionUnread
	case ModeStaffUser:
		return ActionStaffUserMessages
	case ModeStaffUnread:
		return ActionStaffUnreadByUser
	default:
		return ActionList
	}
}

// ListParams describes a listing request.
type ListParams struct {
	Mode ListMode
	// TargetUserID is the inspected user for the staff modes.
	TargetUserID int64
	// Search is the raw ?search= value. Only ModeAll honours it.
	Search string
}

// BuildFilter composes the store filter for caller and params.
// The caller must already be authorized for params.Mode.
func BuildFilter(caller *Caller, params ListParams) store.MessageFilter {
	var filter store.MessageFilter
	switch params.Mode {
	case ModeAll:
		filter.ParticipantID = lo.ToPtr(caller.ID)
		filter.SearchTerms = SplitSearchTerms(params.Search)
	case ModeReceived:
		filter.RecipientID = lo.ToPtr(caller.ID)
	case ModeUnread:
		filter.RecipientID = lo.ToPtr(caller.ID)
		filter.UnreadOnly = true
	case ModeStaffUser:
		filter.ParticipantID = lo.ToPtr(params.TargetUserID)
	case ModeStaffUnread:
		filter.RecipientID = lo.ToPtr(params.TargetUserID)
		filter.UnreadOnly = true
	}
	return filter
}

// SplitSearchTerms splits a search query on whitespace and commas.
// Empty and repeated terms are dropped.
func SplitSearchTerms(q string) []string {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return lo.Uniq(lo.Compact(fields))
}
