package http

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/store"
)

func TestMessageEndpoints_RequireAuthentication(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.createUser(t, "alice", false)
	_, _ = env.createUser(t, "bob", false)
	msg := sendMessage(t, env, aliceToken, "bob", "Hi")

	tests := []struct {
		method string
		path   string
		detail string
	}{
		{http.MethodGet, "/api/message/", core.MsgNotAuthenticated},
		{http.MethodPost, "/api/message/", core.MsgNotAuthenticated},
		{http.MethodGet, fmt.Sprintf("/api/message/%d/", msg.ID), core.MsgNotAuthenticated},
		{http.MethodPut, fmt.Sprintf("/api/message/%d/", msg.ID), core.MsgNotAuthenticated},
		{http.MethodPatch, fmt.Sprintf("/api/message/%d/", msg.ID), core.MsgNotAuthenticated},
		{http.MethodDelete, fmt.Sprintf("/api/message/%d/", msg.ID), core.MsgNotAuthenticated},
		{http.MethodGet, "/api/message/get_user_received_messages/", core.MsgNotAuthenticated},
		{http.MethodGet, "/api/message/get_unread_messages/", core.MsgAuthRequired},
		{http.MethodGet, fmt.Sprintf("/api/message/get_user_messages/%d/", aliceID), core.MsgAuthRequired},
		{http.MethodGet, "/api/message/get_unread_messages_by_user/", core.MsgAuthRequired},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, "", nil)
			expectStatus(t, resp, http.StatusUnauthorized)
			expectDetail(t, resp, tt.detail)
			if resp.Header().Get("WWW-Authenticate") != "Token" {
				t.Errorf("expected WWW-Authenticate header, got %q", resp.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMessageEndpoints_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	for _, header := range []string{"Token deadbeef", "Bearer nope", "Basic abc", "Token"} {
		resp := env.doWithHeader(t, http.MethodGet, "/api/message/", header, nil)
		expectStatus(t, resp, http.StatusUnauthorized)
		expectDetail(t, resp, core.MsgInvalidToken)
	}
}

func TestCreateMessage_SenderIsCaller(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)
	bobID, _ := env.createUser(t, "bob", false)

	resp := env.do(t, http.MethodPost, "/api/message/", aliceToken, map[string]any{
		"message_from":    "bob",
		"message_to":      "bob",
		"message_title":   "Hi",
		"message_content": "Hello Bob",
		"is_viewed":       true,
		"id":              999,
	})
	expectStatus(t, resp, http.StatusCreated)

	msg := decode[MessageResponse](t, resp)
	if msg.MessageFrom == nil || *msg.MessageFrom != "alice" {
		t.Fatalf("expected sender alice, got %v", msg.MessageFrom)
	}
	if msg.MessageTo == nil || *msg.MessageTo != "bob" {
		t.Fatalf("expected recipient bob, got %v", msg.MessageTo)
	}
	if msg.IsViewed || msg.ViewedAt != nil {
		t.Fatalf("new message must be unviewed, got %+v", msg)
	}
	if msg.ID == 999 {
		t.Fatalf("client supplied id must be ignored")
	}

	stored, err := env.store.ListMessages(context.Background(), store.MessageFilter{RecipientID: &bobID})
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(stored) != 1 || stored[0].SenderUsername != "alice" {
		t.Fatalf("expected one message from alice, got %+v", stored)
	}
}

func TestCreateMessage_UnknownRecipient(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)

	resp := env.do(t, http.MethodPost, "/api/message/", aliceToken, map[string]string{
		"message_to":      "ghost",
		"message_title":   "Hi",
		"message_content": "anyone?",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	fields := decode[map[string][]string](t, resp)
	if !reflect.DeepEqual(fields["message_to"], []string{core.MsgUnknownRecipient}) {
		t.Fatalf("unexpected field errors: %v", fields)
	}

	all, err := env.store.ListMessages(context.Background(), store.MessageFilter{})
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected nothing persisted, got %d messages", len(all))
	}
}

func TestCreateMessage_BadPayloads(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)

	resp := env.do(t, http.MethodPost, "/api/message/", aliceToken, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	fields := decode[map[string][]string](t, resp)
	for _, f := range []string{"message_to", "message_title", "message_content"} {
		if !reflect.DeepEqual(fields[f], []string{core.MsgFieldRequired}) {
			t.Fatalf("expected %s required, got %v", f, fields)
		}
	}

	resp = env.do(t, http.MethodPost, "/api/message/", aliceToken, `{"message_to": 5}`)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, http.MethodPost, "/api/message/", aliceToken, `{not json`)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestListMessages_OnlyOwn(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)
	_, bobToken := env.createUser(t, "bob", false)
	_, carolToken := env.createUser(t, "carol", false)

	m1 := sendMessage(t, env, aliceToken, "bob", "lunch")
	sendMessage(t, env, bobToken, "carol", "party")
	m3 := sendMessage(t, env, carolToken, "alice", "gift")

	resp := env.do(t, http.MethodGet, "/api/message/", aliceToken, nil)
	expectStatus(t, resp, http.StatusOK)
	got := messageIDs(decode[[]MessageResponse](t, resp))
	if !reflect.DeepEqual(got, []int64{m3.ID, m1.ID}) {
		t.Fatalf("expected %v, got %v", []int64{m3.ID, m1.ID}, got)
	}

	resp = env.do(t, http.MethodGet, "/api/message/?search=carol", aliceToken, nil)
	expectStatus(t, resp, http.StatusOK)
	got = messageIDs(decode[[]MessageResponse](t, resp))
	if !reflect.DeepEqual(got, []int64{m3.ID}) {
		t.Fatalf("expected search to find only %d, got %v", m3.ID, got)
	}

	resp = env.do(t, http.MethodGet, "/api/message/get_user_received_messages/", bobToken, nil)
	expectStatus(t, resp, http.StatusOK)
	got = messageIDs(decode[[]MessageResponse](t, resp))
	if !reflect.DeepEqual(got, []int64{m1.ID}) {
		t.Fatalf("expected bob to receive %d, got %v", m1.ID, got)
	}
}

func TestRetrieveMessage_MarksViewed(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)
	_, bobToken := env.createUser(t, "bob", false)
	msg := sendMessage(t, env, aliceToken, "bob", "Hi")
	other := sendMessage(t, env, aliceToken, "bob", "Other")

	path := fmt.Sprintf("/api/message/%d/", msg.ID)
	resp := env.do(t, http.MethodGet, path, bobToken, nil)
	expectStatus(t, resp, http.StatusOK)
	first := decode[MessageResponse](t, resp)
	if !first.IsViewed || first.ViewedAt == nil {
		t.Fatalf("expected viewed message, got %+v", first)
	}

	resp = env.do(t, http.MethodGet, path, bobToken, nil)
	expectStatus(t, resp, http.StatusOK)
	second := decode[MessageResponse](t, resp)
	if !second.IsViewed || !second.ViewedAt.Equal(*first.ViewedAt) {
		t.Fatalf("expected viewed_at to stay %v, got %+v", first.ViewedAt, second)
	}

	resp = env.do(t, http.MethodGet, "/api/message/get_unread_messages/", bobToken, nil)
	expectStatus(t, resp, http.StatusOK)
	unread := messageIDs(decode[[]MessageResponse](t, resp))
	if !reflect.DeepEqual(unread, []int64{other.ID}) {
		t.Fatalf("expected only %d unread, got %v", other.ID, unread)
	}
}

func TestRetrieveMessage_Denials(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)
	_, _ = env.createUser(t, "bob", false)
	_, carolToken := env.createUser(t, "carol", false)
	msg := sendMessage(t, env, aliceToken, "bob", "Hi")

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/message/%d/", msg.ID), carolToken, nil)
	expectStatus(t, resp, http.StatusForbidden)
	expectDetail(t, resp, core.MsgPermissionDenied)

	resp = env.do(t, http.MethodGet, "/api/message/9999/", carolToken, nil)
	expectStatus(t, resp, http.StatusNotFound)
	expectDetail(t, resp, core.MsgNotFound)

	resp = env.do(t, http.MethodGet, "/api/message/abc/", carolToken, nil)
	expectStatus(t, resp, http.StatusNotFound)

	stored, err := env.store.GetMessage(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if stored.IsViewed {
		t.Fatalf("forbidden retrieve must not mark the message viewed")
	}
}

func TestUpdateAndDestroyMessage(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)
	_, _ = env.createUser(t, "bob", false)
	_, carolToken := env.createUser(t, "carol", false)
	msg := sendMessage(t, env, aliceToken, "bob", "draft")
	path := fmt.Sprintf("/api/message/%d/", msg.ID)

	resp := env.do(t, http.MethodPatch, path, aliceToken, map[string]string{"message_title": "final"})
	expectStatus(t, resp, http.StatusOK)
	patched := decode[MessageResponse](t, resp)
	if patched.MessageTitle != "final" || patched.MessageContent != msg.MessageContent {
		t.Fatalf("unexpected patch result: %+v", patched)
	}
	if !patched.CreatedAt.Equal(msg.CreatedAt) {
		t.Fatalf("created_at changed from %v to %v", msg.CreatedAt, patched.CreatedAt)
	}

	resp = env.do(t, http.MethodPut, path, aliceToken, map[string]string{"message_title": "only title"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, http.MethodPut, path, aliceToken, map[string]string{
		"message_to": "carol", "message_title": "moved", "message_content": "for carol",
	})
	expectStatus(t, resp, http.StatusOK)
	moved := decode[MessageResponse](t, resp)
	if moved.MessageTo == nil || *moved.MessageTo != "carol" {
		t.Fatalf("expected recipient carol, got %+v", moved)
	}

	resp = env.do(t, http.MethodDelete, path, carolToken, nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp = env.do(t, http.MethodDelete, path, aliceToken, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestStaffEndpoints(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.createUser(t, "alice", false)
	bobID, bobToken := env.createUser(t, "bob", false)
	_, carolToken := env.createUser(t, "carol", false)
	_, staffToken := env.createUser(t, "admin", true)

	m1 := sendMessage(t, env, aliceToken, "bob", "one")
	m2 := sendMessage(t, env, carolToken, "alice", "two")
	sendMessage(t, env, bobToken, "carol", "three")

	userMessages := fmt.Sprintf("/api/message/get_user_messages/%d/", aliceID)
	unreadByUser := fmt.Sprintf("/api/message/get_unread_messages_by_user/?user_id=%d", bobID)

	for _, path := range []string{userMessages, unreadByUser} {
		resp := env.do(t, http.MethodGet, path, aliceToken, nil)
		expectStatus(t, resp, http.StatusForbidden)
		expectDetail(t, resp, core.MsgStaffRequired)
	}

	resp := env.do(t, http.MethodGet, userMessages, staffToken, nil)
	expectStatus(t, resp, http.StatusOK)
	got := messageIDs(decode[[]MessageResponse](t, resp))
	if !reflect.DeepEqual(got, []int64{m2.ID, m1.ID}) {
		t.Fatalf("expected alice's messages %v, got %v", []int64{m2.ID, m1.ID}, got)
	}

	resp = env.do(t, http.MethodGet, "/api/message/get_user_messages/424242/", staffToken, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]MessageResponse](t, resp); len(got) != 0 {
		t.Fatalf("expected no messages for unknown user, got %v", got)
	}

	resp = env.do(t, http.MethodGet, "/api/message/get_user_messages/abc/", staffToken, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, http.MethodGet, "/api/message/get_unread_messages_by_user/", staffToken, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	fields := decode[map[string][]string](t, resp)
	if !reflect.DeepEqual(fields["user_id"], []string{core.MsgFieldRequired}) {
		t.Fatalf("expected user_id required, got %v", fields)
	}

	resp = env.do(t, http.MethodGet, "/api/message/get_unread_messages_by_user/?user_id=x", staffToken, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, http.MethodGet, unreadByUser, staffToken, nil)
	expectStatus(t, resp, http.StatusOK)
	got = messageIDs(decode[[]MessageResponse](t, resp))
	if !reflect.DeepEqual(got, []int64{m1.ID}) {
		t.Fatalf("expected bob's unread %v, got %v", []int64{m1.ID}, got)
	}
}

func TestScenario_ReadStateVisibleToStaff(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", false)
	bobID, bobToken := env.createUser(t, "bob", false)
	_, staffToken := env.createUser(t, "admin", true)

	msg := sendMessage(t, env, aliceToken, "bob", "Hi")
	if msg.MessageFrom == nil || *msg.MessageFrom != "alice" || msg.IsViewed {
		t.Fatalf("unexpected created message: %+v", msg)
	}

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/message/%d/", msg.ID), bobToken, nil)
	expectStatus(t, resp, http.StatusOK)
	if viewed := decode[MessageResponse](t, resp); !viewed.IsViewed || viewed.ViewedAt == nil {
		t.Fatalf("expected viewed message, got %+v", viewed)
	}

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/message/get_unread_messages_by_user/?user_id=%d", bobID), staffToken, nil)
	expectStatus(t, resp, http.StatusOK)
	if unread := decode[[]MessageResponse](t, resp); len(unread) != 0 {
		t.Fatalf("expected no unread messages for bob, got %v", unread)
	}
}
