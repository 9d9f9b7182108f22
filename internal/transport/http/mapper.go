package http

import (
	"github.com/samber/lo"

	"github.com/vovakirdan/wiremsg-server/internal/auth"
	"github.com/vovakirdan/wiremsg-server/internal/service/messages"
	"github.com/vovakirdan/wiremsg-server/internal/service/users"
	"github.com/vovakirdan/wiremsg-server/internal/store"
)

func messageToResponse(m *store.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		MessageTitle:   m.Title,
		MessageContent: m.Body,
		CreatedAt:      m.CreatedAt.UTC(),
		IsViewed:       m.IsViewed,
	}
	if m.SenderID != nil {
		resp.MessageFrom = lo.ToPtr(m.SenderUsername)
	}
	if m.RecipientID != nil {
		resp.MessageTo = lo.ToPtr(m.RecipientUsername)
	}
	if m.ViewedAt != nil {
		resp.ViewedAt = lo.ToPtr(m.ViewedAt.UTC())
	}
	return resp
}

func messagesToResponse(msgs []*store.Message) []MessageResponse {
	return lo.Map(msgs, func(m *store.Message, _ int) MessageResponse {
		return messageToResponse(m)
	})
}

func userToResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

func usersToResponse(us []*store.User) []UserResponse {
	return lo.Map(us, func(u *store.User, _ int) UserResponse {
		return userToResponse(u)
	})
}

func messageInput(req CreateMessageRequest) messages.Input {
	return messages.Input{
		To:      req.MessageTo,
		Title:   req.MessageTitle,
		Content: req.MessageContent,
	}
}

func userInput(req CreateUserRequest) users.Input {
	return users.Input{Username: req.Username, Password: req.Password}
}

func credentials(req LoginRequest) auth.Credentials {
	return auth.Credentials{Username: req.Username, Password: req.Password}
}
