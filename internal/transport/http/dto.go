package http

import "time"

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// TokenResponse is returned by the token login endpoint.
type TokenResponse struct {
	Token string `json:"token"`
}

// AccessTokenResponse is returned by the JWT login endpoint.
type AccessTokenResponse struct {
	Access    string `json:"access"`
	ExpiresIn int64  `json:"expires_in"`
}

// ErrorResponse represents a non-validation error response body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// CreateUserRequest represents the registration request body.
type CreateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UpdateUserRequest is the PUT/PATCH body for a user.
type UpdateUserRequest = CreateUserRequest

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CreateMessageRequest is the POST body for a message.
// Sender, view state and timestamps are not accepted from clients.
type CreateMessageRequest struct {
	MessageTo      *string `json:"message_to"`
	MessageTitle   *string `json:"message_title"`
	MessageContent *string `json:"message_content"`
}

// UpdateMessageRequest is the PUT/PATCH body for a message.
type UpdateMessageRequest = CreateMessageRequest

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID             int64      `json:"id"`
	MessageFrom    *string    `json:"message_from"`
	MessageTo      *string    `json:"message_to"`
	MessageTitle   string     `json:"message_title"`
	MessageContent string     `json:"message_content"`
	CreatedAt      time.Time  `json:"created_at"`
	IsViewed       bool       `json:"is_viewed"`
	ViewedAt       *time.Time `json:"viewed_at"`
}

// APIRootResponse lists the browsable resource URLs.
type APIRootResponse struct {
	Users   string `json:"users"`
	Message string `json:"message"`
}
