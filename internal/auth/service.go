package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/store"
	"github.com/vovakirdan/wiremsg-server/internal/utils"
)

// Authorization header schemes.
const (
	SchemeToken  = "Token"
	SchemeBearer = "Bearer"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = core.Unauthenticated(core.MsgInvalidCredentials)
	// ErrInvalidToken is returned for any Authorization header that does not resolve to a user.
	ErrInvalidToken = core.Unauthenticated(core.MsgInvalidToken)
)

// Store is the persistence the auth service needs.
type Store interface {
	store.UserStore
	store.TokenStore
}

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	Login(outcome string)
}

// Credentials is the login payload. Nil fields were absent from the request.
type Credentials struct {
	Username *string
	Password *string
}

// Service provides authentication operations.
type Service struct {
	store     Store
	jwtConfig *JWTConfig
	validator *core.Validator
	recorder  LoginRecorder
}

// NewService creates a new authentication service. recorder may be nil.
func NewService(st Store, jwtConfig *JWTConfig, validator *core.Validator, recorder LoginRecorder) *Service {
	return &Service{
		store:     st,
		jwtConfig: jwtConfig,
		validator: validator,
		recorder:  recorder,
	}
}

// Login validates credentials and returns the user's API token, creating it on first login.
func (s *Service) Login(ctx context.Context, creds Credentials) (*store.Token, error) {
	user, err := s.checkCredentials(ctx, creds)
	if err != nil {
		return nil, err
	}

	key, err := utils.NewTokenKey()
	if err != nil {
		return nil, fmt.Errorf("generate token key: %w", err)
	}

	token, err := s.store.GetOrCreateToken(ctx, user.ID, key)
	if err != nil {
		return nil, fmt.Errorf("get or create token: %w", err)
	}
	return token, nil
}

// IssueAccessToken validates credentials and returns a signed JWT and its lifetime.
func (s *Service) IssueAccessToken(ctx context.Context, creds Credentials) (string, time.Duration, error) {
	user, err := s.checkCredentials(ctx, creds)
	if err != nil {
		return "", 0, err
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return "", 0, fmt.Errorf("generate token: %w", err)
	}
	return token, s.jwtConfig.TTL, nil
}

// Authenticate resolves an Authorization header value to a user.
// An empty header yields (nil, nil), meaning an anonymous caller.
func (s *Service) Authenticate(ctx context.Context, header string) (*store.User, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	scheme, credential, ok := strings.Cut(header, " ")
	credential = strings.TrimSpace(credential)
	if !ok || credential == "" || strings.Contains(credential, " ") {
		return nil, ErrInvalidToken
	}

	var (
		user *store.User
		err  error
	)
	switch {
	case strings.EqualFold(scheme, SchemeToken):
		user, err = s.store.GetUserByToken(ctx, credential)
	case strings.EqualFold(scheme, SchemeBearer):
		claims, verr := ValidateToken(s.jwtConfig, credential)
		if verr != nil {
			return nil, ErrInvalidToken
		}
		userID, _ := claims.UserID()
		// Reload so staff status and deletion take effect before the JWT expires.
		user, err = s.store.GetUserByID(ctx, userID)
	default:
		return nil, ErrInvalidToken
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func (s *Service) checkCredentials(ctx context.Context, creds Credentials) (*store.User, error) {
	errs := core.FieldErrors{}
	s.validator.CheckString(errs, "username", creds.Username, true, core.TagNotBlank)
	s.validator.CheckString(errs, "password", creds.Password, true, core.TagNotBlank)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(*creds.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.record("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if errPwd := ComparePassword(user.PasswordHash, *creds.Password); errPwd != nil {
		s.record("failure")
		return nil, ErrInvalidCredentials
	}

	s.record("success")
	return user, nil
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.Login(outcome)
	}
}
