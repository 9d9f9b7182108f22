package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/auth"
	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/store"
)

// Payload field names.
const (
	FieldUsername = "username"
	FieldPassword = "password"
)

// Recorder counts account creation.
type Recorder interface {
	UserCreated()
}

// Input carries the writable user fields. Nil fields were absent from the payload.
type Input struct {
	Username *string
	Password *string
}

// Service provides user account operations.
type Service struct {
	store     store.UserStore
	validator *core.Validator
	recorder  Recorder
	log       *zerolog.Logger
}

// New creates a user service. recorder may be nil.
func New(st store.UserStore, validator *core.Validator, recorder Recorder, logger *zerolog.Logger) *Service {
	return &Service{
		store:     st,
		validator: validator,
		recorder:  recorder,
		log:       logger,
	}
}

// Create registers a new account. Registration is open to anonymous callers.
func (s *Service) Create(ctx context.Context, caller *core.Caller, in Input) (*store.User, error) {
	if err := core.AuthorizeUser(core.ActionCreate, caller); err != nil {
		return nil, err
	}
	return s.CreateAccount(ctx, in, false)
}

// CreateAccount validates in and stores a new user with the given staff flag.
func (s *Service) CreateAccount(ctx context.Context, in Input, isStaff bool) (*store.User, error) {
	in.Username = trimmed(in.Username)

	if err := s.validate(ctx, in, false, nil); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(*in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, *in.Username, hash, isStaff)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, core.FieldError(FieldUsername, core.MsgUsernameTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.recorder != nil {
		s.recorder.UserCreated()
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Bool("is_staff", isStaff).Msg("user created")
	return user, nil
}

// List returns all users ordered by id, optionally filtered by a username substring.
func (s *Service) List(ctx context.Context, caller *core.Caller, search string) ([]*store.User, error) {
	if err := core.AuthorizeUser(core.ActionList, caller); err != nil {
		return nil, err
	}

	users, err := s.store.ListUsers(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Retrieve returns the caller's own account.
func (s *Service) Retrieve(ctx context.Context, caller *core.Caller, id int64) (*store.User, error) {
	return s.load(ctx, core.ActionRetrieve, caller, id)
}

// Update replaces (partial=false) or patches (partial=true) the caller's account.
func (s *Service) Update(ctx context.Context, caller *core.Caller, id int64, in Input, partial bool) (*store.User, error) {
	action := core.ActionUpdate
	if partial {
		action = core.ActionPartialUpdate
	}

	current, err := s.load(ctx, action, caller, id)
	if err != nil {
		return nil, err
	}

	in.Username = trimmed(in.Username)
	if err := s.validate(ctx, in, partial, current); err != nil {
		return nil, err
	}

	upd := store.UserUpdate{Username: in.Username}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, core.FieldError(FieldUsername, core.MsgUsernameTaken)
		case errors.Is(err, store.ErrNotFound):
			return nil, core.NotFound()
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Debug().Int64("user_id", id).Bool("partial", partial).Msg("user updated")
	return user, nil
}

// Destroy deletes the caller's account along with its token and messages.
func (s *Service) Destroy(ctx context.Context, caller *core.Caller, id int64) error {
	if _, err := s.load(ctx, core.ActionDestroy, caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.NotFound()
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// SetStaff grants or revokes staff status by username.
func (s *Service) SetStaff(ctx context.Context, username string, staff bool) (*store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, core.NotFound()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user, err = s.store.UpdateUser(ctx, user.ID, store.UserUpdate{IsStaff: &staff})
	if err != nil {
		return nil, fmt.Errorf("set staff: %w", err)
	}
	s.log.Info().Int64("user_id", user.ID).Bool("is_staff", staff).Msg("staff status changed")
	return user, nil
}

// ListAll returns every user without an access check. Used by admin tooling.
func (s *Service) ListAll(ctx context.Context) ([]*store.User, error) {
	users, err := s.store.ListUsers(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) load(ctx context.Context, action core.Action, caller *core.Caller, id int64) (*store.User, error) {
	if err := core.AuthorizeUser(action, caller); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, core.NotFound()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := core.AuthorizeUserObject(action, caller, user); err != nil {
		return nil, err
	}
	return user, nil
}

// validate checks field formats, username uniqueness and the password policy.
// current is the account being updated, nil on create.
func (s *Service) validate(ctx context.Context, in Input, partial bool, current *store.User) error {
	errs := core.FieldErrors{}
	s.validator.CheckString(errs, FieldUsername, in.Username, !partial, core.TagUsername)
	s.validator.CheckString(errs, FieldPassword, in.Password, !partial, core.TagPassword)

	if in.Username != nil && len(errs[FieldUsername]) == 0 {
		existing, err := s.store.GetUserByUsername(ctx, *in.Username)
		switch {
		case err == nil && (current == nil || existing.ID != current.ID):
			errs.Add(FieldUsername, core.MsgUsernameTaken)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("check username: %w", err)
		}
	}

	if in.Password != nil && len(errs[FieldPassword]) == 0 {
		username := ""
		switch {
		case in.Username != nil:
			username = *in.Username
		case current != nil:
			username = current.Username
		}
		for _, problem := range auth.CheckPasswordPolicy(*in.Password, username) {
			errs.Add(FieldPassword, problem)
		}
	}

	return errs.Err()
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
