package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/store"
)

// Payload field names.
const (
	FieldTo      = "message_to"
	FieldTitle   = "message_title"
	FieldContent = "message_content"
)

// Store is the persistence the message service needs.
type Store interface {
	store.UserStore
	store.MessageStore
}

// Recorder counts message lifecycle events.
type Recorder interface {
	MessageCreated()
	MessageViewed()
}

// Input carries the writable message fields. Nil fields were absent from the payload.
type Input struct {
	To      *string
	Title   *string
	Content *string
}

// Service provides message access, query and lifecycle operations.
type Service struct {
	store     Store
	validator *core.Validator
	recorder  Recorder
	log       *zerolog.Logger
	now       func() time.Time
}

// New creates a message service. recorder may be nil.
func New(st Store, validator *core.Validator, recorder Recorder, logger *zerolog.Logger) *Service {
	return &Service{
		store:     st,
		validator: validator,
		recorder:  recorder,
		log:       logger,
		now:       time.Now,
	}
}

// List returns the messages visible to caller in the requested mode, newest first.
func (s *Service) List(ctx context.Context, caller *core.Caller, params core.ListParams) ([]*store.Message, error) {
	if err := core.AuthorizeMessage(params.Mode.Action(), caller); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, core.BuildFilter(caller, params))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Create validates in and persists a message from caller.
func (s *Service) Create(ctx context.Context, caller *core.Caller, in Input) (*store.Message, error) {
	if err := core.AuthorizeMessage(core.ActionCreate, caller); err != nil {
		return nil, err
	}

	in = normalize(in)
	if err := s.validate(in, false); err != nil {
		return nil, err
	}

	recipient, err := s.resolveRecipient(ctx, *in.To)
	if err != nil {
		return nil, err
	}

	msg := &store.Message{
		SenderID:          &caller.ID,
		SenderUsername:    caller.Username,
		RecipientID:       &recipient.ID,
		RecipientUsername: recipient.Username,
		Title:             *in.Title,
		Body:              *in.Content,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if s.recorder != nil {
		s.recorder.MessageCreated()
	}
	s.log.Info().
		Int64("message_id", msg.ID).
		Int64("sender_id", caller.ID).
		Int64("recipient_id", recipient.ID).
		Msg("message created")

	return msg, nil
}

// Retrieve returns one message and marks it viewed on first access.
func (s *Service) Retrieve(ctx context.Context, caller *core.Caller, id int64) (*store.Message, error) {
	msg, err := s.load(ctx, core.ActionRetrieve, caller, id)
	if err != nil {
		return nil, err
	}
	if msg.IsViewed {
		return msg, nil
	}

	changed, err := s.store.MarkViewed(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark viewed: %w", err)
	}
	if changed {
		if s.recorder != nil {
			s.recorder.MessageViewed()
		}
		s.log.Info().Int64("message_id", id).Int64("viewer_id", caller.ID).Msg("message viewed")
	}

	// Re-read so a concurrent first view reports the stored timestamp.
	msg, err = s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	return msg, nil
}

// Update replaces (partial=false) or patches (partial=true) a message's writable fields.
func (s *Service) Update(ctx context.Context, caller *core.Caller, id int64, in Input, partial bool) (*store.Message, error) {
	action := core.ActionUpdate
	if partial {
		action = core.ActionPartialUpdate
	}

	if _, err := s.load(ctx, action, caller, id); err != nil {
		return nil, err
	}

	in = normalize(in)
	if err := s.validate(in, partial); err != nil {
		return nil, err
	}

	upd := store.MessageUpdate{Title: in.Title, Body: in.Content}
	if in.To != nil {
		recipient, err := s.resolveRecipient(ctx, *in.To)
		if err != nil {
			return nil, err
		}
		upd.RecipientID = &recipient.ID
	}

	msg, err := s.store.UpdateMessage(ctx, id, upd)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	s.log.Debug().Int64("message_id", id).Bool("partial", partial).Msg("message updated")
	return msg, nil
}

// Destroy deletes a message the caller is a party to.
func (s *Service) Destroy(ctx context.Context, caller *core.Caller, id int64) error {
	if _, err := s.load(ctx, core.ActionDestroy, caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteMessage(ctx, id); err != nil {
		return s.mapNotFound(err)
	}
	s.log.Info().Int64("message_id", id).Int64("caller_id", caller.ID).Msg("message deleted")
	return nil
}

// load authorizes action, fetches the message and applies the object-level check.
func (s *Service) load(ctx context.Context, action core.Action, caller *core.Caller, id int64) (*store.Message, error) {
	if err := core.AuthorizeMessage(action, caller); err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	if err := core.AuthorizeMessageObject(action, caller, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) validate(in Input, partial bool) error {
	errs := core.FieldErrors{}
	s.validator.CheckString(errs, FieldTo, in.To, !partial, core.TagRecipient)
	s.validator.CheckString(errs, FieldTitle, in.Title, !partial, core.TagTitle)
	s.validator.CheckString(errs, FieldContent, in.Content, !partial, core.TagContent)
	return errs.Err()
}

func (s *Service) resolveRecipient(ctx context.Context, username string) (*store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Debug().Str("username", username).Msg("unknown recipient")
			return nil, core.FieldError(FieldTo, core.MsgUnknownRecipient)
		}
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	return user, nil
}

func (s *Service) mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return core.NotFound()
	}
	return err
}

func normalize(in Input) Input {
	return Input{
		To:      trimmed(in.To),
		Title:   trimmed(in.Title),
		Content: trimmed(in.Content),
	}
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
