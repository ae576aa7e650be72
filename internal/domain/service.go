// Package domain holds the meetup entities, the store contract and the
// business rules applied to every write.
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"example.com/meetup/internal/observability"
)

// Entity kinds, used as metric labels and in error messages.
const (
	KindUser         = "user"
	KindActivity     = "activity"
	KindTag          = "tag"
	KindActivityTag  = "activity_tag"
	KindParticipant  = "participant"
	KindMeet         = "meet"
	KindRequest      = "request"
	KindConversation = "conversation"
)

// Service orchestrates policy checks, store mutations and outbox recording.
// Every write runs in a single store transaction.
type Service struct {
	store    Store
	policy   Policy
	resolver *Resolver
	logger   zerolog.Logger
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for created timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(store Store, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: NewResolver(logger),
		logger:   logger.With().Str("component", "service").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver.now = s.now
	return s
}

// Resolver exposes the read-side joins.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// Caller resolves the authenticated login to its User.
func (s *Service) Caller(ctx context.Context, login string) (*User, error) {
	return s.policy.ResolveCaller(ctx, s.store, login)
}

// UsersByID loads the users referenced by a page of results.
func (s *Service) UsersByID(ctx context.Context, ids []int64) (map[int64]User, error) {
	return s.resolver.UsersByID(ctx, s.store, ids)
}

func (s *Service) written(kind, op string, id int64) {
	observability.RecordEntityWrite(kind, op)
	s.logger.Debug().Str("kind", kind).Str("op", op).Int64("id", id).Msg("entity written")
}

// checkPayloadID enforces that a full update names the entity it replaces.
func checkPayloadID(kind string, pathID, payloadID int64) error {
	if payloadID == 0 {
		return fmt.Errorf("%w: %s id is required", ErrValidation, kind)
	}
	if payloadID != pathID {
		return fmt.Errorf("%w: %s id %d does not match path id %d", ErrValidation, kind, payloadID, pathID)
	}
	return nil
}

// checkNewID rejects create payloads that already carry an id.
func checkNewID(kind string, id int64) error {
	if id != 0 {
		return fmt.Errorf("%w: a new %s cannot already have an id", ErrValidation, kind)
	}
	return nil
}

// reference wraps a missing foreign entity as a validation failure.
func reference(err error, kind string, id int64) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %s %d does not exist", ErrValidation, kind, id)
	}
	return err
}
