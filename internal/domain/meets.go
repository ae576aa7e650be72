package domain

import (
	"context"
	"fmt"
	"strings"

	"example.com/meetup/internal/events"
)

// CreateMeetInput describes a new meet. Enabled defaults to true.
type CreateMeetInput struct {
	Description string
	Enabled     *bool
}

func validateMeet(m *Meet) error {
	m.Description = strings.TrimSpace(m.Description)
	if m.Description == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	return nil
}

// CreateMeet publishes the caller's meet. A user owns at most one.
func (s *Service) CreateMeet(ctx context.Context, login string, in CreateMeetInput) (*Meet, error) {
	meet := Meet{Description: in.Description, Enabled: true}
	if in.Enabled != nil {
		meet.Enabled = *in.Enabled
	}
	if err := validateMeet(&meet); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		caller, err := s.policy.ResolveCaller(ctx, tx, login)
		if err != nil {
			return err
		}
		if err := s.policy.CheckSingleMeet(ctx, tx, caller); err != nil {
			return err
		}
		meet.OwnerID = caller.ID
		meet.CreatedAt = s.timestamp()
		if err := tx.Meets().Create(ctx, &meet); err != nil {
			return err
		}
		return tx.Outbox().Record(ctx, events.NewMeetCreated(events.MeetCreated{
			MeetID:     meet.ID,
			OwnerLogin: caller.Login,
			Enabled:    meet.Enabled,
			OccurredAt: meet.CreatedAt,
		}))
	})
	if err != nil {
		return nil, err
	}
	s.written(KindMeet, "create", meet.ID)
	return &meet, nil
}

// GetMeet loads one meet.
func (s *Service) GetMeet(ctx context.Context, id int64) (*Meet, error) {
	return s.store.Meets().Get(ctx, id)
}

// ListMeets pages through every meet.
func (s *Service) ListMeets(ctx context.Context, page PageRequest) (Page[Meet], error) {
	return s.store.Meets().List(ctx, page)
}

// MeetsExcludingCaller lists the meets owned by anyone but the caller.
func (s *Service) MeetsExcludingCaller(ctx context.Context, login string, page PageRequest) (Page[Meet], error) {
	caller, err := s.Caller(ctx, login)
	if err != nil {
		return Page[Meet]{}, err
	}
	return s.resolver.MeetsExcludingCaller(ctx, s.store, caller, page)
}

// UpdateMeet replaces description and enabled flag. The owner is kept.
func (s *Service) UpdateMeet(ctx context.Context, id int64, m Meet) (*Meet, error) {
	if err := checkPayloadID(KindMeet, id, m.ID); err != nil {
		return nil, err
	}
	if err := validateMeet(&m); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		current, err := tx.Meets().Get(ctx, id)
		if err != nil {
			return err
		}
		m.OwnerID = current.OwnerID
		m.CreatedAt = current.CreatedAt
		return tx.Meets().Update(ctx, &m)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindMeet, "update", id)
	return &m, nil
}

// PatchMeet applies the set fields of patch to meet id.
func (s *Service) PatchMeet(ctx context.Context, id int64, patch MeetPatch) (*Meet, error) {
	var out *Meet
	err := s.store.InTx(ctx, func(tx Store) error {
		m, err := tx.Meets().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(m); err != nil {
			return err
		}
		if err := validateMeet(m); err != nil {
			return err
		}
		out = m
		return tx.Meets().Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindMeet, "patch", id)
	return out, nil
}

// DeleteMeet removes the meet and the requests targeting it.
func (s *Service) DeleteMeet(ctx context.Context, id int64) error {
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.Meets().Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.written(KindMeet, "delete", id)
	return nil
}
