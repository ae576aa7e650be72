package domain

import (
	"context"
	"fmt"

	"example.com/meetup/internal/events"
)

// JoinActivity makes the caller a participant of activityID.
func (s *Service) JoinActivity(ctx context.Context, login string, activityID int64) (*Participant, error) {
	var p Participant
	err := s.store.InTx(ctx, func(tx Store) error {
		caller, err := s.policy.ResolveCaller(ctx, tx, login)
		if err != nil {
			return err
		}
		activity, err := tx.Activities().Get(ctx, activityID)
		if err != nil {
			return reference(err, KindActivity, activityID)
		}
		if err := s.policy.CheckCanJoin(ctx, tx, caller, activity); err != nil {
			return err
		}
		p = Participant{ActivityID: activity.ID, UserID: caller.ID, JoinedAt: s.timestamp()}
		if err := tx.Participants().Create(ctx, &p); err != nil {
			return err
		}
		return tx.Outbox().Record(ctx, events.NewParticipantJoined(events.ParticipantJoined{
			ParticipantID: p.ID,
			ActivityID:    activity.ID,
			UserLogin:     caller.Login,
			OccurredAt:    p.JoinedAt,
		}))
	})
	if err != nil {
		return nil, err
	}
	s.written(KindParticipant, "create", p.ID)
	return &p, nil
}

// GetParticipant loads one participation.
func (s *Service) GetParticipant(ctx context.Context, id int64) (*Participant, error) {
	return s.store.Participants().Get(ctx, id)
}

// ListParticipants pages through every participation.
func (s *Service) ListParticipants(ctx context.Context, page PageRequest) (Page[Participant], error) {
	return s.store.Participants().List(ctx, page)
}

// ParticipantsOfActivity lists who joined activityID.
func (s *Service) ParticipantsOfActivity(ctx context.Context, activityID int64, page PageRequest) (Page[Participant], error) {
	return s.resolver.ParticipantsOfActivity(ctx, s.store, activityID, page)
}

// checkParticipantRules applies the join rules to an existing row being re-pointed.
func checkParticipantRules(ctx context.Context, tx Store, p *Participant) error {
	activity, err := tx.Activities().Get(ctx, p.ActivityID)
	if err != nil {
		return reference(err, KindActivity, p.ActivityID)
	}
	if _, err := tx.Users().Get(ctx, p.UserID); err != nil {
		return reference(err, KindUser, p.UserID)
	}
	if activity.OwnerID == p.UserID {
		return fmt.Errorf("%w: user owns the activity", ErrConflict)
	}
	existing, err := tx.Participants().FindByActivityAndUser(ctx, p.ActivityID, p.UserID)
	switch {
	case err == nil && existing.ID != p.ID:
		return fmt.Errorf("%w: user already a participant", ErrConflict)
	case err != nil && !isNotFound(err):
		return err
	}
	return nil
}

// UpdateParticipant replaces participation id, keeping its join time.
func (s *Service) UpdateParticipant(ctx context.Context, id int64, p Participant) (*Participant, error) {
	if err := checkPayloadID(KindParticipant, id, p.ID); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		current, err := tx.Participants().Get(ctx, id)
		if err != nil {
			return err
		}
		p.JoinedAt = current.JoinedAt
		if err := checkParticipantRules(ctx, tx, &p); err != nil {
			return err
		}
		return tx.Participants().Update(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindParticipant, "update", id)
	return &p, nil
}

// PatchParticipant applies the set fields of patch.
func (s *Service) PatchParticipant(ctx context.Context, id int64, patch ParticipantPatch) (*Participant, error) {
	var out *Participant
	err := s.store.InTx(ctx, func(tx Store) error {
		p, err := tx.Participants().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(p); err != nil {
			return err
		}
		if err := checkParticipantRules(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return tx.Participants().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindParticipant, "patch", id)
	return out, nil
}

// DeleteParticipant removes a participation.
func (s *Service) DeleteParticipant(ctx context.Context, id int64) error {
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.Participants().Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.written(KindParticipant, "delete", id)
	return nil
}
