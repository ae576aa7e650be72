package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"example.com/meetup/internal/events"
)

// CreateActivityInput is an activity plus the tags to attach to it.
type CreateActivityInput struct {
	Title       string
	Description string
	Date        time.Time
	Address     string
	Maximum     int
	TagIDs      []int64
}

func validateActivity(a *Activity) error {
	a.Title = strings.TrimSpace(a.Title)
	switch {
	case a.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case a.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrValidation)
	case a.Maximum < 0:
		return fmt.Errorf("%w: maximum must not be negative", ErrValidation)
	}
	a.Date = a.Date.UTC()
	return nil
}

// CreateActivity stores an activity owned by the caller and tags it with
// every distinct tag in the input.
func (s *Service) CreateActivity(ctx context.Context, login string, in CreateActivityInput) (*Activity, error) {
	activity := Activity{
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date,
		Address:     in.Address,
		Maximum:     in.Maximum,
	}
	if err := validateActivity(&activity); err != nil {
		return nil, err
	}
	tagIDs := uniqueIDs(in.TagIDs)

	err := s.store.InTx(ctx, func(tx Store) error {
		caller, err := s.policy.ResolveCaller(ctx, tx, login)
		if err != nil {
			return err
		}
		tags, err := tx.Tags().GetMany(ctx, tagIDs)
		if err != nil {
			return err
		}
		if len(tags) != len(tagIDs) {
			return fmt.Errorf("%w: unknown tag in %v", ErrValidation, tagIDs)
		}

		activity.OwnerID = caller.ID
		activity.CreatedAt = s.timestamp()
		if err := tx.Activities().Create(ctx, &activity); err != nil {
			return err
		}
		titles := make([]string, 0, len(tags))
		for _, tag := range tags {
			link := ActivityTag{ActivityID: activity.ID, TagID: tag.ID, UserID: caller.ID}
			if err := tx.ActivityTags().Create(ctx, &link); err != nil {
				return err
			}
			titles = append(titles, tag.Title)
		}
		return tx.Outbox().Record(ctx, events.NewActivityCreated(events.ActivityCreated{
			ActivityID: activity.ID,
			OwnerLogin: caller.Login,
			Title:      activity.Title,
			Date:       activity.Date,
			Tags:       titles,
			OccurredAt: activity.CreatedAt,
		}))
	})
	if err != nil {
		return nil, err
	}
	s.written(KindActivity, "create", activity.ID)
	return &activity, nil
}

// GetActivity loads one activity.
func (s *Service) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	return s.store.Activities().Get(ctx, id)
}

// ActivityDetails resolves the composite view of an activity for the caller.
func (s *Service) ActivityDetails(ctx context.Context, login string, id int64) (*ActivityDetails, error) {
	caller, err := s.Caller(ctx, login)
	if err != nil {
		return nil, err
	}
	return s.resolver.ActivityDetails(ctx, s.store, id, caller)
}

// ListActivities lists the activities the caller does not own.
func (s *Service) ListActivities(ctx context.Context, login string, page PageRequest) (Page[Activity], error) {
	return s.FilterActivities(ctx, login, nil, page)
}

// FilterActivities lists activities the caller does not own, restricted to tagIDs when given.
func (s *Service) FilterActivities(ctx context.Context, login string, tagIDs []int64, page PageRequest) (Page[Activity], error) {
	caller, err := s.Caller(ctx, login)
	if err != nil {
		return Page[Activity]{}, err
	}
	return s.resolver.ActivitiesFilteredByTags(ctx, s.store, caller, tagIDs, page)
}

// UpdateActivity replaces the mutable fields. The owner is kept.
func (s *Service) UpdateActivity(ctx context.Context, id int64, a Activity) (*Activity, error) {
	if err := checkPayloadID(KindActivity, id, a.ID); err != nil {
		return nil, err
	}
	if err := validateActivity(&a); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		current, err := tx.Activities().Get(ctx, id)
		if err != nil {
			return err
		}
		a.OwnerID = current.OwnerID
		a.CreatedAt = current.CreatedAt
		return tx.Activities().Update(ctx, &a)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindActivity, "update", id)
	return &a, nil
}

// PatchActivity merges patch into the stored activity.
func (s *Service) PatchActivity(ctx context.Context, id int64, patch ActivityPatch) (*Activity, error) {
	var out *Activity
	err := s.store.InTx(ctx, func(tx Store) error {
		a, err := tx.Activities().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(a); err != nil {
			return err
		}
		if err := validateActivity(a); err != nil {
			return err
		}
		if err := tx.Activities().Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.written(KindActivity, "patch", id)
	return out, nil
}

// DeleteActivity removes the activity with its participants and tags.
// Deleting an absent activity succeeds without recording an event.
func (s *Service) DeleteActivity(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(tx Store) error {
		_, err := tx.Activities().Get(ctx, id)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Activities().Delete(ctx, id); err != nil {
			return err
		}
		return tx.Outbox().Record(ctx, events.NewActivityDeleted(events.ActivityDeleted{
			ActivityID: id,
			OccurredAt: s.timestamp(),
		}))
	})
	if err != nil {
		return err
	}
	s.written(KindActivity, "delete", id)
	return nil
}
