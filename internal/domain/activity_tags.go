package domain

import "context"

func checkActivityTagRefs(ctx context.Context, tx Store, at *ActivityTag) error {
	if _, err := tx.Activities().Get(ctx, at.ActivityID); err != nil {
		return reference(err, KindActivity, at.ActivityID)
	}
	if _, err := tx.Tags().Get(ctx, at.TagID); err != nil {
		return reference(err, KindTag, at.TagID)
	}
	if _, err := tx.Users().Get(ctx, at.UserID); err != nil {
		return reference(err, KindUser, at.UserID)
	}
	return nil
}

// CreateActivityTag attaches a tag to an activity on behalf of the caller.
func (s *Service) CreateActivityTag(ctx context.Context, login string, at ActivityTag) (*ActivityTag, error) {
	if err := checkNewID(KindActivityTag, at.ID); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		caller, err := s.policy.ResolveCaller(ctx, tx, login)
		if err != nil {
			return err
		}
		at.UserID = caller.ID
		if err := checkActivityTagRefs(ctx, tx, &at); err != nil {
			return err
		}
		return tx.ActivityTags().Create(ctx, &at)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindActivityTag, "create", at.ID)
	return &at, nil
}

// GetActivityTag loads one activity-tag link.
func (s *Service) GetActivityTag(ctx context.Context, id int64) (*ActivityTag, error) {
	return s.store.ActivityTags().Get(ctx, id)
}

// ListActivityTags pages through every activity-tag link.
func (s *Service) ListActivityTags(ctx context.Context, page PageRequest) (Page[ActivityTag], error) {
	return s.store.ActivityTags().List(ctx, page)
}

// UpdateActivityTag re-points the tagging. The creator is kept.
func (s *Service) UpdateActivityTag(ctx context.Context, id int64, at ActivityTag) (*ActivityTag, error) {
	if err := checkPayloadID(KindActivityTag, id, at.ID); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		current, err := tx.ActivityTags().Get(ctx, id)
		if err != nil {
			return err
		}
		at.UserID = current.UserID
		if err := checkActivityTagRefs(ctx, tx, &at); err != nil {
			return err
		}
		return tx.ActivityTags().Update(ctx, &at)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindActivityTag, "update", id)
	return &at, nil
}

// PatchActivityTag applies the set fields of patch and revalidates both references.
func (s *Service) PatchActivityTag(ctx context.Context, id int64, patch ActivityTagPatch) (*ActivityTag, error) {
	var out *ActivityTag
	err := s.store.InTx(ctx, func(tx Store) error {
		at, err := tx.ActivityTags().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(at); err != nil {
			return err
		}
		if err := checkActivityTagRefs(ctx, tx, at); err != nil {
			return err
		}
		out = at
		return tx.ActivityTags().Update(ctx, at)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindActivityTag, "patch", id)
	return out, nil
}

// DeleteActivityTag removes the link.
func (s *Service) DeleteActivityTag(ctx context.Context, id int64) error {
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.ActivityTags().Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.written(KindActivityTag, "delete", id)
	return nil
}
