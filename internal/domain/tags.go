package domain

import (
	"context"
	"fmt"
	"strings"
)

func validateTag(t *Tag) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	return nil
}

// CreateTag stores a new tag.
func (s *Service) CreateTag(ctx context.Context, t Tag) (*Tag, error) {
	if err := checkNewID(KindTag, t.ID); err != nil {
		return nil, err
	}
	if err := validateTag(&t); err != nil {
		return nil, err
	}
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.Tags().Create(ctx, &t)
	}); err != nil {
		return nil, err
	}
	s.written(KindTag, "create", t.ID)
	return &t, nil
}

// GetTag loads one tag.
func (s *Service) GetTag(ctx context.Context, id int64) (*Tag, error) {
	return s.store.Tags().Get(ctx, id)
}

// ListTags pages through every tag.
func (s *Service) ListTags(ctx context.Context, page PageRequest) (Page[Tag], error) {
	return s.store.Tags().List(ctx, page)
}

// UpdateTag replaces the title of tag id.
func (s *Service) UpdateTag(ctx context.Context, id int64, t Tag) (*Tag, error) {
	if err := checkPayloadID(KindTag, id, t.ID); err != nil {
		return nil, err
	}
	if err := validateTag(&t); err != nil {
		return nil, err
	}
	if err := s.store.InTx(ctx, func(tx Store) error {
		if _, err := tx.Tags().Get(ctx, id); err != nil {
			return err
		}
		return tx.Tags().Update(ctx, &t)
	}); err != nil {
		return nil, err
	}
	s.written(KindTag, "update", id)
	return &t, nil
}

// PatchTag applies the set fields of patch.
func (s *Service) PatchTag(ctx context.Context, id int64, patch TagPatch) (*Tag, error) {
	var out *Tag
	err := s.store.InTx(ctx, func(tx Store) error {
		t, err := tx.Tags().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(t); err != nil {
			return err
		}
		if err := validateTag(t); err != nil {
			return err
		}
		out = t
		return tx.Tags().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindTag, "patch", id)
	return out, nil
}

// DeleteTag removes the tag and detaches it from every activity.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.Tags().Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.written(KindTag, "delete", id)
	return nil
}
