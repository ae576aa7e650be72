package domain

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

// normalizeLogin is the stored form of a login.
func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

func validateUser(u *User) error {
	u.Login = normalizeLogin(u.Login)
	if u.Login == "" {
		return fmt.Errorf("%w: login is required", ErrValidation)
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return fmt.Errorf("%w: invalid email %q", ErrValidation, u.Email)
		}
	}
	return nil
}

// CreateUser registers a new account. Logins are unique and case-insensitive.
func (s *Service) CreateUser(ctx context.Context, u User) (*User, error) {
	if err := checkNewID(KindUser, u.ID); err != nil {
		return nil, err
	}
	if err := validateUser(&u); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		if _, err := tx.Users().GetByLogin(ctx, u.Login); err == nil {
			return fmt.Errorf("%w: login %q already used", ErrConflict, u.Login)
		} else if !isNotFound(err) {
			return err
		}
		u.CreatedAt = s.timestamp()
		return tx.Users().Create(ctx, &u)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindUser, "create", u.ID)
	return &u, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.store.Users().Get(ctx, id)
}

// GetUserByLogin looks a user up by login, ignoring case and surrounding space.
func (s *Service) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	return s.store.Users().GetByLogin(ctx, normalizeLogin(login))
}

// ListUsers pages through every user.
func (s *Service) ListUsers(ctx context.Context, page PageRequest) (Page[User], error) {
	return s.store.Users().List(ctx, page)
}

// UpdateUser replaces the mutable fields of a user. The login cannot change.
func (s *Service) UpdateUser(ctx context.Context, id int64, u User) (*User, error) {
	if err := checkPayloadID(KindUser, id, u.ID); err != nil {
		return nil, err
	}
	var out *User
	err := s.store.InTx(ctx, func(tx Store) error {
		current, err := tx.Users().Get(ctx, id)
		if err != nil {
			return err
		}
		u.Login = current.Login
		u.CreatedAt = current.CreatedAt
		if err := validateUser(&u); err != nil {
			return err
		}
		if err := tx.Users().Update(ctx, &u); err != nil {
			return err
		}
		out = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.written(KindUser, "update", id)
	return out, nil
}

// PatchUser merges patch into the stored user.
func (s *Service) PatchUser(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	var out *User
	err := s.store.InTx(ctx, func(tx Store) error {
		u, err := tx.Users().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(u); err != nil {
			return err
		}
		if err := validateUser(u); err != nil {
			return err
		}
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.written(KindUser, "patch", id)
	return out, nil
}

// DeleteUser removes the user and everything that references them.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.Users().Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.written(KindUser, "delete", id)
	return nil
}
