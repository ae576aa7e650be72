package domain

import (
	"context"
	"fmt"

	"example.com/meetup/internal/events"
)

// OpenConversation returns the caller's conversation with otherLogin,
// creating it on first use. created is false when it already existed.
func (s *Service) OpenConversation(ctx context.Context, login, otherLogin string) (conv *Conversation, created bool, err error) {
	err = s.store.InTx(ctx, func(tx Store) error {
		caller, err := s.policy.ResolveCaller(ctx, tx, login)
		if err != nil {
			return err
		}
		conv, created, err = s.resolver.FindOrCreateConversation(ctx, tx, caller, otherLogin)
		if err != nil || !created {
			return err
		}
		return tx.Outbox().Record(ctx, events.NewConversationCreated(events.ConversationCreated{
			ConversationID: conv.ID,
			UserLogins:     []string{caller.Login, normalizeLogin(otherLogin)},
			OccurredAt:     conv.CreatedAt,
		}))
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.written(KindConversation, "create", conv.ID)
	}
	return conv, created, nil
}

// GetConversation loads a conversation with its members.
func (s *Service) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	return s.store.Conversations().Get(ctx, id)
}

// ListConversations pages through every conversation.
func (s *Service) ListConversations(ctx context.Context, page PageRequest) (Page[Conversation], error) {
	return s.store.Conversations().List(ctx, page)
}

// ConversationsForCaller lists the caller's conversations with the partner resolved.
func (s *Service) ConversationsForCaller(ctx context.Context, login string, page PageRequest) (Page[ConversationWithPartner], error) {
	caller, err := s.Caller(ctx, login)
	if err != nil {
		return Page[ConversationWithPartner]{}, err
	}
	return s.resolver.ConversationsForUser(ctx, s.store, caller, page)
}

// checkConversationMembers requires two distinct existing users that do not
// already share another conversation.
func checkConversationMembers(ctx context.Context, tx Store, c *Conversation) error {
	members := uniqueIDs(c.UserIDs)
	if len(c.UserIDs) != 2 || len(members) != 2 {
		return fmt.Errorf("%w: a conversation holds exactly two distinct users", ErrValidation)
	}
	for _, id := range members {
		if _, err := tx.Users().Get(ctx, id); err != nil {
			return reference(err, KindUser, id)
		}
	}
	existing, err := tx.Conversations().FindByUsers(ctx, members[0], members[1])
	switch {
	case err == nil && existing.ID != c.ID:
		return fmt.Errorf("%w: conversation %d already links these users", ErrConflict, existing.ID)
	case err != nil && !isNotFound(err):
		return err
	}
	return nil
}

// UpdateConversation replaces the members of conversation id, keeping its creation time.
func (s *Service) UpdateConversation(ctx context.Context, id int64, c Conversation) (*Conversation, error) {
	if err := checkPayloadID(KindConversation, id, c.ID); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		current, err := tx.Conversations().Get(ctx, id)
		if err != nil {
			return err
		}
		c.CreatedAt = current.CreatedAt
		if err := checkConversationMembers(ctx, tx, &c); err != nil {
			return err
		}
		return tx.Conversations().Update(ctx, &c)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindConversation, "update", id)
	return &c, nil
}

// PatchConversation applies the set fields of patch.
func (s *Service) PatchConversation(ctx context.Context, id int64, patch ConversationPatch) (*Conversation, error) {
	var out *Conversation
	err := s.store.InTx(ctx, func(tx Store) error {
		c, err := tx.Conversations().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(c); err != nil {
			return err
		}
		if err := checkConversationMembers(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return tx.Conversations().Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindConversation, "patch", id)
	return out, nil
}

// DeleteConversation removes the conversation and its memberships.
func (s *Service) DeleteConversation(ctx context.Context, id int64) error {
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.Conversations().Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.written(KindConversation, "delete", id)
	return nil
}

// Profile returns the caller's account summary.
func (s *Service) Profile(ctx context.Context, login string) (*Profile, error) {
	caller, err := s.Caller(ctx, login)
	if err != nil {
		return nil, err
	}
	return s.resolver.Profile(ctx, s.store, caller.Login)
}
