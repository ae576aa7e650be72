package domain

import (
	"context"
	"fmt"

	"example.com/meetup/internal/events"
)

// CreateRequest asks for a place in meetID on behalf of the caller. The meet
// must exist and be enabled, and the caller may ask only once.
func (s *Service) CreateRequest(ctx context.Context, login string, meetID int64) (*Request, error) {
	var req Request
	err := s.store.InTx(ctx, func(tx Store) error {
		caller, err := s.policy.ResolveCaller(ctx, tx, login)
		if err != nil {
			return err
		}
		meet, err := s.policy.CheckMeetEnabled(ctx, tx, meetID)
		if err != nil {
			return err
		}
		if err := s.policy.CheckNotRequested(ctx, tx, caller, meet.ID); err != nil {
			return err
		}
		owner, err := tx.Users().Get(ctx, meet.OwnerID)
		if err != nil {
			return err
		}
		req = Request{UserID: caller.ID, MeetID: meet.ID, CreatedAt: s.timestamp()}
		if err := tx.Requests().Create(ctx, &req); err != nil {
			return err
		}
		return tx.Outbox().Record(ctx, events.NewRequestCreated(events.RequestCreated{
			RequestID:      req.ID,
			MeetID:         meet.ID,
			RequesterLogin: caller.Login,
			OwnerLogin:     owner.Login,
			OccurredAt:     req.CreatedAt,
		}))
	})
	if err != nil {
		return nil, err
	}
	s.written(KindRequest, "create", req.ID)
	return &req, nil
}

// GetRequest loads one request.
func (s *Service) GetRequest(ctx context.Context, id int64) (*Request, error) {
	return s.store.Requests().Get(ctx, id)
}

// ListRequests pages through every request.
func (s *Service) ListRequests(ctx context.Context, page PageRequest) (Page[Request], error) {
	return s.store.Requests().List(ctx, page)
}

// ReceivedRequests lists pending requests on the caller's enabled meet.
func (s *Service) ReceivedRequests(ctx context.Context, login string, page PageRequest) (Page[Request], error) {
	caller, err := s.Caller(ctx, login)
	if err != nil {
		return Page[Request]{}, err
	}
	return s.resolver.PendingRequestsForOwner(ctx, s.store, caller.Login, page)
}

// CountReceivedRequests counts what ReceivedRequests lists.
func (s *Service) CountReceivedRequests(ctx context.Context, login string) (int64, error) {
	caller, err := s.Caller(ctx, login)
	if err != nil {
		return 0, err
	}
	return s.resolver.CountPendingRequestsForOwner(ctx, s.store, caller.Login)
}

func checkRequestRefs(ctx context.Context, tx Store, r *Request) error {
	if _, err := tx.Users().Get(ctx, r.UserID); err != nil {
		return reference(err, KindUser, r.UserID)
	}
	if _, err := tx.Meets().Get(ctx, r.MeetID); err != nil {
		return reference(err, KindMeet, r.MeetID)
	}
	existing, err := tx.Requests().FindByUserAndMeet(ctx, r.UserID, r.MeetID)
	switch {
	case err == nil && existing.ID != r.ID:
		return fmt.Errorf("%w: meet already requested", ErrConflict)
	case err != nil && !isNotFound(err):
		return err
	}
	return nil
}

// UpdateRequest replaces request id, keeping its creation time.
func (s *Service) UpdateRequest(ctx context.Context, id int64, r Request) (*Request, error) {
	if err := checkPayloadID(KindRequest, id, r.ID); err != nil {
		return nil, err
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		current, err := tx.Requests().Get(ctx, id)
		if err != nil {
			return err
		}
		r.CreatedAt = current.CreatedAt
		if err := checkRequestRefs(ctx, tx, &r); err != nil {
			return err
		}
		return tx.Requests().Update(ctx, &r)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindRequest, "update", id)
	return &r, nil
}

// PatchRequest applies the set fields of patch.
func (s *Service) PatchRequest(ctx context.Context, id int64, patch RequestPatch) (*Request, error) {
	var out *Request
	err := s.store.InTx(ctx, func(tx Store) error {
		r, err := tx.Requests().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(r); err != nil {
			return err
		}
		if err := checkRequestRefs(ctx, tx, r); err != nil {
			return err
		}
		out = r
		return tx.Requests().Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	s.written(KindRequest, "patch", id)
	return out, nil
}

// DeleteRequest withdraws a request.
func (s *Service) DeleteRequest(ctx context.Context, id int64) error {
	if err := s.store.InTx(ctx, func(tx Store) error {
		return tx.Requests().Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.written(KindRequest, "delete", id)
	return nil
}
