package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"example.com/meetup/internal/domain"
)

var participantOrder = comparators[domain.Participant]{
	"id":          byID(func(p domain.Participant) int64 { return p.ID }),
	"activity_id": byID(func(p domain.Participant) int64 { return p.ActivityID }),
	"user_id":     byID(func(p domain.Participant) int64 { return p.UserID }),
	"joined_at":   func(a, b domain.Participant) int { return a.JoinedAt.Compare(b.JoinedAt) },
}

type participants struct{ v view }

func (d *data) checkParticipant(p *domain.Participant) error {
	if _, ok := d.activities[p.ActivityID]; !ok {
		return missingRef("activity", p.ActivityID)
	}
	if err := d.requireUser(p.UserID); err != nil {
		return err
	}
	for _, existing := range d.participants {
		if existing.ID != p.ID && existing.ActivityID == p.ActivityID && existing.UserID == p.UserID {
			return fmt.Errorf("%w: user %d already joined activity %d", domain.ErrConflict, p.UserID, p.ActivityID)
		}
	}
	return nil
}

func (r participants) Create(_ context.Context, p *domain.Participant) error {
	return r.v.write(func(d *data) error {
		if err := d.checkParticipant(p); err != nil {
			return err
		}
		p.ID = d.nextID()
		d.participants[p.ID] = *p
		return nil
	})
}

func (r participants) Get(_ context.Context, id int64) (*domain.Participant, error) {
	var out domain.Participant
	err := r.v.read(func(d *data) error {
		p, ok := d.participants[id]
		if !ok {
			return notFound("participant", id)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r participants) list(req domain.PageRequest, keep func(domain.Participant) bool) (domain.Page[domain.Participant], error) {
	var out domain.Page[domain.Participant]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.participants, keep), req, participantOrder)
		return err
	})
	return out, err
}

func (r participants) List(_ context.Context, req domain.PageRequest) (domain.Page[domain.Participant], error) {
	return r.list(req, nil)
}

func (r participants) ListByActivity(_ context.Context, activityID int64, req domain.PageRequest) (domain.Page[domain.Participant], error) {
	return r.list(req, func(p domain.Participant) bool { return p.ActivityID == activityID })
}

func (r participants) FindByActivityAndUser(_ context.Context, activityID, userID int64) (*domain.Participant, error) {
	var out *domain.Participant
	err := r.v.read(func(d *data) error {
		for _, p := range collect(d.participants, nil) {
			if p.ActivityID == activityID && p.UserID == userID {
				out = &p
				return nil
			}
		}
		return fmt.Errorf("%w: no participant for activity %d and user %d", domain.ErrNotFound, activityID, userID)
	})
	return out, err
}

func (r participants) Update(_ context.Context, p *domain.Participant) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.participants[p.ID]; !ok {
			return notFound("participant", p.ID)
		}
		if err := d.checkParticipant(p); err != nil {
			return err
		}
		d.participants[p.ID] = *p
		return nil
	})
}

func (r participants) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		delete(d.participants, id)
		return nil
	})
}

var meetOrder = comparators[domain.Meet]{
	"id":          byID(func(m domain.Meet) int64 { return m.ID }),
	"user_id":     byID(func(m domain.Meet) int64 { return m.OwnerID }),
	"description": func(a, b domain.Meet) int { return strings.Compare(a.Description, b.Description) },
	"is_enabled":  func(a, b domain.Meet) int { return compareBool(a.Enabled, b.Enabled) },
	"created_at":  func(a, b domain.Meet) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type meets struct{ v view }

func (d *data) checkMeet(m *domain.Meet) error {
	if err := d.requireUser(m.OwnerID); err != nil {
		return err
	}
	for _, existing := range d.meets {
		if existing.ID != m.ID && existing.OwnerID == m.OwnerID {
			return fmt.Errorf("%w: user %d already owns meet %d", domain.ErrConflict, m.OwnerID, existing.ID)
		}
	}
	return nil
}

func (r meets) Create(_ context.Context, m *domain.Meet) error {
	return r.v.write(func(d *data) error {
		if err := d.checkMeet(m); err != nil {
			return err
		}
		m.ID = d.nextID()
		d.meets[m.ID] = *m
		return nil
	})
}

func (r meets) Get(_ context.Context, id int64) (*domain.Meet, error) {
	var out domain.Meet
	err := r.v.read(func(d *data) error {
		m, ok := d.meets[id]
		if !ok {
			return notFound("meet", id)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r meets) List(_ context.Context, req domain.PageRequest) (domain.Page[domain.Meet], error) {
	var out domain.Page[domain.Meet]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.meets, nil), req, meetOrder)
		return err
	})
	return out, err
}

func (r meets) ListByOwner(_ context.Context, ownerID int64) ([]domain.Meet, error) {
	var out []domain.Meet
	err := r.v.read(func(d *data) error {
		out = collect(d.meets, func(m domain.Meet) bool { return m.OwnerID == ownerID })
		return nil
	})
	return out, err
}

func (r meets) ListNotOwnedBy(_ context.Context, ownerID int64, req domain.PageRequest) (domain.Page[domain.Meet], error) {
	var out domain.Page[domain.Meet]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.meets, func(m domain.Meet) bool { return m.OwnerID != ownerID }), req, meetOrder)
		return err
	})
	return out, err
}

func (r meets) Update(_ context.Context, m *domain.Meet) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.meets[m.ID]; !ok {
			return notFound("meet", m.ID)
		}
		if err := d.checkMeet(m); err != nil {
			return err
		}
		d.meets[m.ID] = *m
		return nil
	})
}

func (r meets) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		d.deleteMeet(id)
		return nil
	})
}

func (d *data) deleteMeet(id int64) {
	for rid, req := range d.requests {
		if req.MeetID == id {
			delete(d.requests, rid)
		}
	}
	delete(d.meets, id)
}

var requestOrder = comparators[domain.Request]{
	"id":         byID(func(r domain.Request) int64 { return r.ID }),
	"user_id":    byID(func(r domain.Request) int64 { return r.UserID }),
	"meet_id":    byID(func(r domain.Request) int64 { return r.MeetID }),
	"created_at": func(a, b domain.Request) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type requests struct{ v view }

func (d *data) checkRequest(req *domain.Request) error {
	if err := d.requireUser(req.UserID); err != nil {
		return err
	}
	if _, ok := d.meets[req.MeetID]; !ok {
		return missingRef("meet", req.MeetID)
	}
	for _, existing := range d.requests {
		if existing.ID != req.ID && existing.UserID == req.UserID && existing.MeetID == req.MeetID {
			return fmt.Errorf("%w: user %d already requested meet %d", domain.ErrConflict, req.UserID, req.MeetID)
		}
	}
	return nil
}

// pendingFor reports whether req targets an enabled meet owned by ownerLogin.
func (d *data) pendingFor(ownerLogin string) func(domain.Request) bool {
	return func(req domain.Request) bool {
		m, ok := d.meets[req.MeetID]
		if !ok || !m.Enabled {
			return false
		}
		owner, ok := d.users[m.OwnerID]
		return ok && owner.Login == ownerLogin
	}
}

func (r requests) Create(_ context.Context, req *domain.Request) error {
	return r.v.write(func(d *data) error {
		if err := d.checkRequest(req); err != nil {
			return err
		}
		req.ID = d.nextID()
		d.requests[req.ID] = *req
		return nil
	})
}

func (r requests) Get(_ context.Context, id int64) (*domain.Request, error) {
	var out domain.Request
	err := r.v.read(func(d *data) error {
		req, ok := d.requests[id]
		if !ok {
			return notFound("request", id)
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r requests) List(_ context.Context, page domain.PageRequest) (domain.Page[domain.Request], error) {
	var out domain.Page[domain.Request]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.requests, nil), page, requestOrder)
		return err
	})
	return out, err
}

func (r requests) FindByUserAndMeet(_ context.Context, userID, meetID int64) (*domain.Request, error) {
	var out *domain.Request
	err := r.v.read(func(d *data) error {
		for _, req := range collect(d.requests, nil) {
			if req.UserID == userID && req.MeetID == meetID {
				out = &req
				return nil
			}
		}
		return fmt.Errorf("%w: no request from user %d for meet %d", domain.ErrNotFound, userID, meetID)
	})
	return out, err
}

func (r requests) ListPendingForOwner(_ context.Context, ownerLogin string, page domain.PageRequest) (domain.Page[domain.Request], error) {
	var out domain.Page[domain.Request]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.requests, d.pendingFor(ownerLogin)), page, requestOrder)
		return err
	})
	return out, err
}

func (r requests) CountPendingForOwner(_ context.Context, ownerLogin string) (int64, error) {
	var n int64
	err := r.v.read(func(d *data) error {
		n = int64(len(collect(d.requests, d.pendingFor(ownerLogin))))
		return nil
	})
	return n, err
}

func (r requests) Update(_ context.Context, req *domain.Request) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.requests[req.ID]; !ok {
			return notFound("request", req.ID)
		}
		if err := d.checkRequest(req); err != nil {
			return err
		}
		d.requests[req.ID] = *req
		return nil
	})
}

func (r requests) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		delete(d.requests, id)
		return nil
	})
}

var conversationOrder = comparators[domain.Conversation]{
	"id":         byID(func(c domain.Conversation) int64 { return c.ID }),
	"created_at": func(a, b domain.Conversation) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type conversations struct{ v view }

func (d *data) checkMembers(c *domain.Conversation) error {
	for _, id := range c.UserIDs {
		if err := d.requireUser(id); err != nil {
			return err
		}
	}
	return nil
}

func copyConversation(c domain.Conversation) domain.Conversation {
	c.UserIDs = slices.Clone(c.UserIDs)
	return c
}

func (r conversations) Create(_ context.Context, c *domain.Conversation) error {
	return r.v.write(func(d *data) error {
		if err := d.checkMembers(c); err != nil {
			return err
		}
		c.ID = d.nextID()
		d.conversations[c.ID] = copyConversation(*c)
		return nil
	})
}

func (r conversations) Get(_ context.Context, id int64) (*domain.Conversation, error) {
	var out domain.Conversation
	err := r.v.read(func(d *data) error {
		c, ok := d.conversations[id]
		if !ok {
			return notFound("conversation", id)
		}
		out = copyConversation(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r conversations) list(req domain.PageRequest, keep func(domain.Conversation) bool) (domain.Page[domain.Conversation], error) {
	var out domain.Page[domain.Conversation]
	err := r.v.read(func(d *data) error {
		page, err := paginate(collect(d.conversations, keep), req, conversationOrder)
		if err != nil {
			return err
		}
		for i := range page.Items {
			page.Items[i] = copyConversation(page.Items[i])
		}
		out = page
		return nil
	})
	return out, err
}

func (r conversations) List(_ context.Context, req domain.PageRequest) (domain.Page[domain.Conversation], error) {
	return r.list(req, nil)
}

func (r conversations) FindByUsers(_ context.Context, userA, userB int64) (*domain.Conversation, error) {
	var out *domain.Conversation
	err := r.v.read(func(d *data) error {
		for _, c := range collect(d.conversations, nil) {
			if len(c.UserIDs) == 2 && c.HasMember(userA) && c.HasMember(userB) {
				cp := copyConversation(c)
				out = &cp
				return nil
			}
		}
		return fmt.Errorf("%w: no conversation between users %d and %d", domain.ErrNotFound, userA, userB)
	})
	return out, err
}

func (r conversations) ListByUser(_ context.Context, userID int64, req domain.PageRequest) (domain.Page[domain.Conversation], error) {
	return r.list(req, func(c domain.Conversation) bool { return c.HasMember(userID) })
}

func (r conversations) Update(_ context.Context, c *domain.Conversation) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.conversations[c.ID]; !ok {
			return notFound("conversation", c.ID)
		}
		if err := d.checkMembers(c); err != nil {
			return err
		}
		d.conversations[c.ID] = copyConversation(*c)
		return nil
	})
}

func (r conversations) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		delete(d.conversations, id)
		return nil
	})
}
