package memory

import (
	"context"
	"fmt"
	"strings"

	"example.com/meetup/internal/domain"
)

var userOrder = comparators[domain.User]{
	"id":         byID(func(u domain.User) int64 { return u.ID }),
	"login":      func(a, b domain.User) int { return strings.Compare(a.Login, b.Login) },
	"email":      func(a, b domain.User) int { return strings.Compare(a.Email, b.Email) },
	"first_name": func(a, b domain.User) int { return strings.Compare(a.FirstName, b.FirstName) },
	"last_name":  func(a, b domain.User) int { return strings.Compare(a.LastName, b.LastName) },
	"created_at": func(a, b domain.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type users struct{ v view }

func (r users) Create(_ context.Context, u *domain.User) error {
	return r.v.write(func(d *data) error {
		for _, existing := range d.users {
			if existing.Login == u.Login {
				return fmt.Errorf("%w: login %q already used", domain.ErrConflict, u.Login)
			}
		}
		u.ID = d.nextID()
		d.users[u.ID] = *u
		return nil
	})
}

func (r users) Get(_ context.Context, id int64) (*domain.User, error) {
	var out domain.User
	err := r.v.read(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return notFound("user", id)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r users) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	var out *domain.User
	err := r.v.read(func(d *data) error {
		for _, u := range d.users {
			if u.Login == login {
				out = &u
				return nil
			}
		}
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, login)
	})
	return out, err
}

func (r users) GetMany(_ context.Context, ids []int64) ([]domain.User, error) {
	var out []domain.User
	err := r.v.read(func(d *data) error {
		want := make(map[int64]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		out = collect(d.users, func(u domain.User) bool { return want[u.ID] })
		return nil
	})
	return out, err
}

func (r users) List(_ context.Context, req domain.PageRequest) (domain.Page[domain.User], error) {
	var out domain.Page[domain.User]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.users, nil), req, userOrder)
		return err
	})
	return out, err
}

func (r users) Update(_ context.Context, u *domain.User) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.users[u.ID]; !ok {
			return notFound("user", u.ID)
		}
		for _, existing := range d.users {
			if existing.ID != u.ID && existing.Login == u.Login {
				return fmt.Errorf("%w: login %q already used", domain.ErrConflict, u.Login)
			}
		}
		d.users[u.ID] = *u
		return nil
	})
}

func (r users) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		d.deleteUser(id)
		return nil
	})
}

// deleteUser removes the user and every row that references them.
func (d *data) deleteUser(id int64) {
	for _, a := range d.activities {
		if a.OwnerID == id {
			d.deleteActivity(a.ID)
		}
	}
	for _, m := range d.meets {
		if m.OwnerID == id {
			d.deleteMeet(m.ID)
		}
	}
	for pid, p := range d.participants {
		if p.UserID == id {
			delete(d.participants, pid)
		}
	}
	for atID, at := range d.activityTags {
		if at.UserID == id {
			delete(d.activityTags, atID)
		}
	}
	for rid, req := range d.requests {
		if req.UserID == id {
			delete(d.requests, rid)
		}
	}
	for cid, c := range d.conversations {
		if c.HasMember(id) {
			delete(d.conversations, cid)
		}
	}
	delete(d.users, id)
}

func (d *data) requireUser(id int64) error {
	if _, ok := d.users[id]; !ok {
		return missingRef("user", id)
	}
	return nil
}
