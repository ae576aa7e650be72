package memory

import (
	"cmp"
	"context"
	"strings"

	"example.com/meetup/internal/domain"
)

var activityOrder = comparators[domain.Activity]{
	"id":         byID(func(a domain.Activity) int64 { return a.ID }),
	"title":      func(a, b domain.Activity) int { return strings.Compare(a.Title, b.Title) },
	"date":       func(a, b domain.Activity) int { return a.Date.Compare(b.Date) },
	"address":    func(a, b domain.Activity) int { return strings.Compare(a.Address, b.Address) },
	"maximum":    func(a, b domain.Activity) int { return cmp.Compare(a.Maximum, b.Maximum) },
	"created_at": func(a, b domain.Activity) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type activities struct{ v view }

func (r activities) Create(_ context.Context, a *domain.Activity) error {
	return r.v.write(func(d *data) error {
		if err := d.requireUser(a.OwnerID); err != nil {
			return err
		}
		a.ID = d.nextID()
		d.activities[a.ID] = *a
		return nil
	})
}

func (r activities) Get(_ context.Context, id int64) (*domain.Activity, error) {
	var out domain.Activity
	err := r.v.read(func(d *data) error {
		a, ok := d.activities[id]
		if !ok {
			return notFound("activity", id)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r activities) list(req domain.PageRequest, keep func(d *data, a domain.Activity) bool) (domain.Page[domain.Activity], error) {
	var out domain.Page[domain.Activity]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.activities, func(a domain.Activity) bool {
			return keep == nil || keep(d, a)
		}), req, activityOrder)
		return err
	})
	return out, err
}

func (r activities) List(_ context.Context, req domain.PageRequest) (domain.Page[domain.Activity], error) {
	return r.list(req, nil)
}

func (r activities) ListNotOwnedBy(_ context.Context, ownerID int64, req domain.PageRequest) (domain.Page[domain.Activity], error) {
	return r.list(req, func(_ *data, a domain.Activity) bool { return a.OwnerID != ownerID })
}

func (r activities) ListByTagsNotOwnedBy(_ context.Context, ownerID int64, tagIDs []int64, req domain.PageRequest) (domain.Page[domain.Activity], error) {
	want := make(map[int64]bool, len(tagIDs))
	for _, id := range tagIDs {
		want[id] = true
	}
	return r.list(req, func(d *data, a domain.Activity) bool {
		if a.OwnerID == ownerID {
			return false
		}
		for _, at := range d.activityTags {
			if at.ActivityID == a.ID && want[at.TagID] {
				return true
			}
		}
		return false
	})
}

func (r activities) Update(_ context.Context, a *domain.Activity) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.activities[a.ID]; !ok {
			return notFound("activity", a.ID)
		}
		if err := d.requireUser(a.OwnerID); err != nil {
			return err
		}
		d.activities[a.ID] = *a
		return nil
	})
}

func (r activities) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		d.deleteActivity(id)
		return nil
	})
}

func (d *data) deleteActivity(id int64) {
	for pid, p := range d.participants {
		if p.ActivityID == id {
			delete(d.participants, pid)
		}
	}
	for atID, at := range d.activityTags {
		if at.ActivityID == id {
			delete(d.activityTags, atID)
		}
	}
	delete(d.activities, id)
}

var tagOrder = comparators[domain.Tag]{
	"id":    byID(func(t domain.Tag) int64 { return t.ID }),
	"title": func(a, b domain.Tag) int { return strings.Compare(a.Title, b.Title) },
}

type tags struct{ v view }

func (r tags) Create(_ context.Context, t *domain.Tag) error {
	return r.v.write(func(d *data) error {
		t.ID = d.nextID()
		d.tags[t.ID] = *t
		return nil
	})
}

func (r tags) Get(_ context.Context, id int64) (*domain.Tag, error) {
	var out domain.Tag
	err := r.v.read(func(d *data) error {
		t, ok := d.tags[id]
		if !ok {
			return notFound("tag", id)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r tags) GetMany(_ context.Context, ids []int64) ([]domain.Tag, error) {
	var out []domain.Tag
	err := r.v.read(func(d *data) error {
		want := make(map[int64]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		out = collect(d.tags, func(t domain.Tag) bool { return want[t.ID] })
		return nil
	})
	return out, err
}

func (r tags) List(_ context.Context, req domain.PageRequest) (domain.Page[domain.Tag], error) {
	var out domain.Page[domain.Tag]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.tags, nil), req, tagOrder)
		return err
	})
	return out, err
}

func (r tags) Update(_ context.Context, t *domain.Tag) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.tags[t.ID]; !ok {
			return notFound("tag", t.ID)
		}
		d.tags[t.ID] = *t
		return nil
	})
}

func (r tags) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		for atID, at := range d.activityTags {
			if at.TagID == id {
				delete(d.activityTags, atID)
			}
		}
		delete(d.tags, id)
		return nil
	})
}

var activityTagOrder = comparators[domain.ActivityTag]{
	"id":          byID(func(at domain.ActivityTag) int64 { return at.ID }),
	"activity_id": byID(func(at domain.ActivityTag) int64 { return at.ActivityID }),
	"tag_id":      byID(func(at domain.ActivityTag) int64 { return at.TagID }),
	"user_id":     byID(func(at domain.ActivityTag) int64 { return at.UserID }),
}

type activityTags struct{ v view }

func (d *data) checkActivityTag(at *domain.ActivityTag) error {
	if _, ok := d.activities[at.ActivityID]; !ok {
		return missingRef("activity", at.ActivityID)
	}
	if _, ok := d.tags[at.TagID]; !ok {
		return missingRef("tag", at.TagID)
	}
	return d.requireUser(at.UserID)
}

func (r activityTags) Create(_ context.Context, at *domain.ActivityTag) error {
	return r.v.write(func(d *data) error {
		if err := d.checkActivityTag(at); err != nil {
			return err
		}
		at.ID = d.nextID()
		d.activityTags[at.ID] = *at
		return nil
	})
}

func (r activityTags) Get(_ context.Context, id int64) (*domain.ActivityTag, error) {
	var out domain.ActivityTag
	err := r.v.read(func(d *data) error {
		at, ok := d.activityTags[id]
		if !ok {
			return notFound("activity tag", id)
		}
		out = at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r activityTags) List(_ context.Context, req domain.PageRequest) (domain.Page[domain.ActivityTag], error) {
	var out domain.Page[domain.ActivityTag]
	err := r.v.read(func(d *data) error {
		var err error
		out, err = paginate(collect(d.activityTags, nil), req, activityTagOrder)
		return err
	})
	return out, err
}

func (r activityTags) ListByActivity(_ context.Context, activityID int64) ([]domain.ActivityTag, error) {
	var out []domain.ActivityTag
	err := r.v.read(func(d *data) error {
		out = collect(d.activityTags, func(at domain.ActivityTag) bool { return at.ActivityID == activityID })
		return nil
	})
	return out, err
}

func (r activityTags) Update(_ context.Context, at *domain.ActivityTag) error {
	return r.v.write(func(d *data) error {
		if _, ok := d.activityTags[at.ID]; !ok {
			return notFound("activity tag", at.ID)
		}
		if err := d.checkActivityTag(at); err != nil {
			return err
		}
		d.activityTags[at.ID] = *at
		return nil
	})
}

func (r activityTags) Delete(_ context.Context, id int64) error {
	return r.v.write(func(d *data) error {
		delete(d.activityTags, id)
		return nil
	})
}
