package postgres

import (
	"context"
	"fmt"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/persistence"
)

const activityCols = `a.id, a.owner_id, a.title, a.description, a.date, a.address, a.maximum, a.created_at`

var activityColumns = persistence.Columns{
	"id":         "a.id",
	"title":      "a.title",
	"date":       "a.date",
	"address":    "a.address",
	"maximum":    "a.maximum",
	"created_at": "a.created_at",
}

func scanActivity(row rowScanner) (domain.Activity, error) {
	var a domain.Activity
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.Date, &a.Address, &a.Maximum, &a.CreatedAt); err != nil {
		return domain.Activity{}, mapError(err, "activity")
	}
	return a, nil
}

type activities struct{ s *Store }

func (r activities) Create(ctx context.Context, a *domain.Activity) error {
	const stmt = `INSERT INTO activity (owner_id, title, description, date, address, maximum, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`
	err := r.s.q.QueryRow(ctx, stmt, a.OwnerID, a.Title, a.Description, a.Date, a.Address, a.Maximum, a.CreatedAt).Scan(&a.ID)
	return mapError(err, "create activity")
}

func (r activities) Get(ctx context.Context, id int64) (*domain.Activity, error) {
	a, err := scanActivity(r.s.q.QueryRow(ctx, `SELECT `+activityCols+` FROM activity a WHERE a.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r activities) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Activity], error) {
	return listPage(ctx, r.s.q, listQuery{cols: activityCols, from: "activity a", columns: activityColumns}, req, "activities", scanActivity)
}

func (r activities) ListNotOwnedBy(ctx context.Context, ownerID int64, req domain.PageRequest) (domain.Page[domain.Activity], error) {
	return listPage(ctx, r.s.q, listQuery{
		cols:    activityCols,
		from:    "activity a WHERE a.owner_id <> $1",
		args:    []any{ownerID},
		columns: activityColumns,
	}, req, "activities", scanActivity)
}

func (r activities) ListByTagsNotOwnedBy(ctx context.Context, ownerID int64, tagIDs []int64, req domain.PageRequest) (domain.Page[domain.Activity], error) {
	return listPage(ctx, r.s.q, listQuery{
		cols: activityCols,
		from: `activity a WHERE a.owner_id <> $1
            AND EXISTS (SELECT 1 FROM activity_tag atg WHERE atg.activity_id = a.id AND atg.tag_id = ANY($2))`,
		args:    []any{ownerID, tagIDs},
		columns: activityColumns,
	}, req, "activities", scanActivity)
}

func (r activities) Update(ctx context.Context, a *domain.Activity) error {
	tag, err := r.s.q.Exec(ctx,
		`UPDATE activity SET title = $2, description = $3, date = $4, address = $5, maximum = $6 WHERE id = $1`,
		a.ID, a.Title, a.Description, a.Date, a.Address, a.Maximum)
	if err != nil {
		return mapError(err, "update activity")
	}
	return expectOne(tag, fmt.Sprintf("activity %d", a.ID))
}

func (r activities) Delete(ctx context.Context, id int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM activity WHERE id = $1`, id)
	return mapError(err, "delete activity")
}

const tagCols = `t.id, t.title`

var tagColumns = persistence.Columns{"id": "t.id", "title": "t.title"}

func scanTag(row rowScanner) (domain.Tag, error) {
	var t domain.Tag
	if err := row.Scan(&t.ID, &t.Title); err != nil {
		return domain.Tag{}, mapError(err, "tag")
	}
	return t, nil
}

type tags struct{ s *Store }

func (r tags) Create(ctx context.Context, t *domain.Tag) error {
	err := r.s.q.QueryRow(ctx, `INSERT INTO tag (title) VALUES ($1) RETURNING id`, t.Title).Scan(&t.ID)
	return mapError(err, "create tag")
}

func (r tags) Get(ctx context.Context, id int64) (*domain.Tag, error) {
	t, err := scanTag(r.s.q.QueryRow(ctx, `SELECT `+tagCols+` FROM tag t WHERE t.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r tags) GetMany(ctx context.Context, ids []int64) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return collectAll(ctx, r.s.q, `SELECT `+tagCols+` FROM tag t WHERE t.id = ANY($1) ORDER BY t.id`, []any{ids}, "tags", scanTag)
}

func (r tags) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Tag], error) {
	return listPage(ctx, r.s.q, listQuery{cols: tagCols, from: "tag t", columns: tagColumns}, req, "tags", scanTag)
}

func (r tags) Update(ctx context.Context, t *domain.Tag) error {
	tag, err := r.s.q.Exec(ctx, `UPDATE tag SET title = $2 WHERE id = $1`, t.ID, t.Title)
	if err != nil {
		return mapError(err, "update tag")
	}
	return expectOne(tag, fmt.Sprintf("tag %d", t.ID))
}

func (r tags) Delete(ctx context.Context, id int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM tag WHERE id = $1`, id)
	return mapError(err, "delete tag")
}

const activityTagCols = `atg.id, atg.activity_id, atg.tag_id, atg.user_id`

var activityTagColumns = persistence.Columns{
	"id":          "atg.id",
	"activity_id": "atg.activity_id",
	"tag_id":      "atg.tag_id",
	"user_id":     "atg.user_id",
}

func scanActivityTag(row rowScanner) (domain.ActivityTag, error) {
	var at domain.ActivityTag
	if err := row.Scan(&at.ID, &at.ActivityID, &at.TagID, &at.UserID); err != nil {
		return domain.ActivityTag{}, mapError(err, "activity tag")
	}
	return at, nil
}

type activityTags struct{ s *Store }

func (r activityTags) Create(ctx context.Context, at *domain.ActivityTag) error {
	err := r.s.q.QueryRow(ctx,
		`INSERT INTO activity_tag (activity_id, tag_id, user_id) VALUES ($1,$2,$3) RETURNING id`,
		at.ActivityID, at.TagID, at.UserID).Scan(&at.ID)
	return mapError(err, "create activity tag")
}

func (r activityTags) Get(ctx context.Context, id int64) (*domain.ActivityTag, error) {
	at, err := scanActivityTag(r.s.q.QueryRow(ctx, `SELECT `+activityTagCols+` FROM activity_tag atg WHERE atg.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r activityTags) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.ActivityTag], error) {
	return listPage(ctx, r.s.q, listQuery{cols: activityTagCols, from: "activity_tag atg", columns: activityTagColumns}, req, "activity tags", scanActivityTag)
}

func (r activityTags) ListByActivity(ctx context.Context, activityID int64) ([]domain.ActivityTag, error) {
	return collectAll(ctx, r.s.q,
		`SELECT `+activityTagCols+` FROM activity_tag atg WHERE atg.activity_id = $1 ORDER BY atg.id`,
		[]any{activityID}, "activity tags", scanActivityTag)
}

func (r activityTags) Update(ctx context.Context, at *domain.ActivityTag) error {
	tag, err := r.s.q.Exec(ctx,
		`UPDATE activity_tag SET activity_id = $2, tag_id = $3, user_id = $4 WHERE id = $1`,
		at.ID, at.ActivityID, at.TagID, at.UserID)
	if err != nil {
		return mapError(err, "update activity tag")
	}
	return expectOne(tag, fmt.Sprintf("activity tag %d", at.ID))
}

func (r activityTags) Delete(ctx context.Context, id int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM activity_tag WHERE id = $1`, id)
	return mapError(err, "delete activity tag")
}
