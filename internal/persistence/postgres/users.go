package postgres

import (
	"context"
	"fmt"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/persistence"
)

const userCols = `u.id, u.login, u.email, u.first_name, u.last_name, u.image_url, u.created_at`

var userColumns = persistence.Columns{
	"id":         "u.id",
	"login":      "u.login",
	"email":      "u.email",
	"first_name": "u.first_name",
	"last_name":  "u.last_name",
	"created_at": "u.created_at",
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Login, &u.Email, &u.FirstName, &u.LastName, &u.ImageURL, &u.CreatedAt); err != nil {
		return domain.User{}, mapError(err, "user")
	}
	return u, nil
}

type users struct{ s *Store }

func (r users) Create(ctx context.Context, u *domain.User) error {
	const stmt = `INSERT INTO app_user (login, email, first_name, last_name, image_url, created_at)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`
	err := r.s.q.QueryRow(ctx, stmt, u.Login, u.Email, u.FirstName, u.LastName, u.ImageURL, u.CreatedAt).Scan(&u.ID)
	return mapError(err, "create user")
}

func (r users) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.s.q.QueryRow(ctx, `SELECT `+userCols+` FROM app_user u WHERE u.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r users) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	u, err := scanUser(r.s.q.QueryRow(ctx, `SELECT `+userCols+` FROM app_user u WHERE u.login = $1`, login))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r users) GetMany(ctx context.Context, ids []int64) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return collectAll(ctx, r.s.q, `SELECT `+userCols+` FROM app_user u WHERE u.id = ANY($1) ORDER BY u.id`, []any{ids}, "users", scanUser)
}

func (r users) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.User], error) {
	return listPage(ctx, r.s.q, listQuery{cols: userCols, from: "app_user u", columns: userColumns}, req, "users", scanUser)
}

func (r users) Update(ctx context.Context, u *domain.User) error {
	tag, err := r.s.q.Exec(ctx,
		`UPDATE app_user SET login = $2, email = $3, first_name = $4, last_name = $5, image_url = $6 WHERE id = $1`,
		u.ID, u.Login, u.Email, u.FirstName, u.LastName, u.ImageURL)
	if err != nil {
		return mapError(err, "update user")
	}
	return expectOne(tag, fmt.Sprintf("user %d", u.ID))
}

// Delete removes the user. Conversations the user belonged to are removed
// first; every other dependent row goes through ON DELETE CASCADE.
func (r users) Delete(ctx context.Context, id int64) error {
	return r.s.atomic(ctx, func(q querier) error {
		if _, err := q.Exec(ctx,
			`DELETE FROM conversation WHERE id IN (SELECT conversation_id FROM conversation_users WHERE user_id = $1)`, id); err != nil {
			return mapError(err, "delete user conversations")
		}
		_, err := q.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
		return mapError(err, "delete user")
	})
}
