// Package postgres implements domain.Store on top of pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/persistence"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides Postgres-backed persistence for every entity kind and the outbox.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	tx   pgx.Tx
}

var _ domain.Store = (*Store)(nil)

// New constructs a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Users() domain.UserStore                 { return users{s} }
func (s *Store) Activities() domain.ActivityStore        { return activities{s} }
func (s *Store) Tags() domain.TagStore                   { return tags{s} }
func (s *Store) ActivityTags() domain.ActivityTagStore   { return activityTags{s} }
func (s *Store) Participants() domain.ParticipantStore   { return participants{s} }
func (s *Store) Meets() domain.MeetStore                 { return meets{s} }
func (s *Store) Requests() domain.RequestStore           { return requests{s} }
func (s *Store) Conversations() domain.ConversationStore { return conversations{s} }
func (s *Store) Outbox() domain.EventRecorder            { return recorder{s} }

// InTx runs fn in a read-committed transaction. Nested calls reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, q: tx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// atomic runs fn on the current transaction, opening one if needed.
func (s *Store) atomic(ctx context.Context, fn func(q querier) error) error {
	return s.InTx(ctx, func(tx domain.Store) error {
		return fn(tx.(*Store).q)
	})
}

// mapError translates driver errors into domain sentinels.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s: %s", domain.ErrConflict, what, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s references a missing row (%s)", domain.ErrValidation, what, pgErr.ConstraintName)
		case "23514", "23502":
			return fmt.Errorf("%w: %s: %s", domain.ErrValidation, what, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// expectOne turns a zero-row UPDATE into ErrNotFound.
func expectOne(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// listQuery describes a paged SELECT: cols and from are joined as
// "SELECT cols FROM from", args bind the placeholders used in from.
type listQuery struct {
	cols    string
	from    string
	args    []any
	columns persistence.Columns
}

func listPage[T any](ctx context.Context, q querier, lq listQuery, req domain.PageRequest, what string, scan func(rowScanner) (T, error)) (domain.Page[T], error) {
	req = req.Normalize()
	order, err := persistence.OrderBy(req.Sort, lq.columns)
	if err != nil {
		return domain.Page[T]{}, err
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM "+lq.from, lq.args...).Scan(&total); err != nil {
		return domain.Page[T]{}, mapError(err, what)
	}

	limit, limitArgs := persistence.LimitOffset(req, len(lq.args)+1)
	query := strings.Join([]string{"SELECT", lq.cols, "FROM", lq.from, order, limit}, " ")
	rows, err := q.Query(ctx, query, append(append([]any{}, lq.args...), limitArgs...)...)
	if err != nil {
		return domain.Page[T]{}, mapError(err, what)
	}
	defer rows.Close()

	items := make([]T, 0, req.Size)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return domain.Page[T]{}, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[T]{}, mapError(err, what)
	}
	return domain.Page[T]{Items: items, Total: total, Page: req.Page, Size: req.Size}, nil
}

func collectAll[T any](ctx context.Context, q querier, query string, args []any, what string, scan func(rowScanner) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, what)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, what)
	}
	return out, nil
}
