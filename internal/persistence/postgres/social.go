package postgres

import (
	"context"
	"fmt"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/persistence"
)

const participantCols = `p.id, p.activity_id, p.user_id, p.joined_at`

var participantColumns = persistence.Columns{
	"id":          "p.id",
	"activity_id": "p.activity_id",
	"user_id":     "p.user_id",
	"joined_at":   "p.joined_at",
}

func scanParticipant(row rowScanner) (domain.Participant, error) {
	var p domain.Participant
	if err := row.Scan(&p.ID, &p.ActivityID, &p.UserID, &p.JoinedAt); err != nil {
		return domain.Participant{}, mapError(err, "participant")
	}
	return p, nil
}

type participants struct{ s *Store }

func (r participants) Create(ctx context.Context, p *domain.Participant) error {
	err := r.s.q.QueryRow(ctx,
		`INSERT INTO participant (activity_id, user_id, joined_at) VALUES ($1,$2,$3) RETURNING id`,
		p.ActivityID, p.UserID, p.JoinedAt).Scan(&p.ID)
	return mapError(err, "create participant")
}

func (r participants) Get(ctx context.Context, id int64) (*domain.Participant, error) {
	p, err := scanParticipant(r.s.q.QueryRow(ctx, `SELECT `+participantCols+` FROM participant p WHERE p.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r participants) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Participant], error) {
	return listPage(ctx, r.s.q, listQuery{cols: participantCols, from: "participant p", columns: participantColumns}, req, "participants", scanParticipant)
}

func (r participants) ListByActivity(ctx context.Context, activityID int64, req domain.PageRequest) (domain.Page[domain.Participant], error) {
	return listPage(ctx, r.s.q, listQuery{
		cols:    participantCols,
		from:    "participant p WHERE p.activity_id = $1",
		args:    []any{activityID},
		columns: participantColumns,
	}, req, "participants", scanParticipant)
}

func (r participants) FindByActivityAndUser(ctx context.Context, activityID, userID int64) (*domain.Participant, error) {
	p, err := scanParticipant(r.s.q.QueryRow(ctx,
		`SELECT `+participantCols+` FROM participant p WHERE p.activity_id = $1 AND p.user_id = $2`, activityID, userID))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r participants) Update(ctx context.Context, p *domain.Participant) error {
	tag, err := r.s.q.Exec(ctx, `UPDATE participant SET activity_id = $2, user_id = $3 WHERE id = $1`, p.ID, p.ActivityID, p.UserID)
	if err != nil {
		return mapError(err, "update participant")
	}
	return expectOne(tag, fmt.Sprintf("participant %d", p.ID))
}

func (r participants) Delete(ctx context.Context, id int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM participant WHERE id = $1`, id)
	return mapError(err, "delete participant")
}

const meetCols = `m.id, m.user_id, m.description, m.is_enabled, m.created_at`

var meetColumns = persistence.Columns{
	"id":          "m.id",
	"user_id":     "m.user_id",
	"description": "m.description",
	"is_enabled":  "m.is_enabled",
	"created_at":  "m.created_at",
}

func scanMeet(row rowScanner) (domain.Meet, error) {
	var m domain.Meet
	if err := row.Scan(&m.ID, &m.OwnerID, &m.Description, &m.Enabled, &m.CreatedAt); err != nil {
		return domain.Meet{}, mapError(err, "meet")
	}
	return m, nil
}

type meets struct{ s *Store }

func (r meets) Create(ctx context.Context, m *domain.Meet) error {
	err := r.s.q.QueryRow(ctx,
		`INSERT INTO meet (user_id, description, is_enabled, created_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		m.OwnerID, m.Description, m.Enabled, m.CreatedAt).Scan(&m.ID)
	return mapError(err, "create meet")
}

func (r meets) Get(ctx context.Context, id int64) (*domain.Meet, error) {
	m, err := scanMeet(r.s.q.QueryRow(ctx, `SELECT `+meetCols+` FROM meet m WHERE m.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r meets) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Meet], error) {
	return listPage(ctx, r.s.q, listQuery{cols: meetCols, from: "meet m", columns: meetColumns}, req, "meets", scanMeet)
}

func (r meets) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Meet, error) {
	return collectAll(ctx, r.s.q, `SELECT `+meetCols+` FROM meet m WHERE m.user_id = $1 ORDER BY m.id`, []any{ownerID}, "meets", scanMeet)
}

func (r meets) ListNotOwnedBy(ctx context.Context, ownerID int64, req domain.PageRequest) (domain.Page[domain.Meet], error) {
	return listPage(ctx, r.s.q, listQuery{
		cols:    meetCols,
		from:    "meet m WHERE m.user_id <> $1",
		args:    []any{ownerID},
		columns: meetColumns,
	}, req, "meets", scanMeet)
}

func (r meets) Update(ctx context.Context, m *domain.Meet) error {
	tag, err := r.s.q.Exec(ctx,
		`UPDATE meet SET user_id = $2, description = $3, is_enabled = $4 WHERE id = $1`,
		m.ID, m.OwnerID, m.Description, m.Enabled)
	if err != nil {
		return mapError(err, "update meet")
	}
	return expectOne(tag, fmt.Sprintf("meet %d", m.ID))
}

func (r meets) Delete(ctx context.Context, id int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM meet WHERE id = $1`, id)
	return mapError(err, "delete meet")
}

const requestCols = `r.id, r.user_id, r.meet_id, r.created_at`

var requestColumns = persistence.Columns{
	"id":         "r.id",
	"user_id":    "r.user_id",
	"meet_id":    "r.meet_id",
	"created_at": "r.created_at",
}

const pendingForOwner = `request r
    JOIN meet m ON m.id = r.meet_id
    JOIN app_user o ON o.id = m.user_id
    WHERE m.is_enabled AND o.login = $1`

func scanRequest(row rowScanner) (domain.Request, error) {
	var req domain.Request
	if err := row.Scan(&req.ID, &req.UserID, &req.MeetID, &req.CreatedAt); err != nil {
		return domain.Request{}, mapError(err, "request")
	}
	return req, nil
}

type requests struct{ s *Store }

func (r requests) Create(ctx context.Context, req *domain.Request) error {
	err := r.s.q.QueryRow(ctx,
		`INSERT INTO request (user_id, meet_id, created_at) VALUES ($1,$2,$3) RETURNING id`,
		req.UserID, req.MeetID, req.CreatedAt).Scan(&req.ID)
	return mapError(err, "create request")
}

func (r requests) Get(ctx context.Context, id int64) (*domain.Request, error) {
	req, err := scanRequest(r.s.q.QueryRow(ctx, `SELECT `+requestCols+` FROM request r WHERE r.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r requests) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Request], error) {
	return listPage(ctx, r.s.q, listQuery{cols: requestCols, from: "request r", columns: requestColumns}, page, "requests", scanRequest)
}

func (r requests) FindByUserAndMeet(ctx context.Context, userID, meetID int64) (*domain.Request, error) {
	req, err := scanRequest(r.s.q.QueryRow(ctx,
		`SELECT `+requestCols+` FROM request r WHERE r.user_id = $1 AND r.meet_id = $2`, userID, meetID))
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r requests) ListPendingForOwner(ctx context.Context, ownerLogin string, page domain.PageRequest) (domain.Page[domain.Request], error) {
	return listPage(ctx, r.s.q, listQuery{
		cols:    requestCols,
		from:    pendingForOwner,
		args:    []any{ownerLogin},
		columns: requestColumns,
	}, page, "pending requests", scanRequest)
}

func (r requests) CountPendingForOwner(ctx context.Context, ownerLogin string) (int64, error) {
	var n int64
	err := r.s.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+pendingForOwner, ownerLogin).Scan(&n)
	return n, mapError(err, "count pending requests")
}

func (r requests) Update(ctx context.Context, req *domain.Request) error {
	tag, err := r.s.q.Exec(ctx, `UPDATE request SET user_id = $2, meet_id = $3 WHERE id = $1`, req.ID, req.UserID, req.MeetID)
	if err != nil {
		return mapError(err, "update request")
	}
	return expectOne(tag, fmt.Sprintf("request %d", req.ID))
}

func (r requests) Delete(ctx context.Context, id int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM request WHERE id = $1`, id)
	return mapError(err, "delete request")
}

// Members are loaded with the conversation in the same statement, in join order.
const conversationCols = `c.id, c.created_at,
    ARRAY(SELECT cu.user_id FROM conversation_users cu WHERE cu.conversation_id = c.id ORDER BY cu.position)`

var conversationColumns = persistence.Columns{"id": "c.id", "created_at": "c.created_at"}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UserIDs); err != nil {
		return domain.Conversation{}, mapError(err, "conversation")
	}
	return c, nil
}

type conversations struct{ s *Store }

func insertMembers(ctx context.Context, q querier, c *domain.Conversation) error {
	for i, userID := range c.UserIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO conversation_users (conversation_id, user_id, position) VALUES ($1,$2,$3)`,
			c.ID, userID, i); err != nil {
			return mapError(err, "add conversation member")
		}
	}
	return nil
}

func (r conversations) Create(ctx context.Context, c *domain.Conversation) error {
	return r.s.atomic(ctx, func(q querier) error {
		if err := q.QueryRow(ctx, `INSERT INTO conversation (created_at) VALUES ($1) RETURNING id`, c.CreatedAt).Scan(&c.ID); err != nil {
			return mapError(err, "create conversation")
		}
		return insertMembers(ctx, q, c)
	})
}

func (r conversations) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	c, err := scanConversation(r.s.q.QueryRow(ctx, `SELECT `+conversationCols+` FROM conversation c WHERE c.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r conversations) List(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Conversation], error) {
	return listPage(ctx, r.s.q, listQuery{cols: conversationCols, from: "conversation c", columns: conversationColumns}, req, "conversations", scanConversation)
}

// FindByUsers matches conversations whose membership is exactly the pair.
func (r conversations) FindByUsers(ctx context.Context, userA, userB int64) (*domain.Conversation, error) {
	const query = `SELECT ` + conversationCols + ` FROM conversation c
        WHERE c.id IN (
            SELECT cu.conversation_id FROM conversation_users cu
            GROUP BY cu.conversation_id
            HAVING COUNT(*) = 2 AND bool_and(cu.user_id IN ($1, $2)) AND COUNT(DISTINCT cu.user_id) = 2
        )
        ORDER BY c.id LIMIT 1`
	c, err := scanConversation(r.s.q.QueryRow(ctx, query, userA, userB))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r conversations) ListByUser(ctx context.Context, userID int64, req domain.PageRequest) (domain.Page[domain.Conversation], error) {
	return listPage(ctx, r.s.q, listQuery{
		cols:    conversationCols,
		from:    "conversation c WHERE EXISTS (SELECT 1 FROM conversation_users m WHERE m.conversation_id = c.id AND m.user_id = $1)",
		args:    []any{userID},
		columns: conversationColumns,
	}, req, "conversations", scanConversation)
}

func (r conversations) Update(ctx context.Context, c *domain.Conversation) error {
	return r.s.atomic(ctx, func(q querier) error {
		if _, err := scanConversation(q.QueryRow(ctx, `SELECT `+conversationCols+` FROM conversation c WHERE c.id = $1 FOR UPDATE`, c.ID)); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM conversation_users WHERE conversation_id = $1`, c.ID); err != nil {
			return mapError(err, "update conversation")
		}
		return insertMembers(ctx, q, c)
	})
}

func (r conversations) Delete(ctx context.Context, id int64) error {
	_, err := r.s.q.Exec(ctx, `DELETE FROM conversation WHERE id = $1`, id)
	return mapError(err, "delete conversation")
}
