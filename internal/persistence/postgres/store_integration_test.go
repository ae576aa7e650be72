//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/events"
	"example.com/meetup/internal/pgtest"
)

func createUsers(t *testing.T, s *Store, logins ...string) []domain.User {
	t.Helper()
	out := make([]domain.User, 0, len(logins))
	for _, login := range logins {
		u := domain.User{Login: login, CreatedAt: time.Now().UTC()}
		require.NoError(t, s.Users().Create(context.Background(), &u))
		out = append(out, u)
	}
	return out
}

func TestStoreUniqueIndexesMapToConflict(t *testing.T) {
	ctx := context.Background()
	s := New(pgtest.Start(t))
	users := createUsers(t, s, "alice", "bob")

	dup := domain.User{Login: "alice"}
	require.ErrorIs(t, s.Users().Create(ctx, &dup), domain.ErrConflict)

	m := domain.Meet{OwnerID: users[0].ID, Description: "coffee", Enabled: true, CreatedAt: time.Now()}
	require.NoError(t, s.Meets().Create(ctx, &m))
	second := domain.Meet{OwnerID: users[0].ID, Description: "tea", CreatedAt: time.Now()}
	require.ErrorIs(t, s.Meets().Create(ctx, &second), domain.ErrConflict)

	r := domain.Request{UserID: users[1].ID, MeetID: m.ID, CreatedAt: time.Now()}
	require.NoError(t, s.Requests().Create(ctx, &r))
	again := domain.Request{UserID: users[1].ID, MeetID: m.ID, CreatedAt: time.Now()}
	require.ErrorIs(t, s.Requests().Create(ctx, &again), domain.ErrConflict)

	missing := domain.Activity{OwnerID: 9999, Title: "ghost", Date: time.Now()}
	require.ErrorIs(t, s.Activities().Create(ctx, &missing), domain.ErrValidation)
}

func TestStoreTransactionRollsBackOutbox(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)
	s := New(pool)
	users := createUsers(t, s, "alice")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx domain.Store) error {
		a := domain.Activity{OwnerID: users[0].ID, Title: "Hike", Date: time.Now(), CreatedAt: time.Now()}
		require.NoError(t, tx.Activities().Create(ctx, &a))
		require.NoError(t, tx.Outbox().Record(ctx, events.NewActivityCreated(events.ActivityCreated{ActivityID: a.ID, Title: a.Title})))
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&n))
	require.Zero(t, n)

	require.NoError(t, s.InTx(ctx, func(tx domain.Store) error {
		return tx.Outbox().Record(ctx, events.NewMeetCreated(events.MeetCreated{MeetID: 1}))
	}))
	var topic, subject string
	require.NoError(t, pool.QueryRow(ctx, `SELECT topic, schema_subject FROM outbox`).Scan(&topic, &subject))
	require.Equal(t, "meet_events", topic)
	require.Equal(t, "meet_events-meet_created", subject)
}

func TestStoreTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)
	s := New(pool)
	users := createUsers(t, s, "alice")

	require.Panics(t, func() {
		_ = s.InTx(ctx, func(tx domain.Store) error {
			m := domain.Meet{OwnerID: users[0].ID, Description: "coffee", CreatedAt: time.Now()}
			require.NoError(t, tx.Meets().Create(ctx, &m))
			panic("handler blew up")
		})
	})

	require.Zero(t, pool.Stat().AcquiredConns())
	meets, err := s.Meets().ListByOwner(ctx, users[0].ID)
	require.NoError(t, err)
	require.Empty(t, meets)
}

func TestStoreQueries(t *testing.T) {
	ctx := context.Background()
	s := New(pgtest.Start(t))
	users := createUsers(t, s, "alice", "bob", "carol")
	alice, bob, carol := users[0], users[1], users[2]

	outdoor := domain.Tag{Title: "outdoor"}
	music := domain.Tag{Title: "music"}
	require.NoError(t, s.Tags().Create(ctx, &outdoor))
	require.NoError(t, s.Tags().Create(ctx, &music))

	hike := domain.Activity{OwnerID: alice.ID, Title: "Hike", Date: time.Now(), CreatedAt: time.Now()}
	gig := domain.Activity{OwnerID: alice.ID, Title: "Gig", Date: time.Now(), CreatedAt: time.Now()}
	climb := domain.Activity{OwnerID: bob.ID, Title: "Climb", Date: time.Now(), CreatedAt: time.Now()}
	for _, a := range []*domain.Activity{&hike, &gig, &climb} {
		require.NoError(t, s.Activities().Create(ctx, a))
	}
	for _, link := range []domain.ActivityTag{
		{ActivityID: hike.ID, TagID: outdoor.ID, UserID: alice.ID},
		{ActivityID: hike.ID, TagID: music.ID, UserID: alice.ID},
		{ActivityID: gig.ID, TagID: music.ID, UserID: alice.ID},
		{ActivityID: climb.ID, TagID: outdoor.ID, UserID: bob.ID},
	} {
		require.NoError(t, s.ActivityTags().Create(ctx, &link))
	}

	page, err := s.Activities().ListByTagsNotOwnedBy(ctx, bob.ID, []int64{outdoor.ID, music.ID}, domain.PageRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Total)
	require.Equal(t, hike.ID, page.Items[0].ID)
	require.Equal(t, gig.ID, page.Items[1].ID)

	page, err = s.Activities().ListNotOwnedBy(ctx, alice.ID, domain.PageRequest{Sort: []domain.SortOrder{{Field: "title", Desc: true}}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, climb.ID, page.Items[0].ID)

	conv := domain.Conversation{UserIDs: []int64{alice.ID, bob.ID}, CreatedAt: time.Now()}
	require.NoError(t, s.Conversations().Create(ctx, &conv))
	found, err := s.Conversations().FindByUsers(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, conv.ID, found.ID)
	require.Equal(t, []int64{alice.ID, bob.ID}, found.UserIDs)
	_, err = s.Conversations().FindByUsers(ctx, alice.ID, carol.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	meet := domain.Meet{OwnerID: carol.ID, Description: "coffee", Enabled: true, CreatedAt: time.Now()}
	require.NoError(t, s.Meets().Create(ctx, &meet))
	for _, u := range []domain.User{alice, bob} {
		req := domain.Request{UserID: u.ID, MeetID: meet.ID, CreatedAt: time.Now()}
		require.NoError(t, s.Requests().Create(ctx, &req))
	}
	count, err := s.Requests().CountPendingForOwner(ctx, "carol")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	meet.Enabled = false
	require.NoError(t, s.Meets().Update(ctx, &meet))
	count, err = s.Requests().CountPendingForOwner(ctx, "carol")
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, s.Users().Delete(ctx, alice.ID))
	_, err = s.Activities().Get(ctx, hike.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Conversations().Get(ctx, conv.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, s.Users().Delete(ctx, alice.ID))
}

func TestServiceOnPostgres(t *testing.T) {
	ctx := context.Background()
	svc := domain.NewService(New(pgtest.Start(t)), zerolog.Nop())

	for _, login := range []string{"alice", "bob"} {
		_, err := svc.CreateUser(ctx, domain.User{Login: login})
		require.NoError(t, err)
	}
	hike, err := svc.CreateActivity(ctx, "alice", domain.CreateActivityInput{Title: "Hike", Date: time.Now(), Maximum: 5})
	require.NoError(t, err)

	_, err = svc.JoinActivity(ctx, "bob", hike.ID)
	require.NoError(t, err)
	_, err = svc.JoinActivity(ctx, "bob", hike.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	_, err = svc.JoinActivity(ctx, "alice", hike.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	first, created, err := svc.OpenConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, created)
	second, created, err := svc.OpenConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
}
