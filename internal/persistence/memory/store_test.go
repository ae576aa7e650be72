package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/events"
)

func seedUsers(t *testing.T, s *Store, logins ...string) []domain.User {
	t.Helper()
	out := make([]domain.User, 0, len(logins))
	for _, login := range logins {
		u := domain.User{Login: login}
		require.NoError(t, s.Users().Create(context.Background(), &u))
		out = append(out, u)
	}
	return out
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := seedUsers(t, s, "alice")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx domain.Store) error {
		a := domain.Activity{OwnerID: users[0].ID, Title: "Hike", Date: time.Now()}
		require.NoError(t, tx.Activities().Create(ctx, &a))
		require.NoError(t, tx.Outbox().Record(ctx, events.NewActivityCreated(events.ActivityCreated{ActivityID: a.ID})))
		return boom
	})
	require.ErrorIs(t, err, boom)

	page, err := s.Activities().List(ctx, domain.PageRequest{})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.Empty(t, s.Events())
}

func TestInTxRestoresSnapshotOnPanic(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := seedUsers(t, s, "alice")

	require.Panics(t, func() {
		_ = s.InTx(ctx, func(tx domain.Store) error {
			m := domain.Meet{OwnerID: users[0].ID, Description: "coffee"}
			require.NoError(t, tx.Meets().Create(ctx, &m))
			panic("handler blew up")
		})
	})

	meets, err := s.Meets().ListByOwner(ctx, users[0].ID)
	require.NoError(t, err)
	require.Empty(t, meets)

	// The store stays usable after the panic released the lock.
	require.NoError(t, s.InTx(ctx, func(tx domain.Store) error {
		m := domain.Meet{OwnerID: users[0].ID, Description: "tea"}
		return tx.Meets().Create(ctx, &m)
	}))
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := seedUsers(t, s, "alice")

	require.NoError(t, s.InTx(ctx, func(tx domain.Store) error {
		m := domain.Meet{OwnerID: users[0].ID, Description: "coffee", Enabled: true}
		if err := tx.Meets().Create(ctx, &m); err != nil {
			return err
		}
		return tx.InTx(ctx, func(inner domain.Store) error {
			return inner.Outbox().Record(ctx, events.NewMeetCreated(events.MeetCreated{MeetID: m.ID}))
		})
	}))

	meets, err := s.Meets().ListByOwner(ctx, users[0].ID)
	require.NoError(t, err)
	require.Len(t, meets, 1)
	require.Len(t, s.Events(), 1)
}

func TestUniqueRows(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := seedUsers(t, s, "alice", "bob")

	dup := domain.User{Login: "alice"}
	require.ErrorIs(t, s.Users().Create(ctx, &dup), domain.ErrConflict)

	m := domain.Meet{OwnerID: users[0].ID, Description: "coffee"}
	require.NoError(t, s.Meets().Create(ctx, &m))
	second := domain.Meet{OwnerID: users[0].ID, Description: "tea"}
	require.ErrorIs(t, s.Meets().Create(ctx, &second), domain.ErrConflict)

	r := domain.Request{UserID: users[1].ID, MeetID: m.ID}
	require.NoError(t, s.Requests().Create(ctx, &r))
	again := domain.Request{UserID: users[1].ID, MeetID: m.ID}
	require.ErrorIs(t, s.Requests().Create(ctx, &again), domain.ErrConflict)

	a := domain.Activity{OwnerID: users[0].ID, Title: "Hike"}
	require.NoError(t, s.Activities().Create(ctx, &a))
	p := domain.Participant{ActivityID: a.ID, UserID: users[1].ID}
	require.NoError(t, s.Participants().Create(ctx, &p))
	p2 := domain.Participant{ActivityID: a.ID, UserID: users[1].ID}
	require.ErrorIs(t, s.Participants().Create(ctx, &p2), domain.ErrConflict)
}

func TestDanglingReferencesAreValidationErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := domain.Activity{OwnerID: 99, Title: "Hike"}
	require.ErrorIs(t, s.Activities().Create(ctx, &a), domain.ErrValidation)

	c := domain.Conversation{UserIDs: []int64{1, 2}}
	require.ErrorIs(t, s.Conversations().Create(ctx, &c), domain.ErrValidation)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := seedUsers(t, s, "alice", "bob")

	tag := domain.Tag{Title: "outdoor"}
	require.NoError(t, s.Tags().Create(ctx, &tag))
	a := domain.Activity{OwnerID: users[0].ID, Title: "Hike"}
	require.NoError(t, s.Activities().Create(ctx, &a))
	link := domain.ActivityTag{ActivityID: a.ID, TagID: tag.ID, UserID: users[0].ID}
	require.NoError(t, s.ActivityTags().Create(ctx, &link))

	require.NoError(t, s.Tags().Delete(ctx, tag.ID))
	links, err := s.ActivityTags().ListByActivity(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, links)

	m := domain.Meet{OwnerID: users[0].ID, Description: "coffee", Enabled: true}
	require.NoError(t, s.Meets().Create(ctx, &m))
	r := domain.Request{UserID: users[1].ID, MeetID: m.ID}
	require.NoError(t, s.Requests().Create(ctx, &r))

	require.NoError(t, s.Meets().Delete(ctx, m.ID))
	_, err = s.Requests().Get(ctx, r.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Meets().Delete(ctx, m.ID))
}

func TestListPagingAndSorting(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, title := range []string{"b", "a", "c", "a"} {
		tag := domain.Tag{Title: title}
		require.NoError(t, s.Tags().Create(ctx, &tag))
	}

	page, err := s.Tags().List(ctx, domain.PageRequest{Size: 3})
	require.NoError(t, err)
	require.EqualValues(t, 4, page.Total)
	require.Equal(t, []int64{1, 2, 3}, tagIDs(page.Items))

	page, err = s.Tags().List(ctx, domain.PageRequest{Page: 1, Size: 3})
	require.NoError(t, err)
	require.Equal(t, []int64{4}, tagIDs(page.Items))

	page, err = s.Tags().List(ctx, domain.PageRequest{Sort: []domain.SortOrder{{Field: "title", Desc: true}}})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 1, 2, 4}, tagIDs(page.Items))

	page, err = s.Tags().List(ctx, domain.PageRequest{Page: 5})
	require.NoError(t, err)
	require.Empty(t, page.Items)

	_, err = s.Tags().List(ctx, domain.PageRequest{Sort: []domain.SortOrder{{Field: "colour"}}})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func tagIDs(items []domain.Tag) []int64 {
	out := make([]int64, 0, len(items))
	for _, t := range items {
		out = append(out, t.ID)
	}
	return out
}

func TestConversationLookupIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := seedUsers(t, s, "alice", "bob", "carol")

	c := domain.Conversation{UserIDs: []int64{users[0].ID, users[1].ID}}
	require.NoError(t, s.Conversations().Create(ctx, &c))

	found, err := s.Conversations().FindByUsers(ctx, users[1].ID, users[0].ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, found.ID)

	_, err = s.Conversations().FindByUsers(ctx, users[0].ID, users[2].ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	found.UserIDs[0] = 999
	again, err := s.Conversations().Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, users[0].ID, again.UserIDs[0])
}
