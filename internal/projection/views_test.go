package projection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/domain"
)

var created = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

func TestActivityRequiresOwner(t *testing.T) {
	a := domain.Activity{ID: 3, OwnerID: 1, Title: "Hike", Maximum: 5, Date: created}

	_, err := Activity(a, Users{})
	require.ErrorIs(t, err, ErrMissingJoin)

	view, err := Activity(a, Users{1: {ID: 1, Login: "alice", FirstName: "Alice", LastName: "Liddell"}})
	require.NoError(t, err)
	require.Equal(t, "alice", view.Owner.Login)
	require.Equal(t, "Alice Liddell", view.Owner.DisplayName)
}

func TestActivityDetailsJSON(t *testing.T) {
	owner := domain.User{ID: 1, Login: "alice"}
	view, err := ActivityDetails(domain.ActivityDetails{
		Activity:        domain.Activity{ID: 3, OwnerID: 1, Title: "Hike", Maximum: 5, Date: created, CreatedAt: created},
		Owner:           &owner,
		TagTitles:       []string{"outdoor"},
		IsParticipating: true,
	})
	require.NoError(t, err)

	body, err := json.Marshal(view)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": 3,
		"title": "Hike",
		"date": "2025-05-01T12:00:00Z",
		"maximum": 5,
		"owner": {"id": 1, "login": "alice", "display_name": "alice"},
		"created_at": "2025-05-01T12:00:00Z",
		"tags": ["outdoor"],
		"participants": [],
		"is_participating": true
	}`, string(body))

	_, err = ActivityDetails(domain.ActivityDetails{Activity: domain.Activity{ID: 3}})
	require.ErrorIs(t, err, ErrMissingJoin)
}

func TestConversationViews(t *testing.T) {
	users := Users{1: {ID: 1, Login: "alice"}, 2: {ID: 2, Login: "bob"}}
	c := domain.Conversation{ID: 9, UserIDs: []int64{1, 2}}

	view, err := Conversation(c, users)
	require.NoError(t, err)
	require.Len(t, view.Users, 2)

	_, err = Conversation(domain.Conversation{ID: 9, UserIDs: []int64{1, 3}}, users)
	require.ErrorIs(t, err, ErrMissingJoin)

	partner := ConversationPartner(domain.ConversationWithPartner{Conversation: c})
	require.Nil(t, partner.Partner)
	body, err := json.Marshal(partner)
	require.NoError(t, err)
	require.Contains(t, string(body), `"partner":null`)
}

func TestProfileEmbedsMeet(t *testing.T) {
	u := domain.User{ID: 4, Login: "carol"}
	view, err := Profile(domain.Profile{User: u, Meet: &domain.Meet{ID: 2, OwnerID: 4, Description: "coffee", Enabled: true}, PendingRequests: 3})
	require.NoError(t, err)
	require.Equal(t, "carol", view.Meet.Owner.Login)
	require.EqualValues(t, 3, view.PendingRequests)
}

func TestListStopsOnError(t *testing.T) {
	_, err := List([]domain.Meet{{ID: 1, OwnerID: 1}, {ID: 2, OwnerID: 2}}, func(m domain.Meet) (MeetView, error) {
		return Meet(m, Users{1: {ID: 1, Login: "alice"}})
	})
	require.ErrorIs(t, err, ErrMissingJoin)

	views, err := List([]domain.Tag{{ID: 1, Title: "a"}}, Infallible(Tag))
	require.NoError(t, err)
	require.Equal(t, []TagView{{ID: 1, Title: "a"}}, views)
}
