// Package projection turns domain entities and their resolved joins into the
// JSON shapes served by the API.
package projection

import (
	"errors"
	"fmt"
	"time"

	"example.com/meetup/internal/domain"
)

// ErrMissingJoin is returned when an entity is projected without a row it must reference.
var ErrMissingJoin = errors.New("projection: missing joined entity")

// Users indexes users by id for join lookups.
type Users map[int64]domain.User

func (u Users) lookup(kind string, id int64) (domain.User, error) {
	user, ok := u[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %d referenced by %s", ErrMissingJoin, id, kind)
	}
	return user, nil
}

type UserView struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRef is the short form of a user embedded in other views.
type UserRef struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ActivityView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Address     string    `json:"address,omitempty"`
	Maximum     int       `json:"maximum"`
	Owner       UserRef   `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

type ActivityDetailsView struct {
	ActivityView
	Tags            []string `json:"tags"`
	Participants    []string `json:"participants"`
	IsParticipating bool     `json:"is_participating"`
}

type TagView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type ActivityTagView struct {
	ID         int64 `json:"id"`
	ActivityID int64 `json:"activity_id"`
	TagID      int64 `json:"tag_id"`
	UserID     int64 `json:"user_id"`
}

type ParticipantView struct {
	ID         int64     `json:"id"`
	ActivityID int64     `json:"activity_id"`
	User       UserRef   `json:"user"`
	JoinedAt   time.Time `json:"joined_at"`
}

type MeetView struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Enabled     bool      `json:"is_enabled"`
	Owner       UserRef   `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

type RequestView struct {
	ID        int64     `json:"id"`
	MeetID    int64     `json:"meet_id"`
	User      UserRef   `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationView struct {
	ID        int64     `json:"id"`
	Users     []UserRef `json:"users"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationPartnerView shows a conversation from one member's side.
// Partner is null when the membership is malformed.
type ConversationPartnerView struct {
	ID        int64     `json:"id"`
	Partner   *UserRef  `json:"partner"`
	CreatedAt time.Time `json:"created_at"`
}

type ProfileView struct {
	UserView
	DisplayName     string    `json:"display_name"`
	Meet            *MeetView `json:"meet,omitempty"`
	PendingRequests int64     `json:"pending_requests"`
}

func User(u domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Login:     u.Login,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
		CreatedAt: u.CreatedAt,
	}
}

func Ref(u domain.User) UserRef {
	return UserRef{ID: u.ID, Login: u.Login, DisplayName: u.DisplayName(), ImageURL: u.ImageURL}
}

func Activity(a domain.Activity, users Users) (ActivityView, error) {
	owner, err := users.lookup("activity", a.OwnerID)
	if err != nil {
		return ActivityView{}, err
	}
	return ActivityView{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Date:        a.Date,
		Address:     a.Address,
		Maximum:     a.Maximum,
		Owner:       Ref(owner),
		CreatedAt:   a.CreatedAt,
	}, nil
}

// ActivityDetails requires the resolved owner.
func ActivityDetails(d domain.ActivityDetails) (ActivityDetailsView, error) {
	if d.Owner == nil {
		return ActivityDetailsView{}, fmt.Errorf("%w: owner of activity %d", ErrMissingJoin, d.Activity.ID)
	}
	base, err := Activity(d.Activity, Users{d.Owner.ID: *d.Owner})
	if err != nil {
		return ActivityDetailsView{}, err
	}
	return ActivityDetailsView{
		ActivityView:    base,
		Tags:            nonNil(d.TagTitles),
		Participants:    nonNil(d.ParticipantLogins),
		IsParticipating: d.IsParticipating,
	}, nil
}

func Tag(t domain.Tag) TagView {
	return TagView{ID: t.ID, Title: t.Title}
}

func ActivityTag(at domain.ActivityTag) ActivityTagView {
	return ActivityTagView{ID: at.ID, ActivityID: at.ActivityID, TagID: at.TagID, UserID: at.UserID}
}

func Participant(p domain.Participant, users Users) (ParticipantView, error) {
	u, err := users.lookup("participant", p.UserID)
	if err != nil {
		return ParticipantView{}, err
	}
	return ParticipantView{ID: p.ID, ActivityID: p.ActivityID, User: Ref(u), JoinedAt: p.JoinedAt}, nil
}

func Meet(m domain.Meet, users Users) (MeetView, error) {
	owner, err := users.lookup("meet", m.OwnerID)
	if err != nil {
		return MeetView{}, err
	}
	return MeetView{
		ID:          m.ID,
		Description: m.Description,
		Enabled:     m.Enabled,
		Owner:       Ref(owner),
		CreatedAt:   m.CreatedAt,
	}, nil
}

func Request(r domain.Request, users Users) (RequestView, error) {
	u, err := users.lookup("request", r.UserID)
	if err != nil {
		return RequestView{}, err
	}
	return RequestView{ID: r.ID, MeetID: r.MeetID, User: Ref(u), CreatedAt: r.CreatedAt}, nil
}

func Conversation(c domain.Conversation, users Users) (ConversationView, error) {
	view := ConversationView{ID: c.ID, Users: make([]UserRef, 0, len(c.UserIDs)), CreatedAt: c.CreatedAt}
	for _, id := range c.UserIDs {
		u, err := users.lookup("conversation", id)
		if err != nil {
			return ConversationView{}, err
		}
		view.Users = append(view.Users, Ref(u))
	}
	return view, nil
}

func ConversationPartner(c domain.ConversationWithPartner) ConversationPartnerView {
	view := ConversationPartnerView{ID: c.Conversation.ID, CreatedAt: c.Conversation.CreatedAt}
	if c.Partner != nil {
		ref := Ref(*c.Partner)
		view.Partner = &ref
	}
	return view
}

func Profile(p domain.Profile) (ProfileView, error) {
	view := ProfileView{
		UserView:        User(p.User),
		DisplayName:     p.User.DisplayName(),
		PendingRequests: p.PendingRequests,
	}
	if p.Meet != nil {
		m, err := Meet(*p.Meet, Users{p.User.ID: p.User})
		if err != nil {
			return ProfileView{}, err
		}
		view.Meet = &m
	}
	return view, nil
}

// List projects every item of a page with fn.
func List[T, V any](items []T, fn func(T) (V, error)) ([]V, error) {
	out := make([]V, 0, len(items))
	for _, item := range items {
		v, err := fn(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Infallible adapts a projection that cannot fail for List.
func Infallible[T, V any](fn func(T) V) func(T) (V, error) {
	return func(t T) (V, error) { return fn(t), nil }
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
