package domain

import (
	"context"

	"example.com/meetup/internal/events"
)

// Store is the entity store. Implementations live under internal/persistence/<driver>.
//
// Get-style lookups return ErrNotFound when the row is absent; Delete is
// idempotent and cascades to dependent rows.
type Store interface {
	Users() UserStore
	Activities() ActivityStore
	Tags() TagStore
	ActivityTags() ActivityTagStore
	Participants() ParticipantStore
	Meets() MeetStore
	Requests() RequestStore
	Conversations() ConversationStore
	Outbox() EventRecorder

	// InTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetMany(ctx context.Context, ids []int64) ([]User, error)
	List(ctx context.Context, page PageRequest) (Page[User], error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

type ActivityStore interface {
	Create(ctx context.Context, a *Activity) error
	Get(ctx context.Context, id int64) (*Activity, error)
	List(ctx context.Context, page PageRequest) (Page[Activity], error)
	ListNotOwnedBy(ctx context.Context, ownerID int64, page PageRequest) (Page[Activity], error)
	ListByTagsNotOwnedBy(ctx context.Context, ownerID int64, tagIDs []int64, page PageRequest) (Page[Activity], error)
	Update(ctx context.Context, a *Activity) error
	Delete(ctx context.Context, id int64) error
}

type TagStore interface {
	Create(ctx context.Context, t *Tag) error
	Get(ctx context.Context, id int64) (*Tag, error)
	GetMany(ctx context.Context, ids []int64) ([]Tag, error)
	List(ctx context.Context, page PageRequest) (Page[Tag], error)
	Update(ctx context.Context, t *Tag) error
	Delete(ctx context.Context, id int64) error
}

type ActivityTagStore interface {
	Create(ctx context.Context, at *ActivityTag) error
	Get(ctx context.Context, id int64) (*ActivityTag, error)
	List(ctx context.Context, page PageRequest) (Page[ActivityTag], error)
	ListByActivity(ctx context.Context, activityID int64) ([]ActivityTag, error)
	Update(ctx context.Context, at *ActivityTag) error
	Delete(ctx context.Context, id int64) error
}

type ParticipantStore interface {
	Create(ctx context.Context, p *Participant) error
	Get(ctx context.Context, id int64) (*Participant, error)
	List(ctx context.Context, page PageRequest) (Page[Participant], error)
	ListByActivity(ctx context.Context, activityID int64, page PageRequest) (Page[Participant], error)
	FindByActivityAndUser(ctx context.Context, activityID, userID int64) (*Participant, error)
	Update(ctx context.Context, p *Participant) error
	Delete(ctx context.Context, id int64) error
}

type MeetStore interface {
	Create(ctx context.Context, m *Meet) error
	Get(ctx context.Context, id int64) (*Meet, error)
	List(ctx context.Context, page PageRequest) (Page[Meet], error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Meet, error)
	ListNotOwnedBy(ctx context.Context, ownerID int64, page PageRequest) (Page[Meet], error)
	Update(ctx context.Context, m *Meet) error
	Delete(ctx context.Context, id int64) error
}

type RequestStore interface {
	Create(ctx context.Context, r *Request) error
	Get(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, page PageRequest) (Page[Request], error)
	FindByUserAndMeet(ctx context.Context, userID, meetID int64) (*Request, error)
	// ListPendingForOwner returns requests targeting an enabled meet owned by ownerLogin.
	ListPendingForOwner(ctx context.Context, ownerLogin string, page PageRequest) (Page[Request], error)
	CountPendingForOwner(ctx context.Context, ownerLogin string) (int64, error)
	Update(ctx context.Context, r *Request) error
	Delete(ctx context.Context, id int64) error
}

type ConversationStore interface {
	Create(ctx context.Context, c *Conversation) error
	// Get loads the conversation together with its members in one query.
	Get(ctx context.Context, id int64) (*Conversation, error)
	List(ctx context.Context, page PageRequest) (Page[Conversation], error)
	// FindByUsers looks up the conversation for an unordered pair.
	FindByUsers(ctx context.Context, userA, userB int64) (*Conversation, error)
	ListByUser(ctx context.Context, userID int64, page PageRequest) (Page[Conversation], error)
	Update(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, id int64) error
}

// EventRecorder appends domain events to the transactional outbox.
type EventRecorder interface {
	Record(ctx context.Context, evt events.Event) error
}
