// Package events defines the domain event payloads published through the outbox.
package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Event types recorded in the outbox.
const (
	TypeActivityCreated     = "activity.created"
	TypeActivityDeleted     = "activity.deleted"
	TypeParticipantJoined   = "participant.joined"
	TypeMeetCreated         = "meet.created"
	TypeRequestCreated      = "request.created"
	TypeConversationCreated = "conversation.created"
)

// Event is an outbox entry waiting to be written in the caller's transaction.
type Event struct {
	ID            string
	Type          string
	AggregateType string
	AggregateID   string
	Payload       any
}

// ActivityCreated is emitted when a user publishes an activity.
type ActivityCreated struct {
	EventID    string    `json:"event_id"`
	ActivityID int64     `json:"activity_id"`
	OwnerLogin string    `json:"owner_login"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	Tags       []string  `json:"tags"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActivityDeleted is emitted when an activity and its dependents are removed.
type ActivityDeleted struct {
	EventID    string    `json:"event_id"`
	ActivityID int64     `json:"activity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ParticipantJoined is emitted when a user joins an activity.
type ParticipantJoined struct {
	EventID       string    `json:"event_id"`
	ParticipantID int64     `json:"participant_id"`
	ActivityID    int64     `json:"activity_id"`
	UserLogin     string    `json:"user_login"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// MeetCreated is emitted when a user publishes their meet.
type MeetCreated struct {
	EventID    string    `json:"event_id"`
	MeetID     int64     `json:"meet_id"`
	OwnerLogin string    `json:"owner_login"`
	Enabled    bool      `json:"is_enabled"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RequestCreated is emitted when a user requests someone's meet.
type RequestCreated struct {
	EventID        string    `json:"event_id"`
	RequestID      int64     `json:"request_id"`
	MeetID         int64     `json:"meet_id"`
	RequesterLogin string    `json:"requester_login"`
	OwnerLogin     string    `json:"owner_login"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ConversationCreated is emitted the first time two users open a conversation.
type ConversationCreated struct {
	EventID        string    `json:"event_id"`
	ConversationID int64     `json:"conversation_id"`
	UserLogins     []string  `json:"user_logins"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewActivityCreated wraps the payload in an Event.
func NewActivityCreated(p ActivityCreated) Event {
	p.EventID = newID(p.EventID)
	return Event{ID: p.EventID, Type: TypeActivityCreated, AggregateType: "activity", AggregateID: id(p.ActivityID), Payload: p}
}

// NewActivityDeleted wraps the payload in an Event.
func NewActivityDeleted(p ActivityDeleted) Event {
	p.EventID = newID(p.EventID)
	return Event{ID: p.EventID, Type: TypeActivityDeleted, AggregateType: "activity", AggregateID: id(p.ActivityID), Payload: p}
}

// NewParticipantJoined wraps the payload in an Event keyed by activity.
func NewParticipantJoined(p ParticipantJoined) Event {
	p.EventID = newID(p.EventID)
	return Event{ID: p.EventID, Type: TypeParticipantJoined, AggregateType: "activity", AggregateID: id(p.ActivityID), Payload: p}
}

// NewMeetCreated wraps the payload in an Event.
func NewMeetCreated(p MeetCreated) Event {
	p.EventID = newID(p.EventID)
	return Event{ID: p.EventID, Type: TypeMeetCreated, AggregateType: "meet", AggregateID: id(p.MeetID), Payload: p}
}

// NewRequestCreated wraps the payload in an Event keyed by meet.
func NewRequestCreated(p RequestCreated) Event {
	p.EventID = newID(p.EventID)
	return Event{ID: p.EventID, Type: TypeRequestCreated, AggregateType: "meet", AggregateID: id(p.MeetID), Payload: p}
}

// NewConversationCreated wraps the payload in an Event.
func NewConversationCreated(p ConversationCreated) Event {
	p.EventID = newID(p.EventID)
	return Event{ID: p.EventID, Type: TypeConversationCreated, AggregateType: "conversation", AggregateID: id(p.ConversationID), Payload: p}
}

func newID(existing string) string {
	if existing != "" {
		return existing
	}
	return uuid.NewString()
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}
