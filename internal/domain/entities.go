package domain

import (
	"strings"
	"time"
)

// User is an account known to the service. Logins are unique.
type User struct {
	ID        int64
	Login     string
	Email     string
	FirstName string
	LastName  string
	ImageURL  string
	CreatedAt time.Time
}

// DisplayName joins first and last name, falling back to the login.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Login
	}
	return name
}

// Activity is an event created by a user that others can join.
// OwnerID is fixed at creation.
type Activity struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	Date        time.Time
	Address     string
	Maximum     int
	CreatedAt   time.Time
}

// Tag labels activities.
type Tag struct {
	ID    int64
	Title string
}

// ActivityTag attaches a Tag to an Activity. UserID records who tagged it.
type ActivityTag struct {
	ID         int64
	ActivityID int64
	TagID      int64
	UserID     int64
}

// Participant records that a user joined an activity.
type Participant struct {
	ID         int64
	ActivityID int64
	UserID     int64
	JoinedAt   time.Time
}

// Meet is a one-on-one meetup offer. A user owns at most one.
type Meet struct {
	ID          int64
	OwnerID     int64
	Description string
	Enabled     bool
	CreatedAt   time.Time
}

// Request is a user's request to take part in someone else's meet.
type Request struct {
	ID        int64
	UserID    int64
	MeetID    int64
	CreatedAt time.Time
}

// Conversation links an unordered pair of users.
type Conversation struct {
	ID        int64
	UserIDs   []int64
	CreatedAt time.Time
}

// HasMember reports whether userID belongs to the conversation.
func (c Conversation) HasMember(userID int64) bool {
	for _, id := range c.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
