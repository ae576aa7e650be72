package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field is one member of a merge patch. A field absent from the payload has
// Present == false and is left untouched; an explicit JSON null sets Null.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Set builds a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

// Null builds a field that clears the target.
func Null[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}

// UnmarshalJSON records presence; encoding/json only calls it for keys in the payload.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// apply writes the field into dst. Null clears dst unless the field is required.
func apply[T any](dst *T, f Field[T], name string, required bool) error {
	if !f.Present {
		return nil
	}
	if f.Null {
		if required {
			return fmt.Errorf("%w: %s cannot be null", ErrValidation, name)
		}
		var zero T
		*dst = zero
		return nil
	}
	*dst = f.Value
	return nil
}

// UserPatch is a merge patch for a User. Login is immutable.
type UserPatch struct {
	Email     Field[string] `json:"email"`
	FirstName Field[string] `json:"first_name"`
	LastName  Field[string] `json:"last_name"`
	ImageURL  Field[string] `json:"image_url"`
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) error {
	if err := apply(&u.Email, p.Email, "email", false); err != nil {
		return err
	}
	if err := apply(&u.FirstName, p.FirstName, "first_name", false); err != nil {
		return err
	}
	if err := apply(&u.LastName, p.LastName, "last_name", false); err != nil {
		return err
	}
	return apply(&u.ImageURL, p.ImageURL, "image_url", false)
}

// ActivityPatch is a merge patch for an Activity. The owner cannot be patched.
type ActivityPatch struct {
	Title       Field[string]    `json:"title"`
	Description Field[string]    `json:"description"`
	Date        Field[time.Time] `json:"date"`
	Address     Field[string]    `json:"address"`
	Maximum     Field[int]       `json:"maximum"`
}

// Apply merges the patch into a.
func (p ActivityPatch) Apply(a *Activity) error {
	if err := apply(&a.Title, p.Title, "title", true); err != nil {
		return err
	}
	if err := apply(&a.Description, p.Description, "description", false); err != nil {
		return err
	}
	if err := apply(&a.Date, p.Date, "date", true); err != nil {
		return err
	}
	if err := apply(&a.Address, p.Address, "address", false); err != nil {
		return err
	}
	return apply(&a.Maximum, p.Maximum, "maximum", false)
}

// TagPatch is a merge patch for a Tag.
type TagPatch struct {
	Title Field[string] `json:"title"`
}

// Apply merges the patch into t.
func (p TagPatch) Apply(t *Tag) error {
	return apply(&t.Title, p.Title, "title", true)
}

// ActivityTagPatch re-points an ActivityTag.
type ActivityTagPatch struct {
	ActivityID Field[int64] `json:"activity_id"`
	TagID      Field[int64] `json:"tag_id"`
}

// Apply merges the patch into at.
func (p ActivityTagPatch) Apply(at *ActivityTag) error {
	if err := apply(&at.ActivityID, p.ActivityID, "activity_id", true); err != nil {
		return err
	}
	return apply(&at.TagID, p.TagID, "tag_id", true)
}

// ParticipantPatch re-points a Participant.
type ParticipantPatch struct {
	ActivityID Field[int64] `json:"activity_id"`
	UserID     Field[int64] `json:"user_id"`
}

// Apply merges the patch into pt.
func (p ParticipantPatch) Apply(pt *Participant) error {
	if err := apply(&pt.ActivityID, p.ActivityID, "activity_id", true); err != nil {
		return err
	}
	return apply(&pt.UserID, p.UserID, "user_id", true)
}

// MeetPatch is a merge patch for a Meet.
type MeetPatch struct {
	Description Field[string] `json:"description"`
	Enabled     Field[bool]   `json:"is_enabled"`
}

// Apply merges the patch into m.
func (p MeetPatch) Apply(m *Meet) error {
	if err := apply(&m.Description, p.Description, "description", true); err != nil {
		return err
	}
	return apply(&m.Enabled, p.Enabled, "is_enabled", true)
}

// RequestPatch re-points a Request.
type RequestPatch struct {
	UserID Field[int64] `json:"user_id"`
	MeetID Field[int64] `json:"meet_id"`
}

// Apply merges the patch into r.
func (p RequestPatch) Apply(r *Request) error {
	if err := apply(&r.UserID, p.UserID, "user_id", true); err != nil {
		return err
	}
	return apply(&r.MeetID, p.MeetID, "meet_id", true)
}

// ConversationPatch replaces the member pair of a Conversation.
type ConversationPatch struct {
	UserIDs Field[[]int64] `json:"user_ids"`
}

// Apply merges the patch into c.
func (p ConversationPatch) Apply(c *Conversation) error {
	return apply(&c.UserIDs, p.UserIDs, "user_ids", true)
}
