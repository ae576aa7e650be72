package domain

import (
	"context"
	"errors"
	"fmt"

	"example.com/meetup/internal/observability"
)

// Policy rule names, used as metric labels.
const (
	RuleSingleMeet    = "single_meet"
	RuleNoSelfJoin    = "no_self_join"
	RuleNoDoubleJoin  = "no_double_join"
	RuleMeetEnabled   = "meet_enabled"
	RuleNoDoubleAsk   = "no_double_request"
	RuleAuthenticated = "authenticated"
)

// Policy holds the business rules evaluated before a write. Each check reads
// the store passed in, which is normally the write transaction. No locks are
// taken: two concurrent calls may both pass a check.
type Policy struct{}

// ResolveCaller maps a login to its User.
func (Policy) ResolveCaller(ctx context.Context, s Store, login string) (*User, error) {
	login = normalizeLogin(login)
	if login == "" {
		observability.RecordPolicyRejection(RuleAuthenticated)
		return nil, fmt.Errorf("%w: no caller identity", ErrUnauthenticated)
	}
	user, err := s.Users().GetByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		observability.RecordPolicyRejection(RuleAuthenticated)
		return nil, fmt.Errorf("%w: unknown user %q", ErrUnauthenticated, login)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CheckSingleMeet refuses a second meet for the same owner, enabled or not.
func (Policy) CheckSingleMeet(ctx context.Context, s Store, caller *User) error {
	meets, err := s.Meets().ListByOwner(ctx, caller.ID)
	if err != nil {
		return err
	}
	if len(meets) > 0 {
		observability.RecordPolicyRejection(RuleSingleMeet)
		return fmt.Errorf("%w: only one meet can be active at all times", ErrConflict)
	}
	return nil
}

// CheckCanJoin refuses owners joining their own activity and repeat participation.
func (Policy) CheckCanJoin(ctx context.Context, s Store, caller *User, activity *Activity) error {
	_, err := s.Participants().FindByActivityAndUser(ctx, activity.ID, caller.ID)
	switch {
	case err == nil:
		observability.RecordPolicyRejection(RuleNoDoubleJoin)
		return fmt.Errorf("%w: user already a participant", ErrConflict)
	case !errors.Is(err, ErrNotFound):
		return err
	}
	if activity.OwnerID == caller.ID {
		observability.RecordPolicyRejection(RuleNoSelfJoin)
		return fmt.Errorf("%w: user owns the activity", ErrConflict)
	}
	return nil
}

// CheckMeetEnabled loads the target meet and refuses it when missing or disabled.
func (Policy) CheckMeetEnabled(ctx context.Context, s Store, meetID int64) (*Meet, error) {
	meet, err := s.Meets().Get(ctx, meetID)
	if errors.Is(err, ErrNotFound) {
		observability.RecordPolicyRejection(RuleMeetEnabled)
		return nil, fmt.Errorf("%w: meet %d does not exist", ErrInvalidState, meetID)
	}
	if err != nil {
		return nil, err
	}
	if !meet.Enabled {
		observability.RecordPolicyRejection(RuleMeetEnabled)
		return nil, fmt.Errorf("%w: meet %d is not enabled", ErrInvalidState, meetID)
	}
	return meet, nil
}

// CheckNotRequested refuses a second request from the same user to the same meet.
func (Policy) CheckNotRequested(ctx context.Context, s Store, caller *User, meetID int64) error {
	_, err := s.Requests().FindByUserAndMeet(ctx, caller.ID, meetID)
	switch {
	case err == nil:
		observability.RecordPolicyRejection(RuleNoDoubleAsk)
		return fmt.Errorf("%w: meet already requested", ErrConflict)
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}
