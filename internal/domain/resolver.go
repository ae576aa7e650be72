package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// ActivityDetails is an activity joined with its owner, tags and participants.
type ActivityDetails struct {
	Activity          Activity
	Owner             *User
	TagTitles         []string
	ParticipantLogins []string
	IsParticipating   bool
}

// ConversationWithPartner pairs a conversation with the member that is not the caller.
// Partner is nil when the membership is malformed.
type ConversationWithPartner struct {
	Conversation Conversation
	Partner      *User
}

// Profile is the caller's account summary.
type Profile struct {
	User            User
	Meet            *Meet
	PendingRequests int64
}

// Resolver builds read views that join several entity kinds. It never writes,
// except for FindOrCreateConversation.
type Resolver struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewResolver returns a resolver logging through logger.
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{logger: logger.With().Str("component", "resolver").Logger(), now: time.Now}
}

// ActivityDetails loads the activity plus owner, tag titles and participant logins.
func (r *Resolver) ActivityDetails(ctx context.Context, s Store, activityID int64, caller *User) (*ActivityDetails, error) {
	activity, err := s.Activities().Get(ctx, activityID)
	if err != nil {
		return nil, err
	}
	details := &ActivityDetails{Activity: *activity, TagTitles: []string{}, ParticipantLogins: []string{}}

	owner, err := s.Users().Get(ctx, activity.OwnerID)
	switch {
	case err == nil:
		details.Owner = owner
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	links, err := s.ActivityTags().ListByActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	tagIDs := make([]int64, 0, len(links))
	for _, link := range links {
		tagIDs = append(tagIDs, link.TagID)
	}
	tags, err := s.Tags().GetMany(ctx, uniqueIDs(tagIDs))
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		details.TagTitles = append(details.TagTitles, tag.Title)
	}

	participants, err := r.allParticipants(ctx, s, activityID)
	if err != nil {
		return nil, err
	}
	userIDs := make([]int64, 0, len(participants))
	for _, p := range participants {
		userIDs = append(userIDs, p.UserID)
		if caller != nil && p.UserID == caller.ID {
			details.IsParticipating = true
		}
	}
	users, err := s.Users().GetMany(ctx, uniqueIDs(userIDs))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		details.ParticipantLogins = append(details.ParticipantLogins, u.Login)
	}
	return details, nil
}

func (r *Resolver) allParticipants(ctx context.Context, s Store, activityID int64) ([]Participant, error) {
	var out []Participant
	req := PageRequest{Size: MaxPageSize}
	for {
		page, err := s.Participants().ListByActivity(ctx, activityID, req)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < req.Size || int64(len(out)) >= page.Total {
			return out, nil
		}
		req.Page++
	}
}

// ConversationPartner returns the member of c that is not callerID. When the
// conversation does not hold exactly two distinct users including the caller
// it logs a warning and returns nil.
func (r *Resolver) ConversationPartner(ctx context.Context, s Store, c Conversation, callerID int64) (*User, error) {
	members := uniqueIDs(c.UserIDs)
	if len(members) != 2 || len(c.UserIDs) != 2 || !c.HasMember(callerID) {
		r.logger.Warn().
			Int64("conversation_id", c.ID).
			Int64("caller_id", callerID).
			Ints64("members", c.UserIDs).
			Msg("conversation does not hold exactly two users including the caller")
		return nil, nil
	}
	other := members[0]
	if other == callerID {
		other = members[1]
	}
	user, err := s.Users().Get(ctx, other)
	if errors.Is(err, ErrNotFound) {
		r.logger.Warn().Int64("conversation_id", c.ID).Int64("user_id", other).Msg("conversation partner missing")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindOrCreateConversation returns the conversation between caller and
// otherLogin, creating it if needed. created reports whether a new row was written.
// Callers run it inside a transaction.
func (r *Resolver) FindOrCreateConversation(ctx context.Context, s Store, caller *User, otherLogin string) (conv *Conversation, created bool, err error) {
	otherLogin = normalizeLogin(otherLogin)
	other, err := s.Users().GetByLogin(ctx, otherLogin)
	if errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("%w: user %q does not exist", ErrValidation, otherLogin)
	}
	if err != nil {
		return nil, false, err
	}
	if other.ID == caller.ID {
		return nil, false, fmt.Errorf("%w: cannot open a conversation with yourself", ErrValidation)
	}

	existing, err := s.Conversations().FindByUsers(ctx, caller.ID, other.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	conv = &Conversation{UserIDs: []int64{caller.ID, other.ID}, CreatedAt: r.now().UTC()}
	if err := s.Conversations().Create(ctx, conv); err != nil {
		return nil, false, err
	}
	r.logger.Debug().Int64("conversation_id", conv.ID).Str("caller", caller.Login).Str("other", other.Login).Msg("conversation created")
	return conv, true, nil
}

// ActivitiesFilteredByTags lists activities not owned by caller. With tags it
// keeps only activities carrying at least one of them.
func (r *Resolver) ActivitiesFilteredByTags(ctx context.Context, s Store, caller *User, tagIDs []int64, page PageRequest) (Page[Activity], error) {
	tagIDs = uniqueIDs(tagIDs)
	if len(tagIDs) == 0 {
		return s.Activities().ListNotOwnedBy(ctx, caller.ID, page)
	}
	return s.Activities().ListByTagsNotOwnedBy(ctx, caller.ID, tagIDs, page)
}

// PendingRequestsForOwner lists requests targeting an enabled meet owned by ownerLogin.
func (r *Resolver) PendingRequestsForOwner(ctx context.Context, s Store, ownerLogin string, page PageRequest) (Page[Request], error) {
	return s.Requests().ListPendingForOwner(ctx, ownerLogin, page)
}

// CountPendingRequestsForOwner counts what PendingRequestsForOwner would list.
func (r *Resolver) CountPendingRequestsForOwner(ctx context.Context, s Store, ownerLogin string) (int64, error) {
	return s.Requests().CountPendingForOwner(ctx, ownerLogin)
}

// ConversationsForUser lists the caller's conversations with the partner resolved.
func (r *Resolver) ConversationsForUser(ctx context.Context, s Store, caller *User, page PageRequest) (Page[ConversationWithPartner], error) {
	convs, err := s.Conversations().ListByUser(ctx, caller.ID, page)
	if err != nil {
		return Page[ConversationWithPartner]{}, err
	}
	return MapPage(convs, func(c Conversation) (ConversationWithPartner, error) {
		partner, err := r.ConversationPartner(ctx, s, c, caller.ID)
		if err != nil {
			return ConversationWithPartner{}, err
		}
		return ConversationWithPartner{Conversation: c, Partner: partner}, nil
	})
}

// ParticipantsOfActivity lists the participants of an existing activity.
func (r *Resolver) ParticipantsOfActivity(ctx context.Context, s Store, activityID int64, page PageRequest) (Page[Participant], error) {
	if _, err := s.Activities().Get(ctx, activityID); err != nil {
		return Page[Participant]{}, err
	}
	return s.Participants().ListByActivity(ctx, activityID, page)
}

// MeetsExcludingCaller lists every meet the caller does not own.
func (r *Resolver) MeetsExcludingCaller(ctx context.Context, s Store, caller *User, page PageRequest) (Page[Meet], error) {
	return s.Meets().ListNotOwnedBy(ctx, caller.ID, page)
}

// Profile loads the account summary for login.
func (r *Resolver) Profile(ctx context.Context, s Store, login string) (*Profile, error) {
	user, err := s.Users().GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: *user}
	meets, err := s.Meets().ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(meets) > 0 {
		m := meets[0]
		profile.Meet = &m
	}
	if profile.PendingRequests, err = s.Requests().CountPendingForOwner(ctx, login); err != nil {
		return nil, err
	}
	return profile, nil
}

// UsersByID loads users keyed by id. Missing ids are left out.
func (r *Resolver) UsersByID(ctx context.Context, s Store, ids []int64) (map[int64]User, error) {
	users, err := s.Users().GetMany(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[int64]User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// uniqueIDs returns the distinct ids in ascending order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
