// Package memory implements domain.Store in process memory for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"example.com/meetup/internal/domain"
	"example.com/meetup/internal/events"
)

// Store keeps every entity in maps guarded by a mutex. Transactions are
// serialised and roll back by restoring a snapshot. Reads outside a
// transaction may observe writes of a transaction still in progress.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	d    *data
}

type data struct {
	seq           int64
	users         map[int64]domain.User
	activities    map[int64]domain.Activity
	tags          map[int64]domain.Tag
	activityTags  map[int64]domain.ActivityTag
	participants  map[int64]domain.Participant
	meets         map[int64]domain.Meet
	requests      map[int64]domain.Request
	conversations map[int64]domain.Conversation
	outbox        []events.Event
}

var _ domain.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{d: &data{
		users:         make(map[int64]domain.User),
		activities:    make(map[int64]domain.Activity),
		tags:          make(map[int64]domain.Tag),
		activityTags:  make(map[int64]domain.ActivityTag),
		participants:  make(map[int64]domain.Participant),
		meets:         make(map[int64]domain.Meet),
		requests:      make(map[int64]domain.Request),
		conversations: make(map[int64]domain.Conversation),
	}}
}

func (d *data) clone() *data {
	out := &data{
		seq:           d.seq,
		users:         maps.Clone(d.users),
		activities:    maps.Clone(d.activities),
		tags:          maps.Clone(d.tags),
		activityTags:  maps.Clone(d.activityTags),
		participants:  maps.Clone(d.participants),
		meets:         maps.Clone(d.meets),
		requests:      maps.Clone(d.requests),
		conversations: make(map[int64]domain.Conversation, len(d.conversations)),
		outbox:        slices.Clone(d.outbox),
	}
	for id, c := range d.conversations {
		c.UserIDs = slices.Clone(c.UserIDs)
		out.conversations[id] = c
	}
	return out
}

func (d *data) nextID() int64 {
	d.seq++
	return d.seq
}

// Events returns the outbox entries recorded so far.
func (s *Store) Events() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.d.outbox)
}

func (s *Store) view() view { return view{s: s} }

func (s *Store) Users() domain.UserStore                 { return s.view().Users() }
func (s *Store) Activities() domain.ActivityStore        { return s.view().Activities() }
func (s *Store) Tags() domain.TagStore                   { return s.view().Tags() }
func (s *Store) ActivityTags() domain.ActivityTagStore   { return s.view().ActivityTags() }
func (s *Store) Participants() domain.ParticipantStore   { return s.view().Participants() }
func (s *Store) Meets() domain.MeetStore                 { return s.view().Meets() }
func (s *Store) Requests() domain.RequestStore           { return s.view().Requests() }
func (s *Store) Conversations() domain.ConversationStore { return s.view().Conversations() }
func (s *Store) Outbox() domain.EventRecorder            { return s.view().Outbox() }

// InTx runs fn with exclusive write access, restoring the previous state when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.view().InTx(ctx, fn)
}

// view is a Store handle, optionally bound to the running transaction.
type view struct {
	s    *Store
	inTx bool
}

func (v view) Users() domain.UserStore                 { return users{v} }
func (v view) Activities() domain.ActivityStore        { return activities{v} }
func (v view) Tags() domain.TagStore                   { return tags{v} }
func (v view) ActivityTags() domain.ActivityTagStore   { return activityTags{v} }
func (v view) Participants() domain.ParticipantStore   { return participants{v} }
func (v view) Meets() domain.MeetStore                 { return meets{v} }
func (v view) Requests() domain.RequestStore           { return requests{v} }
func (v view) Conversations() domain.ConversationStore { return conversations{v} }
func (v view) Outbox() domain.EventRecorder            { return recorder{v} }

func (v view) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if v.inTx {
		return fn(v)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()

	v.s.mu.RLock()
	snapshot := v.s.d.clone()
	v.s.mu.RUnlock()

	committed := false
	defer func() {
		if !committed {
			v.s.mu.Lock()
			v.s.d = snapshot
			v.s.mu.Unlock()
		}
	}()

	if err := fn(view{s: v.s, inTx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (v view) read(fn func(d *data) error) error {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(v.s.d)
}

func (v view) write(fn func(d *data) error) error {
	if !v.inTx {
		v.s.txMu.Lock()
		defer v.s.txMu.Unlock()
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.d)
}

type recorder struct{ v view }

func (r recorder) Record(_ context.Context, evt events.Event) error {
	return r.v.write(func(d *data) error {
		d.outbox = append(d.outbox, evt)
		return nil
	})
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", domain.ErrNotFound, kind, id)
}

func missingRef(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d does not exist", domain.ErrValidation, kind, id)
}
