package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/metrics"
)

// RemoteStore is the system of record for items. *remote.Client implements it.
type RemoteStore interface {
	List(ctx context.Context) ([]flavor.Item, error)
	Create(ctx context.Context, item flavor.Item) error
	Delete(ctx context.Context, id string) error
}

// IDSource issues item identifiers.
type IDSource interface {
	Next() string
}

// Busy reports which operation classes are in flight.
type Busy struct {
	Loading  bool
	Mutating bool
}

// State is a read-only view of the synchronizer for presentation.
type State struct {
	Items               []flavor.Item
	Identity            string
	Busy                Busy
	Loaded              bool
	LastError           error
	LastUpdated         time.Time
	ConsecutiveFailures int
}

// SignedIn reports whether an identity is set.
func (s State) SignedIn() bool {
	return s.Identity != ""
}

// IsOffline returns true when the store has failed several calls in a row.
func (s State) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Options configure a Synchronizer.
type Options struct {
	Remote   RemoteStore
	IDs      IDSource
	Logger   zerolog.Logger
	Recorder metrics.Recorder
}

// Synchronizer owns the in-memory snapshot of the current identity's items and
// keeps it consistent with the remote store. Changes to the snapshot are only
// applied after the store confirms them.
type Synchronizer struct {
	remote RemoteStore
	ids    IDSource
	log    zerolog.Logger
	rec    metrics.Recorder

	mu          sync.Mutex
	items       []flavor.Item
	identity    string
	busy        Busy
	generation  uint64
	loaded      bool
	lastErr     error
	lastUpdated time.Time
	failures    int
}

// New builds a Synchronizer. Remote is required; IDs defaults to a fresh
// flavor.IDGenerator and Recorder to metrics.Nop.
func New(opts Options) (*Synchronizer, error) {
	if opts.Remote == nil {
		return nil, fmt.Errorf("synchronizer requires a remote store")
	}
	ids := opts.IDs
	if ids == nil {
		gen, err := flavor.NewIDGenerator()
		if err != nil {
			return nil, err
		}
		ids = gen
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Synchronizer{
		remote: opts.Remote,
		ids:    ids,
		log:    opts.Logger.With().Str("component", "sync").Logger(),
		rec:    rec,
	}, nil
}

// State returns a copy of the current state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Items:               flavor.Clone(s.items),
		Identity:            s.identity,
		Busy:                s.busy,
		Loaded:              s.loaded,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
		LastError:           s.lastErr,
	}
	return st
}

// Items returns a copy of the snapshot.
func (s *Synchronizer) Items() []flavor.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return flavor.Clone(s.items)
}

// Load reads the collection from the remote store and replaces the snapshot
// with the items owned by the current identity, or all items when no identity
// is set. On failure the snapshot is left as it was.
func (s *Synchronizer) Load(ctx context.Context) ([]flavor.Item, error) {
	s.mu.Lock()
	if s.busy.Loading {
		s.mu.Unlock()
		s.rec.RecordOperation("load", metrics.OutcomeBusy)
		return nil, ErrBusy
	}
	s.busy.Loading = true
	gen := s.generation
	identity := s.identity
	s.mu.Unlock()

	started := time.Now()
	items, err := s.remote.List(ctx)
	s.rec.RecordRemoteLatency("load", time.Since(started))

	s.mu.Lock()
	defer s.mu.Unlock()

	// The loading flag of a superseded generation was already reset by the
	// identity change and now belongs to the new generation.
	if gen != s.generation {
		s.log.Debug().Str("identity", identity).Msg("discarding load for previous identity")
		s.rec.RecordOperation("load", metrics.OutcomeStale)
		return nil, ErrStale
	}
	s.busy.Loading = false

	if err != nil {
		s.recordFailure(err)
		s.log.Warn().Err(err).Str("identity", identity).Msg("load failed")
		s.rec.RecordOperation("load", metrics.OutcomeRemoteFail)
		return nil, &FetchError{Err: err}
	}

	s.items = s.scope(items, identity)
	s.loaded = true
	s.recordSuccess()
	s.log.Info().Str("identity", identity).Int("items", len(s.items)).Int("fetched", len(items)).Msg("collection loaded")
	s.rec.RecordOperation("load", metrics.OutcomeSuccess)
	return flavor.Clone(s.items), nil
}

// Add validates rawName against the current snapshot and, when it passes,
// creates the item remotely. The item is appended only after the store
// accepts it. Invalid names never reach the network.
func (s *Synchronizer) Add(ctx context.Context, rawName string) (flavor.Item, error) {
	s.mu.Lock()
	if s.busy.Mutating {
		s.mu.Unlock()
		s.rec.RecordOperation("add", metrics.OutcomeBusy)
		return flavor.Item{}, ErrBusy
	}
	name, err := flavor.Validate(rawName, s.items)
	if err != nil {
		s.mu.Unlock()
		s.log.Debug().Err(err).Msg("add rejected")
		s.rec.RecordOperation("add", metrics.OutcomeInvalid)
		return flavor.Item{}, &AddError{Kind: AddValidation, Err: err}
	}
	owner := s.identity
	if owner == "" {
		owner = flavor.AnonymousOwner
	}
	item := flavor.Item{ID: s.ids.Next(), Name: name, OwnerID: owner}
	s.busy.Mutating = true
	gen := s.generation
	s.mu.Unlock()

	started := time.Now()
	err = s.remote.Create(ctx, item)
	s.rec.RecordRemoteLatency("add", time.Since(started))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy.Mutating = false
	stale := gen != s.generation

	if err != nil {
		if !stale {
			s.recordFailure(err)
		}
		s.log.Warn().Err(err).Str("id", item.ID).Msg("add failed")
		s.rec.RecordOperation("add", metrics.OutcomeRemoteFail)
		return flavor.Item{}, &AddError{Kind: AddRemote, Err: err}
	}

	if stale {
		s.log.Info().Str("id", item.ID).Str("owner", owner).Msg("item created for previous identity")
		s.rec.RecordOperation("add", metrics.OutcomeStale)
		return flavor.Item{}, &StaleAddError{Item: item}
	}
	s.recordSuccess()

	// A load that finished while the create was in flight may already hold
	// this item, or another item with the same name.
	if s.indexOf(item.ID) >= 0 {
		s.rec.RecordOperation("add", metrics.OutcomeSuccess)
		return item, nil
	}
	if _, err := flavor.Validate(item.Name, s.items); err != nil {
		s.log.Warn().Str("id", item.ID).Str("name", item.Name).Msg("created item collides with reloaded snapshot")
		s.rec.RecordOperation("add", metrics.OutcomeInvalid)
		return flavor.Item{}, &AddError{Kind: AddValidation, Err: err}
	}

	s.items = append(s.items, item)
	s.log.Info().Str("id", item.ID).Str("name", item.Name).Msg("item added")
	s.rec.RecordOperation("add", metrics.OutcomeSuccess)
	s.rec.SetSnapshotSize(len(s.items))
	return item, nil
}

// Remove deletes the item with id from the remote store and then from the
// snapshot. Removing an id that is not in the snapshot is not an error.
func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.busy.Mutating {
		s.mu.Unlock()
		s.rec.RecordOperation("remove", metrics.OutcomeBusy)
		return ErrBusy
	}
	s.busy.Mutating = true
	gen := s.generation
	s.mu.Unlock()

	started := time.Now()
	err := s.remote.Delete(ctx, id)
	s.rec.RecordRemoteLatency("remove", time.Since(started))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy.Mutating = false

	// Failure counters belong to the identity that issued the call.
	if err != nil {
		if gen == s.generation {
			s.recordFailure(err)
		}
		s.log.Warn().Err(err).Str("id", id).Msg("remove failed")
		s.rec.RecordOperation("remove", metrics.OutcomeRemoteFail)
		return &RemoveError{ID: id, Err: err}
	}
	if gen == s.generation {
		s.recordSuccess()
	}

	if idx := s.indexOf(id); idx >= 0 {
		next := make([]flavor.Item, 0, len(s.items)-1)
		next = append(next, s.items[:idx]...)
		next = append(next, s.items[idx+1:]...)
		s.items = next
		s.log.Info().Str("id", id).Msg("item removed")
	}
	s.rec.RecordOperation("remove", metrics.OutcomeSuccess)
	s.rec.SetSnapshotSize(len(s.items))
	return nil
}

// SignIn switches to identity, discards the old snapshot and loads a fresh one.
func (s *Synchronizer) SignIn(ctx context.Context, identity string) ([]flavor.Item, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrNoIdentity
	}
	s.mu.Lock()
	s.reset(identity)
	s.mu.Unlock()

	s.log.Info().Str("identity", identity).Msg("signed in")
	return s.Load(ctx)
}

// SignOut clears the identity and the snapshot.
func (s *Synchronizer) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.identity
	s.reset("")
	s.log.Info().Str("identity", prev).Msg("signed out")
}

func (s *Synchronizer) reset(identity string) {
	s.identity = identity
	s.items = nil
	s.loaded = false
	s.generation++
	s.busy.Loading = false
	s.lastErr = nil
	s.failures = 0
	s.rec.SetSnapshotSize(0)
}

// scope keeps the items visible to identity in their original order and
// drops entries that would break id or name uniqueness.
func (s *Synchronizer) scope(items []flavor.Item, identity string) []flavor.Item {
	out := make([]flavor.Item, 0, len(items))
	ids := make(map[string]struct{}, len(items))
	names := make(map[string]struct{}, len(items))
	for _, item := range items {
		if identity != "" && !item.OwnedBy(identity) {
			continue
		}
		norm := flavor.Normalize(item.Name)
		_, dupID := ids[item.ID]
		_, dupName := names[norm]
		if dupID || dupName {
			s.log.Warn().Str("id", item.ID).Str("name", item.Name).Msg("skipping duplicate item from store")
			continue
		}
		ids[item.ID] = struct{}{}
		names[norm] = struct{}{}
		out = append(out, item)
	}
	s.rec.SetSnapshotSize(len(out))
	return out
}

func (s *Synchronizer) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Synchronizer) recordFailure(err error) {
	s.lastErr = err
	s.lastUpdated = time.Now()
	s.failures++
}

func (s *Synchronizer) recordSuccess() {
	s.lastErr = nil
	s.lastUpdated = time.Now()
	s.failures = 0
}

// IsBusy reports whether err is a busy rejection.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
