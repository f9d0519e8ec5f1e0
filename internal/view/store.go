// Package view holds the per-view client caches. Each Store keeps a full
// snapshot of one partition and reloads it wholesale whenever another view
// or another process reports a change.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/taskly/internal/ctxutil"
	"github.com/example/taskly/internal/eventbus"
	"github.com/example/taskly/internal/ports/primary"
)

// Loader reads the three collections a view caches.
type Loader interface {
	Items(ctx context.Context, isTutorial bool) ([]*primary.BacklogItem, error)
	CurrentSprint(ctx context.Context, isTutorial bool) (*primary.Sprint, error)
	ArchivedSprints(ctx context.Context, isTutorial bool) ([]*primary.Sprint, error)
}

// Snapshot is the cached state of one view.
type Snapshot struct {
	Items           []*primary.BacklogItem
	CurrentSprint   *primary.Sprint
	ArchivedSprints []*primary.Sprint
	LoadedAt        time.Time
}

// Store is the explicit state of one view.
type Store struct {
	name       string
	origin     string
	isTutorial bool
	loader     Loader
	bus        *eventbus.Bus
	logger     *slog.Logger

	typedBroadcast bool
	typedApply     bool

	mu     sync.RWMutex
	snap   Snapshot
	tokens []eventbus.Token
}

// Option configures a Store.
type Option func(*Store)

// WithTypedBroadcast makes Mutate also publish the reloaded collections on
// the typed topics.
func WithTypedBroadcast() Option {
	return func(s *Store) { s.typedBroadcast = true }
}

// WithTypedApply makes an attached store replace collections straight from
// typed broadcasts instead of re-reading the store.
func WithTypedApply() Option {
	return func(s *Store) { s.typedApply = true }
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a view store for one partition.
func NewStore(name string, isTutorial bool, loader Loader, bus *eventbus.Bus, opts ...Option) *Store {
	s := &Store{
		name:       name,
		origin:     name + "-" + uuid.NewString(),
		isTutorial: isTutorial,
		loader:     loader,
		bus:        bus,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("view", name)
	return s
}

// Name returns the view name.
func (s *Store) Name() string { return s.name }

// Origin returns the id this store stamps on its broadcasts.
func (s *Store) Origin() string { return s.origin }

// IsTutorial reports the store's partition.
func (s *Store) IsTutorial() bool { return s.isTutorial }

// Snapshot returns the cached state. Slices are copied; the items they point
// to must be treated as read-only.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snap)
}

// Reload re-reads all three collections concurrently and replaces the cache.
// On error the previous cache is kept.
func (s *Store) Reload(ctx context.Context) error {
	var next Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.loader.Items(gctx, s.isTutorial)
		if err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}
		next.Items = items
		return nil
	})
	g.Go(func() error {
		current, err := s.loader.CurrentSprint(gctx, s.isTutorial)
		if err != nil {
			return fmt.Errorf("failed to load current sprint: %w", err)
		}
		next.CurrentSprint = current
		return nil
	})
	g.Go(func() error {
		archived, err := s.loader.ArchivedSprints(gctx, s.isTutorial)
		if err != nil {
			return fmt.Errorf("failed to load archived sprints: %w", err)
		}
		next.ArchivedSprints = archived
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	next.LoadedAt = time.Now()
	s.replace(func(snap *Snapshot) { *snap = next })
	s.logger.DebugContext(ctx, "view reloaded",
		"items", len(next.Items), "archived", len(next.ArchivedSprints), "has_sprint", next.CurrentSprint != nil)
	return nil
}

// Mutate runs fn, reloads this store, then broadcasts the change. Nothing is
// reloaded or broadcast when fn fails.
func (s *Store) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx = ctxutil.WithOrigin(ctx, s.name)
	if err := fn(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Refresh reloads this store and broadcasts the result as if it had made the
// change itself. Watchers use it to fan a change written by another process
// out to every attached view with a single read.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	s.broadcast(ctx)
	return nil
}

func (s *Store) broadcast(ctx context.Context) {
	s.bus.Publish(ctx, eventbus.TopicDataChanged, eventbus.Event{
		Origin:     s.origin,
		IsTutorial: s.isTutorial,
		Payload:    typedMarker(s.typedBroadcast),
	})
	if !s.typedBroadcast {
		return
	}
	snap := s.Snapshot()
	s.publishTyped(ctx, eventbus.TopicItemsChanged, snap.Items)
	s.publishTyped(ctx, eventbus.TopicCurrentSprintChanged, snap.CurrentSprint)
	s.publishTyped(ctx, eventbus.TopicArchivedSprintsChanged, snap.ArchivedSprints)
}

// Attach subscribes the store to change broadcasts. Calling it twice is a no-op.
func (s *Store) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) > 0 {
		return
	}

	s.tokens = append(s.tokens, s.bus.Subscribe(eventbus.TopicDataChanged, s.onDataChanged))
	if s.typedApply {
		s.tokens = append(s.tokens,
			s.bus.Subscribe(eventbus.TopicItemsChanged, s.onTyped),
			s.bus.Subscribe(eventbus.TopicCurrentSprintChanged, s.onTyped),
			s.bus.Subscribe(eventbus.TopicArchivedSprintsChanged, s.onTyped),
		)
	}
}

// Detach removes the store's subscriptions.
func (s *Store) Detach() {
	s.mu.Lock()
	tokens := s.tokens
	s.tokens = nil
	s.mu.Unlock()

	for _, token := range tokens {
		s.bus.Unsubscribe(token)
	}
}

func (s *Store) relevant(event eventbus.Event) bool {
	return event.Origin != s.origin && event.IsTutorial == s.isTutorial
}

func (s *Store) onDataChanged(ctx context.Context, event eventbus.Event) error {
	if !s.relevant(event) {
		return nil
	}
	// a typed sender follows up with the collections themselves
	if s.typedApply && event.Origin != eventbus.OriginStore && s.senderIsTyped(event) {
		return nil
	}
	if err := s.Reload(ctx); err != nil {
		return fmt.Errorf("view %s failed to reload: %w", s.name, err)
	}
	return nil
}

// senderIsTyped is true when the data.changed event was tagged by a store
// built WithTypedBroadcast.
func (s *Store) senderIsTyped(event eventbus.Event) bool {
	typed, _ := event.Payload.(typedMarker)
	return bool(typed)
}

type typedMarker bool

func (s *Store) onTyped(ctx context.Context, event eventbus.Event) error {
	if !s.relevant(event) {
		return nil
	}
	switch payload := event.Payload.(type) {
	case []*primary.BacklogItem:
		s.replace(func(snap *Snapshot) { snap.Items = payload })
	case *primary.Sprint:
		s.replace(func(snap *Snapshot) { snap.CurrentSprint = payload })
	case []*primary.Sprint:
		s.replace(func(snap *Snapshot) { snap.ArchivedSprints = payload })
	default:
		return fmt.Errorf("unexpected payload %T on %s", event.Payload, event.Topic)
	}
	s.logger.DebugContext(ctx, "applied typed broadcast", "topic", event.Topic, "from", event.Origin)
	return nil
}

func (s *Store) publishTyped(ctx context.Context, topic eventbus.Topic, payload any) {
	s.bus.Publish(ctx, topic, eventbus.Event{Origin: s.origin, IsTutorial: s.isTutorial, Payload: payload})
}

func (s *Store) replace(update func(snap *Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.snap)
}

func copySnapshot(in Snapshot) Snapshot {
	out := in
	out.Items = append([]*primary.BacklogItem(nil), in.Items...)
	out.ArchivedSprints = append([]*primary.Sprint(nil), in.ArchivedSprints...)
	return out
}
