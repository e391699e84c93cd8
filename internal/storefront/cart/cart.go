// Package cart owns the storefront cart: product quantities mutated locally
// first and pushed to the API in the background.
package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/storefront/notify"
	"github.com/spec-kit/grocery-storefront/internal/storefront/session"
)

// Gateway is the subset of the API the cart needs.
type Gateway interface {
	GetCart(ctx context.Context, token string) (domain.CartSnapshot, error)
	UpdateCart(ctx context.Context, token string, snap domain.CartSnapshot) error
}

// SessionSource is what the cart needs from the session store.
type SessionSource interface {
	State() session.State
	Subscribe(session.Listener) func()
}

// Listener observes cart changes, one call at a time in commit order. It
// must not mutate the cart.
type Listener func(domain.CartSnapshot)

// Store is the single owner of the cart mapping. Mutations never wait on
// the network; while a token is bound, each one marks the cart dirty and
// the sync worker pushes the latest snapshot.
type Store struct {
	gateway          Gateway
	notifier         notify.Notifier
	logger           *zap.Logger
	timeout          time.Duration
	failureThreshold int

	mu         sync.Mutex
	items      domain.CartSnapshot
	token      string
	generation uint64
	version    uint64
	sync       syncState

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	deliverMu sync.Mutex
	delivered uint64

	unsubscribe func()
	wake        chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier routes the persistent-failure warning to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the logger for swallowed sync failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSyncTimeout bounds each remote call.
func WithSyncTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithFailureThreshold sets how many consecutive sync failures trigger a
// warning notice. Zero disables the warning.
func WithFailureThreshold(n int) Option {
	return func(s *Store) { s.failureThreshold = n }
}

// New builds an empty cart, starts its sync worker and, when sessions is
// non-nil, binds the cart to the session token.
func New(gw Gateway, sessions SessionSource, opts ...Option) *Store {
	s := &Store{
		gateway:          gw,
		notifier:         notify.Discard,
		logger:           zap.NewNop(),
		timeout:          10 * time.Second,
		failureThreshold: 3,
		items:            domain.CartSnapshot{},
		listeners:        make(map[int]Listener),
		wake:             make(chan struct{}, 1),
		done:             make(chan struct{}),
		stopped:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sync.idle = closedChan()

	go s.run()

	if sessions != nil {
		s.unsubscribe = sessions.Subscribe(func(st session.State) { s.BindToken(st.Token) })
		s.BindToken(sessions.State().Token)
	}
	return s
}

// Add increments id by one.
func (s *Store) Add(id string) {
	s.mutate(func(items domain.CartSnapshot) {
		items[id]++
	})
}

// Remove decrements id by one, deleting it at zero. Absent ids are left alone.
func (s *Store) Remove(id string) {
	s.mutate(func(items domain.CartSnapshot) {
		qty, ok := items[id]
		if !ok {
			return
		}
		if qty > 1 {
			items[id] = qty - 1
			return
		}
		delete(items, id)
	})
}

// Clear deletes id regardless of quantity.
func (s *Store) Clear(id string) {
	s.mutate(func(items domain.CartSnapshot) {
		delete(items, id)
	})
}

// ReplaceAll swaps in snap wholesale without syncing. Non-positive
// quantities are dropped. snap is taken to match the remote cart, so
// pending replays are dropped too.
func (s *Store) ReplaceAll(snap domain.CartSnapshot) {
	s.mu.Lock()
	s.items = snap.Clone()
	if s.token != "" {
		s.sync.loaded = true
		s.sync.stale = false
		s.sync.replay = nil
	}
	c := s.changeLocked()
	s.mu.Unlock()
	s.publish(c)
}

// Items returns a copy of the mapping.
func (s *Store) Items() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// Quantity returns the quantity held for id.
func (s *Store) Quantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

// Count sums all quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Count()
}

// Subscribe registers l for every subsequent change.
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// BindToken follows a session token change. A new token discards the local
// cart and queues a load of the remote one; mutations made before that load
// succeeds are replayed on top of it. An empty token resets the cart.
func (s *Store) BindToken(token string) {
	s.mu.Lock()
	if token == s.token {
		s.mu.Unlock()
		return
	}
	s.token = token
	s.generation++
	s.items = domain.CartSnapshot{}
	s.sync.resetLocked(token != "")
	if s.sync.load {
		s.markBusyLocked()
	}
	c := s.changeLocked()
	s.mu.Unlock()

	s.signal()
	s.publish(c)
}

// Flush blocks until queued sync work has finished or ctx is done.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	idle := s.sync.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops following the session and stops the sync worker. Queued
// work that has not started is dropped; call Flush first to keep it.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.done)
		<-s.stopped
	})
}

func (s *Store) mutate(apply func(domain.CartSnapshot)) {
	s.mu.Lock()
	apply(s.items)
	if s.token != "" {
		s.sync.recordLocked(apply)
		s.markBusyLocked()
	}
	c := s.changeLocked()
	s.mu.Unlock()

	s.signal()
	s.publish(c)
}

// change is a snapshot taken under mu, numbered in commit order.
type change struct {
	version  uint64
	snapshot domain.CartSnapshot
}

func (s *Store) changeLocked() change {
	s.version++
	return change{version: s.version, snapshot: s.items.Clone()}
}

// publish delivers c unless a later change has already been delivered.
func (s *Store) publish(c change) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if c.version <= s.delivered {
		return
	}
	s.delivered = c.version

	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(c.snapshot)
	}
}
