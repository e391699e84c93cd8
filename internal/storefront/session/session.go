// Package session owns the storefront's notion of who is signed in.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/api/dto"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/storefront/gateway"
	"github.com/spec-kit/grocery-storefront/internal/storefront/notify"
	"github.com/spec-kit/grocery-storefront/internal/storefront/tokenstore"
)

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

var (
	ErrNotAuthenticated = errors.New("login required")
	ErrForbidden        = errors.New("access denied")
	ErrSessionLoading   = errors.New("session still loading")

	errMissingToken = errors.New("auth response carried no token")
)

// AuthError is a failed login, signup or profile update. Message is fit
// for display.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError lists fields that must be filled before a request is sent.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Gateway is the subset of the API the session needs.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*dto.AuthResponse, error)
	Signup(ctx context.Context, name, email, password string) (*dto.AuthResponse, error)
	FetchProfile(ctx context.Context, token string) (*domain.User, error)
	UpdateAddress(ctx context.Context, token string, addr domain.Address) error
}

// State is a read-only view of the session.
type State struct {
	Token   string
	User    *domain.User
	Loading bool
	Phase   Phase
}

// Authenticated reports whether a token is present.
func (s State) Authenticated() bool {
	return s.Token != ""
}

// Listener observes session changes. Listeners are called one at a time,
// in the order the changes happened, and must not call back into the
// Store's mutating methods.
type Listener func(State)

// Store is the single owner of the session token and profile.
// User is never set while Token is empty.
type Store struct {
	gateway  Gateway
	tokens   tokenstore.Store
	notifier notify.Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	token      string
	user       *domain.User
	phase      Phase
	generation uint64
	version    uint64

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	deliverMu sync.Mutex
	delivered uint64
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier routes user-visible notices to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the logger for swallowed failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New builds an uninitialized store. Call Init before use.
func New(gw Gateway, tokens tokenstore.Store, opts ...Option) *Store {
	s := &Store{
		gateway:   gw,
		tokens:    tokens,
		notifier:  notify.Discard,
		logger:    zap.NewNop(),
		phase:     PhaseUninitialized,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores the persisted token and resolves it to a profile. A token
// that fails to resolve is treated as invalid and cleared; Init only
// returns an error when the token store itself cannot be read.
func (s *Store) Init(ctx context.Context) error {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.set(func() { s.phase = PhaseAnonymous })
		return err
	}
	if token == "" {
		s.set(func() { s.phase = PhaseAnonymous })
		return nil
	}

	var gen uint64
	s.set(func() {
		s.token = token
		s.user = nil
		s.phase = PhaseLoading
		s.generation++
		gen = s.generation
	})

	user, err := s.gateway.FetchProfile(ctx, token)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.token = ""
		s.user = nil
		s.phase = PhaseAnonymous
		s.generation++
		c := s.changeLocked()
		s.mu.Unlock()

		s.logger.Info("stored session invalid", zap.Error(err))
		if delErr := s.tokens.Delete(ctx); delErr != nil {
			s.logger.Warn("failed to delete persisted token", zap.Error(delErr))
		}
		s.publish(c)
		return nil
	}
	s.user = user
	s.phase = PhaseAuthenticated
	c := s.changeLocked()
	s.mu.Unlock()
	s.publish(c)
	return nil
}

// Login authenticates and, on success, replaces the current session.
// On failure the session is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.gateway.Login(ctx, email, password)
	if err == nil {
		err = s.establish(ctx, resp)
	}
	if err != nil {
		return s.authFailed(err, "Login failed")
	}
	notify.Success(s.notifier, "Login Successful!")
	return nil
}

// Signup creates an account and signs into it.
func (s *Store) Signup(ctx context.Context, name, email, password string) error {
	resp, err := s.gateway.Signup(ctx, name, email, password)
	if err == nil {
		err = s.establish(ctx, resp)
	}
	if err != nil {
		return s.authFailed(err, "Signup failed")
	}
	notify.Success(s.notifier, "Account Created Successfully!")
	return nil
}

// Logout clears the session locally without contacting the API.
// notifyUser=false suppresses the confirmation notice.
func (s *Store) Logout(notifyUser bool) {
	s.set(func() {
		s.token = ""
		s.user = nil
		s.phase = PhaseAnonymous
		s.generation++
	})
	if err := s.tokens.Delete(context.Background()); err != nil {
		s.logger.Warn("failed to delete persisted token", zap.Error(err))
	}
	if notifyUser {
		notify.Success(s.notifier, "Logout Successfully")
	}
}

// UpdateAddress validates addr and saves it to the profile.
func (s *Store) UpdateAddress(ctx context.Context, addr domain.Address) error {
	token := s.Token()
	if token == "" {
		notify.Error(s.notifier, "Please login first")
		return ErrNotAuthenticated
	}
	if missing := addr.MissingFields(); len(missing) > 0 {
		notify.Error(s.notifier, "Please fill in all required fields")
		return &ValidationError{Fields: missing}
	}

	if err := s.gateway.UpdateAddress(ctx, token, addr); err != nil {
		msg := gateway.MessageOf(err, "Failed to save address")
		notify.Error(s.notifier, msg)
		return &AuthError{Message: msg, Err: err}
	}

	updated := false
	s.set(func() {
		if s.token != token || s.user == nil {
			return
		}
		u := *s.user
		a := addr
		u.Address = &a
		s.user = &u
		updated = true
	})
	if !updated {
		s.logger.Debug("session changed during address update")
	}
	notify.Success(s.notifier, "Address saved successfully!")
	return nil
}

// Authorize is the single role gate for restricted areas.
func (s *Store) Authorize(required domain.Role) error {
	st := s.State()
	switch {
	case st.Loading:
		return ErrSessionLoading
	case !st.Authenticated() || st.User == nil:
		return ErrNotAuthenticated
	case !st.User.Role.Allows(required):
		return ErrForbidden
	}
	return nil
}

// Token returns the current token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns a copy of the current profile, or nil.
func (s *Store) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.user)
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe registers l for every subsequent change. The returned func
// unregisters it.
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

// establish installs a fresh session. A response without a token is
// refused so that a user is never recorded without one.
func (s *Store) establish(ctx context.Context, resp *dto.AuthResponse) error {
	if resp == nil || resp.Token == "" {
		return errMissingToken
	}
	user := resp.User
	s.set(func() {
		s.token = resp.Token
		s.user = &user
		s.phase = PhaseAuthenticated
		s.generation++
	})
	if err := s.tokens.Save(ctx, resp.Token); err != nil {
		s.logger.Warn("failed to persist token", zap.Error(err))
	}
	return nil
}

func (s *Store) authFailed(err error, fallback string) error {
	msg := gateway.MessageOf(err, fallback)
	s.logger.Debug("authentication failed", zap.Error(err))
	notify.Error(s.notifier, msg)
	return &AuthError{Message: msg, Err: err}
}

// change is a state snapshot taken under mu, numbered in commit order.
type change struct {
	version uint64
	state   State
}

func (s *Store) changeLocked() change {
	s.version++
	return change{version: s.version, state: s.stateLocked()}
}

// set applies mutate under the lock and then notifies listeners.
func (s *Store) set(mutate func()) {
	s.mu.Lock()
	mutate()
	c := s.changeLocked()
	s.mu.Unlock()
	s.publish(c)
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
		l(c.state)
	}
}

func (s *Store) stateLocked() State {
	return State{
		Token:   s.token,
		User:    copyUser(s.user),
		Loading: s.phase == PhaseLoading || s.phase == PhaseUninitialized,
		Phase:   s.phase,
	}
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Address != nil {
		a := *u.Address
		c.Address = &a
	}
	return &c
}
