package session

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"go-inventory-checklist/pkg/apiclient"
	"go-inventory-checklist/pkg/identity"
)

// AuthClient is the identity surface the syncer drives; *identity.Client implements it.
type AuthClient interface {
	User(ctx context.Context) (*identity.User, error)
	Session(ctx context.Context) (*identity.Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(cb func(identity.AuthEvent, *identity.Session)) *identity.Subscription
}

// UserSyncer pushes a provider user to the application API; *apiclient.Client implements it.
type UserSyncer interface {
	SyncUser(ctx context.Context, token string, user *identity.User) (*apiclient.LocalUser, error)
}

type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseSyncing
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseSyncing:
		return "syncing"
	case PhaseReady:
		return "ready"
	}
	return "unknown"
}

// State is a snapshot of the syncer. User is set only in PhaseReady after a
// successful sync.
type State struct {
	Phase Phase
	User  *apiclient.LocalUser
}

func (s State) Loading() bool {
	return s.Phase != PhaseReady
}

func (s State) Authenticated() bool {
	return s.Phase == PhaseReady && s.User != nil
}

// Syncer keeps the application user in step with the identity session.
type Syncer struct {
	auth   AuthClient
	api    UserSyncer
	logger zerolog.Logger

	flight singleflight.Group

	mu  sync.Mutex
	ctx context.Context
	// epoch counts sign-outs; a sync that started in an older epoch is dropped
	epoch     uint64
	state     State
	closed    bool
	sub       *identity.Subscription
	listeners map[int]func(State)
	nextID    int
}

func New(auth AuthClient, api UserSyncer, logger zerolog.Logger) *Syncer {
	return &Syncer{
		auth:      auth,
		api:       api,
		logger:    logger.With().Str("component", "session").Logger(),
		ctx:       context.Background(),
		listeners: make(map[int]func(State)),
	}
}

// Start subscribes to auth events and runs the initial check. It blocks until
// the initial check settles and returns the resulting state.
func (s *Syncer) Start(ctx context.Context) State {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	sub := s.auth.OnAuthStateChange(s.handleEvent)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return s.State()
	}
	s.sub = sub
	s.mu.Unlock()

	s.initialCheck(ctx)
	return s.State()
}

func (s *Syncer) initialCheck(ctx context.Context) {
	user, err := s.auth.User(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidRefreshToken) {
			s.logger.Info().Msg("stale refresh token, signing out")
			s.forceSignOut(ctx)
		} else {
			s.logger.Warn().Err(err).Msg("user lookup failed")
		}
		s.setState(State{Phase: PhaseReady})
		return
	}
	if user == nil {
		s.setState(State{Phase: PhaseReady})
		return
	}
	s.sync(ctx, user)
}

// sync collapses concurrent syncs of one identity within one session into a
// single call.
func (s *Syncer) sync(ctx context.Context, user *identity.User) {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	s.flight.Do(strconv.FormatUint(epoch, 10)+":"+user.ID, func() (interface{}, error) {
		s.runSync(ctx, epoch, user)
		return nil, nil
	})
}

func (s *Syncer) runSync(ctx context.Context, epoch uint64, user *identity.User) {
	if !s.setStateIn(epoch, State{Phase: PhaseSyncing}) {
		return
	}

	sess, err := s.auth.Session(ctx)
	if err != nil || sess == nil || sess.AccessToken == "" {
		s.logger.Warn().Err(err).Msg("no usable session for sync, signing out")
		s.forceSignOut(ctx)
		s.setState(State{Phase: PhaseReady})
		return
	}

	local, err := s.api.SyncUser(ctx, sess.AccessToken, user)
	switch {
	case err == nil:
		if !s.setStateIn(epoch, State{Phase: PhaseReady, User: local}) {
			s.logger.Info().Msg("signed out while syncing, dropping user")
			return
		}
		s.logger.Info().Str("user_id", local.ID.String()).Str("role", local.Role).Msg("user synced")
	case apiclient.IsUnauthorized(err):
		s.logger.Warn().Msg("sync rejected the token, signing out")
		s.forceSignOut(ctx)
		s.setState(State{Phase: PhaseReady})
	default:
		s.logger.Error().Err(err).Msg("user sync failed")
		s.setState(State{Phase: PhaseReady})
	}
}

func (s *Syncer) handleEvent(event identity.AuthEvent, sess *identity.Session) {
	s.mu.Lock()
	closed, ctx := s.closed, s.ctx
	s.mu.Unlock()
	if closed {
		return
	}

	switch event {
	case identity.EventSignedIn:
		if sess == nil {
			return
		}
		user := sess.User
		go s.sync(ctx, &user)
	case identity.EventSignedOut:
		s.endSession()
	case identity.EventTokenRefreshed:
		s.logger.Debug().Msg("token refreshed")
	}
}

func (s *Syncer) forceSignOut(ctx context.Context) {
	if err := s.auth.SignOut(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("forced sign-out failed")
	}
}

// SignOut signs out through the identity client and returns its error. The
// syncer ends up anonymous either way.
func (s *Syncer) SignOut(ctx context.Context) error {
	s.endSession()
	return s.auth.SignOut(ctx)
}

func (s *Syncer) endSession() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	s.setState(State{Phase: PhaseReady})
}

func (s *Syncer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn for every state change. The returned func removes it.
func (s *Syncer) OnChange(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Syncer) setState(st State) {
	s.mu.Lock()
	s.apply(st)
}

// setStateIn applies st only while no sign-out happened since epoch.
func (s *Syncer) setStateIn(epoch uint64, st State) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	s.apply(st)
	return true
}

// apply is called with s.mu held and releases it.
func (s *Syncer) apply(st State) {
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = st
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Close stops event handling. Calls already in flight run to completion but
// their results are dropped.
func (s *Syncer) Close() {
	s.mu.Lock()
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}
