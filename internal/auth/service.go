// Package auth is the client-side session: it signs users in with HTTP Basic
// credentials, infers their role from which endpoints accept them, keeps the
// result for the session and attaches it to every API request.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/models"
)

// API is the part of the backend the session needs
type API interface {
	// Login probes the credentials; any 2xx means they are valid
	Login(ctx context.Context, creds models.Credentials) error
	// ListMembers fetches the members-only roster
	ListMembers(ctx context.Context) ([]models.Member, error)
}

// Service owns the signed-in session
type Service struct {
	store  Store
	state  *State
	api    API
	nav    Navigator
	logger zerolog.Logger
	strict bool

	mu    sync.Mutex
	basis RoleBasis
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger used for session events
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStrictRoleInference makes a 403 on the roster fail with AmbiguousRole
// instead of concluding the user is an admin.
func WithStrictRoleInference(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// NewService builds the session and rehydrates it from store. A stored pair
// is trusted as-is; a lone entry is discarded. Stores implementing
// StalePruner first drop the sessions of terminals that have exited.
func NewService(store Store, state *State, api API, nav Navigator, opts ...Option) *Service {
	s := &Service{
		store:  store,
		state:  state,
		api:    api,
		nav:    nav,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Service) restore() {
	if pruner, ok := s.store.(StalePruner); ok {
		pruned, err := pruner.PruneStale()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to prune stale sessions")
		}
		if pruned > 0 {
			s.logger.Debug().Int("count", pruned).Msg("Pruned sessions of closed terminals")
		}
	}

	creds, err := s.store.Get()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read stored credentials")
	}
	user, err := s.store.GetUser()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read stored user")
	}

	switch {
	case creds != nil && user != nil:
		s.state.Set(user)
		s.setBasis(BasisStored)
		s.logger.Debug().Str("email", user.Email).Str("role", string(user.Role)).Msg("Session restored")
	case creds != nil || user != nil:
		if err := clearSession(s.store); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to discard incomplete session")
		}
		s.state.Set(nil)
	default:
		s.state.Set(nil)
	}
}

// Login validates the credentials against the login endpoint. On success the
// session is established with a provisional MEMBER identity; call
// LoadUserProfile next to resolve the real role.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (*models.AuthUser, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return nil, apperr.New(apperr.KindBadRequest, "Email et mot de passe requis")
	}

	if err := s.api.Login(ctx, creds); err != nil {
		s.logger.Warn().Err(err).Str("email", creds.Email).Msg("Login failed")
		return nil, err
	}

	user := provisionalUser(creds.Email)
	if err := s.store.Put(creds); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}
	if err := s.store.PutUser(user); err != nil {
		_ = clearSession(s.store)
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	s.state.Set(&user)
	s.setBasis(BasisProvisional)

	s.logger.Info().Str("email", creds.Email).Msg("User logged in")
	return &user, nil
}

// LoadUserProfile resolves the signed-in user's role and identity from the
// member roster (see ResolveRole) and persists the result. Nothing is
// changed when the roster fails for any reason other than 403.
func (s *Service) LoadUserProfile(ctx context.Context) (*models.AuthUser, error) {
	creds, err := s.store.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read stored credentials: %w", err)
	}
	if creds == nil {
		return nil, apperr.NewNoStoredCredentials()
	}

	roster, rosterErr := s.api.ListMembers(ctx)
	decision, err := ResolveRole(creds.Email, roster, rosterErr, s.strict)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", creds.Email).Msg("Failed to resolve user role")
		return nil, err
	}

	if decision.Matches > 1 {
		s.logger.Warn().
			Str("email", creds.Email).
			Int("matches", decision.Matches).
			Msg("Several roster entries share this email, using the first")
	}
	if decision.Basis == BasisRosterForbidden {
		s.logger.Warn().Str("email", creds.Email).Msg("Member roster denied, assuming admin role")
	}

	user := decision.User
	if err := s.store.PutUser(user); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	s.state.Set(&user)
	s.setBasis(decision.Basis)

	s.logger.Info().
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Str("basis", decision.Basis.String()).
		Msg("User profile loaded")
	return &user, nil
}

// SignIn is Login followed by LoadUserProfile. A sign-in whose role cannot
// be resolved is rolled back, so the session is either complete or absent.
func (s *Service) SignIn(ctx context.Context, creds models.Credentials) (*models.AuthUser, error) {
	if _, err := s.Login(ctx, creds); err != nil {
		return nil, err
	}
	user, err := s.LoadUserProfile(ctx)
	if err != nil {
		if clearErr := clearSession(s.store); clearErr != nil {
			s.logger.Warn().Err(clearErr).Msg("Failed to roll back sign-in")
		}
		s.state.Set(nil)
		s.setBasis(BasisStored)
		return nil, err
	}
	return user, nil
}

// Logout forgets the session and returns to the login view, flagged with
// SignedOutParam so the view can tell a sign-out from an expired session.
func (s *Service) Logout() error {
	err := clearSession(s.store)
	s.state.Set(nil)
	s.setBasis(BasisStored)
	s.nav.Navigate(RouteLogin, url.Values{SignedOutParam: {"true"}})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// State exposes the observable session
func (s *Service) State() *State {
	return s.state
}

func (s *Service) IsAuthenticated() bool {
	return s.state.Snapshot().Authenticated
}

// CurrentUser returns a copy of the signed-in user, or nil
func (s *Service) CurrentUser() *models.AuthUser {
	return s.state.Snapshot().User
}

func (s *Service) HasRole(role models.Role) bool {
	user := s.CurrentUser()
	return user != nil && user.Role == role
}

func (s *Service) IsAdmin() bool {
	return s.HasRole(models.RoleAdmin)
}

func (s *Service) IsMember() bool {
	return s.HasRole(models.RoleMember)
}

// CanModifyStructure applies the ownership rule to the signed-in user
func (s *Service) CanModifyStructure(structureID int64) bool {
	return CanModifyStructure(s.CurrentUser(), structureID)
}

// StoredCredentials returns the persisted credentials, or nil
func (s *Service) StoredCredentials() (*models.Credentials, error) {
	return s.store.Get()
}

// RoleBasis tells how the current role was established. Without a session
// it is BasisStored, whoever ended it.
func (s *Service) RoleBasis() RoleBasis {
	if !s.IsAuthenticated() {
		return BasisStored
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basis
}

func (s *Service) setBasis(b RoleBasis) {
	s.mu.Lock()
	s.basis = b
	s.mu.Unlock()
}
