package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/healthmap/healthmap/internal/models"
)

// Keys under which the session is persisted. Both entries are always
// written and cleared together.
const (
	CredentialsKey = "auth_credentials"
	UserKey        = "current_user"

	// scopesKey lists the scopes holding a session, unscoped
	scopesKey = "session_scopes"
)

// Store persists the session's credentials and resolved user for the
// lifetime of one session scope. Get and GetUser return nil, nil when
// nothing is stored.
type Store interface {
	Put(creds models.Credentials) error
	Get() (*models.Credentials, error)
	Clear() error
	PutUser(user models.AuthUser) error
	GetUser() (*models.AuthUser, error)
	ClearUser() error
}

// StalePruner is implemented by stores shared between session scopes. It
// removes sessions whose owning process has exited.
type StalePruner interface {
	PruneStale() (int, error)
}

// backend is the raw key/value layer under a kvStore
type backend interface {
	load(key string) (string, bool, error)
	save(key, value string) error
	remove(key string) error
}

// kvStore implements Store on top of a backend, JSON-encoding values and
// suffixing every key with the session scope.
type kvStore struct {
	backend backend
	scope   string
	alive   func(scope string) bool
}

func newKVStore(b backend, scope string) *kvStore {
	return &kvStore{backend: b, scope: scope, alive: scopeAlive}
}

func (s *kvStore) key(name string) string {
	if s.scope == "" {
		return name
	}
	return fmt.Sprintf("%s-%s", name, s.scope)
}

func (s *kvStore) Put(creds models.Credentials) error {
	return s.put(CredentialsKey, creds)
}

func (s *kvStore) Get() (*models.Credentials, error) {
	var creds models.Credentials
	found, err := s.get(CredentialsKey, &creds)
	if err != nil || !found {
		return nil, err
	}
	return &creds, nil
}

func (s *kvStore) Clear() error {
	return s.backend.remove(s.key(CredentialsKey))
}

func (s *kvStore) PutUser(user models.AuthUser) error {
	return s.put(UserKey, user)
}

func (s *kvStore) GetUser() (*models.AuthUser, error) {
	var user models.AuthUser
	found, err := s.get(UserKey, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *kvStore) ClearUser() error {
	return s.backend.remove(s.key(UserKey))
}

func (s *kvStore) put(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := s.backend.save(s.key(name), string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return s.register()
}

// register records the scope in the index PruneStale walks
func (s *kvStore) register() error {
	if s.scope == "" {
		return nil
	}
	scopes, err := s.scopes()
	if err != nil {
		return err
	}
	if slices.Contains(scopes, s.scope) {
		return nil
	}
	return s.saveScopes(append(scopes, s.scope))
}

func (s *kvStore) scopes() ([]string, error) {
	raw, found, err := s.backend.load(scopesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load session index: %w", err)
	}
	if !found {
		return nil, nil
	}
	var scopes []string
	if err := json.Unmarshal([]byte(raw), &scopes); err != nil {
		// A corrupt index only costs pruning; start over
		return nil, nil
	}
	return scopes, nil
}

func (s *kvStore) saveScopes(scopes []string) error {
	if len(scopes) == 0 {
		return s.backend.remove(scopesKey)
	}
	data, err := json.Marshal(scopes)
	if err != nil {
		return fmt.Errorf("failed to marshal session index: %w", err)
	}
	if err := s.backend.save(scopesKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session index: %w", err)
	}
	return nil
}

// PruneStale clears the sessions of every other scope whose owning process
// is gone and returns how many were removed.
func (s *kvStore) PruneStale() (int, error) {
	if s.scope == "" {
		return 0, nil
	}
	scopes, err := s.scopes()
	if err != nil {
		return 0, err
	}

	var (
		keep   []string
		errs   []error
		pruned int
	)
	for _, scope := range scopes {
		if scope == s.scope || s.alive(scope) {
			keep = append(keep, scope)
			continue
		}
		if err := clearSession(newKVStore(s.backend, scope)); err != nil {
			errs = append(errs, err)
			keep = append(keep, scope)
			continue
		}
		pruned++
	}
	if pruned > 0 {
		errs = append(errs, s.saveScopes(keep))
	}
	return pruned, errors.Join(errs...)
}

func (s *kvStore) get(name string, v any) (bool, error) {
	raw, found, err := s.backend.load(s.key(name))
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}

// clearSession removes both entries; a failure on one does not skip the other
func clearSession(store Store) error {
	return errors.Join(store.Clear(), store.ClearUser())
}
