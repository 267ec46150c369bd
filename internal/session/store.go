// Package session owns the signed-in identity. The Store mirrors tokens and the user record
// to persisted storage and is the only place that decides whether the client is signed in.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"

	"event-management/client/internal/gateway"
	"event-management/client/internal/security"
	"event-management/client/internal/session/domain"
	"event-management/client/internal/storage"
	"event-management/client/internal/telemetry"
	userdomain "event-management/client/internal/user/domain"
)

// API endpoints the store calls.
const (
	PathLogin    = "/auth/login/"
	PathRegister = "/auth/register/"
	PathLogout   = "/auth/logout/"
	PathProfile  = "/auth/profile/"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// AuthError is a failed login or registration carrying the message to show the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// API is the subset of the gateway the store calls.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
}

// Store holds the current session. It implements gateway.Listener.
type Store struct {
	api     API
	repo    storage.Repository
	emitter telemetry.EventEmitter

	mu  sync.RWMutex
	cur domain.Session

	subsMu  sync.Mutex
	subs    map[int]func(domain.Session)
	nextSub int
}

var _ gateway.Listener = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithEmitter sends lifecycle events to e.
func WithEmitter(e telemetry.EventEmitter) Option {
	return func(s *Store) { s.emitter = e }
}

// NewStore returns an empty store. Call Restore to load a persisted session.
func NewStore(api API, repo storage.Repository, opts ...Option) *Store {
	s := &Store{api: api, repo: repo, subs: make(map[int]func(domain.Session))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *userdomain.User {
	return s.Snapshot().User
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.IsAuthenticated()
}

// Subscribe calls fn with the new session after every change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()
	s.subsMu.Lock()
	fns := make([]func(domain.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(snap.Clone())
	}
}

func (s *Store) emit(ctx context.Context, eventType string, user *userdomain.User, attrs map[string]string) {
	uid := ""
	if user != nil {
		uid = strconv.Itoa(user.ID)
	}
	ev := telemetry.NewEvent(eventType, uid)
	ev.Attributes = attrs
	telemetry.EmitAsync(s.emitter, ctx, ev)
}

// Restore loads the persisted session. It succeeds only when both the access token and a
// user record with an id are stored; anything else clears all session keys.
func (s *Store) Restore(ctx context.Context) error {
	access, okAccess := s.read(ctx, storage.KeyAccessToken)
	rawUser, okUser := s.read(ctx, storage.KeyUser)
	refresh, _ := s.read(ctx, storage.KeyRefreshToken)

	if user := parseUser(rawUser); okAccess && user != nil {
		s.mu.Lock()
		s.cur = domain.Session{User: user, AccessToken: access, RefreshToken: refresh}
		s.mu.Unlock()
		s.notify()
		return nil
	}

	s.mu.Lock()
	err := s.repo.Delete(ctx, storage.SessionKeys...)
	s.cur = domain.Session{}
	s.mu.Unlock()
	s.notify()
	if okAccess || okUser || refresh != "" {
		s.emit(ctx, telemetry.EventRestoreCleared, nil, nil)
	}
	if err != nil {
		return fmt.Errorf("session: clear storage: %w", err)
	}
	return nil
}

// parseUser decodes a persisted user record. null, an empty object and a record without an
// id are rejected like malformed JSON.
func parseUser(raw string) *userdomain.User {
	var user *userdomain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user == nil || user.ID == 0 {
		return nil
	}
	return user
}

// read returns a stored value. Read errors count as absent.
func (s *Store) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		log.Printf("session: read %s: %v", key, err)
		return "", false
	}
	return v, ok && v != ""
}

// Login exchanges credentials for tokens and persists the session.
func (s *Store) Login(ctx context.Context, email, password string) (*userdomain.User, error) {
	var resp userdomain.AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.api.Post(ctx, PathLogin, body, &resp); err != nil {
		s.emit(ctx, telemetry.EventLoginFailed, nil, nil)
		return nil, &AuthError{Message: messageFrom(err, "Login failed", "error", "message"), Err: err}
	}
	if err := s.establish(ctx, &resp); err != nil {
		return nil, &AuthError{Message: "Login failed", Err: err}
	}
	s.emit(ctx, telemetry.EventLogin, resp.User, nil)
	return s.User(), nil
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, in userdomain.RegisterInput) (*userdomain.User, error) {
	var resp userdomain.AuthResponse
	if err := s.api.Post(ctx, PathRegister, in.Request(), &resp); err != nil {
		msg := messageFrom(err, "Registration failed", "password", "email", "username", "message")
		return nil, &AuthError{Message: msg, Err: err}
	}
	if err := s.establish(ctx, &resp); err != nil {
		return nil, &AuthError{Message: "Registration failed", Err: err}
	}
	s.emit(ctx, telemetry.EventRegister, resp.User, nil)
	return s.User(), nil
}

// establish persists resp and makes it the current session. A partial write is rolled back.
func (s *Store) establish(ctx context.Context, resp *userdomain.AuthResponse) error {
	if err := resp.Validate(); err != nil {
		return err
	}
	rawUser, err := json.Marshal(resp.User)
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = s.persist(ctx, resp.Tokens, string(rawUser))
	if err == nil {
		s.cur = domain.Session{User: resp.User, AccessToken: resp.Tokens.Access, RefreshToken: resp.Tokens.Refresh}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Store) persist(ctx context.Context, tokens userdomain.Tokens, rawUser string) error {
	writes := []struct{ key, value string }{
		{storage.KeyAccessToken, tokens.Access},
		{storage.KeyRefreshToken, tokens.Refresh},
		{storage.KeyUser, rawUser},
	}
	for _, w := range writes {
		if w.value == "" {
			if err := s.repo.Delete(ctx, w.key); err != nil {
				return fmt.Errorf("session: persist %s: %w", w.key, err)
			}
			continue
		}
		if err := s.repo.Set(ctx, w.key, w.value); err != nil {
			_ = s.repo.Delete(ctx, storage.SessionKeys...)
			return fmt.Errorf("session: persist %s: %w", w.key, err)
		}
	}
	return nil
}

// Logout tells the server to blacklist the refresh token, best effort, then always clears
// the session from memory and storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	refresh, user := s.cur.RefreshToken, s.cur.User
	s.mu.RUnlock()
	if refresh == "" {
		refresh, _ = s.read(ctx, storage.KeyRefreshToken)
	}
	if refresh != "" {
		err := s.api.Post(ctx, PathLogout, map[string]string{"refresh_token": refresh}, nil)
		if err != nil {
			log.Printf("session: logout %s: %v", security.Fingerprint(refresh), err)
		}
	}

	s.mu.Lock()
	err := s.repo.Delete(context.WithoutCancel(ctx), storage.SessionKeys...)
	s.cur = domain.Session{}
	s.mu.Unlock()
	s.notify()
	s.emit(ctx, telemetry.EventLogout, user, nil)
	if err != nil {
		return fmt.Errorf("session: clear storage: %w", err)
	}
	return nil
}

// TokenRefreshed adopts tokens the gateway obtained. Storage was already written by the gateway.
func (s *Store) TokenRefreshed(access, refresh string) {
	s.mu.Lock()
	changed := s.cur.User != nil
	if changed {
		s.cur.AccessToken = access
		if refresh != "" {
			s.cur.RefreshToken = refresh
		}
	}
	user := s.cur.User
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	s.emit(context.Background(), telemetry.EventTokenRefreshed, user, nil)
}

// SessionExpired drops the in-memory session after the gateway cleared storage.
func (s *Store) SessionExpired() {
	s.mu.Lock()
	user := s.cur.User
	s.cur = domain.Session{}
	s.mu.Unlock()
	s.notify()
	s.emit(context.Background(), telemetry.EventSessionExpired, user, nil)
}

// Profile fetches the signed-in user's editable profile.
func (s *Store) Profile(ctx context.Context) (*userdomain.Profile, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var p userdomain.Profile
	if err := s.api.Get(ctx, PathProfile, nil, &p); err != nil {
		return nil, fmt.Errorf("session: profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile saves upd and folds the result into the cached user record.
func (s *Store) UpdateProfile(ctx context.Context, upd userdomain.ProfileUpdate) (*userdomain.Profile, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	var p userdomain.Profile
	if err := s.api.Patch(ctx, PathProfile, upd, &p); err != nil {
		return nil, fmt.Errorf("session: update profile: %w", err)
	}

	s.mu.Lock()
	var err error
	if s.cur.User != nil {
		next := s.cur.Clone()
		u := next.User
		u.FirstName, u.LastName = p.FirstName, p.LastName
		if u.Profile == nil {
			u.Profile = &userdomain.Profile{}
		}
		u.Profile.FullName, u.Profile.Bio = p.FullName, p.Bio
		u.Profile.Location, u.Profile.ProfilePicture = p.Location, p.ProfilePicture
		var raw []byte
		if raw, err = json.Marshal(u); err == nil {
			err = s.repo.Set(ctx, storage.KeyUser, string(raw))
		}
		if err == nil {
			s.cur = next
		}
	}
	s.mu.Unlock()
	if err != nil {
		return &p, fmt.Errorf("session: persist profile: %w", err)
	}
	s.notify()
	return &p, nil
}

// messageFrom picks the server message for err under keys, else fallback.
func messageFrom(err error, fallback string, keys ...string) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return apiErr.MessageOr(fallback, keys...)
	}
	return fallback
}
