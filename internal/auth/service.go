// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth implements the session lifecycle: OAuth sign-in and
// callback handling, proactive session refresh, the extended-session
// override, the cached admin-role and profile-ensure checks, the
// session monitor, and auth event subscriptions.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/folio-labs/folio-go/internal/cache"
	"github.com/folio-labs/folio-go/internal/kv"
	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/store"
)

// Defaults for the session lifecycle knobs. All are overridable with
// options.
const (
	DefaultRefreshMargin      = 5 * time.Minute
	DefaultMonitorInterval    = 60 * time.Second
	DefaultExtendedSessionTTL = 30 * 24 * time.Hour
	DefaultAdminCacheTTL      = 30 * time.Second
	DefaultProfileCacheTTL    = 10 * time.Second
)

// KV keys owned by this package.
const (
	extendedSessionKey  = "auth:extended_session"
	oauthStateKeyPrefix = "auth:oauth_state:"
	oauthDoneKeyPrefix  = "auth:oauth_done:"
	oauthStateTTL       = 10 * time.Minute
)

// Session is one signed-in session. The Token is an opaque local
// handle; the provider tokens stay server-side.
type Session struct {
	Token        string    `json:"token"`
	Provider     string    `json:"provider"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResult reports the outcome of a completed OAuth callback.
type LoginResult struct {
	Session         *Session `json:"session"`
	ProfileCreated  bool     `json:"profile_created"`
	ProfileComplete bool     `json:"profile_complete"`
}

// ProfileStatus is the result of a profile-ensure check.
type ProfileStatus struct {
	Created  bool `json:"created"`
	Complete bool `json:"complete"`
}

type extendedSessionRecord struct {
	UserID string    `json:"user_id"`
	Expiry time.Time `json:"expiry"`
}

type oauthStateRecord struct {
	Provider string `json:"provider"`
	Verifier string `json:"verifier"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock substitutes the time source. Tests use this to cross cache
// and session boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCache sets the backend used for the admin and profile caches.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cacheBackend = c }
}

// WithRefreshMargin sets the proactive refresh margin.
func WithRefreshMargin(d time.Duration) Option {
	return func(s *Service) { s.refreshMargin = d }
}

// WithExtendedSessionTTL sets the extended-session grace window.
func WithExtendedSessionTTL(d time.Duration) Option {
	return func(s *Service) { s.extendedTTL = d }
}

// WithAdminCacheTTL sets the admin-role cache TTL.
func WithAdminCacheTTL(d time.Duration) Option {
	return func(s *Service) { s.adminTTL = d }
}

// WithProfileCacheTTL sets the profile-ensure cache TTL.
func WithProfileCacheTTL(d time.Duration) Option {
	return func(s *Service) { s.profileTTL = d }
}

// Service is the session/auth service. Construct it once in main and
// inject it; it is safe for concurrent use.
type Service struct {
	db        *sql.DB
	kv        *kv.Store
	providers map[string]Provider
	logger    *slog.Logger
	now       func() time.Time

	refreshMargin time.Duration
	extendedTTL   time.Duration
	adminTTL      time.Duration
	profileTTL    time.Duration

	cacheBackend cache.Cache
	adminCache   *cache.TypedCache[bool]
	profileCache *cache.TypedCache[ProfileStatus]
	flight       singleflight.Group

	// lookupRole and ensureProfile hit the database; tests substitute
	// counting fakes to observe how often the remote side is reached.
	lookupRole    func(ctx context.Context, userID string) (bool, error)
	ensureProfile func(ctx context.Context, userID string) (ProfileStatus, error)

	mu       sync.RWMutex
	sessions map[string]*Session

	bus *eventBus

	monitorMu   sync.Mutex
	monitorStop chan struct{}
	monitorDone chan struct{}
}

// NewService creates the session service over the application database,
// the persistent KV store, and the configured identity providers.
func NewService(db *sql.DB, kvStore *kv.Store, providers map[string]Provider, opts ...Option) *Service {
	s := &Service{
		db:            db,
		kv:            kvStore,
		providers:     providers,
		logger:        slog.Default(),
		now:           time.Now,
		refreshMargin: DefaultRefreshMargin,
		extendedTTL:   DefaultExtendedSessionTTL,
		adminTTL:      DefaultAdminCacheTTL,
		profileTTL:    DefaultProfileCacheTTL,
		sessions:      make(map[string]*Session),
		bus:           newEventBus(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cacheBackend == nil {
		s.cacheBackend = cache.NewMemoryCache(cache.MemoryCacheOptions{
			DefaultTTL: s.adminTTL,
		})
	}
	s.adminCache = cache.NewTypedCache[bool](s.cacheBackend, s.adminTTL)
	s.profileCache = cache.NewTypedCache[ProfileStatus](s.cacheBackend, s.profileTTL)

	s.lookupRole = s.lookupRoleDB
	s.ensureProfile = s.ensureProfileDB
	return s
}

// SignInWithOAuth begins the consent flow for the named provider. It
// returns the URL to redirect the browser to. No local session exists
// until the callback completes.
func (s *Service) SignInWithOAuth(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", &AuthError{Op: "sign_in", Err: fmt.Errorf("%w: %q", ErrUnknownProvider, provider)}
	}

	verifier, challenge, err := newPKCEVerifier()
	if err != nil {
		return "", &AuthError{Op: "sign_in", Err: err}
	}

	state := uuid.NewString()
	rec, err := json.Marshal(oauthStateRecord{Provider: provider, Verifier: verifier})
	if err != nil {
		return "", &AuthError{Op: "sign_in", Err: err}
	}
	if err := s.kv.Set(ctx, oauthStateKeyPrefix+state, rec, oauthStateTTL); err != nil {
		return "", &AuthError{Op: "sign_in", Err: err}
	}

	return p.AuthURL(state, challenge), nil
}

// HandleOAuthCallback completes the consent flow: it exchanges the code,
// establishes a local session, and guarantees a profile row exists.
// Re-invoking with a state that already completed (a page reload) is a
// no-op success returning the established session.
func (s *Service) HandleOAuthCallback(ctx context.Context, state, code string) (*LoginResult, error) {
	// Page-reload replay of a completed callback.
	if data, err := s.kv.Get(ctx, oauthDoneKeyPrefix+state); err == nil {
		if sess, err := s.GetSession(string(data)); err == nil {
			complete, _ := s.profileComplete(ctx, sess.UserID)
			return &LoginResult{Session: sess, ProfileComplete: complete}, nil
		}
	}

	data, err := s.kv.Get(ctx, oauthStateKeyPrefix+state)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, &AuthError{Op: "callback", Err: ErrNoSession}
		}
		return nil, &AuthError{Op: "callback", Err: err}
	}

	var rec oauthStateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &AuthError{Op: "callback", Err: err}
	}
	p, ok := s.providers[rec.Provider]
	if !ok {
		return nil, &AuthError{Op: "callback", Err: fmt.Errorf("%w: %q", ErrUnknownProvider, rec.Provider)}
	}

	tok, identity, err := p.Exchange(ctx, code, rec.Verifier)
	if err != nil {
		return nil, &AuthError{Op: "callback", Err: err}
	}

	sess := &Session{
		Token:        uuid.NewString(),
		Provider:     rec.Provider,
		UserID:       identity.UserID,
		Email:        identity.Email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt,
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	created, complete, err := s.handleUserLogin(ctx, identity)
	if err != nil {
		return nil, &AuthError{Op: "callback", Err: err}
	}

	if err := s.kv.Delete(ctx, oauthStateKeyPrefix+state); err != nil {
		s.logger.Warn("failed to clear oauth state", "error", err)
	}
	if err := s.kv.Set(ctx, oauthDoneKeyPrefix+state, []byte(sess.Token), oauthStateTTL); err != nil {
		s.logger.Warn("failed to record completed oauth state", "error", err)
	}

	s.bus.emit(Event{Type: EventSignedIn, UserID: sess.UserID})
	return &LoginResult{Session: sess, ProfileCreated: created, ProfileComplete: complete}, nil
}

// handleUserLogin guarantees a local profile row exists for the
// identity and syncs its display data. Returns whether a row was
// created and whether the resulting profile is complete.
func (s *Service) handleUserLogin(ctx context.Context, id *Identity) (created, complete bool, err error) {
	existing, err := s.profileByID(ctx, id.UserID)
	if err != nil {
		return false, false, err
	}
	created = existing == nil

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, display_name, avatar_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			updated_at = CURRENT_TIMESTAMP`,
		id.UserID, id.Email, id.Name, id.AvatarURL)
	if err != nil {
		return false, false, store.Classify(err)
	}

	profile := model.Profile{UserID: id.UserID, Email: id.Email, DisplayName: id.Name}
	complete = profile.IsComplete()

	status := ProfileStatus{Created: created, Complete: complete}
	_ = s.profileCache.Set(ctx, profileCacheKey(id.UserID), &status)
	return created, complete, nil
}

// profileComplete reads the stored profile's completeness.
func (s *Service) profileComplete(ctx context.Context, userID string) (bool, error) {
	p, err := s.profileByID(ctx, userID)
	if err != nil || p == nil {
		return false, err
	}
	return p.IsComplete(), nil
}

func (s *Service) profileByID(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, display_name, avatar_url, role, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Email, &p.DisplayName, &p.AvatarURL, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, store.Classify(err)
	}
	return &p, nil
}

// GetSession returns the session for an opaque token. Unknown tokens
// yield ErrNoSession as a value, never a panic.
func (s *Service) GetSession(token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNoSession
	}
	cp := *sess
	return &cp, nil
}

// GetUser returns the profile behind a session token.
func (s *Service) GetUser(ctx context.Context, token string) (*model.Profile, error) {
	sess, err := s.GetSession(token)
	if err != nil {
		return nil, err
	}
	return s.profileByID(ctx, sess.UserID)
}

// IsSessionValid reports whether the session has not yet expired.
func (s *Service) IsSessionValid(sess *Session) bool {
	return sess != nil && sess.ExpiresAt.After(s.now())
}

// ShouldRefreshSession reports whether the session should be refreshed
// proactively: true when less than the margin remains before expiry.
// Exactly the margin remaining is not yet a refresh trigger.
func (s *Service) ShouldRefreshSession(sess *Session) bool {
	if sess == nil {
		return false
	}
	return sess.ExpiresAt.Sub(s.now()) < s.refreshMargin
}

// RefreshSession obtains fresh provider tokens for the session.
func (s *Service) RefreshSession(ctx context.Context, token string) (*Session, error) {
	sess, err := s.GetSession(token)
	if err != nil {
		return nil, err
	}
	p, ok := s.providers[sess.Provider]
	if !ok {
		return nil, &AuthError{Op: "refresh", Err: fmt.Errorf("%w: %q", ErrUnknownProvider, sess.Provider)}
	}

	tok, err := p.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return nil, &AuthError{Op: "refresh", Err: err}
	}

	s.mu.Lock()
	live, ok := s.sessions[token]
	if ok {
		live.AccessToken = tok.AccessToken
		live.RefreshToken = tok.RefreshToken
		live.ExpiresAt = tok.ExpiresAt
		cp := *live
		sess = &cp
	}
	s.mu.Unlock()

	s.bus.emit(Event{Type: EventTokenRefreshed, UserID: sess.UserID})
	return sess, nil
}

// SignOut invalidates the session with the provider and locally, then
// unconditionally clears the extended-session override. Provider
// failures are logged, not returned: an explicit sign-out must never
// leave a stale grace record behind. Sign-out is also the one event
// that evicts the user's admin-role and profile cache entries, so the
// next check after sign-out goes back to the store.
func (s *Service) SignOut(ctx context.Context, token string) error {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok {
		delete(s.sessions, token)
	}
	s.mu.Unlock()

	var userID string
	if ok {
		userID = sess.UserID
		if p, found := s.providers[sess.Provider]; found {
			if err := p.SignOut(ctx, sess.AccessToken); err != nil {
				s.logger.Warn("provider sign-out failed", "provider", sess.Provider, "error", err)
			}
		}
		_ = s.adminCache.Delete(ctx, adminCacheKey(userID))
		_ = s.profileCache.Delete(ctx, profileCacheKey(userID))
	}

	err := s.kv.Delete(ctx, extendedSessionKey)
	s.bus.emit(Event{Type: EventSignedOut, UserID: userID})
	return err
}

// ExtendSession writes the extended-session override for the user,
// valid for the configured grace window from now.
func (s *Service) ExtendSession(ctx context.Context, userID string) error {
	rec, err := json.Marshal(extendedSessionRecord{
		UserID: userID,
		Expiry: s.now().Add(s.extendedTTL),
	})
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, extendedSessionKey, rec, s.extendedTTL)
}

// IsSessionExtended reports whether a live extended-session override
// exists for the user. Any read problem counts as "not extended".
func (s *Service) IsSessionExtended(ctx context.Context, userID string) bool {
	data, err := s.kv.Get(ctx, extendedSessionKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn("extended-session lookup failed", "error", err)
		}
		return false
	}

	var rec extendedSessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return false
	}
	return rec.UserID == userID && rec.Expiry.After(s.now())
}

func adminCacheKey(userID string) string   { return "auth:admin:" + userID }
func profileCacheKey(userID string) string { return "auth:profile:" + userID }

// IsAdmin reports whether the user's profile carries the admin role.
// Results are cached for the admin TTL and concurrent misses collapse
// into a single lookup. A policy-recursion failure from the store is
// treated as "not admin" rather than an error: the check gates
// security decisions and fails closed.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	key := adminCacheKey(userID)
	if v, ok := s.adminCache.Get(ctx, key); ok {
		return *v, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		isAdmin, err := s.lookupRole(ctx, userID)
		if err != nil {
			if store.IsPolicyRecursion(err) {
				s.logger.Warn("policy recursion during admin check, treating as not admin",
					"user_id", userID)
				f := false
				_ = s.adminCache.SetWithTTL(ctx, key, &f, s.adminTTL)
				return false, nil
			}
			return false, err
		}
		_ = s.adminCache.SetWithTTL(ctx, key, &isAdmin, s.adminTTL)
		return isAdmin, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *Service) lookupRoleDB(ctx context.Context, userID string) (bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT role FROM profiles WHERE user_id = ?", userID).Scan(&role)
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		return false, store.Classify(err)
	}
	return role == model.RoleAdmin, nil
}

// EnsureUserProfile guarantees a profile row exists for the user.
// Results are cached for the profile TTL and concurrent callers within
// the window collapse into a single remote call, all observing the same
// result.
func (s *Service) EnsureUserProfile(ctx context.Context, userID string) (ProfileStatus, error) {
	if userID == "" {
		return ProfileStatus{}, fmt.Errorf("auth: empty user id")
	}

	key := profileCacheKey(userID)
	if v, ok := s.profileCache.Get(ctx, key); ok {
		return *v, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		status, err := s.ensureProfile(ctx, userID)
		if err != nil {
			return ProfileStatus{}, err
		}
		_ = s.profileCache.SetWithTTL(ctx, key, &status, s.profileTTL)
		return status, nil
	})
	if err != nil {
		return ProfileStatus{}, err
	}
	return v.(ProfileStatus), nil
}

func (s *Service) ensureProfileDB(ctx context.Context, userID string) (ProfileStatus, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO profiles (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING", userID)
	if err != nil {
		return ProfileStatus{}, store.Classify(err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return ProfileStatus{}, err
	}

	p, err := s.profileByID(ctx, userID)
	if err != nil {
		return ProfileStatus{}, err
	}
	status := ProfileStatus{Created: inserted > 0}
	if p != nil {
		status.Complete = p.IsComplete()
	}
	return status, nil
}

// Subscribe registers a callback for auth state changes and returns a
// function that fully detaches it.
func (s *Service) Subscribe(fn func(Event)) func() {
	return s.bus.subscribe(fn)
}

// StartSessionMonitor begins the recurring check that proactively
// refreshes sessions nearing expiry. Starting an already-running
// monitor is a no-op. A non-positive interval uses the default.
func (s *Service) StartSessionMonitor(interval time.Duration) {
	s.monitorMu.Lock()
	defer s.monitorMu.Unlock()

	if s.monitorStop != nil {
		return
	}
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.monitorStop = stop
	s.monitorDone = done
	go s.monitorLoop(interval, stop, done)
}

// StopSessionMonitor stops the monitor and waits for it to exit.
// Stopping a stopped monitor is a no-op.
func (s *Service) StopSessionMonitor() {
	s.monitorMu.Lock()
	stop := s.monitorStop
	done := s.monitorDone
	s.monitorStop = nil
	s.monitorDone = nil
	s.monitorMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Service) monitorLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.refreshDueSessions()
		}
	}
}

func (s *Service) refreshDueSessions() {
	s.mu.RLock()
	due := make([]string, 0)
	for token, sess := range s.sessions {
		if s.ShouldRefreshSession(sess) {
			due = append(due, token)
		}
	}
	s.mu.RUnlock()

	for _, token := range due {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := s.RefreshSession(ctx, token); err != nil {
			s.logger.Warn("session refresh failed", "error", err)
		}
		cancel()
	}
}
