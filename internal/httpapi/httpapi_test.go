// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-go/internal/analytics"
	"github.com/folio-labs/folio-go/internal/auth"
	"github.com/folio-labs/folio-go/internal/captcha"
	"github.com/folio-labs/folio-go/internal/config"
	"github.com/folio-labs/folio-go/internal/content"
	"github.com/folio-labs/folio-go/internal/model"
	"github.com/folio-labs/folio-go/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuth struct {
	sessions map[string]*auth.Session
	loginURL string
	signOuts int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		sessions: map[string]*auth.Session{},
		loginURL: "https://id.example.test/authorize?state=abc",
	}
}

func (f *fakeAuth) SignInWithOAuth(_ context.Context, provider string) (string, error) {
	if provider != "test" {
		return "", &auth.AuthError{Op: "sign_in", Err: auth.ErrUnknownProvider}
	}
	return f.loginURL, nil
}

func (f *fakeAuth) HandleOAuthCallback(_ context.Context, state, code string) (*auth.LoginResult, error) {
	if state != "good-state" {
		return nil, &auth.AuthError{Op: "callback", Err: auth.ErrNoSession}
	}
	sess := &auth.Session{
		Token:     "tok-" + code,
		Provider:  "test",
		UserID:    "user-1",
		Email:     "user@example.test",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.sessions[sess.Token] = sess
	return &auth.LoginResult{Session: sess, ProfileCreated: true}, nil
}

func (f *fakeAuth) GetSession(token string) (*auth.Session, error) {
	sess, ok := f.sessions[token]
	if !ok {
		return nil, auth.ErrNoSession
	}
	return sess, nil
}

func (f *fakeAuth) IsSessionValid(sess *auth.Session) bool {
	return sess != nil && sess.ExpiresAt.After(time.Now())
}

func (f *fakeAuth) ShouldRefreshSession(sess *auth.Session) bool {
	return sess != nil && time.Until(sess.ExpiresAt) < 5*time.Minute
}

func (f *fakeAuth) RefreshSession(_ context.Context, token string) (*auth.Session, error) {
	sess, ok := f.sessions[token]
	if !ok {
		return nil, auth.ErrNoSession
	}
	sess.ExpiresAt = time.Now().Add(2 * time.Hour)
	return sess, nil
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	delete(f.sessions, token)
	f.signOuts++
	return nil
}

func (f *fakeAuth) ExtendSession(context.Context, string) error      { return nil }
func (f *fakeAuth) IsSessionExtended(context.Context, string) bool   { return false }
func (f *fakeAuth) IsAdmin(context.Context, string) (bool, error)    { return false, nil }
func (f *fakeAuth) EnsureUserProfile(context.Context, string) (auth.ProfileStatus, error) {
	return auth.ProfileStatus{Complete: false}, nil
}

type testServer struct {
	*Server
	db   *sql.DB
	auth *fakeAuth
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "httpapi_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	cfg := &config.Config{
		Env:         "development",
		CORSOrigins: []string{"https://folio.example.test"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := discardLogger()
	recorder := analytics.NewRecorder(db, nil, logger)
	svc := content.NewService(db, recorder, logger)
	fa := newFakeAuth()

	srv := NewServer(cfg, svc, fa, captcha.NewVerifier("", logger), recorder, logger)
	return &testServer{Server: srv, db: db, auth: fa}
}

func (ts *testServer) seedProject(t *testing.T, title, slug, status string) {
	t.Helper()
	_, err := ts.db.Exec(
		"INSERT INTO projects (title, slug, body, status) VALUES (?, ?, ?, ?)",
		title, slug, "Some **bold** work.", status)
	require.NoError(t, err)
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get(t, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	h := decodeBody[content.Health](t, w)
	assert.Equal(t, "ok", h.Status)
}

func TestListProjectsOnlyPublished(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedProject(t, "Visible", "visible", model.StatusPublished)
	ts.seedProject(t, "Hidden", "hidden", model.StatusDraft)

	w := ts.get(t, "/api/projects")
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Data        []model.Project `json:"data"`
		TotalCount  int64           `json:"total_count"`
		CurrentPage int             `json:"current_page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Data, 1)
	assert.Equal(t, "visible", result.Data[0].Slug)
	assert.EqualValues(t, 1, result.TotalCount)
	assert.Equal(t, 1, result.CurrentPage)
}

func TestGetProjectRendersBodyAndCountsView(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedProject(t, "Visible", "visible", model.StatusPublished)

	w := ts.get(t, "/api/projects/visible")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Slug     string `json:"slug"`
		BodyHTML string `json:"body_html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "visible", resp.Slug)
	assert.Contains(t, resp.BodyHTML, "<strong>bold</strong>")

	var views int64
	require.NoError(t, ts.db.QueryRow(
		"SELECT view_count FROM projects WHERE slug = 'visible'").Scan(&views))
	assert.EqualValues(t, 1, views)
}

func TestGetProjectHidesDrafts(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedProject(t, "Hidden", "hidden", model.StatusDraft)

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/api/projects/hidden").Code)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/api/projects/nope").Code)
}

func postForm(ts *testServer, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)
	return w
}

func TestSubmitInquiry(t *testing.T) {
	ts := newTestServer(t, nil)

	w := postForm(ts, "/api/inquiries", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.test"},
		"subject": {"Project inquiry"},
		"message": {"I would like a <script>alert(1)</script> website."},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeBody[map[string]string](t, w)
	assert.True(t, strings.HasPrefix(resp["reference"], "INQ-"))
	assert.Equal(t, model.InquiryStatusNew, resp["status"])

	var message string
	require.NoError(t, ts.db.QueryRow(
		"SELECT message FROM inquiries WHERE reference = ?", resp["reference"]).Scan(&message))
	assert.NotContains(t, message, "<script>")
}

func TestSubmitInquiryValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	w := postForm(ts, "/api/inquiries", url.Values{"name": {"Ada"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(ts, "/api/inquiries", url.Values{
		"name": {"Ada"}, "email": {"not-an-email"}, "message": {"hi"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackRecordsPageView(t *testing.T) {
	ts := newTestServer(t, nil)

	body := `{"path": "/projects/visible", "title": "Visible"}`
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh) Safari/605.1")
	req.RemoteAddr = "203.0.113.9:4444"
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	var gotVisitor bool
	for _, c := range cookies {
		if c.Name == visitorCookie && c.Value != "" {
			gotVisitor = true
		}
	}
	assert.True(t, gotVisitor, "first track mints a visitor cookie")

	var n int64
	require.NoError(t, ts.db.QueryRow("SELECT COUNT(*) FROM page_views").Scan(&n))
	assert.EqualValues(t, 1, n)

	var ip string
	require.NoError(t, ts.db.QueryRow("SELECT ip FROM page_views").Scan(&ip))
	assert.Equal(t, "203.0.113.0", ip, "stored IP is anonymized")
}

func TestTrackRejectsEmptyPath(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteRateLimit(t *testing.T) {
	ts := newTestServer(t, nil)
	router := ts.Routes()

	var last int
	for i := 0; i < writeBurst+1; i++ {
		form := url.Values{
			"name":    {"Ada"},
			"email":   {fmt.Sprintf("ada%d@example.test", i)},
			"message": {"hello"},
		}
		req := httptest.NewRequest(http.MethodPost, "/api/inquiries", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "198.51.100.7:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestCORSPreflightAndHeaders(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "https://folio.example.test")
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://folio.example.test",
		w.Header().Get("Access-Control-Allow-Origin"))

	w = ts.get(t, "/api/projects")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORSUnknownOriginNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Origin", "https://evil.example.test")
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginRedirectsToProvider(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get(t, "/auth/login/test")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, ts.auth.loginURL, w.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/auth/login/bogus").Code)
}

func TestCallbackSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get(t, "/auth/callback?state=good-state&code=xyz")
	require.Equal(t, http.StatusOK, w.Code)

	var sessionSet bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie && c.Value == "tok-xyz" {
			sessionSet = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, sessionSet)

	assert.Equal(t, http.StatusBadRequest,
		ts.get(t, "/auth/callback?state=bad&code=xyz").Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.get(t, "/auth/callback").Code)
}

func TestSessionEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.auth.sessions["tok-1"] = &auth.Session{
		Token: "tok-1", UserID: "user-1", Provider: "test",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	assert.Equal(t, http.StatusUnauthorized, ts.get(t, "/auth/session").Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok-1"})
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[sessionResponse](t, w)
	assert.True(t, resp.Valid)
	assert.False(t, resp.ShouldRefresh)
	assert.Equal(t, "user-1", resp.Session.UserID)
}

func TestSessionBearerToken(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.auth.sessions["tok-2"] = &auth.Session{
		Token: "tok-2", UserID: "user-2", ExpiresAt: time.Now().Add(time.Hour),
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer tok-2")
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignOutClearsCookie(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.auth.sessions["tok-1"] = &auth.Session{
		Token: "tok-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour),
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tok-1"})
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, ts.auth.signOuts)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestAuthRoutesWithoutProvider(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.Server.auth = nil

	assert.Equal(t, http.StatusServiceUnavailable, ts.get(t, "/auth/session").Code)
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	token := "super-secret-token"
	hash, err := auth.HashToken(token)
	require.NoError(t, err)

	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.AdminTokenHash = hash
	})
	router := ts.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats/daily?day=2026-08-26", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats/daily?day=2026-08-26", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats/daily?day=2026-08-26", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEndpointsAbsentWithoutHash(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.get(t, "/api/admin/stats/daily")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminSessionCheck(t *testing.T) {
	token := "super-secret-token"
	hash, err := auth.HashToken(token)
	require.NoError(t, err)

	ts := newTestServer(t, func(cfg *config.Config) {
		cfg.AdminTokenHash = hash
	})
	ts.auth.sessions["tok-1"] = &auth.Session{
		Token: "tok-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour),
	}

	body := `{"token": "tok-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/session/check", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.Routes().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[map[string]any](t, w)
	assert.Equal(t, true, resp["exists"])
	assert.Equal(t, "user-1", resp["user_id"])
}
