package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/job-board/internal/auth"
	"github.com/sakif/job-board/internal/config"
	"github.com/sakif/job-board/internal/logging"
)

const testSecret = "server-test-secret"

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	cfg.Auth.JWTSecret = testSecret
	cfg.RateLimit.WritesPerMinute = 0
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	logger := logging.Discard()

	deps, err := Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })
	require.NoError(t, deps.Board.EnsureInitialized(context.Background()))

	s, err := New(cfg, deps, logger)
	require.NoError(t, err)
	return s
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	tok, err := tokens.Generate(userID)
	require.NoError(t, err)
	return "Bearer " + tok
}

func send(s *Server, method, path, authz string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func posting(title string) map[string]string {
	return map[string]string{"title": title, "description": "Write Go.", "contact": "jobs@example.com"}
}

func TestNew_RequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	_, err := New(cfg, &Deps{}, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := send(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWritesRequireToken(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/postings"},
		{http.MethodDelete, "/api/postings/1"},
		{http.MethodPost, "/api/postings/1/replies"},
		{http.MethodGet, "/api/me"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := send(s, tc.method, tc.path, "", posting("Go dev"))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "unauthenticated")
		})
	}

	rec := send(s, http.MethodPost, "/api/postings", "Bearer not-a-token", posting("Go dev"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostingLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig())
	alice := bearer(t, "alice")
	bob := bearer(t, "bob")

	rec := send(s, http.MethodPost, "/api/postings", alice, posting("Go dev"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(s, http.MethodPost, "/api/postings/0/replies", bob, map[string]string{
		"github": "bob", "description": "Interested.", "contact": "bob@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(s, http.MethodGet, "/api/postings/0/replies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"github":"bob"`)

	rec = send(s, http.MethodDelete, "/api/postings/0", bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(s, http.MethodDelete, "/api/postings/0", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(s, http.MethodGet, "/api/postings", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty_collection")

	rec = send(s, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"postings":0,"replies":0,"nextPostingId":1,"nextReplyId":1}`, rec.Body.String())
}

func TestWriteRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.WritesPerMinute = 2
	s := newTestServer(t, cfg)
	alice := bearer(t, "alice")

	rec := send(s, http.MethodPost, "/api/postings", alice, posting("first"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(s, http.MethodPost, "/api/postings", alice, posting("second"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited.
	rec = send(s, http.MethodGet, "/api/postings", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGzipLargeResponses(t *testing.T) {
	s := newTestServer(t, testConfig())
	alice := bearer(t, "alice")
	for i := 0; i < 20; i++ {
		p := posting("Go dev")
		p["description"] = strings.Repeat("Build and run services in Go. ", 4)
		require.Equal(t, http.StatusCreated, send(s, http.MethodPost, "/api/postings", alice, p).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/postings?limit=20", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var page []json.RawMessage
	require.NoError(t, json.NewDecoder(zr).Decode(&page))
	assert.Len(t, page, 20)
}

func TestGitHubRoutesFollowConfig(t *testing.T) {
	s := newTestServer(t, testConfig())
	assert.Equal(t, http.StatusNotFound, send(s, http.MethodGet, "/auth/github/login", "", nil).Code)

	cfg := testConfig()
	cfg.Auth.GitHubClientID = "id"
	cfg.Auth.GitHubClientSecret = "secret"
	cfg.Auth.GitHubCallbackURL = "http://localhost:8080/auth/github/callback"
	s = newTestServer(t, cfg)

	rec := send(s, http.MethodGet, "/auth/github/login", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "github.com")
}

func TestOpen_SQLiteCreatesDataDir(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested", "board.db")

	deps, err := Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, deps.Board.Initialize(context.Background()))
	require.NoError(t, deps.Close())
	assert.FileExists(t, cfg.Store.Path)

	// State survives a reopen.
	deps, err = Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer deps.Close()
	stats, err := deps.Board.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(0), stats.NextPostingID)
}
