package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"noteguard-be/internal/bootstrap"
	"noteguard-be/internal/config"
	"noteguard-be/internal/dto"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/repository/memory"
	"noteguard-be/pkg/clock"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app       *fiber.App
	clock     *clock.Fake
	container *bootstrap.Container
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Port:               "0",
			BaseURL:            "http://notes.test",
			Environment:        "test",
			CorsAllowedOrigins: "http://localhost:5173",
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Security: config.SecurityConfig{
			EncryptionKey: "server-test-encryption-key",
			JWTSecret:     "server-test-jwt-secret",
			JWTExpiration: time.Hour,
		},
		Notes: config.NotesConfig{
			ShareDefaultTTL: 24 * time.Hour,
			ShareMaxTTL:     720 * time.Hour,
			NoteMaxTTL:      8760 * time.Hour,
		},
		Cleanup: config.CleanupConfig{Interval: time.Hour, LockTTL: time.Minute},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := testConfig()
	clk := clock.NewFake(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	factory := memory.NewRepositoryFactory(memory.NewStore())

	container, err := bootstrap.NewContainer(context.Background(), cfg, factory, logger.NewNopLogger(), clk)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return &testServer{app: New(cfg, container).GetApp(), clock: clk, container: container}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return res.StatusCode, env
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth.Token
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	_, err := s.container.AuthService.CreateUser(context.Background(), &dto.RegisterRequest{
		Username: "root",
		Email:    "root@example.com",
		Password: "password123",
	}, entity.UserRoleAdmin)
	require.NoError(t, err)

	status, env := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Identifier: "root", Password: "password123"})
	require.Equal(t, http.StatusOK, status)
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth.Token
}

func (s *testServer) createNote(t *testing.T, token, path string, req dto.CreateNoteRequest) dto.NoteResponse {
	t.Helper()
	status, env := s.do(t, http.MethodPost, path, token, req)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var note dto.NoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &note))
	return note
}

func TestNoteLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	note := s.createNote(t, alice, "/api/notes", dto.CreateNoteRequest{Title: "A", Content: "secret"})
	assert.Equal(t, "secret", note.Content)

	status, env := s.do(t, http.MethodGet, "/api/notes/"+note.Id.String(), alice, nil)
	require.Equal(t, http.StatusOK, status)
	var shown dto.NoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &shown))
	assert.Equal(t, "A", shown.Title)

	status, env = s.do(t, http.MethodGet, "/api/notes/"+note.Id.String(), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "note not found", env.Message)

	status, _ = s.do(t, http.MethodDelete, "/api/notes/"+note.Id.String(), bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPut, "/api/notes/"+note.Id.String(), alice, dto.UpdateNoteRequest{Title: "B", Content: "changed"})
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/notes/user", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var list []dto.NoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "changed", list[0].Content)

	status, _ = s.do(t, http.MethodDelete, "/api/notes/"+note.Id.String(), alice, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/api/notes/"+note.Id.String(), alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestShareOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")

	note := s.createNote(t, alice, "/api/notes", dto.CreateNoteRequest{Title: "A", Content: "secret"})

	status, env := s.do(t, http.MethodPost, "/api/notes/"+note.Id.String()+"/share", alice, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var share dto.ShareTokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &share))
	assert.True(t, strings.HasPrefix(share.ShareUrl, "http://notes.test/api/notes/share/"))
	assert.Equal(t, s.clock.Now().Add(24*time.Hour), share.ExpiresAt)

	status, env = s.do(t, http.MethodGet, "/api/notes/share/"+share.Token, "", nil)
	require.Equal(t, http.StatusOK, status)
	var shared dto.SharedNoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &shared))
	assert.Equal(t, "secret", shared.Content)

	status, _ = s.do(t, http.MethodDelete, "/api/notes/"+note.Id.String()+"/share", alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/notes/share/"+share.Token, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "shared note not found or expired", env.Message)

	status, _ = s.do(t, http.MethodPost, "/api/notes/"+note.Id.String()+"/share?expirationHours=abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do(t, http.MethodPost, "/api/notes/"+note.Id.String()+"/share?expirationHours=2", alice, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestHourParametersRejectOverflow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	admin := s.admin(t)
	note := s.createNote(t, alice, "/api/notes", dto.CreateNoteRequest{Title: "t", Content: "c"})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
	}{
		{"share", http.MethodPost, "/api/notes/" + note.Id.String() + "/share?expirationHours=5124096", alice, nil},
		{"create query", http.MethodPost, "/api/notes/with-expiration?expirationHours=5124096", alice, dto.CreateNoteRequest{Title: "t"}},
		{"create body", http.MethodPost, "/api/notes", alice, map[string]interface{}{"title": "t", "expiration_hours": 5124096}},
		{"cleanup stats", http.MethodGet, "/api/admin/cleanup/stats?hours=5124096", admin, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestExpiryAndCleanupOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	admin := s.admin(t)

	note := s.createNote(t, alice, "/api/notes/with-expiration?expirationHours=1", dto.CreateNoteRequest{Title: "t", Content: "c"})
	require.NotNil(t, note.ExpirationTime)

	s.clock.Advance(61 * time.Minute)

	status, _ := s.do(t, http.MethodGet, "/api/notes/"+note.Id.String(), alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env := s.do(t, http.MethodGet, "/api/admin/cleanup/stats?hours=24", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var stats dto.ExpiringNotesResponse
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 1, stats.AlreadyExpired)

	status, env = s.do(t, http.MethodPost, "/api/admin/cleanup", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var res dto.CleanupResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.EqualValues(t, 1, res.NotesPurged)

	status, _ = s.do(t, http.MethodPost, "/api/notes/with-expiration", alice, dto.CreateNoteRequest{Title: "t"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminSurfaceOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice")
	carol := s.register(t, "carol")
	admin := s.admin(t)

	note := s.createNote(t, alice, "/api/notes", dto.CreateNoteRequest{Title: "A", Content: "secret"})

	status, env := s.do(t, http.MethodGet, "/api/admin/notes", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var notes []dto.NoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "secret", notes[0].Content)

	status, _ = s.do(t, http.MethodGet, "/api/notes/"+note.Id.String(), carol, nil)
	assert.Equal(t, http.StatusNotFound, status)

	for _, path := range []string{"/api/admin/users", "/api/admin/notes", "/api/admin/stats/users", "/api/admin/stats/notes", "/api/admin/dashboard", "/api/admin/logs"} {
		status, _ := s.do(t, http.MethodGet, path, carol, nil)
		assert.Equal(t, http.StatusForbidden, status, path)

		status, _ = s.do(t, http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusOK, status, path)
	}

	status, env = s.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var users []dto.AdminUserResponse
	require.NoError(t, json.Unmarshal(env.Data, &users))
	var aliceId string
	for _, u := range users {
		if u.Username == "alice" {
			aliceId = u.Id.String()
			assert.EqualValues(t, 1, u.NoteCount)
		}
	}
	require.NotEmpty(t, aliceId)

	status, _ = s.do(t, http.MethodDelete, "/api/admin/users/"+aliceId, admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/admin/stats/notes", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var noteStats dto.NoteStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &noteStats))
	assert.Zero(t, noteStats.TotalNotes)
}

func TestAdminEventStreamNeedsUpgrade(t *testing.T) {
	s := newTestServer(t)
	carol := s.register(t, "carol")
	admin := s.admin(t)

	status, _ := s.do(t, http.MethodGet, "/api/admin/events/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/admin/events/ws", carol, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/admin/events/ws", admin, nil)
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

func TestAuthOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice")

	status, env := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Username: "alice", Email: "x@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)

	status, env = s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Username: "al", Email: "nope", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, env.Data)

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Identifier: "alice@example.com", Password: "password123"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Identifier: "alice", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = s.do(t, http.MethodGet, "/api/auth/validate", token, nil)
	require.Equal(t, http.StatusOK, status)
	var validation dto.TokenValidationResponse
	require.NoError(t, json.Unmarshal(env.Data, &validation))
	assert.True(t, validation.Valid)

	status, _ = s.do(t, http.MethodGet, "/api/notes/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = s.do(t, http.MethodGet, "/api/notes/user", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		status, env := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, env.Success)
	}

	res, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "pong", string(body))

	res, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	body, _ = io.ReadAll(res.Body)
	assert.Contains(t, string(body), "noteguard_http_requests_total")
}
