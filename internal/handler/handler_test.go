package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"gotimer/backend/internal/metrics"
	"gotimer/backend/internal/repository"
	"gotimer/backend/internal/service"
	"gotimer/backend/internal/session"
	"gotimer/backend/pkg/jwt"
)

type HandlerSuite struct {
	suite.Suite
	server *httptest.Server
	static string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepository()
	manager := session.NewManager(session.NewMemoryStore(), jwt.NewSigner("test-secret", time.Hour), session.CookieOptions{
		Name: "gotimer_session",
		TTL:  time.Hour,
	})

	s.static = s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(s.static, "settings.html"), []byte("<h1>settings</h1>"), 0o600))
	s.Require().NoError(os.WriteFile(filepath.Join(s.static, "timer.js"), []byte("// timer"), 0o600))

	h := New(Deps{
		Accounts: service.NewAccountService(repo),
		Games:    service.NewGameService(repo),
		Moves:    service.NewMoveService(repo),
		Stats:    service.NewStatsService(repo),
		Sessions: manager,
		Metrics:  metrics.New(),
	})
	s.server = httptest.NewServer(NewRouter(h, RouterOptions{StaticDir: s.static}))
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

// client returns an HTTP client with its own cookie jar, i.e. a browser.
func (s *HandlerSuite) client() *http.Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	return &http.Client{Jar: jar}
}

func (s *HandlerSuite) do(client *http.Client, method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, data
}

func (s *HandlerSuite) decode(data []byte) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(data, &out), string(data))
	return out
}

func (s *HandlerSuite) registered(username string) *http.Client {
	client := s.client()
	status, body := s.do(client, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	s.Require().Equal(http.StatusCreated, status, string(body))
	return client
}

func (s *HandlerSuite) newGame(client *http.Client) string {
	status, body := s.do(client, http.MethodPost, "/api/games/new", nil)
	s.Require().Equal(http.StatusCreated, status, string(body))
	return s.decode(body)["game_id"].(string)
}

func (s *HandlerSuite) TestRegisterAndMe() {
	client := s.client()
	status, body := s.do(client, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	})
	s.Require().Equal(http.StatusCreated, status)
	out := s.decode(body)
	s.Equal("User registered successfully", out["message"])
	user := out["user"].(map[string]any)
	s.Equal("alice", user["username"])
	s.NotContains(user, "password_hash")
	s.NotContains(string(body), "PasswordHash")

	status, body = s.do(client, http.MethodGet, "/api/auth/me", nil)
	s.Require().Equal(http.StatusOK, status)
	me := s.decode(body)
	s.Equal(false, me["is_guest"])
	s.Equal("alice", me["username"])
	s.Equal("alice@example.com", me["email"])
	s.Equal(user["id"], me["user_id"])
}

func (s *HandlerSuite) TestRegisterValidation() {
	status, body := s.do(s.client(), http.MethodPost, "/api/auth/register", map[string]string{"username": "al"})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Missing required fields"}`, string(body))

	status, body = s.do(s.client(), http.MethodPost, "/api/auth/register", map[string]string{
		"username": "al", "email": "al@example.com", "password": "secret1",
	})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Username must be at least 3 characters"}`, string(body))

	s.registered("alice")
	status, body = s.do(s.client(), http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "email": "new@example.com", "password": "secret1",
	})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Username already exists"}`, string(body))
}

func (s *HandlerSuite) TestLogin() {
	s.registered("alice")

	status, body := s.do(s.client(), http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "nope-nope"})
	s.Equal(http.StatusUnauthorized, status)
	s.JSONEq(`{"error":"Invalid username or password"}`, string(body))

	status, unknown := s.do(s.client(), http.MethodPost, "/api/auth/login", map[string]string{"username": "zed", "password": "nope-nope"})
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(string(body), string(unknown))

	client := s.client()
	status, body = s.do(client, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	s.Require().Equal(http.StatusOK, status)
	s.Equal("Login successful", s.decode(body)["message"])

	status, _ = s.do(client, http.MethodGet, "/api/profile", nil)
	s.Equal(http.StatusOK, status)
}

func (s *HandlerSuite) TestMeWithoutSession() {
	status, body := s.do(s.client(), http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusUnauthorized, status)
	s.JSONEq(`{"error":"Not authenticated"}`, string(body))
}

func (s *HandlerSuite) TestGuestFlow() {
	client := s.client()
	status, body := s.do(client, http.MethodPost, "/api/auth/guest", nil)
	s.Require().Equal(http.StatusOK, status)
	user := s.decode(body)["user"].(map[string]any)
	s.Equal(true, user["is_guest"])
	s.Equal("Guest_"+user["id"].(string)[:8], user["username"])

	gameID := s.newGame(client)

	status, body = s.do(client, http.MethodPost, "/api/games/"+gameID+"/moves", map[string]any{
		"move_number": 1, "player_color": "white", "time_taken": 3,
	})
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"Move not saved (guest mode)"}`, string(body))

	status, body = s.do(client, http.MethodPost, "/api/games/"+gameID+"/complete", map[string]any{"winner": "white"})
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"Game not updated (guest mode)"}`, string(body))

	status, body = s.do(client, http.MethodPost, "/api/games/save", map[string]any{"gameId": gameID, "title": "x"})
	s.Equal(http.StatusOK, status)
	s.Equal("Game not saved (guest mode)", s.decode(body)["message"])

	_, body = s.do(client, http.MethodGet, "/api/games", nil)
	s.JSONEq(`[]`, string(body))
	_, body = s.do(client, http.MethodGet, "/api/games/"+gameID, nil)
	s.JSONEq(`{}`, string(body))
	_, body = s.do(client, http.MethodGet, "/api/games/"+gameID+"/moves", nil)
	s.JSONEq(`[]`, string(body))
	_, body = s.do(client, http.MethodGet, "/api/stats", nil)
	s.JSONEq(`{"total_games":0,"completed_games":0,"total_moves":0,"average_move_time":0,"wins_as_white":0,"wins_as_black":0}`, string(body))

	status, body = s.do(client, http.MethodGet, "/api/profile", nil)
	s.Equal(http.StatusForbidden, status)
	s.JSONEq(`{"error":"Guest users do not have profiles"}`, string(body))

	status, body = s.do(client, http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusOK, status)
	me := s.decode(body)
	s.Equal(true, me["is_guest"])
	s.Equal(user["id"], me["user_id"])
}

func (s *HandlerSuite) TestGameLifecycle() {
	client := s.registered("alice")

	status, body := s.do(client, http.MethodPost, "/api/games/new", map[string]int{"main_time": 300})
	s.Require().Equal(http.StatusCreated, status)
	gameID := s.decode(body)["game_id"].(string)

	for _, m := range []map[string]any{
		{"move_number": 2, "player_color": "black", "time_taken": 5.4},
		{"move_number": 1, "player_color": "white", "time_taken": 3},
		{"move_number": 3, "player_color": "white", "time_taken": 4, "in_byoyomi": true, "byoyomi_periods_remaining": 2},
	} {
		status, body = s.do(client, http.MethodPost, "/api/games/"+gameID+"/moves", m)
		s.Require().Equal(http.StatusCreated, status, string(body))
		s.JSONEq(`{"message":"Move saved successfully"}`, string(body))
	}

	status, body = s.do(client, http.MethodPost, "/api/games/"+gameID+"/moves", map[string]any{"move_number": 4})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Missing required move data"}`, string(body))

	var moves []map[string]any
	_, body = s.do(client, http.MethodGet, "/api/games/"+gameID+"/moves", nil)
	s.Require().NoError(json.Unmarshal(body, &moves))
	s.Require().Len(moves, 3)
	for i, m := range moves {
		s.EqualValues(i+1, m["move_number"])
	}
	s.EqualValues(5, moves[1]["time_taken"])

	status, body = s.do(client, http.MethodPost, "/api/games/"+gameID+"/complete", map[string]any{"winner": "black"})
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"Game completed successfully"}`, string(body))

	_, body = s.do(client, http.MethodGet, "/api/games/"+gameID, nil)
	details := s.decode(body)
	s.Equal("completed", details["status"])
	s.Equal("black", details["winner"])
	s.EqualValues(300, details["main_time"])
	s.EqualValues(3, details["move_count"])
	s.Len(details["moves"], 3)

	_, body = s.do(client, http.MethodGet, "/api/stats", nil)
	stats := s.decode(body)
	s.EqualValues(1, stats["total_games"])
	s.EqualValues(1, stats["completed_games"])
	s.EqualValues(3, stats["total_moves"])
	s.EqualValues(4, stats["average_move_time"])
	s.EqualValues(1, stats["wins_as_black"])
}

func (s *HandlerSuite) TestMovesUnderClientGeneratedGameID() {
	client := s.registered("alice")
	const clientID = "game_1700000000000"

	status, body := s.do(client, http.MethodPost, "/api/games/"+clientID+"/moves", map[string]any{
		"move_number": 1, "player_color": "black", "time_taken": 3,
	})
	s.Require().Equal(http.StatusCreated, status, string(body))
	s.JSONEq(`{"message":"Move saved successfully"}`, string(body))

	status, body = s.do(client, http.MethodPost, "/api/games/save", map[string]any{"gameId": clientID, "title": "Club"})
	s.Require().Equal(http.StatusOK, status, string(body))
	s.Equal(clientID, s.decode(body)["game_id"])

	_, body = s.do(client, http.MethodGet, "/api/games/"+clientID, nil)
	details := s.decode(body)
	s.Equal("Club", details["title"])
	s.EqualValues(1, details["move_count"])
	s.Len(details["moves"], 1)
}

func (s *HandlerSuite) TestOutOfRangeValuesAreRejected() {
	client := s.registered("alice")
	gameID := s.newGame(client)

	status, body := s.do(client, http.MethodPost, "/api/games/new", map[string]any{"main_time": 99999999999})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Clock settings are out of range"}`, string(body))

	status, body = s.do(client, http.MethodPost, "/api/games/"+gameID+"/moves", map[string]any{
		"move_number": 1, "player_color": "white", "time_taken": 1e12,
	})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Move data is out of range"}`, string(body))
}

func (s *HandlerSuite) TestGuestCreateGameWithBadSettings() {
	client := s.client()
	status, _ := s.do(client, http.MethodPost, "/api/auth/guest", nil)
	s.Require().Equal(http.StatusOK, status)

	status, body := s.do(client, http.MethodPost, "/api/games/new", map[string]any{"main_time": -1})
	s.Equal(http.StatusCreated, status)
	s.NotEmpty(s.decode(body)["game_id"])
}

func (s *HandlerSuite) TestSaveGame() {
	client := s.registered("alice")

	status, body := s.do(client, http.MethodPost, "/api/games/save", map[string]any{"comment": "no title"})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Game title is required"}`, string(body))

	status, body = s.do(client, http.MethodPost, "/api/games/save", map[string]any{
		"title":    "Club night",
		"settings": map[string]int{"mainTime": 1200, "byoyomiTime": 20, "byoyomiPeriods": 5},
	})
	s.Require().Equal(http.StatusOK, status)
	out := s.decode(body)
	s.Equal("Game saved successfully", out["message"])
	gameID := out["game_id"].(string)

	var games []map[string]any
	_, body = s.do(client, http.MethodGet, "/api/games", nil)
	s.Require().NoError(json.Unmarshal(body, &games))
	s.Require().Len(games, 1)
	s.Equal(gameID, games[0]["id"])
	s.Equal("saved", games[0]["status"])
	s.Equal("Club night", games[0]["title"])
	s.Equal("", games[0]["comment"])
	s.EqualValues(1200, games[0]["main_time"])
}

func (s *HandlerSuite) TestOtherAccountsGameIsNotFound() {
	owner := s.registered("alice")
	gameID := s.newGame(owner)
	intruder := s.registered("mallory")

	status, body := s.do(intruder, http.MethodPost, "/api/games/"+gameID+"/complete", map[string]any{"winner": "white"})
	s.Equal(http.StatusNotFound, status)
	s.JSONEq(`{"error":"Game not found"}`, string(body))

	status, _ = s.do(intruder, http.MethodGet, "/api/games/"+gameID, nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *HandlerSuite) TestGameRoutesRequireSession() {
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/games/new"},
		{http.MethodGet, "/api/games"},
		{http.MethodGet, "/api/games/abc"},
		{http.MethodPost, "/api/games/abc/moves"},
		{http.MethodGet, "/api/stats"},
		{http.MethodPost, "/api/games/save"},
	} {
		status, _ := s.do(s.client(), tc.method, tc.path, nil)
		s.Equal(http.StatusUnauthorized, status, tc.path)
	}
}

func (s *HandlerSuite) TestProfileUpdateRenamesSession() {
	client := s.registered("alice")

	status, body := s.do(client, http.MethodPut, "/api/profile", map[string]string{"username": "alicia"})
	s.Require().Equal(http.StatusOK, status, string(body))
	s.Equal("Profile updated successfully", s.decode(body)["message"])

	_, body = s.do(client, http.MethodGet, "/api/auth/me", nil)
	s.Equal("alicia", s.decode(body)["username"])

	s.registered("bobby")
	status, body = s.do(client, http.MethodPut, "/api/profile", map[string]string{"email": "bobby@example.com"})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Email already exists"}`, string(body))
}

func (s *HandlerSuite) TestChangePassword() {
	client := s.registered("alice")

	status, body := s.do(client, http.MethodPost, "/api/change-password", map[string]string{"current_password": "bad-one", "new_password": "secret2"})
	s.Equal(http.StatusBadRequest, status)
	s.JSONEq(`{"error":"Current password is incorrect"}`, string(body))

	status, body = s.do(client, http.MethodPost, "/api/change-password", map[string]string{"current_password": "secret1", "new_password": "secret2"})
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"Password changed successfully"}`, string(body))

	status, _ = s.do(s.client(), http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret2"})
	s.Equal(http.StatusOK, status)
}

func (s *HandlerSuite) TestDeleteAccountCascadesAndLogsOut() {
	client := s.registered("alice")
	gameID := s.newGame(client)
	status, _ := s.do(client, http.MethodPost, "/api/games/"+gameID+"/moves", map[string]any{
		"move_number": 1, "player_color": "white", "time_taken": 2,
	})
	s.Require().Equal(http.StatusCreated, status)

	status, body := s.do(client, http.MethodDelete, "/api/delete-account", nil)
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"Account deleted successfully"}`, string(body))

	status, _ = s.do(client, http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusUnauthorized, status)

	fresh := s.registered("alice")
	_, body = s.do(fresh, http.MethodGet, "/api/games", nil)
	s.JSONEq(`[]`, string(body))
	_, body = s.do(fresh, http.MethodGet, "/api/games/"+gameID+"/moves", nil)
	s.JSONEq(`[]`, string(body))
}

func (s *HandlerSuite) TestLogout() {
	client := s.registered("alice")

	status, body := s.do(client, http.MethodPost, "/api/auth/logout", nil)
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"Logged out successfully"}`, string(body))

	status, _ = s.do(client, http.MethodGet, "/api/auth/me", nil)
	s.Equal(http.StatusUnauthorized, status)

	status, _ = s.do(client, http.MethodPost, "/api/auth/logout", nil)
	s.Equal(http.StatusOK, status)
}

func (s *HandlerSuite) TestInvalidJSON() {
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/auth/login", bytes.NewBufferString("{not json"))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerSuite) TestStaticFallback() {
	client := s.client()

	for _, p := range []string{"/", "/login.html"} {
		status, body := s.do(client, http.MethodGet, p, nil)
		s.Equal(http.StatusOK, status, p)
		s.Equal("<h1>settings</h1>", string(body))
	}

	status, body := s.do(client, http.MethodGet, "/timer.js", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("// timer", string(body))

	status, body = s.do(client, http.MethodGet, "/missing.css", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("File not found", string(body))

	status, body = s.do(client, http.MethodGet, "/api/unknown", nil)
	s.Equal(http.StatusNotFound, status)
	s.JSONEq(`{"error":"Not found"}`, string(body))
}

func (s *HandlerSuite) TestPingAndMetrics() {
	status, body := s.do(s.client(), http.MethodGet, "/ping", nil)
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"message":"pong"}`, string(body))

	status, body = s.do(s.client(), http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), "http_requests_total")
}

// flakyStore fails every write while failWrites is set.
type flakyStore struct {
	*session.MemoryStore
	failWrites bool
}

func (f *flakyStore) Save(ctx context.Context, id string, identity session.Identity, ttl time.Duration) error {
	if f.failWrites {
		return errors.New("store unavailable")
	}
	return f.MemoryStore.Save(ctx, id, identity, ttl)
}

func (f *flakyStore) Delete(ctx context.Context, id string) error {
	if f.failWrites {
		return errors.New("store unavailable")
	}
	return f.MemoryStore.Delete(ctx, id)
}

func TestCommittedWritesSurviveSessionStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &flakyStore{MemoryStore: session.NewMemoryStore()}
	repo := repository.NewMemoryRepository()
	h := New(Deps{
		Accounts: service.NewAccountService(repo),
		Games:    service.NewGameService(repo),
		Moves:    service.NewMoveService(repo),
		Stats:    service.NewStatsService(repo),
		Sessions: session.NewManager(store, jwt.NewSigner("test-secret", time.Hour), session.CookieOptions{Name: "gotimer_session", TTL: time.Hour}),
	})
	server := httptest.NewServer(NewRouter(h, RouterOptions{}))
	defer server.Close()

	s := &HandlerSuite{server: server}
	s.SetT(t)

	store.failWrites = true
	status, body := s.do(s.client(), http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, _ = s.do(s.client(), http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusInternalServerError, status)

	store.failWrites = false
	client := s.client()
	status, _ = s.do(client, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)

	store.failWrites = true
	status, body = s.do(client, http.MethodDelete, "/api/delete-account", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.JSONEq(t, `{"message":"Account deleted successfully"}`, string(body))

	status, _ = s.do(client, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	store.failWrites = false
	status, _ = s.do(s.client(), http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, status)
}
