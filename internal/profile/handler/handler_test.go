package handler_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"playerservice/internal/platform/middleware"
	"playerservice/internal/profile"
	"playerservice/internal/profile/handler"
	"playerservice/internal/profile/service"
	"playerservice/internal/profile/store"
)

type HandlerSuite struct {
	suite.Suite

	playerID uuid.UUID
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := service.New(store.NewInMemory(), service.WithLogger(logger))
	s.Require().NoError(err)

	s.playerID = uuid.New()
	s.router = chi.NewRouter()
	handler.New(logger, svc).Register(s.router)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *HandlerSuite) do(method, path, body string) (*httptest.ResponseRecorder, envelope) {
	return s.doAs(s.playerID, method, path, body)
}

func (s *HandlerSuite) doAs(playerID uuid.UUID, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{
		PlayerID: playerID,
		Username: "tester",
		Role:     profile.RolePlayer,
	}))

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func (s *HandlerSuite) createProfile() {
	rec, env := s.do(http.MethodPost, "/api/v1/player/profile", "")
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Require().True(env.Success)
}

func (s *HandlerSuite) TestCreateProfile() {
	rec, env := s.do(http.MethodPost, "/api/v1/player/profile", "")
	s.Equal(http.StatusCreated, rec.Code)
	s.True(env.Success)

	var p profile.PlayerProfile
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	s.Equal(s.playerID, p.PlayerID)
	s.Equal(profile.StartingWalletBalance, p.Wallet)
}

func (s *HandlerSuite) TestCreateProfile_Duplicate() {
	s.createProfile()

	rec, env := s.do(http.MethodPost, "/api/v1/player/profile", "")
	s.Equal(http.StatusConflict, rec.Code)
	s.False(env.Success)
	s.Equal("profile already exists", env.Message)
}

func (s *HandlerSuite) TestGetProfile_NotFound() {
	rec, env := s.do(http.MethodGet, "/api/v1/player/profile", "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.False(env.Success)
	s.Equal("profile not found", env.Message)
}

func (s *HandlerSuite) TestUnauthenticated() {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/player/profile"},
		{http.MethodGet, "/api/v1/player/profile"},
		{http.MethodDelete, "/api/v1/player/profile"},
		{http.MethodGet, "/api/v1/player/profile/preferences"},
		{http.MethodPut, "/api/v1/player/profile/preferences"},
		{http.MethodGet, "/api/v1/player/profile/game-preferences"},
		{http.MethodGet, "/api/v1/player/profile/wallet"},
		{http.MethodPatch, "/api/v1/player/profile/wallet"},
	}

	for _, tt := range paths {
		s.Run(tt.method+" "+tt.path, func() {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			s.Equal(http.StatusUnauthorized, rec.Code)
		})
	}
}

func (s *HandlerSuite) TestUpdatePreferences() {
	s.createProfile()

	rec, env := s.do(http.MethodPut, "/api/v1/player/profile/preferences",
		`{"sounds": false, "language": "fr"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.True(env.Success)

	var prefs profile.Preferences
	s.Require().NoError(json.Unmarshal(env.Data, &prefs))
	s.Equal(false, prefs["sounds"])
	s.Equal("fr", prefs["language"])
	s.Equal(true, prefs["music"])
}

func (s *HandlerSuite) TestUpdatePreferences_InvalidKey() {
	s.createProfile()

	rec, env := s.do(http.MethodPut, "/api/v1/player/profile/preferences",
		`{"theme": "dark"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(env.Success)
	s.Contains(env.Message, "theme")
}

func (s *HandlerSuite) TestUpdatePreferences_MalformedBody() {
	s.createProfile()

	rec, env := s.do(http.MethodPut, "/api/v1/player/profile/preferences", `{broken`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(env.Success)
	s.Equal("invalid request body", env.Message)
}

func (s *HandlerSuite) TestGetGamePreferences() {
	s.createProfile()

	rec, env := s.do(http.MethodGet, "/api/v1/player/profile/game-preferences", "")
	s.Equal(http.StatusOK, rec.Code)

	var prefs profile.Preferences
	s.Require().NoError(json.Unmarshal(env.Data, &prefs))
	s.Contains(prefs, "default_game")
	s.NotContains(prefs, "sounds")
	s.NotContains(prefs, "notifications")
}

func (s *HandlerSuite) TestWallet() {
	s.createProfile()

	rec, env := s.do(http.MethodGet, "/api/v1/player/profile/wallet", "")
	s.Equal(http.StatusOK, rec.Code)

	var wallet struct {
		Balance int `json:"balance"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &wallet))
	s.Equal(150, wallet.Balance)

	rec, env = s.do(http.MethodPatch, "/api/v1/player/profile/wallet",
		`{"changeAmount": 50}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &wallet))
	s.Equal(200, wallet.Balance)
}

func (s *HandlerSuite) TestWallet_InsufficientFunds() {
	s.createProfile()

	rec, env := s.do(http.MethodPatch, "/api/v1/player/profile/wallet",
		`{"changeAmount": -500}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(env.Success)
	s.Equal("insufficient funds", env.Message)

	rec, env = s.do(http.MethodGet, "/api/v1/player/profile/wallet", "")
	s.Equal(http.StatusOK, rec.Code)
	var wallet struct {
		Balance int `json:"balance"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &wallet))
	s.Equal(150, wallet.Balance)
}

func (s *HandlerSuite) TestDeleteProfile() {
	s.createProfile()

	rec, env := s.do(http.MethodDelete, "/api/v1/player/profile", "")
	s.Equal(http.StatusOK, rec.Code)
	s.True(env.Success)

	rec, _ = s.do(http.MethodGet, "/api/v1/player/profile", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestPlayersAreIsolated() {
	s.createProfile()

	other := uuid.New()
	rec, _ := s.doAs(other, http.MethodGet, "/api/v1/player/profile", "")
	s.Equal(http.StatusNotFound, rec.Code, "identity comes from the token, never the route")
}
