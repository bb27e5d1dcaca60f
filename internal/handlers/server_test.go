// internal/handlers/server_test.go
package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrummy/server/internal/room"
)

// testServer wires a bare manager with neither database nor redis, the
// same shape a dev machine runs.
func testServer(t *testing.T) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(room.NewManager(room.DefaultConfig(), log), nil, nil, log)
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rooms":0`)
}

func TestLeaderboardWithoutRedis(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGameHistoryWithoutDatabase(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?game=not-a-uuid", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
