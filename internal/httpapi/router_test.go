package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/shuttle-league/internal/app"
	"github.com/oggyb/shuttle-league/internal/auth"
	"github.com/oggyb/shuttle-league/internal/db"
	"github.com/oggyb/shuttle-league/internal/httpapi"
	"github.com/oggyb/shuttle-league/internal/logger"
	"github.com/oggyb/shuttle-league/internal/service/matchlog"
	"github.com/oggyb/shuttle-league/internal/service/stats"
)

type testAPI struct {
	app  *fiber.App
	auth *auth.Manager
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	_, err = db.SeedMinimalTestData(dbase, 4)
	require.NoError(t, err)

	mgr := auth.NewManager("test-secret", time.Hour)
	appCtx := app.New(dbase, nil, logger.Discard(), nil)
	return &testAPI{app: httpapi.NewApp(appCtx, mgr, httpapi.Options{}), auth: mgr}
}

// do sends a request as userID (0 = anonymous) and decodes a JSON response into out.
func (a *testAPI) do(t *testing.T, method, path string, userID uint64, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := a.auth.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthNeedsNoToken(t *testing.T) {
	api := setupAPI(t)
	var out map[string]string
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", 0, nil, &out))
	assert.Equal(t, "ok", out["status"])
}

func TestAPIRequiresToken(t *testing.T) {
	api := setupAPI(t)
	var out map[string]string
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/match-log/requests/inbox", 0, nil, &out))
	assert.NotEmpty(t, out["error"])
}

func TestMatchLogFlow(t *testing.T) {
	api := setupAPI(t)

	var created matchlog.MatchRequestView
	status := api.do(t, http.MethodPost, "/api/match-log/requests", 1, matchlog.CreateInput{
		MatchName:       "Lunch game",
		MatchFormat:     "SINGLES",
		WinnerSide:      "TEAM",
		OpponentUserIDs: []uint64{2},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "PENDING", created.Status)
	require.Len(t, created.Participants, 2)

	var count map[string]int64
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/match-log/requests/pending-count", 2, nil, &count))
	assert.Equal(t, int64(1), count["count"])

	var inbox []matchlog.MatchRequestView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/match-log/requests/inbox", 2, nil, &inbox))
	require.Len(t, inbox, 1)
	assert.True(t, inbox[0].CanRespond)

	var errBody map[string]string
	path := fmt.Sprintf("/api/match-log/requests/%d/decision", created.ID)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, path, 3, httpapi.DecisionRequest{Decision: "accept"}, &errBody))
	assert.Equal(t, "not part of this match", errBody["error"])

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, path, 2, httpapi.DecisionRequest{Decision: "maybe"}, nil))

	var view matchlog.MatchRequestView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, path, 2, httpapi.DecisionRequest{Decision: "accept"}, &view))
	assert.Equal(t, "APPROVED", view.Status)

	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, path, 2, httpapi.DecisionRequest{Decision: "reject"}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodPost, "/api/match-log/requests/999/decision", 2, httpapi.DecisionRequest{Decision: "accept"}, nil))

	var history []matchlog.MatchHistoryItem
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/match-log/requests/history", 1, nil, &history))
	require.Len(t, history, 1)
	assert.True(t, history[0].UserWon)

	var mine stats.UserStats
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/users/1/stats", 1, nil, &mine))
	assert.Equal(t, int64(1), mine.Rank)
	assert.Equal(t, 1, mine.Wins)
	assert.Equal(t, 100, mine.WinRate)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/users/2/stats", 1, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/users/abc/stats", 1, nil, nil))

	var board []stats.LeaderboardEntry
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/leaderboard", 3, nil, &board))
	require.Len(t, board, 2)
	assert.Equal(t, uint64(1), board[0].UserID)
	assert.Equal(t, "user1", board[0].Username)

	var page stats.LeaderboardPage
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/leaderboard?limit=1", 3, nil, &page))
	require.Len(t, page.Entries, 1)
	assert.NotEmpty(t, page.NextPageToken)

	var changes []stats.RatingChange
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/users/2/rating-history", 1, nil, &changes))
	require.Len(t, changes, 1)
	assert.False(t, changes[0].Won)
}

func TestCreateRequestValidationIsBadRequest(t *testing.T) {
	api := setupAPI(t)

	var errBody map[string]string
	status := api.do(t, http.MethodPost, "/api/match-log/requests", 1, matchlog.CreateInput{
		MatchName:       "Overlap",
		MatchFormat:     "DOUBLES",
		WinnerSide:      "TEAM",
		TeamUserIDs:     []uint64{1, 2},
		OpponentUserIDs: []uint64{2, 3},
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "player in both teams", errBody["error"])
}
