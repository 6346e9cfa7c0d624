package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
	"github.com/yourusername/culture-king-api/internal/service"
)

func newLeaderboardHandlerWithMocks(repo *MockAttemptRepoForHandler) *LeaderboardHandler {
	svc := service.NewLeaderboardService(repo, 10, 5*time.Second)
	return NewLeaderboardHandler(svc)
}

func TestGetDailyLeaderboard(t *testing.T) {
	repo := new(MockAttemptRepoForHandler)

	attempts := []entity.DailyAttempt{
		{UserSub: "u1", Name: "Alice", Score: 5200, CorrectAnswers: 5, TimeTakenMs: 10000},
		{UserSub: "u2", Name: "Bob", Score: 3250, CorrectAnswers: 3, TimeTakenMs: 5000},
	}
	repo.On("TopScores", mock.Anything, mock.Anything, mock.Anything, 10).Return(attempts, nil)

	h := newLeaderboardHandlerWithMocks(repo)

	c, w := newTestGinContext(http.MethodGet, "/api/daily-leaderboard", nil)
	h.GetDailyLeaderboard(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"u1"`)
	assert.Contains(t, w.Body.String(), `"score":5200`)
}

func TestGetLeaderboard_UnknownPeriod(t *testing.T) {
	h := newLeaderboardHandlerWithMocks(new(MockAttemptRepoForHandler))

	c, w := newTestGinContext(http.MethodGet, "/api/leaderboards?period=weekly", nil)
	h.GetLeaderboard(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetLeaderboard_Monthly(t *testing.T) {
	repo := new(MockAttemptRepoForHandler)

	aggs := []entity.UserAggregate{
		{UserSub: "u1", Name: "Alice", TotalScore: 31000, GamesPlayed: 7, AverageTimeMs: 12500},
	}
	repo.On("AggregateByUser", mock.Anything, mock.Anything, mock.Anything, 10).Return(aggs, nil)

	h := newLeaderboardHandlerWithMocks(repo)

	c, w := newTestGinContext(http.MethodGet, "/api/leaderboards?period=monthly", nil)
	h.GetLeaderboard(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalScore":31000`)
	assert.Contains(t, w.Body.String(), `"gamesPlayed":7`)
}

func TestGetStats(t *testing.T) {
	repo := new(MockAttemptRepoForHandler)

	stats := &entity.GameStats{TotalPlayers: 120, DailyPlayers: 14, AverageScore: 2870, TopScore: 5300}
	repo.On("Stats", mock.Anything, mock.Anything).Return(stats, nil)

	h := newLeaderboardHandlerWithMocks(repo)

	c, w := newTestGinContext(http.MethodGet, "/api/stats", nil)
	h.GetStats(c)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	gameStats := resp["gameStats"].(map[string]interface{})
	assert.Equal(t, float64(120), gameStats["totalPlayers"])
	assert.Equal(t, float64(5300), gameStats["topScore"])
}
