package dto

import (
	"time"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
	"github.com/yourusername/culture-king-api/internal/pkg/gameclock"
	"github.com/yourusername/culture-king-api/internal/service"
)

// UserGameScore представляет сохраненный результат пользователя за день
type UserGameScore struct {
	Score          int   `json:"score"`
	Rank           int   `json:"rank"`
	CorrectAnswers int   `json:"correctAnswers"`
	TimeTaken      int64 `json:"timeTaken"`
}

// ChallengeStateResponse представляет состояние дневного челленджа:
// либо вопросы (hasPlayed=false), либо результат (hasPlayed=true)
type ChallengeStateResponse struct {
	HasPlayed     bool                `json:"hasPlayed"`
	Questions     []entity.Question   `json:"questions,omitempty"`
	UserGameScore *UserGameScore      `json:"userGameScore,omitempty"`
	NextReset     time.Time           `json:"nextReset"`
	UntilReset    gameclock.Countdown `json:"timeUntilReset"`
}

// NewChallengeStateResponse формирует ответ из состояния сервиса
func NewChallengeStateResponse(state *service.ChallengeState) ChallengeStateResponse {
	resp := ChallengeStateResponse{
		HasPlayed:  state.HasPlayed,
		Questions:  state.Questions,
		NextReset:  state.NextReset,
		UntilReset: state.UntilReset,
	}
	if state.Attempt != nil {
		resp.UserGameScore = &UserGameScore{
			Score:          state.Attempt.Score,
			Rank:           state.Attempt.Rank,
			CorrectAnswers: state.Attempt.CorrectAnswers,
			TimeTaken:      state.Attempt.TimeTakenMs,
		}
	}
	return resp
}

// SubmitResultRequest представляет отправку результата прохождения.
// Поле score принимается для совместимости со старыми клиентами,
// но сервер его игнорирует и всегда пересчитывает счет сам.
type SubmitResultRequest struct {
	CorrectAnswers *int   `json:"correctAnswers" binding:"required"`
	TimeTaken      *int64 `json:"timeTaken" binding:"required"`
	Score          *int   `json:"score"`
}

// SubmitResultResponse представляет подтвержденный результат
type SubmitResultResponse struct {
	Score          int   `json:"score"`
	Rank           int   `json:"rank"`
	CorrectAnswers int   `json:"correctAnswers"`
	TimeTaken      int64 `json:"timeTaken"`
}

// LeaderboardEntryResponse представляет строку дневного лидерборда
type LeaderboardEntryResponse struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Picture        string `json:"picture,omitempty"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	TimeTaken      int64  `json:"timeTaken"`
}

// NewLeaderboardEntryResponse проецирует попытку в строку лидерборда
func NewLeaderboardEntryResponse(a *entity.DailyAttempt) LeaderboardEntryResponse {
	return LeaderboardEntryResponse{
		UserID:         a.UserSub,
		Name:           a.Name,
		Picture:        a.Picture,
		Score:          a.Score,
		CorrectAnswers: a.CorrectAnswers,
		TimeTaken:      a.TimeTakenMs,
	}
}

// AggregateEntryResponse представляет строку месячного/годового лидерборда
type AggregateEntryResponse struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture,omitempty"`
	TotalScore   int64     `json:"totalScore"`
	TotalCorrect int64     `json:"totalCorrectAnswers"`
	GamesPlayed  int64     `json:"gamesPlayed"`
	AverageTime  float64   `json:"averageTime"`
	LastPlayed   time.Time `json:"lastPlayed"`
}

// NewAggregateEntryResponse проецирует агрегат в строку лидерборда
func NewAggregateEntryResponse(a *entity.UserAggregate) AggregateEntryResponse {
	return AggregateEntryResponse{
		UserID:       a.UserSub,
		Name:         a.Name,
		Picture:      a.Picture,
		TotalScore:   a.TotalScore,
		TotalCorrect: a.TotalCorrect,
		GamesPlayed:  a.GamesPlayed,
		AverageTime:  a.AverageTimeMs,
		LastPlayed:   a.LastPlayed,
	}
}
