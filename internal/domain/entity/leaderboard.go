package entity

import "time"

// UserAggregate представляет суммарный результат пользователя за период
// (месяц, год). Строится агрегирующим запросом, не сохраняется.
type UserAggregate struct {
	UserSub       string    `json:"user_id"`
	Name          string    `json:"name"`
	Picture       string    `json:"picture"`
	TotalScore    int64     `json:"total_score"`
	TotalCorrect  int64     `json:"total_correct_answers"`
	GamesPlayed   int64     `json:"games_played"`
	AverageTimeMs float64   `json:"average_time"`
	LastPlayed    time.Time `json:"last_played"`
}

// GameStats представляет сводную статистику по всем попыткам.
type GameStats struct {
	TotalPlayers   int64 `json:"totalPlayers"`
	ActivePlayers  int64 `json:"activePlayers"`
	DailyPlayers   int64 `json:"dailyPlayers"`
	MonthlyPlayers int64 `json:"monthlyPlayers"`
	YearlyPlayers  int64 `json:"yearlyPlayers"`
	AverageScore   int64 `json:"averageScore"`
	TopScore       int64 `json:"topScore"`
}
