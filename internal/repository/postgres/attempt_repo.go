package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
	"github.com/yourusername/culture-king-api/internal/pkg/gameclock"
)

// Код ошибки PostgreSQL для нарушения уникального ограничения
const pgUniqueViolation = "23505"

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// FindInPeriod возвращает попытку пользователя за период [from, to)
func (r *AttemptRepo) FindInPeriod(ctx context.Context, userSub string, from, to time.Time) (*entity.DailyAttempt, error) {
	var attempt entity.DailyAttempt
	err := r.db.WithContext(ctx).
		Where("user_sub = ? AND date >= ? AND date < ?", userSub, from, to).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// CountHigherScores возвращает число попыток периода со строго большим счетом
func (r *AttemptRepo) CountHigherScores(ctx context.Context, from, to time.Time, score int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.DailyAttempt{}).
		Where("date >= ? AND date < ? AND score > ?", from, to, score).
		Count(&count).Error
	return count, err
}

// Insert сохраняет новую попытку.
// Нарушение уникальности (user_sub, challenge_day) означает, что параллельный
// запрос уже записал попытку за этот день — возвращаем ErrConflict.
func (r *AttemptRepo) Insert(ctx context.Context, attempt *entity.DailyAttempt) error {
	err := r.db.WithContext(ctx).Create(attempt).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// DeleteInPeriod удаляет попытку пользователя за период [from, to)
func (r *AttemptRepo) DeleteInPeriod(ctx context.Context, userSub string, from, to time.Time) error {
	res := r.db.WithContext(ctx).
		Where("user_sub = ? AND date >= ? AND date < ?", userSub, from, to).
		Delete(&entity.DailyAttempt{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// TopScores возвращает лучшие попытки периода.
// Сортировка по счету (desc), при равенстве — по времени прохождения (asc).
func (r *AttemptRepo) TopScores(ctx context.Context, from, to time.Time, limit int) ([]entity.DailyAttempt, error) {
	var attempts []entity.DailyAttempt
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("score DESC, time_taken_ms ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// AggregateByUser возвращает суммарные результаты пользователей за период.
// Имя и аватар берутся из последней попытки периода.
func (r *AttemptRepo) AggregateByUser(ctx context.Context, from, to time.Time, limit int) ([]entity.UserAggregate, error) {
	var rows []entity.UserAggregate
	err := r.db.WithContext(ctx).Model(&entity.DailyAttempt{}).
		Select(`user_sub,
			(array_agg(name ORDER BY date DESC))[1] AS name,
			(array_agg(picture ORDER BY date DESC))[1] AS picture,
			SUM(score) AS total_score,
			SUM(correct_answers) AS total_correct,
			COUNT(*) AS games_played,
			AVG(time_taken_ms) AS average_time_ms,
			MAX(date) AS last_played`).
		Where("date >= ? AND date < ?", from, to).
		Group("user_sub").
		Order("total_score DESC, average_time_ms ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Stats возвращает сводную статистику по попыткам на момент now
func (r *AttemptRepo) Stats(ctx context.Context, now time.Time) (*entity.GameStats, error) {
	stats := &entity.GameStats{}

	type window struct {
		since time.Time
		dest  *int64
	}

	// Окна считаются от границ gameclock, чтобы "сегодня" совпадало
	// с корзиной дневного челленджа
	windows := []window{
		{time.Time{}, &stats.TotalPlayers},
		{gameclock.WeekAgo(now), &stats.ActivePlayers},
		{gameclock.PeriodStart(now), &stats.DailyPlayers},
		{gameclock.MonthStart(now), &stats.MonthlyPlayers},
		{gameclock.YearStart(now), &stats.YearlyPlayers},
	}

	for _, w := range windows {
		q := r.db.WithContext(ctx).Model(&entity.DailyAttempt{}).
			Distinct("user_sub")
		if !w.since.IsZero() {
			q = q.Where("date >= ?", w.since)
		}
		if err := q.Count(w.dest).Error; err != nil {
			return nil, err
		}
	}

	var scoreRow struct {
		AverageScore float64
		TopScore     int64
	}
	err := r.db.WithContext(ctx).Model(&entity.DailyAttempt{}).
		Select("COALESCE(AVG(score), 0) AS average_score, COALESCE(MAX(score), 0) AS top_score").
		Scan(&scoreRow).Error
	if err != nil {
		return nil, err
	}
	stats.AverageScore = int64(scoreRow.AverageScore + 0.5)
	stats.TopScore = scoreRow.TopScore

	return stats, nil
}
