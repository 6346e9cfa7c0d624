package repository

import (
	"context"
	"time"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками дневного челленджа.
// Все выборки по игровому дню принимают полуинтервал [from, to),
// вычисленный gameclock — репозиторий сам границы не считает.
type AttemptRepository interface {
	// FindInPeriod возвращает попытку пользователя за период или apperrors.ErrNotFound.
	FindInPeriod(ctx context.Context, userSub string, from, to time.Time) (*entity.DailyAttempt, error)

	// CountHigherScores возвращает число попыток периода со строго большим счетом.
	CountHigherScores(ctx context.Context, from, to time.Time, score int) (int64, error)

	// Insert сохраняет новую попытку. Нарушение уникальности
	// (user_sub, challenge_day) возвращается как apperrors.ErrConflict.
	Insert(ctx context.Context, attempt *entity.DailyAttempt) error

	// DeleteInPeriod удаляет попытку пользователя за период.
	// Возвращает apperrors.ErrNotFound, если попытки не было.
	DeleteInPeriod(ctx context.Context, userSub string, from, to time.Time) error

	// TopScores возвращает лучшие попытки периода,
	// отсортированные по счету (desc) и времени (asc).
	TopScores(ctx context.Context, from, to time.Time, limit int) ([]entity.DailyAttempt, error)

	// AggregateByUser возвращает суммарные результаты пользователей за период,
	// отсортированные по суммарному счету (desc) и среднему времени (asc).
	AggregateByUser(ctx context.Context, from, to time.Time, limit int) ([]entity.UserAggregate, error)

	// Stats возвращает сводную статистику по попыткам на момент now.
	Stats(ctx context.Context, now time.Time) (*entity.GameStats, error)
}
