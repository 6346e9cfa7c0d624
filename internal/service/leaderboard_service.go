package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
	"github.com/yourusername/culture-king-api/internal/domain/repository"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
	"github.com/yourusername/culture-king-api/internal/pkg/gameclock"
)

// Периоды лидербордов
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// LeaderboardResult содержит данные лидерборда за период.
// Для daily заполнены Entries (отдельные попытки), для monthly/yearly —
// Aggregates (суммарные результаты по пользователям).
type LeaderboardResult struct {
	Period     string
	Entries    []entity.DailyAttempt
	Aggregates []entity.UserAggregate
}

// LeaderboardService отвечает за лидерборды и сводную статистику
type LeaderboardService struct {
	attemptRepo  repository.AttemptRepository
	size         int
	storeTimeout time.Duration
	now          func() time.Time
}

// NewLeaderboardService создает новый сервис лидербордов
func NewLeaderboardService(attemptRepo repository.AttemptRepository, size int, storeTimeout time.Duration) *LeaderboardService {
	return &LeaderboardService{
		attemptRepo:  attemptRepo,
		size:         size,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Daily возвращает лучшие попытки текущего игрового дня.
// Порядок в выдаче всегда пересчитывается из актуальных данных;
// сохраненный в попытке rank — исторический снимок и здесь не используется.
func (s *LeaderboardService) Daily(ctx context.Context) ([]entity.DailyAttempt, error) {
	now := s.now()
	from, to := gameclock.PeriodStart(now), gameclock.NextPeriodStart(now)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	attempts, err := s.attemptRepo.TopScores(storeCtx, from, to, s.size)
	if err != nil {
		return nil, wrapStoreErr("top scores", err)
	}
	return attempts, nil
}

// ForPeriod возвращает лидерборд за daily/monthly/yearly период
func (s *LeaderboardService) ForPeriod(ctx context.Context, period string) (*LeaderboardResult, error) {
	now := s.now()

	var from time.Time
	switch period {
	case PeriodDaily:
		entries, err := s.Daily(ctx)
		if err != nil {
			return nil, err
		}
		return &LeaderboardResult{Period: PeriodDaily, Entries: entries}, nil
	case PeriodMonthly:
		from = gameclock.MonthStart(now)
	case PeriodYearly:
		from = gameclock.YearStart(now)
	default:
		return nil, fmt.Errorf("%w: unknown period %q", apperrors.ErrValidation, period)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	aggregates, err := s.attemptRepo.AggregateByUser(storeCtx, from, gameclock.NextPeriodStart(now), s.size)
	if err != nil {
		return nil, wrapStoreErr("aggregate by user", err)
	}
	return &LeaderboardResult{Period: period, Aggregates: aggregates}, nil
}

// Stats возвращает сводную игровую статистику
func (s *LeaderboardService) Stats(ctx context.Context) (*entity.GameStats, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	stats, err := s.attemptRepo.Stats(storeCtx, s.now())
	if err != nil {
		return nil, wrapStoreErr("stats", err)
	}
	return stats, nil
}
