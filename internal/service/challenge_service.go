package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
	"github.com/yourusername/culture-king-api/internal/domain/repository"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
	"github.com/yourusername/culture-king-api/internal/pkg/gameclock"
	"github.com/yourusername/culture-king-api/internal/service/scoring"
	"github.com/yourusername/culture-king-api/pkg/auth"
)

// AttemptBroadcaster уведомляет подписчиков живой ленты о новой попытке
type AttemptBroadcaster interface {
	BroadcastAttempt(attempt *entity.DailyAttempt)
}

// QuestionSource поставляет дневной набор вопросов
type QuestionSource interface {
	TodaysQuestions(ctx context.Context) ([]entity.Question, error)
}

// ChallengeState описывает состояние дневного челленджа для пользователя:
// либо вопросы (еще не играл), либо сохраненный результат.
type ChallengeState struct {
	HasPlayed  bool
	Questions  []entity.Question
	Attempt    *entity.DailyAttempt
	NextReset  time.Time
	UntilReset gameclock.Countdown
}

// ChallengeService оркестрирует дневной челлендж:
// выдачу вопросов, прием результата, подсчет очков и ранга.
type ChallengeService struct {
	attemptRepo   repository.AttemptRepository
	questions     QuestionSource
	scoring       *scoring.Config
	broadcaster   AttemptBroadcaster
	questionCount int
	storeTimeout  time.Duration
	now           func() time.Time
}

// NewChallengeService создает новый сервис дневного челленджа
func NewChallengeService(
	attemptRepo repository.AttemptRepository,
	questionSource QuestionSource,
	scoringCfg *scoring.Config,
	questionCount int,
	storeTimeout time.Duration,
) *ChallengeService {
	return &ChallengeService{
		attemptRepo:   attemptRepo,
		questions:     questionSource,
		scoring:       scoringCfg,
		questionCount: questionCount,
		storeTimeout:  storeTimeout,
		now:           time.Now,
	}
}

// SetBroadcaster подключает живую ленту лидерборда.
// Лента опциональна: без нее сервис работает так же.
func (s *ChallengeService) SetBroadcaster(b AttemptBroadcaster) {
	s.broadcaster = b
}

// GetState возвращает состояние челленджа для пользователя: сохраненный
// результат, если попытка за текущий игровой день уже есть, иначе —
// дневной набор вопросов.
func (s *ChallengeService) GetState(ctx context.Context, ident *auth.Identity) (*ChallengeState, error) {
	now := s.now()
	from, to := gameclock.PeriodStart(now), gameclock.NextPeriodStart(now)

	state := &ChallengeState{
		NextReset:  to,
		UntilReset: gameclock.UntilReset(now),
	}

	attempt, err := s.findAttempt(ctx, ident.Sub, from, to)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if attempt != nil {
		state.HasPlayed = true
		state.Attempt = attempt
		return state, nil
	}

	batch, err := s.questions.TodaysQuestions(ctx)
	if err != nil {
		return nil, err
	}
	state.Questions = batch
	return state, nil
}

// Submit принимает результат прохождения, пересчитывает счет на сервере,
// вычисляет ранг на момент вставки и сохраняет попытку.
// Счет, присланный клиентом, игнорируется.
func (s *ChallengeService) Submit(ctx context.Context, ident *auth.Identity, correctAnswers int, timeTakenMs int64) (*entity.DailyAttempt, error) {
	if correctAnswers < 0 || correctAnswers > s.questionCount {
		return nil, fmt.Errorf("%w: correct_answers must be in [0, %d]", apperrors.ErrValidation, s.questionCount)
	}
	if timeTakenMs < 0 {
		return nil, fmt.Errorf("%w: time_taken must be non-negative", apperrors.ErrValidation)
	}

	now := s.now()
	from, to := gameclock.PeriodStart(now), gameclock.NextPeriodStart(now)

	// Быстрая проверка на повтор. Гонку двух одновременных отправок
	// закрывает уникальный индекс (user_sub, challenge_day) в БД.
	existing, err := s.findAttempt(ctx, ident.Sub, from, to)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: attempt already submitted for this day", apperrors.ErrConflict)
	}

	score := s.scoring.Score(correctAnswers, timeTakenMs)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	higher, err := s.attemptRepo.CountHigherScores(storeCtx, from, to, score)
	if err != nil {
		return nil, wrapStoreErr("count higher scores", err)
	}

	attempt := &entity.DailyAttempt{
		UserSub:        ident.Sub,
		Name:           ident.Name,
		Picture:        ident.Picture,
		ChallengeDay:   from,
		Date:           now,
		CorrectAnswers: correctAnswers,
		TimeTakenMs:    timeTakenMs,
		Score:          score,
		Rank:           scoring.Rank(higher),
	}

	if err := s.attemptRepo.Insert(storeCtx, attempt); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: attempt already submitted for this day", apperrors.ErrConflict)
		}
		return nil, wrapStoreErr("insert attempt", err)
	}

	log.Printf("[Challenge] Attempt saved: user=%s score=%d rank=%d correct=%d time=%dms",
		ident.Sub, attempt.Score, attempt.Rank, correctAnswers, timeTakenMs)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastAttempt(attempt)
	}

	return attempt, nil
}

// Reset удаляет попытку пользователя за текущий игровой день,
// возвращая его в состояние "не играл". Используется поддержкой и тестами.
func (s *ChallengeService) Reset(ctx context.Context, ident *auth.Identity) error {
	now := s.now()
	from, to := gameclock.PeriodStart(now), gameclock.NextPeriodStart(now)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err := s.attemptRepo.DeleteInPeriod(storeCtx, ident.Sub, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return wrapStoreErr("delete attempt", err)
	}

	log.Printf("[Challenge] Attempt reset: user=%s day=%s", ident.Sub, gameclock.DayKey(now))
	return nil
}

func (s *ChallengeService) findAttempt(ctx context.Context, userSub string, from, to time.Time) (*entity.DailyAttempt, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	attempt, err := s.attemptRepo.FindInPeriod(storeCtx, userSub, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, wrapStoreErr("find attempt", err)
	}
	return attempt, nil
}

// wrapStoreErr переводит любую ошибку хранилища (включая таймаут)
// в ErrStorageUnavailable, сохраняя контекст операции для логов
func wrapStoreErr(op string, err error) error {
	log.Printf("[Challenge] Store operation %q failed: %v", op, err)
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStorageUnavailable, op, err)
}
