package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
	"github.com/yourusername/culture-king-api/internal/service/scoring"
	"github.com/yourusername/culture-king-api/pkg/auth"
)

// ============================================================================
// Моки для ChallengeService и LeaderboardService
// ============================================================================

// MockAttemptRepository реализует repository.AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) FindInPeriod(ctx context.Context, userSub string, from, to time.Time) (*entity.DailyAttempt, error) {
	args := m.Called(ctx, userSub, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyAttempt), args.Error(1)
}

func (m *MockAttemptRepository) CountHigherScores(ctx context.Context, from, to time.Time, score int) (int64, error) {
	args := m.Called(ctx, from, to, score)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) Insert(ctx context.Context, attempt *entity.DailyAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) DeleteInPeriod(ctx context.Context, userSub string, from, to time.Time) error {
	args := m.Called(ctx, userSub, from, to)
	return args.Error(0)
}

func (m *MockAttemptRepository) TopScores(ctx context.Context, from, to time.Time, limit int) ([]entity.DailyAttempt, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DailyAttempt), args.Error(1)
}

func (m *MockAttemptRepository) AggregateByUser(ctx context.Context, from, to time.Time, limit int) ([]entity.UserAggregate, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserAggregate), args.Error(1)
}

func (m *MockAttemptRepository) Stats(ctx context.Context, now time.Time) (*entity.GameStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GameStats), args.Error(1)
}

// MockQuestionSource реализует QuestionSource
type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) TodaysQuestions(ctx context.Context) ([]entity.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// MockBroadcaster реализует AttemptBroadcaster
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastAttempt(attempt *entity.DailyAttempt) {
	m.Called(attempt)
}

// ============================================================================

var (
	testNow  = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	testFrom = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)

	testIdent = &auth.Identity{
		Sub:     "auth0|user-1",
		Name:    "Alice",
		Picture: "https://cdn.example.com/alice.png",
	}
)

func newTestChallengeService(repo *MockAttemptRepository, src *MockQuestionSource) *ChallengeService {
	svc := NewChallengeService(repo, src, scoring.DefaultConfig(), 5, 5*time.Second)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestGetState_NotPlayed(t *testing.T) {
	repo := new(MockAttemptRepository)
	src := new(MockQuestionSource)

	batch := []entity.Question{{Question: "q1"}, {Question: "q2"}, {Question: "q3"}, {Question: "q4"}, {Question: "q5"}}
	repo.On("FindInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(nil, apperrors.ErrNotFound)
	src.On("TodaysQuestions", mock.Anything).Return(batch, nil)

	svc := newTestChallengeService(repo, src)

	state, err := svc.GetState(context.Background(), testIdent)
	require.NoError(t, err)
	assert.False(t, state.HasPlayed)
	assert.Equal(t, batch, state.Questions)
	assert.Nil(t, state.Attempt)
	assert.Equal(t, testTo, state.NextReset)

	repo.AssertExpectations(t)
	src.AssertExpectations(t)
}

func TestGetState_AlreadyPlayed(t *testing.T) {
	repo := new(MockAttemptRepository)
	src := new(MockQuestionSource)

	existing := &entity.DailyAttempt{UserSub: testIdent.Sub, Score: 4200, Rank: 3}
	repo.On("FindInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(existing, nil)

	svc := newTestChallengeService(repo, src)

	state, err := svc.GetState(context.Background(), testIdent)
	require.NoError(t, err)
	assert.True(t, state.HasPlayed)
	assert.Equal(t, existing, state.Attempt)
	assert.Nil(t, state.Questions)

	// Вопросы сыгравшему не выдаются
	src.AssertNotCalled(t, "TodaysQuestions", mock.Anything)
}

func TestGetState_StoreDown(t *testing.T) {
	repo := new(MockAttemptRepository)
	src := new(MockQuestionSource)

	repo.On("FindInPeriod", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	svc := newTestChallengeService(repo, src)

	_, err := svc.GetState(context.Background(), testIdent)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
}

func TestSubmit_Validation(t *testing.T) {
	svc := newTestChallengeService(new(MockAttemptRepository), new(MockQuestionSource))

	tests := []struct {
		name    string
		correct int
		timeMs  int64
	}{
		{"отрицательное число ответов", -1, 1000},
		{"больше размера набора", 6, 1000},
		{"отрицательное время", 3, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), testIdent, tt.correct, tt.timeMs)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestSubmit_FirstInPeriod(t *testing.T) {
	repo := new(MockAttemptRepository)
	bc := new(MockBroadcaster)

	repo.On("FindInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(nil, apperrors.ErrNotFound)
	// 5 верных за 10 секунд: 5*1000 + (30000-10000)/100 = 5200
	repo.On("CountHigherScores", mock.Anything, testFrom, testTo, 5200).Return(int64(0), nil)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(a *entity.DailyAttempt) bool {
		return a.UserSub == testIdent.Sub &&
			a.Name == testIdent.Name &&
			a.Picture == testIdent.Picture &&
			a.ChallengeDay.Equal(testFrom) &&
			a.Score == 5200 &&
			a.Rank == 1
	})).Return(nil)
	bc.On("BroadcastAttempt", mock.Anything).Return()

	svc := newTestChallengeService(repo, new(MockQuestionSource))
	svc.SetBroadcaster(bc)

	attempt, err := svc.Submit(context.Background(), testIdent, 5, 10000)
	require.NoError(t, err)
	assert.Equal(t, 5200, attempt.Score)
	assert.Equal(t, 1, attempt.Rank)

	repo.AssertExpectations(t)
	bc.AssertExpectations(t)
}

func TestSubmit_SecondUserRanksBehind(t *testing.T) {
	repo := new(MockAttemptRepository)

	second := &auth.Identity{Sub: "auth0|user-2", Name: "Bob"}

	repo.On("FindInPeriod", mock.Anything, second.Sub, testFrom, testTo).Return(nil, apperrors.ErrNotFound)
	// 3 верных за 5 секунд: 3*1000 + (30000-5000)/100 = 3250;
	// одна попытка с большим счетом уже есть
	repo.On("CountHigherScores", mock.Anything, testFrom, testTo, 3250).Return(int64(1), nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	svc := newTestChallengeService(repo, new(MockQuestionSource))

	attempt, err := svc.Submit(context.Background(), second, 3, 5000)
	require.NoError(t, err)
	assert.Equal(t, 3250, attempt.Score)
	assert.Equal(t, 2, attempt.Rank)
}

func TestSubmit_Duplicate(t *testing.T) {
	repo := new(MockAttemptRepository)

	existing := &entity.DailyAttempt{UserSub: testIdent.Sub, Score: 100}
	repo.On("FindInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(existing, nil)

	svc := newTestChallengeService(repo, new(MockQuestionSource))

	_, err := svc.Submit(context.Background(), testIdent, 5, 10000)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

// Гонка двух одновременных отправок: проверка чтением прошла,
// но вставка уперлась в уникальный индекс
func TestSubmit_ConcurrentDuplicate(t *testing.T) {
	repo := new(MockAttemptRepository)

	repo.On("FindInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(nil, apperrors.ErrNotFound)
	repo.On("CountHigherScores", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(apperrors.ErrConflict)

	svc := newTestChallengeService(repo, new(MockQuestionSource))

	_, err := svc.Submit(context.Background(), testIdent, 5, 10000)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestSubmit_StoreDown(t *testing.T) {
	repo := new(MockAttemptRepository)

	repo.On("FindInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(nil, apperrors.ErrNotFound)
	repo.On("CountHigherScores", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), context.DeadlineExceeded)

	svc := newTestChallengeService(repo, new(MockQuestionSource))

	_, err := svc.Submit(context.Background(), testIdent, 5, 10000)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
}

func TestReset(t *testing.T) {
	repo := new(MockAttemptRepository)
	repo.On("DeleteInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(nil)

	svc := newTestChallengeService(repo, new(MockQuestionSource))

	require.NoError(t, svc.Reset(context.Background(), testIdent))
	repo.AssertExpectations(t)
}

func TestReset_NothingToDelete(t *testing.T) {
	repo := new(MockAttemptRepository)
	repo.On("DeleteInPeriod", mock.Anything, testIdent.Sub, testFrom, testTo).Return(apperrors.ErrNotFound)

	svc := newTestChallengeService(repo, new(MockQuestionSource))

	err := svc.Reset(context.Background(), testIdent)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
