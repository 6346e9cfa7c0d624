// Package questions поставляет дневной набор вопросов.
//
// Набор детерминирован для календарного дня: seed провайдера выводится из
// даты, поэтому все игроки одного дня получают одинаковые вопросы. Первый
// успешный ответ провайдера кешируется (в Redis и в памяти процесса) до
// следующего сброса.
package questions

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/yourusername/culture-king-api/internal/config"
	"github.com/yourusername/culture-king-api/internal/domain/entity"
	"github.com/yourusername/culture-king-api/internal/domain/repository"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
	"github.com/yourusername/culture-king-api/internal/pkg/gameclock"
)

const cacheKeyPrefix = "daily:questions:"

// Source получает и кеширует дневной набор вопросов
type Source struct {
	cfg        config.TriviaConfig
	count      int
	httpClient *http.Client
	cache      repository.CacheRepository
	now        func() time.Time

	// Внутрипроцессный кеш дня. Ключ — дата YYYY-MM-DD;
	// при смене ключа набор инвалидируется.
	// mu удерживается на весь путь, включая поход к провайдеру:
	// конкурентные запросы при пустом кеше выстраиваются за одним
	// fetch вместо дублирующих обращений к провайдеру.
	mu     sync.Mutex
	dayKey string
	batch  []entity.Question
}

// NewSource создает новый источник вопросов
func NewSource(cfg config.TriviaConfig, questionCount int, cache repository.CacheRepository) *Source {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Source{
		cfg:        cfg,
		count:      questionCount,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		now:        time.Now,
	}
}

type upstreamResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []entity.Question `json:"results"`
}

// TodaysQuestions возвращает набор вопросов текущего игрового дня.
// При недоступности провайдера после всех попыток возвращает
// apperrors.ErrUpstreamUnavailable; частичные и устаревшие данные
// никогда не отдаются.
func (s *Source) TodaysQuestions(ctx context.Context) ([]entity.Question, error) {
	now := s.now()
	day := gameclock.DayKey(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dayKey == day && s.batch != nil {
		return s.batch, nil
	}
	// Дата сменилась — вчерашний набор больше не валиден
	s.dayKey = ""
	s.batch = nil

	cacheKey := cacheKeyPrefix + day
	var cached []entity.Question
	if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && len(cached) == s.count {
		s.dayKey = day
		s.batch = cached
		return cached, nil
	}

	batch, err := s.fetch(ctx, day)
	if err != nil {
		return nil, err
	}

	// Кеш живет до следующего сброса; ошибка Redis не фатальна
	ttl := gameclock.UntilReset(now).Total
	if err := s.cache.SetJSON(ctx, cacheKey, batch, ttl); err != nil {
		log.Printf("[Questions] Failed to cache batch for %s: %v", day, err)
	}

	s.dayKey = day
	s.batch = batch
	return batch, nil
}

// fetch запрашивает провайдера с ограниченным числом повторов
func (s *Source) fetch(ctx context.Context, day string) ([]entity.Question, error) {
	maxRetries := s.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	seed := md5.Sum([]byte(day))
	url := fmt.Sprintf("%s?amount=%d&category=%d&seed=%s",
		s.cfg.BaseURL, s.count, s.cfg.Category, hex.EncodeToString(seed[:]))

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		batch, err := s.fetchOnce(ctx, url)
		if err == nil {
			return batch, nil
		}
		lastErr = err
		log.Printf("[Questions] Fetch attempt %d/%d failed: %v", attempt, maxRetries, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, lastErr)
}

func (s *Source) fetchOnce(ctx context.Context, url string) ([]entity.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create trivia request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trivia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("trivia status=%d body=%s", resp.StatusCode, string(body))
	}

	var payload upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode trivia response: %w", err)
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("trivia response_code=%d", payload.ResponseCode)
	}
	if len(payload.Results) != s.count {
		return nil, fmt.Errorf("trivia returned %d questions, expected %d", len(payload.Results), s.count)
	}

	for i := range payload.Results {
		payload.Results[i].DecodeHTMLEntities()
	}

	return payload.Results, nil
}
