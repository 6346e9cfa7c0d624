package repository

import (
	"context"
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get возвращает значение по ключу или apperrors.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// SetJSON сохраняет значение в кеше в виде JSON с заданным TTL.
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// GetJSON читает JSON-значение из кеша в dest.
	GetJSON(ctx context.Context, key string, dest interface{}) error
}
