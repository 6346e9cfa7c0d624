package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния
	// (например, повторная отправка результата за тот же игровой день).
	ErrConflict = errors.New("resource state conflict")

	// ErrUpstreamUnavailable используется, когда внешний источник вопросов
	// недоступен после всех попыток повтора.
	ErrUpstreamUnavailable = errors.New("questions upstream unavailable")

	// ErrStorageUnavailable используется при недоступности или таймауте хранилища.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
