// Package gameclock вычисляет границы игрового дня.
//
// Игровой день — полуинтервал [PeriodStart, NextPeriodStart) длиной ровно
// 24 часа, начинающийся в полночь UTC. Все остальные компоненты обязаны
// брать границы только отсюда: самостоятельный расчет границ в запросах
// приводит к расхождению корзин.
package gameclock

import "time"

// PeriodStart возвращает начало текущего игрового дня (полночь UTC).
func PeriodStart(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// NextPeriodStart возвращает начало следующего игрового дня.
func NextPeriodStart(now time.Time) time.Time {
	return PeriodStart(now).AddDate(0, 0, 1)
}

// DayKey возвращает ключ текущего игрового дня в формате YYYY-MM-DD.
// Используется как ключ кеша вопросов и как корзина уникальности попыток.
func DayKey(now time.Time) string {
	return PeriodStart(now).Format("2006-01-02")
}

// MonthStart возвращает начало текущего календарного месяца (UTC).
func MonthStart(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// YearStart возвращает начало текущего календарного года (UTC).
func YearStart(now time.Time) time.Time {
	return time.Date(now.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// WeekAgo возвращает момент ровно 7 суток назад.
// Окно "активных игроков" в статистике.
func WeekAgo(now time.Time) time.Time {
	return now.UTC().Add(-7 * 24 * time.Hour)
}

// Countdown описывает время, оставшееся до следующего сброса.
type Countdown struct {
	Hours   int           `json:"hours"`
	Minutes int           `json:"minutes"`
	Seconds int           `json:"seconds"`
	Total   time.Duration `json:"-"`
}

// UntilReset возвращает оставшееся до следующего сброса время с разбивкой
// на часы/минуты/секунды для отображения таймера на клиенте.
func UntilReset(now time.Time) Countdown {
	diff := NextPeriodStart(now).Sub(now.UTC())
	return Countdown{
		Hours:   int(diff.Hours()) % 24,
		Minutes: int(diff.Minutes()) % 60,
		Seconds: int(diff.Seconds()) % 60,
		Total:   diff,
	}
}
