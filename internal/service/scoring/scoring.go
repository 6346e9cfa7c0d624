// Package scoring содержит формулу подсчета очков дневного челленджа.
//
// Контракт формулы: score = correctAnswers*BasePoints + бонус за скорость.
// Бонус равен max(0, BonusWindowMs - timeTakenMs) / BonusDivisor — игрок,
// уложившийся в 30 секунд, получает до 300 дополнительных очков; после
// 30 секунд бонус нулевой, штрафов нет. Счет детерминирован, определен для
// любых неотрицательных входов и не убывает по числу правильных ответов.
package scoring

// Config содержит константы формулы подсчета очков
type Config struct {
	// BasePoints — очки за один правильный ответ.
	BasePoints int

	// BonusWindowMs — окно (мс), внутри которого начисляется бонус за скорость.
	BonusWindowMs int64

	// BonusDivisor — делитель остатка окна при переводе в очки.
	BonusDivisor int64
}

// DefaultConfig возвращает конфигурацию формулы по умолчанию
func DefaultConfig() *Config {
	return &Config{
		BasePoints:    1000,
		BonusWindowMs: 30000,
		BonusDivisor:  100,
	}
}

// Score вычисляет итоговый счет попытки.
// Отрицательное время трактуется как нулевое.
func (c *Config) Score(correctAnswers int, timeTakenMs int64) int {
	if correctAnswers < 0 {
		correctAnswers = 0
	}
	if timeTakenMs < 0 {
		timeTakenMs = 0
	}

	base := correctAnswers * c.BasePoints

	remaining := c.BonusWindowMs - timeTakenMs
	if remaining < 0 {
		remaining = 0
	}
	bonus := int(remaining / c.BonusDivisor)

	return base + bonus
}

// Rank вычисляет место попытки: единица плюс число попыток периода
// со строго большим счетом. Ранг — снимок на момент вставки и задним
// числом для старых записей не пересчитывается.
func Rank(higherScores int64) int {
	return int(higherScores) + 1
}
