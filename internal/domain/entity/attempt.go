package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyAttempt представляет результат прохождения дневного челленджа.
// На пользователя за игровой день допускается ровно одна запись:
// уникальность пары (user_sub, challenge_day) гарантирует индекс в БД.
type DailyAttempt struct {
	ID      string `json:"id" gorm:"type:uuid;primaryKey"`
	UserSub string `json:"user_id" gorm:"size:255;not null;uniqueIndex:idx_user_day"`
	Name    string `json:"name" gorm:"size:100;not null"`
	Picture string `json:"picture" gorm:"size:512;not null;default:''"`

	// Граница игрового дня (полночь UTC), к которому относится попытка
	ChallengeDay time.Time `json:"-" gorm:"type:date;not null;uniqueIndex:idx_user_day;index:idx_day_score"`
	// Момент отправки результата
	Date time.Time `json:"date" gorm:"not null;index:idx_attempts_date"`

	CorrectAnswers int   `json:"correct_answers" gorm:"not null;default:0"`
	TimeTakenMs    int64 `json:"time_taken" gorm:"not null;default:0"`
	Score          int   `json:"score" gorm:"not null;default:0;index:idx_day_score"`
	// Место на момент вставки: 1 + число более высоких счетов дня.
	// Снимок не пересчитывается при последующих отправках.
	Rank int `json:"rank" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для DailyAttempt
func (DailyAttempt) TableName() string {
	return "daily_attempts"
}

// BeforeCreate выдает попытке UUID, если он не задан
func (a *DailyAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
