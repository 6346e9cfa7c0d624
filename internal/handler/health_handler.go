package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/yourusername/culture-king-api/pkg/database"
)

// HealthHandler обрабатывает запросы проверки живости сервиса
type HealthHandler struct {
	db          *gorm.DB
	redisClient redis.UniversalClient
}

// NewHealthHandler создает новый обработчик health-check
func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, redisClient: redisClient}
}

// GetHealth возвращает состояние сервиса и его зависимостей
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if sqlDB, err := database.GetSQLDB(h.db); err != nil {
		dbStatus = "error"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "error"
	}

	redisStatus := "ok"
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		redisStatus = "error"
	}

	status := http.StatusOK
	if dbStatus != "ok" || redisStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   overallStatus(dbStatus, redisStatus),
		"database": dbStatus,
		"redis":    redisStatus,
	})
}

func overallStatus(dbStatus, redisStatus string) string {
	if dbStatus == "ok" && redisStatus == "ok" {
		return "ok"
	}
	return "degraded"
}
