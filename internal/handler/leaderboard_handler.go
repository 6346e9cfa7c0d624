package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/culture-king-api/internal/handler/dto"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
	"github.com/yourusername/culture-king-api/internal/service"
)

// LeaderboardHandler обрабатывает запросы лидербордов и статистики
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler создает новый обработчик лидербордов
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetDailyLeaderboard возвращает лучшие попытки текущего игрового дня
func (h *LeaderboardHandler) GetDailyLeaderboard(c *gin.Context) {
	attempts, err := h.leaderboardService.Daily(c.Request.Context())
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	entries := make([]dto.LeaderboardEntryResponse, 0, len(attempts))
	for i := range attempts {
		entries = append(entries, dto.NewLeaderboardEntryResponse(&attempts[i]))
	}
	c.JSON(http.StatusOK, entries)
}

// GetLeaderboard возвращает лидерборд за период из query-параметра:
// daily — отдельные попытки, monthly/yearly — агрегаты по пользователям
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", service.PeriodDaily)

	result, err := h.leaderboardService.ForPeriod(c.Request.Context(), period)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	if result.Period == service.PeriodDaily {
		entries := make([]dto.LeaderboardEntryResponse, 0, len(result.Entries))
		for i := range result.Entries {
			entries = append(entries, dto.NewLeaderboardEntryResponse(&result.Entries[i]))
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	aggregates := make([]dto.AggregateEntryResponse, 0, len(result.Aggregates))
	for i := range result.Aggregates {
		aggregates = append(aggregates, dto.NewAggregateEntryResponse(&result.Aggregates[i]))
	}
	c.JSON(http.StatusOK, aggregates)
}

// GetStats возвращает сводную игровую статистику
func (h *LeaderboardHandler) GetStats(c *gin.Context) {
	stats, err := h.leaderboardService.Stats(c.Request.Context())
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gameStats": stats})
}

// ExportLeaderboard выгружает лидерборд периода в Excel
func (h *LeaderboardHandler) ExportLeaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", service.PeriodDaily)

	result, err := h.leaderboardService.ForPeriod(c.Request.Context(), period)
	if err != nil {
		h.handleLeaderboardError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"leaderboard_%s.xlsx\"", period))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leaderboard"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[LeaderboardHandler] Failed to create stream writer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	if result.Period == service.PeriodDaily {
		headers := []interface{}{"#", "Player", "Score", "Correct answers", "Time (ms)"}
		if err := sw.SetRow("A1", headers); err != nil {
			log.Printf("[LeaderboardHandler] Failed to write headers: %v", err)
		}
		for i := range result.Entries {
			e := &result.Entries[i]
			cell := fmt.Sprintf("A%d", i+2)
			row := []interface{}{i + 1, sanitizeForExcel(e.Name), e.Score, e.CorrectAnswers, e.TimeTakenMs}
			if err := sw.SetRow(cell, row); err != nil {
				log.Printf("[LeaderboardHandler] Failed to write row %d: %v", i+2, err)
			}
		}
	} else {
		headers := []interface{}{"#", "Player", "Total score", "Correct answers", "Games played", "Avg time (ms)"}
		if err := sw.SetRow("A1", headers); err != nil {
			log.Printf("[LeaderboardHandler] Failed to write headers: %v", err)
		}
		for i := range result.Aggregates {
			a := &result.Aggregates[i]
			cell := fmt.Sprintf("A%d", i+2)
			row := []interface{}{i + 1, sanitizeForExcel(a.Name), a.TotalScore, a.TotalCorrect, a.GamesPlayed, a.AverageTimeMs}
			if err := sw.SetRow(cell, row); err != nil {
				log.Printf("[LeaderboardHandler] Failed to write row %d: %v", i+2, err)
			}
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[LeaderboardHandler] Flush failed: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LeaderboardHandler] Failed to write Excel to response: %v", err)
	}
}

func (h *LeaderboardHandler) handleLeaderboardError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrStorageUnavailable) {
		log.Printf("ERROR: Storage unavailable in LeaderboardHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	} else {
		log.Printf("ERROR: Internal server error in LeaderboardHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
