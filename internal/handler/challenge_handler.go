package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/culture-king-api/internal/handler/dto"
	"github.com/yourusername/culture-king-api/internal/middleware"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
	"github.com/yourusername/culture-king-api/internal/service"
)

// ChallengeHandler обрабатывает запросы дневного челленджа
type ChallengeHandler struct {
	challengeService *service.ChallengeService
}

// NewChallengeHandler создает новый обработчик дневного челленджа
func NewChallengeHandler(challengeService *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// GetDailyChallenge возвращает состояние челленджа для пользователя:
// вопросы дня либо уже сохраненный результат
func (h *ChallengeHandler) GetDailyChallenge(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	state, err := h.challengeService.GetState(c.Request.Context(), ident)
	if err != nil {
		h.handleChallengeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewChallengeStateResponse(state))
}

// SubmitResult принимает результат прохождения и возвращает счет и место.
// Счет всегда пересчитывается на сервере.
func (h *ChallengeHandler) SubmitResult(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.challengeService.Submit(c.Request.Context(), ident, *req.CorrectAnswers, *req.TimeTaken)
	if err != nil {
		h.handleChallengeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResultResponse{
		Score:          attempt.Score,
		Rank:           attempt.Rank,
		CorrectAnswers: attempt.CorrectAnswers,
		TimeTaken:      attempt.TimeTakenMs,
	})
}

// ResetAttempt удаляет попытку пользователя за текущий игровой день
func (h *ChallengeHandler) ResetAttempt(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.challengeService.Reset(c.Request.Context(), ident); err != nil {
		h.handleChallengeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Daily challenge attempt reset"})
}

// handleChallengeError преобразует ошибки сервисов в HTTP-статусы.
// Детали внутренних ошибок клиенту не раскрываются.
func (h *ChallengeHandler) handleChallengeError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUpstreamUnavailable) {
		log.Printf("ERROR: Questions upstream unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Questions are temporarily unavailable"})
	} else if errors.Is(err, apperrors.ErrStorageUnavailable) {
		log.Printf("ERROR: Storage unavailable in ChallengeHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	} else {
		log.Printf("ERROR: Internal server error in ChallengeHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
