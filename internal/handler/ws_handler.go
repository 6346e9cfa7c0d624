package handler

import (
	"github.com/gin-gonic/gin"

	ws "github.com/yourusername/culture-king-api/internal/websocket"
)

// WSHandler обрабатывает подключения к живой ленте лидерборда
type WSHandler struct {
	hub *ws.Hub
}

// NewWSHandler создает новый обработчик WebSocket-подключений
func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleConnection апгрейдит запрос до WebSocket и подключает зрителя к ленте
func (h *WSHandler) HandleConnection(c *gin.Context) {
	ws.ServeWS(h.hub, c.Writer, c.Request)
}
