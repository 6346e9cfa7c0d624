// Package websocket реализует живую ленту лидерборда: каждая принятая
// попытка рассылается всем подключенным зрителям. Лента необязательна
// для игры — клиент может обойтись обычным опросом /daily-leaderboard.
package websocket

import (
	"encoding/json"
	"log"

	"github.com/yourusername/culture-king-api/internal/domain/entity"
)

// Event представляет сообщение живой ленты
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub управляет подключенными клиентами и рассылкой событий
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub создает новый хаб живой ленты
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run запускает цикл обработки хаба; завершается закрытием done
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Медленный клиент: буфер переполнен, отключаем
					delete(h.clients, client)
					close(client.send)
				}
			}
		case <-done:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// BroadcastAttempt рассылает новую попытку всем зрителям ленты
func (h *Hub) BroadcastAttempt(attempt *entity.DailyAttempt) {
	payload, err := json.Marshal(Event{Type: "attempt", Data: attempt})
	if err != nil {
		log.Printf("[WS] Failed to marshal attempt event: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		// Переполненная очередь рассылки не должна блокировать отправку результата
		log.Printf("[WS] Broadcast queue full, dropping event")
	}
}
