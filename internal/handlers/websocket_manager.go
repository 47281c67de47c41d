package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Manager tracks websocket subscribers per topic and broadcasts trade
// events to them. It is the notifier implementation: publishing is fire
// and forget, a dead connection is dropped on the first failed write.
type Manager struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	topics map[string]map[*websocket.Conn]bool
}

func NewWebSocketManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		topics: make(map[string]map[*websocket.Conn]bool),
	}
}

func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return m.upgrader.Upgrade(w, r, nil)
}

// Subscribe registers the connection for a topic.
func (m *Manager) Subscribe(topic string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subscribers, ok := m.topics[topic]
	if !ok {
		subscribers = make(map[*websocket.Conn]bool)
		m.topics[topic] = subscribers
	}
	subscribers[conn] = true
}

// Unsubscribe removes the connection from a topic.
func (m *Manager) Unsubscribe(topic string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if subscribers, ok := m.topics[topic]; ok {
		delete(subscribers, conn)
		if len(subscribers) == 0 {
			delete(m.topics, topic)
		}
	}
}

// Publish broadcasts the payload to every subscriber of the topic.
func (m *Manager) Publish(topic string, payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("Failed to marshal notification payload", "topic", topic, "error", err)
		return
	}

	m.mu.RLock()
	subscribers := make([]*websocket.Conn, 0, len(m.topics[topic]))
	for conn := range m.topics[topic] {
		subscribers = append(subscribers, conn)
	}
	m.mu.RUnlock()

	for _, conn := range subscribers {
		if err = conn.WriteMessage(websocket.TextMessage, message); err != nil {
			m.logger.Error("Failed to write notification, dropping subscriber",
				"topic", topic, "error", err)
			m.Unsubscribe(topic, conn)
			conn.Close()
		}
	}
}
