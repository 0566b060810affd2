package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConnManager держит подключения live-ленты. Лента публичная,
// поэтому события уходят всем подключенным клиентам.
type WSConnManager struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (m *WSConnManager) Add(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[conn] = struct{}{}
}

func (m *WSConnManager) Remove(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, conn)
}

func (m *WSConnManager) Broadcast(message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for conn := range m.conns {
		_ = conn.WriteMessage(websocket.TextMessage, message)
	}
}

var GlobalWSConnManager = NewWSConnManager()

// BroadcastPostEvent оборачивает событие в клиентский формат и
// рассылает его
func BroadcastPostEvent(event PostEvent) {
	pushMsg := struct {
		Event     string    `json:"event"`
		PostID    string    `json:"post_id"`
		AuthorID  string    `json:"author_id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}{
		Event:     "post_created",
		PostID:    event.PostID,
		AuthorID:  event.AuthorID,
		Content:   event.Content,
		CreatedAt: event.CreatedAt,
	}
	pushData, err := json.Marshal(pushMsg)
	if err != nil {
		log.Println("Failed to marshal push message:", err)
		return
	}
	GlobalWSConnManager.Broadcast(pushData)
}
