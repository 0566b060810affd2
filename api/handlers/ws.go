package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"chirp/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSFeedHandler - WebSocket endpoint для live-ленты: клиент получает
// событие о каждом новом посте
func WSFeedHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	services.GlobalWSConnManager.Add(conn)
	defer services.GlobalWSConnManager.Remove(conn)

	ack := map[string]string{"event": "connected"}
	if userID, exists := c.Get("user_id"); exists {
		ack["user_id"] = userID.(string)
	}
	ackData, _ := json.Marshal(ack)
	_ = conn.WriteMessage(websocket.TextMessage, ackData)

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
		// Входящие сообщения не обрабатываем, клиент только слушает
	}
}
