package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"planning_poker/internal/models"
	"planning_poker/internal/service"
)

// WebSocketHandler 處理 WebSocket 連線與指令分派
type WebSocketHandler struct {
	wsManager *service.WebSocketManager
	rooms     *service.RoomManager
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
// corsOrigin 為 "*" 時允許任何來源
func NewWebSocketHandler(wsManager *service.WebSocketManager, rooms *service.RoomManager, corsOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager: wsManager,
		rooms:     rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if corsOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == corsOrigin
			},
		},
	}
}

// HandleWebSocket 處理 WebSocket 連線請求
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}
	defer conn.Close()

	client := h.wsManager.Register(conn)
	log.Printf("connection %s established", client.ID)

	defer func() {
		// 傳輸層斷線：只拔掉這一條連線，訪客身分保留等待重連
		if err := h.rooms.DisconnectGuest(client.ID); err != nil {
			log.Printf("disconnect %s: %v", client.ID, err)
		}
		h.wsManager.Unregister(client)
		close(client.SendChan)
	}()

	go h.wsManager.WritePump(client)
	h.readLoop(client)
}

// readLoop 持續讀取並分派客戶端指令
func (h *WebSocketHandler) readLoop(client *service.Client) {
	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("message parse error: %v", err)
			continue
		}

		h.dispatch(client, &msg)
	}
}
