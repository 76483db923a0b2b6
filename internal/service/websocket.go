package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"planning_poker/internal/models"
)

// Client 代表一條 WebSocket 連線
type Client struct {
	ID       string                     // 連線的不透明識別碼
	Conn     *websocket.Conn            // WebSocket 連線
	SendChan chan *models.ServerMessage // 發送通道，用於異步傳送訊息
}

// WebSocketManager 管理所有連線與房間成員關係，並提供房間廣播能力
type WebSocketManager struct {
	mu      sync.RWMutex
	clients map[string]*Client            // 連線 ID -> Client
	rooms   map[string]map[string]*Client // roomID -> 連線 ID -> Client
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register 為一條新連線建立 Client 並編入管理
func (m *WebSocketManager) Register(conn *websocket.Conn) *Client {
	client := &Client{
		ID:       uuid.New().String(),
		Conn:     conn,
		SendChan: make(chan *models.ServerMessage, 256),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()

	return client
}

// Unregister 移除連線，連同任何殘留的房間成員關係
func (m *WebSocketManager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.clients, client.ID)
	for roomID, members := range m.rooms {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// JoinRoom 把連線編入房間的廣播名單
func (m *WebSocketManager) JoinRoom(roomID, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[connID]
	if !ok {
		return
	}
	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[string]*Client)
	}
	m.rooms[roomID][connID] = client
}

// LeaveRoom 把連線從房間的廣播名單移除
func (m *WebSocketManager) LeaveRoom(roomID, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(m.rooms, roomID)
	}
}

// BroadcastToRoom 向房間內除了 exceptConnID 以外的所有連線廣播事件
func (m *WebSocketManager) BroadcastToRoom(roomID, exceptConnID, event string, payload any) {
	msg := models.NewBroadcast(event, payload)

	m.mu.RLock()
	members := make([]*Client, 0, len(m.rooms[roomID]))
	for connID, client := range m.rooms[roomID] {
		if connID == exceptConnID {
			continue
		}
		members = append(members, client)
	}
	m.mu.RUnlock()

	for _, client := range members {
		m.Send(client, msg)
	}
}

// Send 把訊息排進連線的發送通道
// 通道滿了代表對端讀不動，直接斷線讓它走重連流程
func (m *WebSocketManager) Send(client *Client, msg *models.ServerMessage) {
	select {
	case client.SendChan <- msg:
	default:
		log.Printf("send channel full, closing connection %s", client.ID)
		m.Unregister(client)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

// WritePump 處理向客戶端發送訊息與心跳
func (m *WebSocketManager) WritePump(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			messageBytes, err := json.Marshal(message)
			if err != nil {
				log.Printf("message encoding error: %v", err)
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, messageBytes); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
