package service

import "time"

type Services struct {
	RoomManager      *RoomManager
	WebSocketManager *WebSocketManager
}

func NewServices(roomCloseTimeout time.Duration) *Services {
	wsManager := NewWebSocketManager()
	roomManager := NewRoomManager(wsManager, roomCloseTimeout)

	return &Services{
		RoomManager:      roomManager,
		WebSocketManager: wsManager,
	}
}
