package models

import "encoding/json"

// ClientMessage 是客戶端透過 WebSocket 送來的指令封包
// RequestID 是客戶端帶的對應編號，需要回覆的指令用它配對回應
type ClientMessage struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage 是伺服器送出的封包，指令回覆與房間廣播共用
type ServerMessage struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// NewResponse 建立一則指令回覆
func NewResponse(requestID string, payload any) *ServerMessage {
	return &ServerMessage{
		Event:     "response",
		RequestID: requestID,
		Payload:   payload,
	}
}

// NewBroadcast 建立一則房間廣播
func NewBroadcast(event string, payload any) *ServerMessage {
	return &ServerMessage{
		Event:   event,
		Payload: payload,
	}
}
