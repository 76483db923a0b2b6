package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"planning_poker/internal/models"
	"planning_poker/internal/service"
)

const (
	maxGuestNameLen = 16
	maxDeckNameLen  = 30
	maxCardNameLen  = 12
)

type createRoomRequest struct {
	GuestName string      `json:"guestName"`
	RoomName  string      `json:"roomName"`
	Deck      models.Deck `json:"deck"`
}

type joinRoomRequest struct {
	GuestName string `json:"guestName"`
	RoomID    string `json:"roomId"`
}

type rejoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	SecretID string `json:"secretId"`
}

// dispatch 依事件名稱把指令轉交給房間目錄
// 資料驗證在這一層完成，核心只會收到合法的內容
func (h *WebSocketHandler) dispatch(client *service.Client, msg *models.ClientMessage) {
	switch msg.Event {
	case "create_room":
		h.createRoom(client, msg)
	case "join_room":
		h.joinRoom(client, msg)
	case "rejoin_room":
		h.rejoinRoom(client, msg)
	case "vote":
		h.vote(client, msg)
	case "reveal_cards":
		h.replyOnly(client, msg, h.rooms.RevealCards)
	case "start_new_round":
		h.replyOnly(client, msg, h.rooms.StartNewRound)
	case "set_guest_spectator_status":
		h.setSpectatorStatus(client, msg)
	case "set_guest_name":
		h.setGuestName(client, msg)
	case "leaveRoom":
		h.rooms.RemoveGuest(client.ID)
	default:
		log.Printf("unknown event %q from connection %s", msg.Event, client.ID)
	}
}

func (h *WebSocketHandler) createRoom(client *service.Client, msg *models.ClientMessage) {
	var req createRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		log.Printf("invalid props to create room request: %v", err)
		return
	}
	if err := validateCreateRoom(&req); err != nil {
		log.Printf("invalid props to create room request: %v", err)
		return
	}

	result := h.rooms.CreateRoom(req.Deck, req.GuestName, req.RoomName, client.ID)
	h.ack(client, msg.RequestID, result)
}

func (h *WebSocketHandler) joinRoom(client *service.Client, msg *models.ClientMessage) {
	var req joinRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		log.Printf("invalid props to join room request: %v", err)
		return
	}
	if err := validateJoinRoom(&req); err != nil {
		log.Printf("invalid props to join room request: %v", err)
		return
	}

	snapshot, err := h.rooms.AddGuest(req.RoomID, req.GuestName, client.ID)
	if err != nil {
		log.Printf("join room %s: %v", req.RoomID, err)
		h.ackError(client, msg.RequestID, err)
		return
	}
	h.ack(client, msg.RequestID, snapshot)
}

func (h *WebSocketHandler) rejoinRoom(client *service.Client, msg *models.ClientMessage) {
	var req rejoinRoomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		log.Printf("invalid props to rejoin room request: %v", err)
		return
	}
	if req.RoomID == "" || req.SecretID == "" {
		log.Println("invalid props to rejoin room request")
		return
	}

	snapshot, err := h.rooms.ReconnectGuest(req.RoomID, req.SecretID, client.ID)
	if err != nil {
		log.Printf("rejoin room %s: %v", req.RoomID, err)
		h.ackError(client, msg.RequestID, err)
		return
	}
	h.ack(client, msg.RequestID, snapshot)
}

// vote 在狀態機層面失敗只記錄不報錯；客戶端有帶 requestId 才回覆結果
func (h *WebSocketHandler) vote(client *service.Client, msg *models.ClientMessage) {
	voteValue, err := parseVoteValue(msg.Payload)
	if err != nil {
		log.Printf("invalid props to vote request: %v", err)
		return
	}

	err = h.rooms.Vote(client.ID, voteValue)
	if err != nil {
		log.Printf("vote from connection %s: %v", client.ID, err)
	}
	if msg.RequestID != "" {
		h.ackResult(client, msg.RequestID, err)
	}
}

func (h *WebSocketHandler) setSpectatorStatus(client *service.Client, msg *models.ClientMessage) {
	var isSpectator bool
	if err := json.Unmarshal(msg.Payload, &isSpectator); err != nil {
		log.Printf("invalid props to set guest spectator status request: %v", err)
		return
	}
	h.ackResult(client, msg.RequestID, h.rooms.SetGuestSpectatorStatus(client.ID, isSpectator))
}

func (h *WebSocketHandler) setGuestName(client *service.Client, msg *models.ClientMessage) {
	var name string
	if err := json.Unmarshal(msg.Payload, &name); err != nil {
		log.Printf("invalid props to set guest name request: %v", err)
		return
	}
	if err := validateGuestName(name); err != nil {
		log.Printf("invalid props to set guest name request: %v", err)
		return
	}
	h.ackResult(client, msg.RequestID, h.rooms.SetGuestName(client.ID, name))
}

// replyOnly 處理沒有請求內容、只需要回報成功與否的指令
func (h *WebSocketHandler) replyOnly(client *service.Client, msg *models.ClientMessage, op func(string) error) {
	h.ackResult(client, msg.RequestID, op(client.ID))
}

// ack 回覆成功結果
func (h *WebSocketHandler) ack(client *service.Client, requestID string, payload any) {
	h.wsManager.Send(client, models.NewResponse(requestID, payload))
}

type errorReply struct {
	Error *string `json:"error"`
}

// ackResult 把操作結果轉成 {error: null} 或 {error: 訊息} 的回覆
func (h *WebSocketHandler) ackResult(client *service.Client, requestID string, err error) {
	if err != nil {
		h.ackError(client, requestID, err)
		return
	}
	h.ack(client, requestID, errorReply{})
}

func (h *WebSocketHandler) ackError(client *service.Client, requestID string, err error) {
	message := err.Error()
	h.ack(client, requestID, errorReply{Error: &message})
}

func validateCreateRoom(req *createRoomRequest) error {
	if err := validateGuestName(req.GuestName); err != nil {
		return err
	}
	if req.RoomName == "" {
		return errors.New("room name is required")
	}
	return validateDeck(&req.Deck)
}

func validateJoinRoom(req *joinRoomRequest) error {
	if err := validateGuestName(req.GuestName); err != nil {
		return err
	}
	if req.RoomID == "" {
		return errors.New("room id is required")
	}
	return nil
}

func validateGuestName(name string) error {
	if name == "" {
		return errors.New("guest name is required")
	}
	if len([]rune(name)) > maxGuestNameLen {
		return errors.New("guest name is too long")
	}
	return nil
}

func validateDeck(deck *models.Deck) error {
	if len([]rune(deck.Name)) > maxDeckNameLen {
		return errors.New("deck name is too long")
	}
	if len(deck.Cards) == 0 {
		return errors.New("deck needs at least one card")
	}
	for _, card := range deck.Cards {
		if card.DisplayName == "" {
			return errors.New("card display name is required")
		}
		if len([]rune(card.DisplayName)) > maxCardNameLen {
			return errors.New("card display name is too long")
		}
		if card.Value < 0 {
			return errors.New("card value must not be negative")
		}
	}
	return nil
}

// parseVoteValue 解析 vote 的內容：一個非負整數或 null
func parseVoteValue(payload json.RawMessage) (*int, error) {
	var voteValue *int
	if err := json.Unmarshal(payload, &voteValue); err != nil {
		return nil, err
	}
	if voteValue != nil && *voteValue < 0 {
		return nil, errors.New("vote value must not be negative")
	}
	return voteValue, nil
}
