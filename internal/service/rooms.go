package service

import (
	"log"
	"sync"
	"time"

	"planning_poker/internal/models"
)

// Broadcaster 負責把事件送給房間內的其他連線，由 WebSocket 層實作
type Broadcaster interface {
	JoinRoom(roomID, connID string)
	LeaveRoom(roomID, connID string)
	BroadcastToRoom(roomID, exceptConnID, event string, payload any)
}

// RoomManager 是整個行程的房間目錄：負責找出指令屬於哪個房間、
// 執行房間與訪客的狀態轉移，並觸發對應的廣播
type RoomManager struct {
	mu           sync.RWMutex            // 保護 rooms 與 connRooms
	rooms        map[string]*models.Room // roomID -> Room
	connRooms    map[string]string       // 連線 ID -> roomID
	broadcaster  Broadcaster
	closeTimeout time.Duration
}

func NewRoomManager(broadcaster Broadcaster, closeTimeout time.Duration) *RoomManager {
	return &RoomManager{
		rooms:        make(map[string]*models.Room),
		connRooms:    make(map[string]string),
		broadcaster:  broadcaster,
		closeTimeout: closeTimeout,
	}
}

// CreateRoomResult 是建立房間成功後回覆給建立者的資料
type CreateRoomResult struct {
	RoomID       string `json:"roomId"`
	SecretID     string `json:"secretId"`
	LocalGuestID string `json:"localGuestId"`
}

// RoomSnapshot 是加入或重連房間後回覆給本人的完整房間狀態
// 其他成員的資料一律不含重連憑證
// 快照會在房間鎖之外才被序列化，回合資料必須是複本
type RoomSnapshot struct {
	SecretID       string             `json:"secretId,omitempty"`
	LocalGuestID   string             `json:"localGuestId,omitempty"`
	LocalGuest     *models.LocalGuest `json:"localGuest,omitempty"`
	IsRevealed     bool               `json:"isRevealed"`
	RoomName       string             `json:"roomName"`
	Deck           models.Deck        `json:"deck"`
	Guests         []models.GuestInfo `json:"guests"`
	CurrentRound   models.Round       `json:"currentRound"`
	PreviousRounds []models.Round     `json:"previousRounds"`
}

// CreateRoom 建立新房間，發出指令的連線成為唯一成員兼管理員
// 資料已在上游驗證過，這裡不會失敗
func (m *RoomManager) CreateRoom(deck models.Deck, guestName, roomName, connID string) CreateRoomResult {
	admin := models.NewGuest(guestName, true)
	admin.AttachConnection(connID)

	room := models.NewRoom(roomName, deck, admin)
	room.AddPendingVote(admin.ID)

	m.mu.Lock()
	m.rooms[room.ID] = room
	m.connRooms[connID] = room.ID
	m.mu.Unlock()

	m.broadcaster.JoinRoom(room.ID, connID)
	m.scheduleRoomClose(room.ID)
	log.Printf("room with id %s created", room.ID)

	return CreateRoomResult{
		RoomID:       room.ID,
		SecretID:     admin.SecretID,
		LocalGuestID: admin.ID,
	}
}

// AddGuest 將新訪客加入既有房間
// 房間未開牌時新訪客直接進入當前回合，已開牌則等下一回合
func (m *RoomManager) AddGuest(roomID, guestName, connID string) (*RoomSnapshot, error) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrRoomNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	guest := models.NewGuest(guestName, !room.IsRevealed)
	guest.AttachConnection(connID)

	// 快照中的成員列表不包含新訪客自己
	others := room.PublicGuests(guest.ID)

	room.Guests = append(room.Guests, guest)
	if guest.IsInRound {
		room.AddPendingVote(guest.ID)
	}
	m.connRooms[connID] = roomID
	m.mu.Unlock()

	m.broadcaster.JoinRoom(roomID, connID)
	m.broadcaster.BroadcastToRoom(roomID, connID, "guest_joined", guest.Public())

	return &RoomSnapshot{
		SecretID:       guest.SecretID,
		LocalGuestID:   guest.ID,
		IsRevealed:     room.IsRevealed,
		RoomName:       room.RoomName,
		Deck:           room.Deck,
		Guests:         others,
		CurrentRound:   room.CurrentRound.Clone(),
		PreviousRounds: append([]models.Round(nil), room.PreviousRounds...),
	}, nil
}

// ReconnectGuest 用重連憑證把連線重新附著到既有訪客上
// 同一位訪客可以同時擁有多條連線
func (m *RoomManager) ReconnectGuest(roomID, secretID, connID string) (*RoomSnapshot, error) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrRoomNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	guest := room.GuestBySecret(secretID)
	if guest == nil {
		m.mu.Unlock()
		return nil, ErrGuestNotFound
	}

	guest.AttachConnection(connID)
	m.connRooms[connID] = roomID
	m.mu.Unlock()

	if !room.IsRevealed && !guest.IsSpectator && room.CurrentRound.VoteOf(guest.ID) == nil {
		guest.IsInRound = true
		room.AddPendingVote(guest.ID)
	}

	m.broadcaster.JoinRoom(roomID, connID)
	m.broadcaster.BroadcastToRoom(roomID, connID, "guest_reconnected", guest.ID)

	localGuest := guest.Local()
	return &RoomSnapshot{
		LocalGuest:     &localGuest,
		IsRevealed:     room.IsRevealed,
		RoomName:       room.RoomName,
		Deck:           room.Deck,
		Guests:         room.PublicGuests(guest.ID),
		CurrentRound:   room.CurrentRound.Clone(),
		PreviousRounds: append([]models.Round(nil), room.PreviousRounds...),
	}, nil
}

// RemoveGuest 讓訪客徹底離開房間，身分與憑證一併失效
// 房間因此清空時直接銷毀房間
func (m *RoomManager) RemoveGuest(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := m.roomByConnLocked(connID)
	if room == nil {
		log.Println("guest does not exist in any room")
		return
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	guest := room.GuestByConnection(connID)
	if guest == nil {
		log.Println("guest does not exist in any room")
		return
	}

	// 同一位訪客的所有連線都要離開房間
	for _, id := range guest.ClearConnections() {
		delete(m.connRooms, id)
		m.broadcaster.LeaveRoom(room.ID, id)
	}
	room.RemoveGuest(guest.ID)

	if len(room.Guests) == 0 {
		delete(m.rooms, room.ID)
		return
	}
	m.broadcaster.BroadcastToRoom(room.ID, connID, "guest_left", guest.ID)
}

// DisconnectGuest 處理傳輸層斷線：只移除這一條連線
// 最後一條連線消失時訪客才算離線，回合狀態與出牌一併清掉
func (m *RoomManager) DisconnectGuest(connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := m.roomByConnLocked(connID)
	if room == nil {
		return ErrGuestNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	guest := room.GuestByConnection(connID)
	if guest == nil {
		return ErrGuestNotFound
	}

	delete(m.connRooms, connID)
	m.broadcaster.LeaveRoom(room.ID, connID)

	if guest.DetachConnection(connID) {
		// 還有其他分頁在線，不改變任何狀態也不廣播
		return nil
	}

	guest.IsInRound = false
	guest.IsSpectator = false
	room.RemoveVote(guest.ID)
	m.broadcaster.BroadcastToRoom(room.ID, connID, "guest_disconnected", guest.ID)
	return nil
}

// Vote 更新訪客在當前回合的出牌，voteValue 為 nil 代表收回
func (m *RoomManager) Vote(connID string, voteValue *int) error {
	room := m.roomByConn(connID)
	if room == nil {
		return ErrGuestNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if voteValue != nil && *voteValue > len(room.Deck.Cards)-1 {
		return ErrVoteOutOfRange
	}
	if room.IsRevealed {
		return ErrVoteRevealed
	}

	guest := room.GuestByConnection(connID)
	if guest == nil {
		return ErrGuestNotFound
	}
	if !guest.IsInRound {
		return ErrNotInRound
	}

	if voteValue == nil {
		room.RemoveVote(guest.ID)
	} else {
		room.SetVote(guest.ID, voteValue)
	}

	m.broadcaster.BroadcastToRoom(room.ID, connID, "guest_voted", models.Vote{
		GuestID:   guest.ID,
		VoteValue: voteValue,
	})
	return nil
}

// RevealCards 開牌，之後到下一回合開始前不再接受出牌
// 必須所有在線且在回合中的訪客都已出牌，避免提前洩漏部分結果
func (m *RoomManager) RevealCards(connID string) error {
	room := m.roomByConn(connID)
	if room == nil {
		return ErrGuestNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	for _, guest := range room.Guests {
		if !guest.IsInRound || !guest.IsConnected() {
			continue
		}
		vote := room.CurrentRound.VoteOf(guest.ID)
		if vote == nil || vote.VoteValue == nil {
			return ErrIncompleteVotes
		}
	}
	// 回合中殘留的離線訪客出牌也算未完成，不能被開牌洩漏
	for _, vote := range room.CurrentRound {
		guest := room.GuestByID(vote.GuestID)
		if guest == nil || !guest.IsInRound || !guest.IsConnected() {
			return ErrIncompleteVotes
		}
	}
	if room.IsRevealed {
		return ErrAlreadyRevealed
	}

	room.IsRevealed = true
	m.broadcaster.BroadcastToRoom(room.ID, connID, "cards_revealed", nil)
	return nil
}

// StartNewRound 把當前回合封存進歷史並開啟新回合
// 新回合的成員由當下的在線與觀眾狀態決定，與上一回合無關
func (m *RoomManager) StartNewRound(connID string) error {
	room := m.roomByConn(connID)
	if room == nil {
		return ErrGuestNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if !room.IsRevealed {
		return ErrNotRevealed
	}

	room.PreviousRounds = append(room.PreviousRounds, room.CurrentRound)
	room.CurrentRound = models.Round{}
	for _, guest := range room.Guests {
		if guest.IsConnected() && !guest.IsSpectator {
			guest.IsInRound = true
			room.AddPendingVote(guest.ID)
		} else {
			guest.IsInRound = false
		}
	}
	room.IsRevealed = false

	m.broadcaster.BroadcastToRoom(room.ID, connID, "new_round_started", nil)
	return nil
}

// guestChange 是 guest_changed 廣播的內容，只帶有變動的欄位
type guestChange struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	IsSpectator *bool   `json:"isSpectator,omitempty"`
}

// SetGuestSpectatorStatus 切換觀眾身分
// 成為觀眾會退出當前回合；取消觀眾在未開牌時立即回到回合中，
// 已開牌則等下一回合開始時自動編入
func (m *RoomManager) SetGuestSpectatorStatus(connID string, isSpectator bool) error {
	room := m.roomByConn(connID)
	if room == nil {
		return ErrGuestNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	guest := room.GuestByConnection(connID)
	if guest == nil {
		return ErrGuestNotFound
	}

	guest.IsSpectator = isSpectator
	if isSpectator {
		guest.IsInRound = false
		room.RemoveVote(guest.ID)
	} else if !room.IsRevealed {
		guest.IsInRound = true
		room.AddPendingVote(guest.ID)
	}

	m.broadcaster.BroadcastToRoom(room.ID, connID, "guest_changed", guestChange{
		ID:          guest.ID,
		IsSpectator: &isSpectator,
	})
	return nil
}

// SetGuestName 更改訪客的顯示名稱
func (m *RoomManager) SetGuestName(connID, name string) error {
	room := m.roomByConn(connID)
	if room == nil {
		return ErrGuestNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	guest := room.GuestByConnection(connID)
	if guest == nil {
		return ErrGuestNotFound
	}

	guest.Name = name
	m.broadcaster.BroadcastToRoom(room.ID, connID, "guest_changed", guestChange{
		ID:   guest.ID,
		Name: &name,
	})
	return nil
}

// RoomCount 回傳目前的房間數量
func (m *RoomManager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// scheduleRoomClose 在房間建立時排一次性的閒置清理
// 計時不會因活動重置，到點時房間還有人就只把所有人標記為離線
func (m *RoomManager) scheduleRoomClose(roomID string) {
	time.AfterFunc(m.closeTimeout, func() {
		m.closeIdleRoom(roomID)
	})
}

func (m *RoomManager) closeIdleRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		log.Println("room does not exist")
		return
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if len(room.Guests) == 0 {
		delete(m.rooms, roomID)
		return
	}
	for _, guest := range room.Guests {
		for _, connID := range guest.ClearConnections() {
			delete(m.connRooms, connID)
			m.broadcaster.LeaveRoom(roomID, connID)
		}
	}
}

// roomByConn 找出某條連線所屬的房間，找不到時回傳 nil
func (m *RoomManager) roomByConn(connID string) *models.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roomByConnLocked(connID)
}

func (m *RoomManager) roomByConnLocked(connID string) *models.Room {
	roomID, ok := m.connRooms[connID]
	if !ok {
		return nil
	}
	return m.rooms[roomID]
}
