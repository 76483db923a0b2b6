package models

import (
	"sync"

	"github.com/google/uuid"
)

// Card 代表牌組中的一張牌
type Card struct {
	DisplayName string  `json:"displayName"`
	Value       float64 `json:"value"`
}

// Deck 代表一副估點牌組，建立房間後不可變更
type Deck struct {
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Vote 代表一位訪客在當前回合的出牌
// VoteValue 是牌組的索引，nil 表示尚未出牌或已收回
type Vote struct {
	GuestID   string `json:"guestId"`
	VoteValue *int   `json:"voteValue"`
}

// Round 是一個回合中所有出牌的集合，每位訪客至多一筆
type Round []Vote

// VoteOf 找出某位訪客的出牌，不存在時回傳 nil
func (r Round) VoteOf(guestID string) *Vote {
	for i := range r {
		if r[i].GuestID == guestID {
			return &r[i]
		}
	}
	return nil
}

// Clone 複製一份回合內容，之後回合再怎麼變動都不影響副本
func (r Round) Clone() Round {
	cloned := make(Round, len(r))
	copy(cloned, r)
	return cloned
}

// Room 代表一場估點會議：成員、牌組、當前回合與歷史紀錄
type Room struct {
	ID             string
	RoomName       string
	AdminID        string // 建立者的訪客 ID，目前僅供參考，不作為權限判斷
	Deck           Deck
	Guests         []*Guest
	CurrentRound   Round
	PreviousRounds []Round
	IsRevealed     bool

	// 同一個房間的指令必須互斥執行，不同房間彼此獨立
	Mu sync.Mutex
}

// NewRoom 建立新房間，建立者為唯一成員兼管理員
func NewRoom(roomName string, deck Deck, admin *Guest) *Room {
	return &Room{
		ID:             uuid.New().String(),
		RoomName:       roomName,
		AdminID:        admin.ID,
		Deck:           deck,
		Guests:         []*Guest{admin},
		CurrentRound:   Round{},
		PreviousRounds: []Round{},
	}
}

// GuestByID 以訪客 ID 尋找成員
func (r *Room) GuestByID(guestID string) *Guest {
	for _, guest := range r.Guests {
		if guest.ID == guestID {
			return guest
		}
	}
	return nil
}

// GuestBySecret 以重連憑證尋找成員
func (r *Room) GuestBySecret(secretID string) *Guest {
	for _, guest := range r.Guests {
		if guest.SecretID == secretID {
			return guest
		}
	}
	return nil
}

// GuestByConnection 以連線 ID 尋找成員
func (r *Room) GuestByConnection(connID string) *Guest {
	for _, guest := range r.Guests {
		if guest.HasConnection(connID) {
			return guest
		}
	}
	return nil
}

// AddPendingVote 為訪客加入一筆未出牌的紀錄，已存在時不重複
func (r *Room) AddPendingVote(guestID string) {
	if r.CurrentRound.VoteOf(guestID) != nil {
		return
	}
	r.CurrentRound = append(r.CurrentRound, Vote{GuestID: guestID})
}

// SetVote 更新訪客的出牌，沒有紀錄時新增一筆
func (r *Room) SetVote(guestID string, voteValue *int) {
	if vote := r.CurrentRound.VoteOf(guestID); vote != nil {
		vote.VoteValue = voteValue
		return
	}
	r.CurrentRound = append(r.CurrentRound, Vote{GuestID: guestID, VoteValue: voteValue})
}

// RemoveVote 移除訪客在當前回合的紀錄
func (r *Room) RemoveVote(guestID string) {
	filtered := r.CurrentRound[:0]
	for _, vote := range r.CurrentRound {
		if vote.GuestID != guestID {
			filtered = append(filtered, vote)
		}
	}
	r.CurrentRound = filtered
}

// RemoveGuest 將訪客從房間完全移除，連同其出牌紀錄
func (r *Room) RemoveGuest(guestID string) {
	guests := r.Guests[:0]
	for _, guest := range r.Guests {
		if guest.ID != guestID {
			guests = append(guests, guest)
		}
	}
	r.Guests = guests
	r.RemoveVote(guestID)
}

// PublicGuests 轉出所有成員的公開資料，可排除指定訪客
func (r *Room) PublicGuests(exceptGuestID string) []GuestInfo {
	guests := make([]GuestInfo, 0, len(r.Guests))
	for _, guest := range r.Guests {
		if guest.ID == exceptGuestID {
			continue
		}
		guests = append(guests, guest.Public())
	}
	return guests
}
