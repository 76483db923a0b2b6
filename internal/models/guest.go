package models

import (
	"github.com/google/uuid"
)

// Guest 代表房間中的一位訪客
// 身分（ID 和 SecretID）獨立於任何單一連線，斷線後仍會保留在房間中
type Guest struct {
	ID          string
	SecretID    string // 重連憑證，只發給本人，不對其他訪客揭露
	Name        string
	IsInRound   bool
	IsSpectator bool

	// 目前附著在這位訪客上的連線集合，支援同一人多分頁/多裝置同時在線
	connections map[string]struct{}
}

// NewGuest 建立一位新訪客並產生身分識別
func NewGuest(name string, isInRound bool) *Guest {
	return &Guest{
		ID:          uuid.New().String(),
		SecretID:    uuid.New().String(),
		Name:        name,
		IsInRound:   isInRound,
		connections: make(map[string]struct{}),
	}
}

// IsConnected 只由連線集合推導，避免另外儲存布林值造成狀態不同步
func (g *Guest) IsConnected() bool {
	return len(g.connections) > 0
}

// AttachConnection 將一條連線附著到訪客上
func (g *Guest) AttachConnection(connID string) {
	if g.connections == nil {
		g.connections = make(map[string]struct{})
	}
	g.connections[connID] = struct{}{}
}

// DetachConnection 移除一條連線，回傳移除後是否仍有其他連線
func (g *Guest) DetachConnection(connID string) bool {
	delete(g.connections, connID)
	return len(g.connections) > 0
}

// ClearConnections 清空所有連線並回傳被清掉的連線 ID
func (g *Guest) ClearConnections() []string {
	ids := make([]string, 0, len(g.connections))
	for id := range g.connections {
		ids = append(ids, id)
	}
	g.connections = make(map[string]struct{})
	return ids
}

// HasConnection 檢查某條連線是否屬於這位訪客
func (g *Guest) HasConnection(connID string) bool {
	_, ok := g.connections[connID]
	return ok
}

// GuestInfo 是對外廣播與快照用的訪客資料，永遠不含 SecretID
type GuestInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsConnected bool   `json:"isConnected"`
	IsInRound   bool   `json:"isInRound"`
	IsSpectator bool   `json:"isSpectator"`
}

// LocalGuest 是回傳給本人的訪客資料，比 GuestInfo 多了重連憑證
type LocalGuest struct {
	GuestInfo
	SecretID string `json:"secretId"`
}

// Public 轉出可以廣播給其他訪客的資料
func (g *Guest) Public() GuestInfo {
	return GuestInfo{
		ID:          g.ID,
		Name:        g.Name,
		IsConnected: g.IsConnected(),
		IsInRound:   g.IsInRound,
		IsSpectator: g.IsSpectator,
	}
}

// Local 轉出回傳給本人的資料
func (g *Guest) Local() LocalGuest {
	return LocalGuest{
		GuestInfo: g.Public(),
		SecretID:  g.SecretID,
	}
}
