// Package api 處理 HTTP 路由與 WebSocket 指令入口。
//
// 這個包負責把 WebSocket 封包轉換為適當的服務調用，
// 並把結果透過回覆封包送回客戶端。
package api
