package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"planning_poker/internal/api/handlers"
	"planning_poker/internal/service"
	"planning_poker/pkg/config"
)

var startTime = time.Now()

func SetupRoutes(r *gin.Engine, services *service.Services, cfg *config.Config) {
	wsHandler := handlers.NewWebSocketHandler(services.WebSocketManager, services.RoomManager, cfg.Server.CorsOrigin)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 基本的健康檢查
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(startTime).Seconds(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// 所有房間指令都走這條 WebSocket 連線
	r.GET("/ws", wsHandler.HandleWebSocket)
}
