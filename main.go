package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"planning_poker/internal/api"
	"planning_poker/internal/service"
	"planning_poker/pkg/config"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化服務
	// 所有房間狀態都在記憶體中，行程重啟即全部消失
	services := service.NewServices(time.Duration(cfg.Room.CloseTimeoutMinutes) * time.Minute)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, cfg)

	// 啟動伺服器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
