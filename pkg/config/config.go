package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Room   RoomConfig
}

type ServerConfig struct {
	Address    string
	CorsOrigin string
}

type RoomConfig struct {
	// 房間建立後多少分鐘執行一次閒置清理
	CloseTimeoutMinutes int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	// 沒有配置文件時使用預設值，這個服務不依賴任何外部資源
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.corsorigin", "*")
	viper.SetDefault("room.closetimeoutminutes", 10)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
