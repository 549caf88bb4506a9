package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`

	HistoryCapacity int `mapstructure:"history_capacity"`
	PersistQueue    int `mapstructure:"persist_queue"`
	PersistWorkers  int `mapstructure:"persist_workers"`

	StoreDriver string `mapstructure:"store_driver"`
	MongoURI    string `mapstructure:"mongo_uri"`
	MongoDB     string `mapstructure:"mongo_db"`
	NatsURL     string `mapstructure:"nats_url"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("history_capacity", 50)
	v.SetDefault("persist_queue", 256)
	v.SetDefault("persist_workers", 2)
	v.SetDefault("store_driver", "none")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "huddle")
	v.SetDefault("nats_url", "nats://localhost:4222")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Store: %s\n", cfg.Mode, cfg.Port, cfg.StoreDriver)
	return &cfg, nil
}
