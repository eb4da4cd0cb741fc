package config

import (
	"os"
	"strconv"

	goyaml "gopkg.in/yaml.v3"
)

type Config struct {
	BotToken    string `yaml:"bot_token"`
	DBPath      string `yaml:"db_path"`
	StoragePath string `yaml:"storage_path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	PageSize    int    `yaml:"page_size"`
}

func MustLoad(path string) (*Config, error) {
	cfg := &Config{}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := goyaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		cfg.StoragePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "todo.db"
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = "storage"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 2
	}
	return cfg, nil
}
