package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ryasnov/todo-bot/internal/bot"
	"github.com/ryasnov/todo-bot/internal/config"
	"github.com/ryasnov/todo-bot/internal/session"
	"github.com/ryasnov/todo-bot/internal/storage/blob"
	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
	"github.com/ryasnov/todo-bot/internal/telegram"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/local.yaml"
	}

	cfg, err := config.MustLoad(cfgPath)
	if err != nil {
		log.Fatal("load config:", err)
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("open db:", err)
	}

	blobs, err := blob.New(cfg.StoragePath)
	if err != nil {
		log.Fatal("open blob storage:", err)
	}

	sessions := session.NewRedis(cfg.RedisAddr, cfg.RedisDB)

	client, err := telegram.New(cfg.BotToken)
	if err != nil {
		log.Fatal("bot:", err)
	}
	if err := client.RegisterCommands(); err != nil {
		log.Println("register commands:", err)
	}

	b := bot.New(client, db, blobs, sessions, cfg.PageSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Bot started as @%s with config %s", client.Username(), cfgPath)
	if err := client.Run(ctx, b.HandleIncoming); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
