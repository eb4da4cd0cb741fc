package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestMustLoad(t *testing.T) {
	path := writeConfig(t, `
bot_token: "token-123"
db_path: "data/todo.db"
storage_path: "data/files"
redis_addr: "redis:6379"
redis_db: 3
page_size: 5
`)
	cfg, err := MustLoad(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "token-123" || cfg.DBPath != "data/todo.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 3 || cfg.PageSize != 5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestMustLoadDefaults(t *testing.T) {
	path := writeConfig(t, `bot_token: "t"`)
	cfg, err := MustLoad(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "todo.db" || cfg.StoragePath != "storage" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.PageSize != 2 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestMustLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
bot_token: "from-file"
redis_db: 1
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("REDIS_DB", "7")

	cfg, err := MustLoad(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BotToken != "from-env" {
		t.Fatalf("expected env token, got %q", cfg.BotToken)
	}
	if cfg.RedisDB != 7 {
		t.Fatalf("expected env redis db, got %d", cfg.RedisDB)
	}
}

func TestMustLoadMissingFile(t *testing.T) {
	if _, err := MustLoad(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
