package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/LJTian/NewsHub/internal/config"
	"github.com/LJTian/NewsHub/internal/storage"
)

// 把主库已有数据全量写入 MongoDB 镜像，用于首次启用镜像或镜像落后时
func main() {
	cfg := config.Load()
	if cfg.MongoDBURL == "" {
		log.Fatal("MONGODB_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 与 OpenMirror 不同，这里连不上镜像库直接失败
	mirror, err := storage.NewMongoMirror(ctx, cfg.MongoDBURL, cfg.MongoDB, 0)
	if err != nil {
		log.Fatalf("connect mongodb failed: %v", err)
	}

	dialector, err := storage.OpenDialector(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}
	store, err := storage.NewStore(dialector, "", mirror)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}
	defer store.Close(context.Background())

	log.Println("starting mongodb sync...")
	stats, err := store.SyncMirror(ctx)
	if err != nil {
		log.Printf("warn: sync stopped early: %v", err)
	}
	log.Printf("sync done: %s", stats)
}
