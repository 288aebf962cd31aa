package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/NewsHub/internal/collector"
	"github.com/LJTian/NewsHub/internal/config"
	"github.com/LJTian/NewsHub/internal/storage"
	"golang.org/x/time/rate"
)

// 为没有配图的文章抓取原文页面补图
func main() {
	limit := flag.Int("limit", 0, "最多处理多少篇，0 表示全部")
	perSecond := flag.Float64("rate", 2, "每秒最多访问多少个文章页面")
	timeout := flag.Duration("timeout", 5*time.Second, "单个页面的抓取超时")
	flag.Parse()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialector, err := storage.OpenDialector(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}
	store, err := storage.NewStore(dialector, cfg.RedisAddr, storage.OpenMirror(ctx, cfg.MongoDBURL, cfg.MongoDB))
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}
	defer store.Close(context.Background())

	articles, err := store.ListArticlesMissingImage(ctx, *limit)
	if err != nil {
		log.Fatalf("list articles failed: %v", err)
	}
	log.Printf("found %d articles without images", len(articles))

	finder := collector.NewPageImageFinder(*timeout)
	finder.Limiter = rate.NewLimiter(rate.Limit(*perSecond), 1)

	updated, failed := 0, 0
	for _, a := range articles {
		if ctx.Err() != nil {
			break
		}
		if a.Link == "" {
			continue
		}
		img, err := finder.FindContext(ctx, a.Link)
		if err != nil || img == "" {
			failed++
			continue
		}
		if err := store.UpdateArticleImage(ctx, a.ID, img); err != nil {
			log.Printf("warn: update image for %d: %v", a.ID, err)
			failed++
			continue
		}
		updated++
		log.Printf("updated: %s", a.Title)
	}

	log.Printf("updated %d articles with images", updated)
	if failed > 0 {
		log.Printf("warn: could not update %d articles", failed)
	}
}
