package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LJTian/NewsHub/internal/collector"
	"github.com/LJTian/NewsHub/internal/config"
	"github.com/LJTian/NewsHub/internal/ingest"
	"github.com/LJTian/NewsHub/internal/processor"
	"github.com/LJTian/NewsHub/internal/scheduler"
	"github.com/LJTian/NewsHub/internal/storage"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
func main() {
	strict := flag.Bool("strict", false, "有分类本轮没有新文章时以非零状态退出")
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

	// 确保各个分类存在（与 cmd/api 保持一致）
	sources := collector.DefaultSources()
	if err := store.EnsureCategories(ctx, collector.CategoriesOf(sources)); err != nil {
		log.Fatalf("ensure categories failed: %v", err)
	}

	normalizer := processor.NewNormalizer()
	if cfg.FetchPageImages {
		normalizer.PageImages = collector.NewPageImageFinder(0)
	}
	p := ingest.New(sources, collector.NewRSSFetcher(cfg.FeedTimeout), normalizer, store)

	s, err := scheduler.New(cfg.CronSpec, p)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}

	// 只执行一轮采集任务后退出
	report := s.RunOnce(ctx)
	fmt.Print(report.Summary())

	if *strict && len(report.EmptyCategories()) > 0 {
		store.Close(context.Background())
		os.Exit(1)
	}
}
