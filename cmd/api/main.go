package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/LJTian/NewsHub/internal/api"
	"github.com/LJTian/NewsHub/internal/collector"
	"github.com/LJTian/NewsHub/internal/config"
	"github.com/LJTian/NewsHub/internal/ingest"
	"github.com/LJTian/NewsHub/internal/metrics"
	"github.com/LJTian/NewsHub/internal/processor"
	"github.com/LJTian/NewsHub/internal/scheduler"
	"github.com/LJTian/NewsHub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialector, err := storage.OpenDialector(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}
	mirror := storage.OpenMirror(ctx, cfg.MongoDBURL, cfg.MongoDB)
	store, err := storage.NewStore(dialector, cfg.RedisAddr, mirror)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	sources := collector.DefaultSources()
	if err := store.EnsureCategories(ctx, collector.CategoriesOf(sources)); err != nil {
		log.Fatalf("ensure categories failed: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	normalizer := processor.NewNormalizer()
	if cfg.FetchPageImages {
		normalizer.PageImages = collector.NewPageImageFinder(0)
	}
	pipeline := ingest.New(sources, collector.NewRSSFetcher(cfg.FeedTimeout), normalizer, store)
	pipeline.Metrics = metrics.NewCollector(reg)

	s, err := scheduler.New(cfg.CronSpec, pipeline)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.Default()
	api.NewServer(store, s, collector.CategoriesOf(sources)).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	// 若配置了前端目录，则托管 SPA 静态文件并做 fallback
	if cfg.WebRoot != "" {
		assetsDir := filepath.Join(cfg.WebRoot, "assets")
		indexFile := filepath.Join(cfg.WebRoot, "index.html")
		r.Static("/assets", assetsDir)
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.Status(http.StatusNotFound)
				return
			}
			// SPA：未匹配 API 的 GET 均返回 index.html
			c.File(indexFile)
		})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("starting api server at %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("warn: http shutdown: %v", err)
	}
	// 等后台采集结束再关闭存储，最多再等 30 秒
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	if err := s.Stop(stopCtx); err != nil {
		log.Printf("warn: scheduler stop: %v", err)
	}
	store.Close(context.Background())
}
