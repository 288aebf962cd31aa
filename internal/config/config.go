package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	// DatabaseDriver postgres（默认）或 sqlite
	DatabaseDriver string
	PostgresDSN    string
	SQLitePath     string
	RedisAddr      string

	// MongoDBURL 为空时不启用镜像库
	MongoDBURL string
	MongoDB    string

	CronSpec string

	// FeedTimeout 单个 RSS 源的抓取超时
	FeedTimeout time.Duration
	// FetchPageImages 是否在摘要里找不到图片时抓取文章页面补图（较慢，默认关闭）
	FetchPageImages bool

	// WebRoot 前端静态文件目录，可为空
	WebRoot string
}

func Load() *Config {
	// 本地开发时从 .env 读取，文件不存在不算错误
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: load .env failed: %v", err)
	}

	cfg := &Config{
		AppPort:         getEnv("APP_PORT", "9000"),
		DatabaseDriver:  strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		PostgresDSN:     getEnv("POSTGRES_DSN", "host=localhost user=newshub password=newshub dbname=newshub port=5432 sslmode=disable TimeZone=UTC"),
		SQLitePath:      getEnv("SQLITE_PATH", "newshub.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MongoDBURL:      getEnv("MONGODB_URL", ""),
		MongoDB:         getEnv("MONGODB_DB", "news_aggregator"),
		CronSpec:        getEnv("CRON_SPEC", "0 * * * *"),
		FeedTimeout:     getDuration("FEED_TIMEOUT", 15*time.Second),
		FetchPageImages: getBool("FETCH_PAGE_IMAGES", false),
		WebRoot:         getEnv("WEB_ROOT", ""),
	}

	log.Printf("config loaded: port=%s db=%s cron=%s mirror=%t pageImages=%t",
		cfg.AppPort, cfg.DatabaseDriver, cfg.CronSpec, cfg.MongoDBURL != "", cfg.FetchPageImages)
	return cfg
}

// DSN 返回当前驱动对应的连接串
func (c *Config) DSN() string {
	if c.DatabaseDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.PostgresDSN
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("warn: invalid bool %s=%q, use default %t", key, v, def)
		return def
	}
	return b
}

// getDuration 支持 "15s" 这样的写法，也兼容纯数字（按秒）
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Printf("warn: invalid duration %s=%q, use default %s", key, v, def)
	return def
}
