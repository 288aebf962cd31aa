package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestGetDurationAcceptsSecondsAndUnits(t *testing.T) {
	const key = "TEST_FEED_TIMEOUT"

	t.Setenv(key, "7")
	if got := getDuration(key, time.Second); got != 7*time.Second {
		t.Fatalf("getDuration plain seconds = %s, want 7s", got)
	}

	t.Setenv(key, "250ms")
	if got := getDuration(key, time.Second); got != 250*time.Millisecond {
		t.Fatalf("getDuration with unit = %s, want 250ms", got)
	}

	// 非法值回退默认
	t.Setenv(key, "soon")
	if got := getDuration(key, 3*time.Second); got != 3*time.Second {
		t.Fatalf("getDuration invalid = %s, want default 3s", got)
	}
}

func TestGetBoolFallsBackOnGarbage(t *testing.T) {
	const key = "TEST_FETCH_PAGE_IMAGES"

	t.Setenv(key, "true")
	if !getBool(key, false) {
		t.Fatalf("getBool(true) = false")
	}
	t.Setenv(key, "maybe")
	if getBool(key, false) {
		t.Fatalf("getBool(maybe) should fall back to default false")
	}
}

func TestLoadReadsPortsAndMirror(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
	t.Setenv("FETCH_PAGE_IMAGES", "1")

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.MongoDBURL != "mongodb://localhost:27017" || cfg.MongoDB != "news_aggregator" {
		t.Fatalf("mirror config not loaded correctly: %+v", cfg)
	}
	if !cfg.FetchPageImages {
		t.Fatalf("FetchPageImages should be enabled")
	}
	if cfg.FeedTimeout != 15*time.Second {
		t.Fatalf("FeedTimeout default = %s, want 15s", cfg.FeedTimeout)
	}
}

func TestDSNFollowsDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/news.db")
	t.Setenv("POSTGRES_DSN", "host=db")

	cfg := Load()
	if cfg.DatabaseDriver != "sqlite" || cfg.DSN() != "/tmp/news.db" {
		t.Fatalf("driver=%q dsn=%q", cfg.DatabaseDriver, cfg.DSN())
	}

	cfg.DatabaseDriver = "postgres"
	if cfg.DSN() != "host=db" {
		t.Fatalf("postgres dsn = %q", cfg.DSN())
	}
}
