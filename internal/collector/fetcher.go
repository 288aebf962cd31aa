package collector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	// MaxEntriesPerSource 每个源每轮最多处理的条目数，控制单轮耗时
	MaxEntriesPerSource = 20

	feedClientTimeout = 15 * time.Second
	feedUserAgent     = "NewsHubBot/1.0 (+rss)"
)

// FeedFetcher 抽象 RSS 源的抓取与解析
type FeedFetcher interface {
	Fetch(ctx context.Context, src Source) ([]*gofeed.Item, error)
}

// RSSFetcher 基于 gofeed 抓取并解析 RSS/Atom/JSON Feed
type RSSFetcher struct {
	Client     *http.Client
	UserAgent  string
	MaxEntries int
}

func NewRSSFetcher(timeout time.Duration) *RSSFetcher {
	if timeout <= 0 {
		timeout = feedClientTimeout
	}
	return &RSSFetcher{
		Client:     &http.Client{Timeout: timeout},
		UserAgent:  feedUserAgent,
		MaxEntries: MaxEntriesPerSource,
	}
}

// Fetch 返回按 feed 原始顺序排列的条目，最多 MaxEntries 条。
// 没有条目时返回 nil, nil，由调用方按“跳过该源”处理。
func (f *RSSFetcher) Fetch(ctx context.Context, src Source) ([]*gofeed.Item, error) {
	log.Printf("fetch RSS: %s", src.Name)

	fp := gofeed.NewParser()
	fp.Client = f.Client
	fp.UserAgent = f.UserAgent

	feed, err := fp.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", src.Name, err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, nil
	}

	limit := f.MaxEntries
	if limit <= 0 {
		limit = MaxEntriesPerSource
	}

	items := make([]*gofeed.Item, 0, limit)
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, it)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}
