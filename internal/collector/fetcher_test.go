package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func rssDocument(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/"><channel><title>Test</title>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<item><title>Story %d</title><link>https://news.example.com/%d</link>`+
			`<guid>guid-%d</guid><description>Summary %d</description>`+
			`<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>`+
			`<media:content url="https://img.example.com/%d.jpg" type="image/jpeg"/></item>`, i, i, i, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func serveFeed(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSFetcherCapsEntriesAndKeepsOrder(t *testing.T) {
	srv := serveFeed(t, http.StatusOK, rssDocument(25))

	f := NewRSSFetcher(5 * time.Second)
	items, err := f.Fetch(context.Background(), Source{URL: srv.URL, Name: "test", Category: CategoryWorld})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != MaxEntriesPerSource {
		t.Fatalf("Fetch returned %d items, want %d", len(items), MaxEntriesPerSource)
	}
	if items[0].Link != "https://news.example.com/1" || items[19].Link != "https://news.example.com/20" {
		t.Fatalf("items out of feed order: first=%q last=%q", items[0].Link, items[19].Link)
	}
	if got := ResolveImage(items[0]); got != "https://img.example.com/1.jpg" {
		t.Fatalf("media:content not parsed into extensions, image=%q", got)
	}
}

func TestRSSFetcherEmptyFeedIsNotAnError(t *testing.T) {
	srv := serveFeed(t, http.StatusOK, rssDocument(0))

	items, err := NewRSSFetcher(time.Second).Fetch(context.Background(), Source{URL: srv.URL, Name: "empty"})
	if err != nil {
		t.Fatalf("empty feed should not error, got %v", err)
	}
	if items != nil {
		t.Fatalf("empty feed should return nil items, got %d", len(items))
	}
}

func TestRSSFetcherReportsHTTPAndParseErrors(t *testing.T) {
	bad := serveFeed(t, http.StatusInternalServerError, "boom")
	if _, err := NewRSSFetcher(time.Second).Fetch(context.Background(), Source{URL: bad.URL, Name: "down"}); err == nil {
		t.Fatalf("expected error for HTTP 500")
	} else if !strings.Contains(err.Error(), "down") {
		t.Fatalf("error should carry the source name: %v", err)
	}

	garbage := serveFeed(t, http.StatusOK, "this is not a feed")
	if _, err := NewRSSFetcher(time.Second).Fetch(context.Background(), Source{URL: garbage.URL, Name: "garbage"}); err == nil {
		t.Fatalf("expected parse error for non-feed body")
	}
}
