package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

func docOf(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc.Selection
}

func TestPickPageImageMetaOrder(t *testing.T) {
	html := `<html><head>
<meta name="twitter:image" content="https://img.example.com/tw.jpg">
<meta property="og:image" content="https://img.example.com/og.jpg">
</head><body><img class="hero" src="/hero.jpg"></body></html>`
	if got := pickPageImage(docOf(t, html), "https://news.example.com/a"); got != "https://img.example.com/og.jpg" {
		t.Fatalf("pickPageImage = %q, want og:image", got)
	}

	html = `<html><head><meta name="twitter:image" content="https://img.example.com/tw.jpg"></head></html>`
	if got := pickPageImage(docOf(t, html), "https://news.example.com/a"); got != "https://img.example.com/tw.jpg" {
		t.Fatalf("pickPageImage = %q, want twitter:image", got)
	}
}

func TestPickPageImageClassedImageResolvesRelative(t *testing.T) {
	html := `<html><body>
<img class="logo" src="/logo.png">
<img class="article-hero" data-src="/media/hero.jpg">
</body></html>`
	got := pickPageImage(docOf(t, html), "https://news.example.com/world/story")
	if got != "https://news.example.com/media/hero.jpg" {
		t.Fatalf("pickPageImage = %q, want resolved classed image", got)
	}

	html = `<html><body><img class="main" src="//cdn.example.com/x.jpg"></body></html>`
	if got := pickPageImage(docOf(t, html), "http://news.example.com/a"); got != "http://cdn.example.com/x.jpg" {
		t.Fatalf("protocol-relative = %q, want scheme of article link", got)
	}
}

func TestPickPageImageLargestWins(t *testing.T) {
	html := `<html><body>
<img src="data:image/png;base64,AAAA" width="2000" height="2000">
<img src="/pixel.gif" width="1" height="1">
<img src="/small.jpg" width="90" height="100">
<img src="/first-big.jpg" width="400" height="300">
<img src="/same-size.jpg" width="300" height="400">
<img src="/bigger.jpg" width="640px" height="480">
<img src="/same-as-bigger.jpg" width="640" height="480">
</body></html>`
	got := pickPageImage(docOf(t, html), "https://news.example.com/a")
	if got != "https://news.example.com/bigger.jpg" {
		t.Fatalf("pickPageImage = %q, want largest image", got)
	}

	// 所有图片都不够大时不返回
	html = `<html><body><img src="/a.jpg" width="100" height="100"><img src="/b.jpg"></body></html>`
	if got := pickPageImage(docOf(t, html), "https://news.example.com/a"); got != "" {
		t.Fatalf("pickPageImage = %q, want empty for small images", got)
	}
}

func TestPageImageFinderFetchesArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="/og.jpg"></head><body></body></html>`))
	}))
	defer srv.Close()

	f := NewPageImageFinder(2 * time.Second)
	got, err := f.Find(srv.URL + "/story")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if got != srv.URL+"/og.jpg" {
		t.Fatalf("Find = %q, want og:image content", got)
	}

	if got := f.FindQuiet(srv.URL + "/missing"); got != "" {
		t.Fatalf("FindQuiet on 404 = %q, want empty", got)
	}
}

func TestPageImageFinderLimiterHonoursContext(t *testing.T) {
	f := NewPageImageFinder(time.Second)
	f.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	f.Limiter.Allow() // 用掉唯一的令牌

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.FindContext(ctx, "http://127.0.0.1:1/story"); err == nil {
		t.Fatalf("expected limiter wait to fail")
	}
}
