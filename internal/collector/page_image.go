package collector

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

const (
	pageImageTimeout   = 3 * time.Second
	pageImageUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	// 小于 100x100 的图片多半是图标或追踪像素
	minImageArea = 10000
	// 补图时访问文章页面的默认速率（页/秒）
	pageImageRate  = 2
	pageImageBurst = 2
)

var articleImageClass = regexp.MustCompile(`(?i)article|feature|hero|main|content`)

// PageImageFinder 抓取文章页面，从 meta 标签或正文图片里挑一张配图。
// 每次请求都会访问目标站点，比较慢，只在显式开启时使用。
type PageImageFinder struct {
	Timeout   time.Duration
	UserAgent string
	// Limiter 限制访问文章页面的速率，nil 表示不限速
	Limiter *rate.Limiter
}

func NewPageImageFinder(timeout time.Duration) *PageImageFinder {
	if timeout <= 0 {
		timeout = pageImageTimeout
	}
	return &PageImageFinder{
		Timeout:   timeout,
		UserAgent: pageImageUserAgent,
		Limiter:   rate.NewLimiter(rate.Limit(pageImageRate), pageImageBurst),
	}
}

// Find 返回文章页面的配图地址；页面不可访问或找不到时返回空串和错误/nil
func (p *PageImageFinder) Find(articleURL string) (string, error) {
	return p.FindContext(context.Background(), articleURL)
}

// FindContext 同 Find，等待限速时可被 ctx 取消
func (p *PageImageFinder) FindContext(ctx context.Context, articleURL string) (string, error) {
	if articleURL == "" {
		return "", nil
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("page image %s: %w", articleURL, err)
		}
	}

	c := colly.NewCollector(colly.UserAgent(p.UserAgent))
	c.SetRequestTimeout(p.Timeout)

	var image string
	c.OnHTML("html", func(e *colly.HTMLElement) {
		if image == "" {
			image = pickPageImage(e.DOM, articleURL)
		}
	})

	if err := c.Visit(articleURL); err != nil {
		return "", fmt.Errorf("page image %s: %w", articleURL, err)
	}
	return image, nil
}

// FindQuiet 与 Find 相同，但失败只记录日志，供采集流程兜底使用
func (p *PageImageFinder) FindQuiet(articleURL string) string {
	img, err := p.Find(articleURL)
	if err != nil {
		log.Printf("warn: %v", err)
		return ""
	}
	return img
}

// pickPageImage 依次尝试 og:image、twitter:image、article:image、
// 带文章类名的 <img>，最后取面积最大的 <img>
func pickPageImage(doc *goquery.Selection, articleURL string) string {
	metas := []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="article:image"]`,
	}
	for _, sel := range metas {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return resolveAgainst(articleURL, strings.TrimSpace(v))
		}
	}

	var classed string
	doc.Find("img[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !articleImageClass.MatchString(class) {
			return true
		}
		src := imgSource(s)
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		classed = src
		return false
	})
	if classed != "" {
		return resolveAgainst(articleURL, classed)
	}

	var (
		largest string
		maxArea int
	)
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := imgSource(s)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		area := dimension(s, "width") * dimension(s, "height")
		// 只有严格更大才替换，面积相同时保留文档中靠前的一张
		if area > maxArea && area > minImageArea {
			maxArea = area
			largest = src
		}
	})
	if largest != "" {
		return resolveAgainst(articleURL, largest)
	}
	return ""
}

// imgSource 兼容懒加载图片的 data-src / data-lazy-src
func imgSource(s *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// dimension 解析 width/height 属性的前导数字，如 "640" 或 "640px"；无法解析时为 0
func dimension(s *goquery.Selection, attr string) int {
	v, _ := s.Attr(attr)
	v = strings.TrimSpace(v)
	end := 0
	for ; end < len(v); end++ {
		if v[end] < '0' || v[end] > '9' {
			break
		}
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0
	}
	return n
}

// resolveAgainst 把 //host/x 与 /x 形式的地址补全为绝对地址，其余原样返回
func resolveAgainst(base, ref string) string {
	if !strings.HasPrefix(ref, "/") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		if strings.HasPrefix(ref, "//") {
			return "https:" + ref
		}
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
