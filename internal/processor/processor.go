package processor

import (
	"strings"
	"time"

	"github.com/LJTian/NewsHub/internal/collector"
	"github.com/mmcdole/gofeed"
)

const (
	MaxTitleLen       = 500
	MaxDescriptionLen = 500
)

// ProcessedArticle 是写入存储层前的统一结构
type ProcessedArticle struct {
	Title       string
	Link        string
	Image       string
	Description string
	Author      string
	PublishedAt *time.Time
	Source      string
	Category    string
	// ExternalID 优先用 feed 的 guid，没有时退回 link
	ExternalID string
	Extra      map[string]any
}

// PageImageFinder 由 collector.PageImageFinder 实现，测试里可替换
type PageImageFinder interface {
	FindQuiet(articleURL string) string
}

// Normalizer 把 gofeed 条目转换为 ProcessedArticle
type Normalizer struct {
	// PageImages 非空时，feed 内找不到配图会去抓文章页面（慢）
	PageImages PageImageFinder
}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize 返回 false 表示条目缺少可用的 link，应直接丢弃。
// 时间解析失败、摘要缺失等情况都以空值兜底，不会报错。
func (n *Normalizer) Normalize(item *gofeed.Item, src collector.Source) (ProcessedArticle, bool) {
	if item == nil {
		return ProcessedArticle{}, false
	}
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return ProcessedArticle{}, false
	}

	externalID := strings.TrimSpace(item.GUID)
	if externalID == "" {
		externalID = link
	}

	image := collector.ResolveImage(item)
	if image == "" && n.PageImages != nil {
		image = n.PageImages.FindQuiet(link)
	}

	out := ProcessedArticle{
		Title:       truncateRunes(cleanText(item.Title), MaxTitleLen),
		Link:        link,
		Image:       image,
		Description: truncateRunes(cleanText(item.Description), MaxDescriptionLen),
		Author:      authorOf(item),
		PublishedAt: publishedAt(item),
		Source:      src.Name,
		Category:    src.Category,
		ExternalID:  externalID,
	}

	if len(item.Categories) > 0 {
		tags := make([]any, 0, len(item.Categories))
		for _, c := range item.Categories {
			if c = strings.TrimSpace(c); c != "" {
				tags = append(tags, c)
			}
		}
		if len(tags) > 0 {
			out.Extra = map[string]any{"tags": tags}
		}
	}

	return out, true
}

func authorOf(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return truncateRunes(cleanText(item.Author.Name), 200)
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return truncateRunes(cleanText(a.Name), 200)
		}
	}
	return ""
}

// publishedAt 只信任 gofeed 解析好的时间，统一转为 UTC
func publishedAt(item *gofeed.Item) *time.Time {
	if item.PublishedParsed == nil || item.PublishedParsed.IsZero() {
		return nil
	}
	t := item.PublishedParsed.UTC()
	return &t
}

// cleanText 规范为合法 UTF-8 并去掉首尾空白，避免 PostgreSQL invalid byte sequence
func cleanText(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "\uFFFD"))
}

// truncateRunes 按 rune 截断，不追加省略号
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
