package collector

import (
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

var imgSrcPattern = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

// ResolveImage 从 feed 条目本身找配图，命中即返回，找不到返回空串。
// 顺序：media:content(image/*) → media:thumbnail → image/* 附件 → 摘要 <img> → 正文 <img>。
// <media:group> 内的元素与顶层同级处理。
// 不做任何网络请求，抓取文章页面补图见 PageImageFinder。
func ResolveImage(item *gofeed.Item) string {
	if item == nil {
		return ""
	}

	media := item.Extensions["media"]
	for _, c := range mediaElements(media, "content") {
		if strings.HasPrefix(c.Attrs["type"], "image/") {
			if u := strings.TrimSpace(c.Attrs["url"]); u != "" {
				return u
			}
		}
	}
	for _, th := range mediaElements(media, "thumbnail") {
		if u := strings.TrimSpace(th.Attrs["url"]); u != "" {
			return u
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	if u := firstImgSrc(item.Description); u != "" {
		return u
	}
	return firstImgSrc(item.Content)
}

// mediaElements 返回顶层的 media:<name>，再接上各 <media:group> 里的同名元素
func mediaElements(media map[string][]ext.Extension, name string) []ext.Extension {
	if media == nil {
		return nil
	}
	out := append([]ext.Extension(nil), media[name]...)
	for _, g := range media["group"] {
		out = append(out, g.Children[name]...)
	}
	return out
}

func firstImgSrc(html string) string {
	if html == "" {
		return ""
	}
	m := imgSrcPattern.FindStringSubmatch(html)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
