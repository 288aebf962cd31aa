package collector

import (
	"testing"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

func mediaExt(name string, attrs ...map[string]string) ext.Extensions {
	list := make([]ext.Extension, 0, len(attrs))
	for _, a := range attrs {
		list = append(list, ext.Extension{Name: name, Attrs: a})
	}
	return ext.Extensions{"media": {name: list}}
}

func TestResolveImagePrefersMediaContent(t *testing.T) {
	item := &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {
				"content": []ext.Extension{
					{Attrs: map[string]string{"type": "video/mp4", "url": "https://cdn.example.com/clip.mp4"}},
					{Attrs: map[string]string{"type": "image/jpeg", "url": "https://cdn.example.com/hero.jpg"}},
				},
				"thumbnail": []ext.Extension{
					{Attrs: map[string]string{"url": "https://cdn.example.com/thumb.jpg"}},
				},
			},
		},
		Enclosures:  []*gofeed.Enclosure{{URL: "https://cdn.example.com/enc.png", Type: "image/png"}},
		Description: `<p><img src="https://cdn.example.com/summary.jpg"></p>`,
	}

	if got := ResolveImage(item); got != "https://cdn.example.com/hero.jpg" {
		t.Fatalf("ResolveImage = %q, want media:content image", got)
	}
}

func TestResolveImageFallsBackToThumbnail(t *testing.T) {
	item := &gofeed.Item{
		Extensions:  mediaExt("thumbnail", map[string]string{"url": "https://cdn.example.com/thumb.jpg"}),
		Description: `<img src="https://cdn.example.com/summary.jpg">`,
	}
	if got := ResolveImage(item); got != "https://cdn.example.com/thumb.jpg" {
		t.Fatalf("ResolveImage = %q, want thumbnail", got)
	}
}

func TestResolveImageUsesImageEnclosure(t *testing.T) {
	item := &gofeed.Item{
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://cdn.example.com/a.mp3", Type: "audio/mpeg"},
			{URL: "https://cdn.example.com/b.png", Type: "image/png"},
		},
	}
	if got := ResolveImage(item); got != "https://cdn.example.com/b.png" {
		t.Fatalf("ResolveImage = %q, want image enclosure", got)
	}
}

func TestResolveImageFromSummaryHTML(t *testing.T) {
	item := &gofeed.Item{
		Description: `Lead text <img class="x" src='https://cdn.example.com/inline.jpg' alt="">more`,
		Content:     `<img src="https://cdn.example.com/content.jpg">`,
	}
	if got := ResolveImage(item); got != "https://cdn.example.com/inline.jpg" {
		t.Fatalf("ResolveImage = %q, want summary <img>", got)
	}
}

func TestResolveImageFromContentHTML(t *testing.T) {
	item := &gofeed.Item{
		Description: "no pictures here",
		Content:     `<div><img width="10" src="https://cdn.example.com/content.jpg"></div>`,
	}
	if got := ResolveImage(item); got != "https://cdn.example.com/content.jpg" {
		t.Fatalf("ResolveImage = %q, want content <img>", got)
	}
}

func TestResolveImageNothingFound(t *testing.T) {
	if got := ResolveImage(&gofeed.Item{Description: "plain"}); got != "" {
		t.Fatalf("ResolveImage = %q, want empty", got)
	}
	if got := ResolveImage(nil); got != "" {
		t.Fatalf("ResolveImage(nil) = %q, want empty", got)
	}
}

func parseSingleItem(t *testing.T, itemXML string) *gofeed.Item {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(`<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel><title>t</title>` + itemXML + `</channel></rss>`)
	if err != nil {
		t.Fatalf("ParseString error: %v", err)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(feed.Items))
	}
	return feed.Items[0]
}

func TestResolveImageReadsMediaGroup(t *testing.T) {
	item := parseSingleItem(t, `<item><title>a</title><link>https://example.com/a</link>
<description><![CDATA[<img src="https://img.example.com/s.jpg">]]></description>
<media:group>
  <media:content url="https://img.example.com/v.mp4" type="video/mp4"/>
  <media:content url="https://img.example.com/g.jpg" type="image/jpeg"/>
</media:group></item>`)

	if got := ResolveImage(item); got != "https://img.example.com/g.jpg" {
		t.Fatalf("ResolveImage = %q, want media:group content image", got)
	}
}

func TestResolveImageReadsMediaGroupThumbnail(t *testing.T) {
	item := parseSingleItem(t, `<item><title>a</title><link>https://example.com/a</link>
<enclosure url="https://img.example.com/e.png" type="image/png" length="1"/>
<media:group><media:thumbnail url="https://img.example.com/t.jpg"/></media:group></item>`)

	if got := ResolveImage(item); got != "https://img.example.com/t.jpg" {
		t.Fatalf("ResolveImage = %q, want media:group thumbnail", got)
	}
}

func TestResolveImageIgnoresItunesImage(t *testing.T) {
	item := parseSingleItem(t, `<item><title>a</title><link>https://example.com/a</link>
<itunes:image href="https://img.example.com/cover.jpg"/>
<description><![CDATA[<p><img src="https://img.example.com/s.jpg"></p>]]></description></item>`)

	if got := ResolveImage(item); got != "https://img.example.com/s.jpg" {
		t.Fatalf("ResolveImage = %q, want summary <img>", got)
	}
}
