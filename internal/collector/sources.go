package collector

// Source 描述一个 RSS 源：地址、展示名称与所属分类
type Source struct {
	URL      string
	Name     string
	Category string
}

const (
	CategoryWorld      = "World"
	CategoryTechnology = "Technology"
	CategorySports     = "Sports"
)

// 每个分类挂多个源，保证首次采集后每个分类都能凑够几十篇
var defaultSources = []Source{
	{URL: "http://feeds.bbci.co.uk/news/rss.xml", Name: "BBC", Category: CategoryWorld},
	{URL: "http://rss.cnn.com/rss/edition.rss", Name: "CNN", Category: CategoryWorld},
	{URL: "https://www.theguardian.com/world/rss", Name: "The Guardian", Category: CategoryWorld},
	{URL: "https://feeds.reuters.com/reuters/worldNews", Name: "Reuters", Category: CategoryWorld},
	{URL: "https://rss.cbc.ca/lineup/topstories.xml", Name: "CBC", Category: CategoryWorld},
	{URL: "https://feeds.npr.org/1001/rss.xml", Name: "NPR", Category: CategoryWorld},

	{URL: "https://techcrunch.com/feed/", Name: "TechCrunch", Category: CategoryTechnology},
	{URL: "https://feeds.feedburner.com/oreilly/radar", Name: "O'Reilly", Category: CategoryTechnology},
	{URL: "https://www.wired.com/feed/rss", Name: "Wired", Category: CategoryTechnology},
	{URL: "https://feeds.arstechnica.com/arstechnica/index", Name: "Ars Technica", Category: CategoryTechnology},
	{URL: "https://www.theverge.com/rss/index.xml", Name: "The Verge", Category: CategoryTechnology},
	{URL: "https://feeds.feedburner.com/venturebeat/SZYF", Name: "VentureBeat", Category: CategoryTechnology},

	{URL: "https://www.espn.com/espn/rss/news", Name: "ESPN", Category: CategorySports},
	{URL: "https://feeds.feedburner.com/sportsillustrated", Name: "Sports Illustrated", Category: CategorySports},
	{URL: "https://www.skysports.com/rss/12040", Name: "Sky Sports", Category: CategorySports},
	{URL: "https://feeds.bbci.co.uk/sport/rss.xml", Name: "BBC Sport", Category: CategorySports},
	{URL: "https://www.theguardian.com/sport/rss", Name: "The Guardian Sport", Category: CategorySports},
}

// DefaultSources 返回内置源列表的副本，顺序即处理顺序
func DefaultSources() []Source {
	out := make([]Source, len(defaultSources))
	copy(out, defaultSources)
	return out
}

// DefaultCategories 首页展示的分类，按名称排序
func DefaultCategories() []string {
	return []string{CategorySports, CategoryTechnology, CategoryWorld}
}

// CategoriesOf 按首次出现的顺序返回源列表涉及的分类
func CategoriesOf(sources []Source) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, 4)
	for _, s := range sources {
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		out = append(out, s.Category)
	}
	return out
}
