package api

import (
	"github.com/LJTian/NewsHub/internal/storage"
	"github.com/microcosm-cc/bluemonday"
)

// feed 摘要是第三方 HTML，前端直接渲染，返回前统一过滤
var summaryPolicy = bluemonday.UGCPolicy()

func sanitizeArticle(a *storage.Article) {
	if a == nil {
		return
	}
	a.Description = summaryPolicy.Sanitize(a.Description)
	a.Content = summaryPolicy.Sanitize(a.Content)
}

func sanitizeArticles(list []storage.Article) {
	for i := range list {
		sanitizeArticle(&list[i])
	}
}
