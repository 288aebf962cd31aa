package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageSize 列表每页条数
const PageSize = 20

// ArticleQuery 首页列表的筛选条件
type ArticleQuery struct {
	CategoryID uint
	Search     string
	Page       int
}

type ArticlePage struct {
	Items []Article `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
}

// ArticleExists 按 link 判断文章是否已入库
func (s *Store) ArticleExists(ctx context.Context, link string) (bool, error) {
	var n int64
	err := s.quiet(ctx).Model(&Article{}).Where("link = ?", link).Limit(1).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertArticle 在单个事务内插入文章。link 已存在时什么都不做，返回 false。
// 唯一索引是并发采集下防重复的最终保障。
func (s *Store) InsertArticle(ctx context.Context, a *Article) (bool, error) {
	var inserted bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "link"}}, DoNothing: true}).
			Create(a)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	if inserted {
		s.mirror.upsertArticle(ctx, a)
	}
	return inserted, nil
}

// CountArticles 返回文章总数
func (s *Store) CountArticles(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&Article{}).Count(&n).Error
	return n, err
}

// GetArticle 按 ID 查询文章
func (s *Store) GetArticle(ctx context.Context, id uint) (*Article, error) {
	a := &Article{}
	err := s.quiet(ctx).Preload("Category").First(a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListArticles 按分类与关键词分页返回文章，最新发布的在前，无发布时间的排在最后。
// 结果在 Redis 中缓存 5 分钟。
func (s *Store) ListArticles(ctx context.Context, q ArticleQuery) (*ArticlePage, error) {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = 1
	}

	cacheKey := fmt.Sprintf("news:articles:%d:%s:%d", q.CategoryID, strings.ToLower(q.Search), q.Page)
	cached := &ArticlePage{}
	if s.cacheGet(ctx, cacheKey, cached) {
		return cached, nil
	}

	filtered := func() *gorm.DB {
		db := s.DB.WithContext(ctx).Model(&Article{})
		if q.CategoryID != 0 {
			db = db.Where("category_id = ?", q.CategoryID)
		}
		if q.Search != "" {
			like := "%" + strings.ToLower(q.Search) + "%"
			db = db.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(source) LIKE ?)", like, like, like)
		}
		return db
	}

	page := &ArticlePage{Page: q.Page}
	if err := filtered().Count(&page.Total).Error; err != nil {
		return nil, err
	}
	page.Pages = pageCount(page.Total)
	// 页码越界时回到最后一页
	if page.Page > page.Pages {
		page.Page = page.Pages
	}

	err := filtered().Preload("Category").
		Order("published_at DESC NULLS LAST").
		Order("id DESC").
		Offset((page.Page - 1) * PageSize).
		Limit(PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, err
	}

	if len(page.Items) > 0 {
		s.cacheSet(ctx, cacheKey, page, listCacheTTL)
	}
	return page, nil
}

// ListArticlesMissingImage 返回尚无配图的文章，供补图任务使用
func (s *Store) ListArticlesMissingImage(ctx context.Context, limit int) ([]Article, error) {
	var list []Article
	db := s.DB.WithContext(ctx).Where("image IS NULL OR image = ''").Order("id ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&list).Error
	return list, err
}

// UpdateArticleImage 只更新配图字段
func (s *Store) UpdateArticleImage(ctx context.Context, id uint, image string) error {
	res := s.DB.WithContext(ctx).Model(&Article{}).Where("id = ?", id).Update("image", image)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	if a, err := s.GetArticle(ctx, id); err == nil {
		s.mirror.upsertArticle(ctx, a)
	}
	return nil
}

func pageCount(total int64) int {
	if total <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(PageSize)))
}
