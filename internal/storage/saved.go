package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SavedPage struct {
	Items []SavedArticle `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
}

// ToggleSave 收藏或取消收藏，返回操作后的状态（true 表示已收藏）
func (s *Store) ToggleSave(ctx context.Context, user *User, articleID uint) (bool, error) {
	article, err := s.GetArticle(ctx, articleID)
	if err != nil {
		return false, err
	}

	existing := &SavedArticle{}
	err = s.quiet(ctx).Where("user_id = ? AND article_id = ?", user.ID, articleID).First(existing).Error
	switch {
	case err == nil:
		if err := s.DB.WithContext(ctx).Delete(existing).Error; err != nil {
			return false, err
		}
		s.mirror.deleteSaved(ctx, user.ID, articleID)
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	saved := &SavedArticle{
		UserID:    user.ID,
		ArticleID: articleID,
		User:      user,
		Article:   article,
		SavedAt:   time.Now(),
	}
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(saved).Error; err != nil {
		// 并发点击两次时唯一索引兜底，视为已收藏
		if IsUniqueViolation(err) {
			return true, nil
		}
		return false, err
	}
	s.mirror.upsertSaved(ctx, saved)
	return true, nil
}

// ListSaved 返回用户的收藏，最近收藏的在前
func (s *Store) ListSaved(ctx context.Context, userID uint, page int) (*SavedPage, error) {
	if page < 1 {
		page = 1
	}
	out := &SavedPage{Page: page}
	base := func() *gorm.DB {
		return s.DB.WithContext(ctx).Model(&SavedArticle{}).Where("user_id = ?", userID)
	}
	if err := base().Count(&out.Total).Error; err != nil {
		return nil, err
	}
	out.Pages = pageCount(out.Total)
	if out.Page > out.Pages {
		out.Page = out.Pages
	}
	err := base().Preload("Article").Preload("Article.Category").
		Order("saved_at DESC").
		Offset((out.Page - 1) * PageSize).
		Limit(PageSize).
		Find(&out.Items).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SavedArticleIDs 返回用户收藏的全部文章 ID，用于列表页标记
func (s *Store) SavedArticleIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.DB.WithContext(ctx).Model(&SavedArticle{}).Where("user_id = ?", userID).Pluck("article_id", &ids).Error
	return ids, err
}
