package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureCategory 确保分类存在（get or create）。
// 依赖 name 唯一索引 + ON CONFLICT DO NOTHING，多个调用方并发执行也不会重复或报错。
func (s *Store) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("storage: empty category name")
	}

	c := &Category{Name: name}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		s.mirror.upsertCategory(ctx, c)
		return c, nil
	}

	existing := &Category{}
	if err := s.DB.WithContext(ctx).Where("name = ?", name).First(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// EnsureCategories 依次确保多个分类存在
func (s *Store) EnsureCategories(ctx context.Context, names []string) error {
	for _, n := range names {
		if _, err := s.EnsureCategory(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// ListCategories 返回指定名称的分类（按名称排序）；names 为空时返回全部
func (s *Store) ListCategories(ctx context.Context, names []string) ([]Category, error) {
	var list []Category
	db := s.DB.WithContext(ctx).Order("name ASC")
	if len(names) > 0 {
		db = db.Where("name IN ?", names)
	}
	err := db.Find(&list).Error
	return list, err
}

// GetCategory 按 ID 查询分类
func (s *Store) GetCategory(ctx context.Context, id uint) (*Category, error) {
	c := &Category{}
	err := s.quiet(ctx).First(c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}
