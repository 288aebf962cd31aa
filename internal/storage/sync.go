package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const syncBatchSize = 200

// MirrorStats 全量同步各表写入镜像的条数与失败数
type MirrorStats struct {
	Categories int
	Articles   int
	Users      int
	Saved      int
	Failed     int
}

func (m MirrorStats) String() string {
	return fmt.Sprintf("categories=%d articles=%d users=%d saved=%d failed=%d",
		m.Categories, m.Articles, m.Users, m.Saved, m.Failed)
}

// SyncMirror 把主库现有数据全部写入镜像库。读主库出错时返回错误，单条镜像失败只计数。
func (s *Store) SyncMirror(ctx context.Context) (MirrorStats, error) {
	var stats MirrorStats
	tally := func(n *int, err error) {
		if err != nil {
			stats.Failed++
			return
		}
		*n++
	}

	var categories []Category
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return stats, err
	}
	for i := range categories {
		c := &categories[i]
		tally(&stats.Categories, s.mirror.do(ctx, "category", func(ctx context.Context) error { return s.mirror.m.UpsertCategory(ctx, c) }))
	}

	var batch []Article
	err := s.DB.WithContext(ctx).Preload("Category").
		FindInBatches(&batch, syncBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				a := &batch[i]
				tally(&stats.Articles, s.mirror.do(ctx, "article", func(ctx context.Context) error { return s.mirror.m.UpsertArticle(ctx, a) }))
			}
			return ctx.Err()
		}).Error
	if err != nil {
		return stats, err
	}

	var users []User
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return stats, err
	}
	for i := range users {
		u := &users[i]
		tally(&stats.Users, s.mirror.do(ctx, "user", func(ctx context.Context) error { return s.mirror.m.UpsertUser(ctx, u) }))
	}

	var saved []SavedArticle
	if err := s.DB.WithContext(ctx).Preload("User").Preload("Article").Order("id ASC").Find(&saved).Error; err != nil {
		return stats, err
	}
	for i := range saved {
		sa := &saved[i]
		tally(&stats.Saved, s.mirror.do(ctx, "saved article", func(ctx context.Context) error { return s.mirror.m.UpsertSaved(ctx, sa) }))
	}

	return stats, nil
}
