package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

const mirrorWriteTimeout = 5 * time.Second

// Mirror 是主库写入后的尽力而为副本（例如 MongoDB），不是数据来源。
// 任何实现的错误都只记录日志，不会影响主库写入或接口返回。
type Mirror interface {
	UpsertCategory(ctx context.Context, c *Category) error
	UpsertArticle(ctx context.Context, a *Article) error
	UpsertUser(ctx context.Context, u *User) error
	UpsertSaved(ctx context.Context, sa *SavedArticle) error
	DeleteSaved(ctx context.Context, userID, articleID uint) error
	Close(ctx context.Context) error
}

// NopMirror 未配置镜像库时使用
type NopMirror struct{}

func (NopMirror) UpsertCategory(context.Context, *Category) error { return nil }
func (NopMirror) UpsertArticle(context.Context, *Article) error { return nil }
func (NopMirror) UpsertUser(context.Context, *User) error { return nil }
func (NopMirror) UpsertSaved(context.Context, *SavedArticle) error { return nil }
func (NopMirror) DeleteSaved(context.Context, uint, uint) error { return nil }
func (NopMirror) Close(context.Context) error { return nil }

// safeMirror 包一层 recover 与超时，镜像失败只打日志
type safeMirror struct {
	m Mirror
}

func newSafeMirror(m Mirror) *safeMirror {
	if m == nil {
		m = NopMirror{}
	}
	return &safeMirror{m: m}
}

func (s *safeMirror) do(ctx context.Context, what string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			log.Printf("warn: mirror %s: %v", what, err)
		}
	}()

	// 请求结束不应打断镜像写入，单独给一个超时
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorWriteTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *safeMirror) upsertCategory(ctx context.Context, c *Category) {
	_ = s.do(ctx, "category", func(ctx context.Context) error { return s.m.UpsertCategory(ctx, c) })
}

func (s *safeMirror) upsertArticle(ctx context.Context, a *Article) {
	_ = s.do(ctx, "article", func(ctx context.Context) error { return s.m.UpsertArticle(ctx, a) })
}

func (s *safeMirror) upsertUser(ctx context.Context, u *User) {
	_ = s.do(ctx, "user", func(ctx context.Context) error { return s.m.UpsertUser(ctx, u) })
}

func (s *safeMirror) upsertSaved(ctx context.Context, sa *SavedArticle) {
	_ = s.do(ctx, "saved article", func(ctx context.Context) error { return s.m.UpsertSaved(ctx, sa) })
}

func (s *safeMirror) deleteSaved(ctx context.Context, userID, articleID uint) {
	_ = s.do(ctx, "delete saved article", func(ctx context.Context) error { return s.m.DeleteSaved(ctx, userID, articleID) })
}

func (s *safeMirror) close(ctx context.Context) {
	_ = s.do(ctx, "close", s.m.Close)
}
