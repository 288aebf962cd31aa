package ingest

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/NewsHub/internal/storage"
)

// Outcome 单篇文章经过去重/入库后的结果
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

const (
	defaultMaxAttempts   = 3
	defaultCheckBackoff  = 100 * time.Millisecond
	defaultInsertBackoff = 200 * time.Millisecond
	defaultPauseEvery    = 5
	defaultPause         = 50 * time.Millisecond
)

// ArticleStore 是 Gate 依赖的存储能力，由 storage.Store 实现
type ArticleStore interface {
	ArticleExists(ctx context.Context, link string) (bool, error)
	InsertArticle(ctx context.Context, a *storage.Article) (bool, error)
}

// Gate 先按 link 查重再插入，对锁竞争做有限次数的线性退避重试。
// 查重与插入之间不是原子的，两个并发采集可能同时通过查重；
// 真正保证不重复的是 link 上的唯一索引，重试只是为了在锁竞争时不丢数据。
type Gate struct {
	store ArticleStore

	MaxAttempts   int
	CheckBackoff  time.Duration
	InsertBackoff time.Duration
	// 每成功插入 PauseEvery 篇暂停 Pause，给同库的读写让出锁
	PauseEvery int
	Pause      time.Duration

	isLock func(error) bool
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewGate(store ArticleStore) *Gate {
	return &Gate{
		store:         store,
		MaxAttempts:   defaultMaxAttempts,
		CheckBackoff:  defaultCheckBackoff,
		InsertBackoff: defaultInsertBackoff,
		PauseEvery:    defaultPauseEvery,
		Pause:         defaultPause,
		isLock:        storage.IsLockError,
		sleep:         sleepCtx,
	}
}

// Admit 对一篇文章执行查重与入库
func (g *Gate) Admit(ctx context.Context, a *storage.Article) Outcome {
	if g.exists(ctx, a.Link) {
		return OutcomeSkipped
	}

	inserted, err := g.insert(ctx, a)
	if err != nil {
		log.Printf("warn: insert %s failed: %v", a.Link, err)
		return OutcomeFailed
	}
	if !inserted {
		// 查重之后被其他写入方抢先，唯一索引兜底
		return OutcomeSkipped
	}
	return OutcomeInserted
}

// exists 查重失败时重试，全部失败则按“不存在”处理继续尝试插入，不阻塞整轮采集
func (g *Gate) exists(ctx context.Context, link string) bool {
	var lastErr error
	for attempt := 1; attempt <= g.MaxAttempts; attempt++ {
		ok, err := g.store.ArticleExists(ctx, link)
		if err == nil {
			return ok
		}
		lastErr = err
		if attempt < g.MaxAttempts {
			if g.sleep(ctx, g.CheckBackoff*time.Duration(attempt)) != nil {
				break
			}
		}
	}
	log.Printf("warn: existence check for %s failed after retries, trying insert anyway: %v", link, lastErr)
	return false
}

// insert 只对锁竞争错误重试；约束、表结构等错误立即放弃这一篇
func (g *Gate) insert(ctx context.Context, a *storage.Article) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= g.MaxAttempts; attempt++ {
		inserted, err := g.store.InsertArticle(ctx, a)
		if err == nil {
			return inserted, nil
		}
		lastErr = err
		if !g.isLock(err) {
			return false, err
		}
		if attempt < g.MaxAttempts {
			if serr := g.sleep(ctx, g.InsertBackoff*time.Duration(attempt)); serr != nil {
				return false, serr
			}
		}
	}
	return false, lastErr
}

// Breathe 在同一个源内每插入 PauseEvery 篇后短暂停顿
func (g *Gate) Breathe(ctx context.Context, insertedInSource int) {
	if g.PauseEvery <= 0 || insertedInSource == 0 || insertedInSource%g.PauseEvery != 0 {
		return
	}
	_ = g.sleep(ctx, g.Pause)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
