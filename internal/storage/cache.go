package storage

import (
	"context"
	"encoding/json"
	"time"
)

// 列表缓存 5 分钟，新入库的文章依赖 TTL 自然过期后可见
const listCacheTTL = 5 * time.Minute

// cacheGet 从 Redis 读取 JSON 缓存；未启用 Redis、未命中或解析失败都返回 false
func (s *Store) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.Redis == nil {
		return false
	}
	bs, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(bs, dst) == nil
}

// cacheSet 写缓存失败不影响主流程
func (s *Store) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.Redis == nil {
		return
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.Redis.Set(ctx, key, bs, ttl).Err()
}
