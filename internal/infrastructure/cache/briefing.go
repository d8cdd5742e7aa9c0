package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	domain "kaching-analytics/internal/domain/insights"
	"kaching-analytics/internal/domain/metrics"
	"kaching-analytics/internal/infrastructure/config"
)

// ErrMiss 表示快取中沒有對應簡報。
var ErrMiss = errors.New("cache miss")

// BriefingCache 以 Redis 保存已組裝的簡報，鍵包含商家、期間與指標集合。
type BriefingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBriefingCache 以既有 client 建立快取。
func NewBriefingCache(client *redis.Client, ttl time.Duration) *BriefingCache {
	return &BriefingCache{client: client, ttl: ttl}
}

// Connect 依設定連線 Redis；未設定位址時回傳 nil。
func Connect(ctx context.Context, cfg config.RedisConfig) (*BriefingCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewBriefingCache(client, cfg.CacheTTL), nil
}

// Key 組出快取鍵，指標名稱排序後取 sha1，順序不影響結果。
func Key(merchantID string, period domain.Period, list []metrics.MetricType) string {
	names := make([]string, len(list))
	for i, m := range list {
		names[i] = string(m)
	}
	sort.Strings(names)
	sum := sha1.Sum([]byte(strings.Join(names, ",")))
	return fmt.Sprintf("briefing:%s:%s:%s", merchantID, period, hex.EncodeToString(sum[:]))
}

// Get 讀取簡報；不存在時回傳 ErrMiss。
func (c *BriefingCache) Get(ctx context.Context, key string) (domain.ExecutiveBriefing, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ExecutiveBriefing{}, ErrMiss
		}
		return domain.ExecutiveBriefing{}, fmt.Errorf("redis get: %w", err)
	}
	var b domain.ExecutiveBriefing
	if err := json.Unmarshal([]byte(val), &b); err != nil {
		return domain.ExecutiveBriefing{}, fmt.Errorf("decode cached briefing: %w", err)
	}
	return b, nil
}

// Set 以 JSON 寫入簡報並套用 TTL。
func (c *BriefingCache) Set(ctx context.Context, key string, b domain.ExecutiveBriefing) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode briefing: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate 刪除商家所有期間的簡報，寫入新樣本後呼叫。
func (c *BriefingCache) Invalidate(ctx context.Context, merchantID string) error {
	keys := make([]string, 0, 2)
	for _, p := range []domain.Period{domain.PeriodDaily, domain.PeriodWeekly} {
		keys = append(keys, Key(merchantID, p, metrics.AllMetrics()))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Ping 檢查 Redis 連線。
func (c *BriefingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 關閉底層連線。
func (c *BriefingCache) Close() error {
	return c.client.Close()
}
