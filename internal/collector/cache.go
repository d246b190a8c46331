package collector

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/processor"
	"github.com/redis/go-redis/v9"
)

// CachedArticleSearcher 在 NewsAPI 前加一层 Redis 缓存，重复核查同一标题时不再消耗额度
type CachedArticleSearcher struct {
	Next  ArticleSearcher
	Redis *redis.Client
	TTL   time.Duration
}

func (c *CachedArticleSearcher) SearchArticles(ctx context.Context, q ArticleQuery) ([]Article, error) {
	key := q.cacheKey()

	if c.Redis != nil {
		if bs, err := c.Redis.Get(ctx, key).Bytes(); err == nil {
			var cached []Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	articles, err := c.Next.SearchArticles(ctx, q)
	if err != nil {
		return nil, err
	}

	// 空结果同样缓存，避免对冷门标题反复请求
	if c.Redis != nil && c.TTL > 0 {
		if articles == nil {
			articles = []Article{}
		}
		if bs, err := json.Marshal(articles); err == nil {
			_ = c.Redis.Set(ctx, key, bs, c.TTL).Err()
		}
	}
	return articles, nil
}

// SnapshotStore 持久化订阅源快照，由 storage.Store 实现
type SnapshotStore interface {
	SaveFeedSnapshot(ctx context.Context, feed processor.Feed, fetchedAt time.Time) error
	LoadFeedSnapshot(ctx context.Context, url string, since time.Time) (processor.Feed, bool, error)
}

// CachedFeedParser 两级缓存：Redis（短 TTL）-> 数据库快照（MaxAge 内有效）-> 实时解析
type CachedFeedParser struct {
	Next      FeedParser
	Redis     *redis.Client
	Snapshots SnapshotStore
	TTL       time.Duration
	MaxAge    time.Duration

	now func() time.Time
}

func (c *CachedFeedParser) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func feedCacheKey(url string) string {
	return "feed:" + nlp.CacheKey(url)
}

func (c *CachedFeedParser) Parse(ctx context.Context, url string) (processor.Feed, error) {
	// L1: Redis
	if c.Redis != nil {
		if bs, err := c.Redis.Get(ctx, feedCacheKey(url)).Bytes(); err == nil {
			var cached processor.Feed
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	// L2: 预热任务写入的快照
	if c.Snapshots != nil && c.MaxAge > 0 {
		feed, ok, err := c.Snapshots.LoadFeedSnapshot(ctx, url, c.clock().Add(-c.MaxAge))
		if err != nil {
			log.Printf("rss: load snapshot %s: %v", url, err)
		} else if ok {
			c.setRedis(ctx, url, feed)
			return feed, nil
		}
	}

	return c.Refresh(ctx, url)
}

// Refresh 跳过缓存直接解析，并回写 Redis 与快照
func (c *CachedFeedParser) Refresh(ctx context.Context, url string) (processor.Feed, error) {
	feed, err := c.Next.Parse(ctx, url)
	if err != nil {
		return processor.Feed{}, err
	}
	feed.URL = url

	c.setRedis(ctx, url, feed)
	if c.Snapshots != nil {
		if err := c.Snapshots.SaveFeedSnapshot(ctx, feed, c.clock()); err != nil {
			log.Printf("rss: save snapshot %s: %v", url, err)
		}
	}
	return feed, nil
}

func (c *CachedFeedParser) setRedis(ctx context.Context, url string, feed processor.Feed) {
	if c.Redis == nil || c.TTL <= 0 {
		return
	}
	bs, err := json.Marshal(feed)
	if err != nil {
		log.Printf("rss: encode cache %s: %v", url, err)
		return
	}
	if err := c.Redis.Set(ctx, feedCacheKey(url), bs, c.TTL).Err(); err != nil {
		log.Printf("rss: cache %s: %v", url, err)
	}
}
