package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/processor"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// FeedSnapshot 每个订阅源最近一次成功解析的结果，由预热任务写入
type FeedSnapshot struct {
	URL       string         `gorm:"primaryKey;size:512" json:"url"`
	Title     string         `gorm:"size:256" json:"title"`
	Entries   datatypes.JSON `json:"entries"`
	Total     int            `json:"total"`
	FetchedAt time.Time      `gorm:"index" json:"fetchedAt"`
}

// SaveFeedSnapshot 写入或覆盖指定订阅源的快照
func (s *Store) SaveFeedSnapshot(ctx context.Context, feed processor.Feed, fetchedAt time.Time) error {
	entries := feed.Entries
	if entries == nil {
		entries = []processor.Entry{}
	}
	bs, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("storage: encode snapshot %s: %w", feed.URL, err)
	}

	snap := FeedSnapshot{
		URL:       feed.URL,
		Title:     truncateRunes(toValidUTF8(feed.Title), 256),
		Entries:   datatypes.JSON(bs),
		Total:     feed.Total,
		FetchedAt: fetchedAt,
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "entries", "total", "fetched_at"}),
	}).Create(&snap).Error
}

// LoadFeedSnapshot 读取 since 之后写入的快照；不存在或已过期时 ok 为 false
func (s *Store) LoadFeedSnapshot(ctx context.Context, url string, since time.Time) (feed processor.Feed, ok bool, err error) {
	var snap FeedSnapshot
	// 未命中是常态，关闭 gorm 的日志避免刷屏
	silent := s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
	err = silent.WithContext(ctx).Where("url = ?", url).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return processor.Feed{}, false, nil
	}
	if err != nil {
		return processor.Feed{}, false, err
	}
	if snap.FetchedAt.Before(since) {
		return processor.Feed{}, false, nil
	}

	feed = processor.Feed{URL: snap.URL, Title: snap.Title, Total: snap.Total}
	if err := json.Unmarshal(snap.Entries, &feed.Entries); err != nil {
		return processor.Feed{}, false, fmt.Errorf("storage: decode snapshot %s: %w", url, err)
	}
	return feed, true, nil
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
