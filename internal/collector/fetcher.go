package collector

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/verifier"
)

// 各来源统一实现 verifier.Fetcher
var (
	_ verifier.Fetcher = (*NewsAPIFetcher)(nil)
	_ verifier.Fetcher = (*FeedFetcher)(nil)
	_ verifier.Fetcher = (*FactCheckFetcher)(nil)
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	botUserAgent     = "HeadlineCheckBot/1.0"

	maxResponseBytes      = 4 << 20 // 4MB
	defaultRequestTimeout = 30 * time.Second

	// 单次查询取前几个关键词
	searchTermCount = 3
)

// SourceList 返回当前启用的来源列表，一般由存储层注入
type SourceList func(ctx context.Context) ([]string, error)

// resolveSources 优先使用注入的来源列表；未注入或出错时退回静态配置
func resolveSources(ctx context.Context, list SourceList, fallback []string, label string) []string {
	if list == nil {
		return fallback
	}
	got, err := list(ctx)
	if err != nil {
		log.Printf("%s: list sources error, using static list: %v", label, err)
		return fallback
	}
	return got
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultRequestTimeout
	}
	return d
}
