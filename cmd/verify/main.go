package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/collector"
	"github.com/LJTian/HeadlineCheck/internal/config"
	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/scheduler"
	"github.com/LJTian/HeadlineCheck/internal/storage"
	"github.com/LJTian/HeadlineCheck/internal/verifier"
)

var (
	headlineFlag = flag.String("headline", "", "News headline to verify")
	warmFlag     = flag.Bool("warm", false, "Refresh all feed snapshots before verifying (or only refresh when -headline is empty)")
	timeoutFlag  = flag.Duration("timeout", 90*time.Second, "Overall verification timeout")
)

// 一次性的命令行入口：核查单条标题并输出 JSON，或手动触发订阅源预热
func main() {
	flag.Parse()
	if *headlineFlag == "" && !*warmFlag {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	// 数据库不可用时退化为静态源列表且不走缓存（与 cmd/api 的组装方式保持一致）
	var (
		feeds    collector.SourceList
		sites    collector.SourceList
		parser   collector.FeedParser = collector.NewCollyFeedParser(cfg.RequestTimeout)
		refresh  scheduler.FeedRefresher
		newsNext collector.ArticleSearcher
	)
	if cfg.NewsAPIEnabled() {
		newsNext = collector.NewNewsAPIClient(cfg.NewsAPIKey, cfg.RequestTimeout)
	}

	store, err := storage.NewStore(cfg.StorageDriver, cfg.DatabaseDSN, cfg.RedisAddr)
	if err != nil {
		log.Printf("warn: init store failed, using static sources without cache: %v", err)
	} else {
		if err := store.EnsureFeedSources(cfg.Feeds); err != nil {
			log.Printf("warn: ensure feed sources: %v", err)
		}
		if err := store.EnsureFactCheckSites(cfg.FactCheckSites); err != nil {
			log.Printf("warn: ensure fact-check sites: %v", err)
		}
		cached := &collector.CachedFeedParser{
			Next:      parser,
			Redis:     store.Redis,
			Snapshots: store,
			TTL:       cfg.FeedCacheTTL,
			MaxAge:    cfg.FeedSnapshotMaxAge,
		}
		parser, refresh = cached, cached
		feeds, sites = store.ListFeedURLs, store.ListFactCheckDomains
		if newsNext != nil {
			newsNext = &collector.CachedArticleSearcher{Next: newsNext, Redis: store.Redis, TTL: cfg.NewsAPICacheTTL}
		}
	}

	if *warmFlag {
		if refresh == nil {
			log.Fatal("warm requires a working store")
		}
		s, err := scheduler.New(cfg.FeedWarmCron, refresh, feeds, cfg.Feeds)
		if err != nil {
			log.Fatalf("init scheduler failed: %v", err)
		}
		refreshed, failed := s.RunOnce()
		log.Printf("warm done: refreshed=%d failed=%d", refreshed, failed)
		if *headlineFlag == "" {
			return
		}
	}

	var fetchers []verifier.Fetcher
	if newsNext != nil {
		fetchers = append(fetchers, &collector.NewsAPIFetcher{Searcher: newsNext})
	}
	fetchers = append(fetchers, &collector.FeedFetcher{Parser: parser, Feeds: feeds, Static: cfg.Feeds})

	var siteSearcher collector.SiteSearcher = collector.NewCollySiteSearcher()
	if cfg.FactCheckBackend == "browser" {
		b := collector.NewBrowserSiteSearcher()
		defer b.Close()
		siteSearcher = b
	}
	fetchers = append(fetchers, &collector.FactCheckFetcher{Searcher: siteSearcher, Sites: sites, Static: cfg.FactCheckSites})

	v := verifier.New(nlp.Extractor{ExcludeLegacy: cfg.LegacyKeywordExclusions}, fetchers...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()
	result := v.Verify(ctx, *headlineFlag)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}
