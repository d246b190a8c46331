package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/api"
	"github.com/LJTian/HeadlineCheck/internal/audio"
	"github.com/LJTian/HeadlineCheck/internal/collector"
	"github.com/LJTian/HeadlineCheck/internal/config"
	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/scheduler"
	"github.com/LJTian/HeadlineCheck/internal/storage"
	"github.com/LJTian/HeadlineCheck/internal/verifier"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.StorageDriver, cfg.DatabaseDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 首次启动时写入默认订阅源与核查站点，之后以数据库为准
	if err := store.EnsureFeedSources(cfg.Feeds); err != nil {
		log.Fatalf("ensure feed sources failed: %v", err)
	}
	if err := store.EnsureFactCheckSites(cfg.FactCheckSites); err != nil {
		log.Fatalf("ensure fact-check sites failed: %v", err)
	}

	feedParser := &collector.CachedFeedParser{
		Next:      collector.NewCollyFeedParser(cfg.RequestTimeout),
		Redis:     store.Redis,
		Snapshots: store,
		TTL:       cfg.FeedCacheTTL,
		MaxAge:    cfg.FeedSnapshotMaxAge,
	}

	var fetchers []verifier.Fetcher
	if cfg.NewsAPIEnabled() {
		fetchers = append(fetchers, &collector.NewsAPIFetcher{
			Searcher: &collector.CachedArticleSearcher{
				Next:  collector.NewNewsAPIClient(cfg.NewsAPIKey, cfg.RequestTimeout),
				Redis: store.Redis,
				TTL:   cfg.NewsAPICacheTTL,
			},
		})
	} else {
		log.Printf("newsapi: NEWS_API_KEY not configured, skipping")
	}
	fetchers = append(fetchers, &collector.FeedFetcher{
		Parser: feedParser,
		Feeds:  store.ListFeedURLs,
		Static: cfg.Feeds,
	})

	var siteSearcher collector.SiteSearcher = collector.NewCollySiteSearcher()
	if cfg.FactCheckBackend == "browser" {
		b := collector.NewBrowserSiteSearcher()
		defer b.Close()
		siteSearcher = b
	}
	fetchers = append(fetchers, &collector.FactCheckFetcher{
		Searcher: siteSearcher,
		Sites:    store.ListFactCheckDomains,
		Static:   cfg.FactCheckSites,
	})

	v := verifier.New(nlp.Extractor{ExcludeLegacy: cfg.LegacyKeywordExclusions}, fetchers...)

	// 定时预热订阅源缓存
	s, err := scheduler.New(cfg.FeedWarmCron, feedParser, store.ListFeedURLs, cfg.Feeds)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	// API
	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	apiServer := api.NewServer(v, store, audio.NewDetector(), cfg)
	apiServer.RegisterRoutes(r)

	// 若配置了前端目录，则托管 SPA 静态文件并做 fallback
	if cfg.WebRoot != "" {
		assetsDir := filepath.Join(cfg.WebRoot, "assets")
		indexFile := filepath.Join(cfg.WebRoot, "index.html")
		r.Static("/assets", assetsDir)
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.Status(http.StatusNotFound)
				return
			}
			// SPA：未匹配 API 的 GET 均返回 index.html
			c.File(indexFile)
		})
	}

	httpSrv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server exit: %v", err)
		}
	}()
	log.Printf("starting api server at %s ...", httpSrv.Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down ...")

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
