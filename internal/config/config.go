package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 未配置 NEWS_API_KEY 时的占位值，等同于未启用
const placeholderNewsAPIKey = "your-newsapi-key"

// 默认 RSS 源：国际 + 印度本地媒体
var defaultFeeds = []string{
	"https://feeds.bbci.co.uk/news/rss.xml",
	"https://rss.cnn.com/rss/edition.rss",
	"https://feeds.npr.org/1001/rss.xml",
	"https://feeds.reuters.com/reuters/topNews",
	"https://feeds.ap.org/ap/topnews",
	"https://timesofindia.indiatimes.com/rssfeeds/-2128936835.cms",
	"https://www.thehindu.com/news/national/feeder/default.rss",
	"https://www.hindustantimes.com/rss/india/rssfeed.xml",
	"https://indianexpress.com/section/india/feed/",
	"https://www.ndtv.com/rss",
	"https://www.news18.com/rss/india.xml",
	"https://feeds.feedburner.com/ndtvnews-india-news",
	"https://www.republicworld.com/rss/section/india-news.xml",
	"https://www.firstpost.com/rss/india.xml",
	"https://www.deccanherald.com/rss.xml",
}

// 默认事实核查站点
var defaultFactCheckSites = []string{
	"snopes.com",
	"factcheck.org",
	"politifact.com",
	"fullfact.org",
	"altnews.in",
	"boomlive.in",
	"factchecker.in",
	"thequint.com/fact-check",
	"indiatoday.in/fact-check",
	"newschecker.in",
}

type Config struct {
	AppPort string

	NewsAPIKey     string
	Feeds          []string
	FactCheckSites []string
	RequestTimeout time.Duration

	StorageDriver string
	DatabaseDSN   string
	RedisAddr     string

	FeedCacheTTL       time.Duration
	FeedSnapshotMaxAge time.Duration
	NewsAPICacheTTL    time.Duration
	FeedWarmCron       string

	// http: 直接请求搜索页；browser: 通过 headless Chrome 渲染
	FactCheckBackend string
	// 是否启用早期调参遗留的标题专用排除词（默认关闭）
	LegacyKeywordExclusions bool

	UploadDir   string
	MaxUploadMB int64
	CORSOrigins []string
	WebRoot     string
}

func Load() *Config {
	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:                 getEnv("APP_PORT", "5000"),
		NewsAPIKey:              getEnv("NEWS_API_KEY", ""),
		Feeds:                   getList("NEWS_FEEDS", defaultFeeds),
		FactCheckSites:          getList("FACTCHECK_SITES", defaultFactCheckSites),
		RequestTimeout:          time.Duration(getInt("REQUEST_TIMEOUT", 30)) * time.Second,
		StorageDriver:           getEnv("STORAGE_DRIVER", "postgres"),
		DatabaseDSN:             getEnv("DATABASE_DSN", getEnv("POSTGRES_DSN", "host=localhost user=headlinecheck password=headlinecheck dbname=headlinecheck port=5432 sslmode=disable TimeZone=UTC")),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		FeedCacheTTL:            getDuration("FEED_CACHE_TTL", 10*time.Minute),
		FeedSnapshotMaxAge:      getDuration("FEED_SNAPSHOT_MAX_AGE", time.Hour),
		NewsAPICacheTTL:         getDuration("NEWSAPI_CACHE_TTL", 30*time.Minute),
		FeedWarmCron:            getEnv("FEED_WARM_CRON", "*/15 * * * *"),
		FactCheckBackend:        strings.ToLower(getEnv("FACTCHECK_BACKEND", "http")),
		LegacyKeywordExclusions: getBool("KEYWORDS_LEGACY_EXCLUSIONS", false),
		UploadDir:               getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:             int64(getInt("MAX_UPLOAD_MB", 32)),
		CORSOrigins:             getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		WebRoot:                 getEnv("WEB_ROOT", ""),
	}

	log.Printf("config loaded: port=%s storage=%s feeds=%d factcheck=%d newsapi=%t timeout=%s",
		cfg.AppPort, cfg.StorageDriver, len(cfg.Feeds), len(cfg.FactCheckSites), cfg.NewsAPIEnabled(), cfg.RequestTimeout)
	return cfg
}

// NewsAPIEnabled 仅当配置了真实的 key 时才启用 NewsAPI
func (c *Config) NewsAPIEnabled() bool {
	return c.NewsAPIKey != "" && c.NewsAPIKey != placeholderNewsAPIKey
}

// DefaultFactCheckSites 返回内置核查站点列表的副本
func DefaultFactCheckSites() []string {
	return append([]string(nil), defaultFactCheckSites...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("warn: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("warn: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// getList 解析逗号分隔的列表，忽略空项；未设置时返回默认列表的副本
func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
