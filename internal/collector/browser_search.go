package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const browserSearchTimeout = 20 * time.Second

// BrowserSiteSearcher 用 headless Chrome 渲染搜索结果页，适用于直接抓取会被拦截的场景。
// 整个进程复用一个浏览器实例，每次搜索开一个新标签页。
type BrowserSiteSearcher struct {
	BaseURL string
	Timeout time.Duration

	once          sync.Once
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

func NewBrowserSiteSearcher() *BrowserSiteSearcher {
	return &BrowserSiteSearcher{BaseURL: googleSearchURL, Timeout: browserSearchTimeout}
}

func (s *BrowserSiteSearcher) start() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(browserUserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// 预热浏览器，避免首个请求耗时过长
	if err := chromedp.Run(browserCtx); err != nil {
		log.Printf("warn: warmup chromedp failed: %v", err)
	}

	s.browserCtx = browserCtx
	s.cancelAlloc = cancelAlloc
	s.cancelBrowser = cancelBrowser
}

func (s *BrowserSiteSearcher) SiteSearch(ctx context.Context, site, terms string) (int, error) {
	s.once.Do(s.start)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = browserSearchTimeout
	}
	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	// 调用方取消时同步关闭标签页
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	base := s.BaseURL
	if base == "" {
		base = googleSearchURL
	}

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(siteQueryURL(base, site, terms)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return 0, fmt.Errorf("factcheck: browser search %s: %w", site, err)
	}

	return countHeadings(html)
}

// Close 关闭浏览器实例
func (s *BrowserSiteSearcher) Close() {
	if s.cancelBrowser != nil {
		s.cancelBrowser()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

// countHeadings 统计渲染后页面中的 h3 数量
func countHeadings(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("factcheck: parse html: %w", err)
	}
	return doc.Find("h3").Length(), nil
}
