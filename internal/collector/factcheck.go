package collector

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/verifier"
	"github.com/gocolly/colly/v2"
)

const (
	googleSearchURL     = "https://www.google.com/search"
	factCheckTimeout    = 10 * time.Second
	factCheckFoundLabel = "Found related fact-checks"
)

// SiteSearcher 在指定站点内搜索，返回命中结果数
type SiteSearcher interface {
	SiteSearch(ctx context.Context, site, terms string) (int, error)
}

// FactCheckFetcher 在各核查站点内搜索标题关键词。
// 只产出核查命中，不产出候选，也不计入已检查来源数。
type FactCheckFetcher struct {
	Searcher SiteSearcher
	Sites    SourceList
	Static   []string
}

func (f *FactCheckFetcher) Name() string {
	return "factcheck"
}

func (f *FactCheckFetcher) Method() string {
	return "Fact_Check"
}

func (f *FactCheckFetcher) Fetch(ctx context.Context, headline string, keywords []string) verifier.Outcome {
	terms := nlp.SearchTerms(headline, keywords, searchTermCount)
	sites := resolveSources(ctx, f.Sites, f.Static, "factcheck")

	var out verifier.Outcome
	for _, site := range sites {
		if ctx.Err() != nil {
			out.Err = ctx.Err()
			break
		}
		n, err := f.Searcher.SiteSearch(ctx, site, terms)
		if err != nil {
			log.Printf("factcheck: search %s failed: %v", site, err)
			continue
		}
		if n <= 0 {
			continue
		}
		out.FactChecks = append(out.FactChecks, verifier.FactCheckHit{
			Site:         site,
			ResultsFound: n,
			Status:       factCheckFoundLabel,
		})
	}

	log.Printf("factcheck: sites=%d hits=%d", len(sites), len(out.FactChecks))
	return out
}

// siteQueryURL 拼出 "site:<domain> <terms>" 形式的搜索地址
func siteQueryURL(base, site, terms string) string {
	q := url.Values{}
	q.Set("q", "site:"+site+" "+terms)
	return base + "?" + q.Encode()
}

// CollySiteSearcher 抓取 Google 搜索结果页并统计 h3 标题数
type CollySiteSearcher struct {
	BaseURL string
	Timeout time.Duration
}

func NewCollySiteSearcher() *CollySiteSearcher {
	return &CollySiteSearcher{BaseURL: googleSearchURL, Timeout: factCheckTimeout}
}

func (s *CollySiteSearcher) SiteSearch(ctx context.Context, site, terms string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c := colly.NewCollector(
		colly.UserAgent(browserUserAgent),
		colly.AllowURLRevisit(),
	)
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = factCheckTimeout
	}
	c.SetRequestTimeout(timeout)

	count := 0
	c.OnHTML("h3", func(e *colly.HTMLElement) {
		count++
	})

	base := s.BaseURL
	if base == "" {
		base = googleSearchURL
	}
	if err := c.Visit(siteQueryURL(base, site, terms)); err != nil {
		return 0, fmt.Errorf("factcheck: visit %s: %w", site, err)
	}
	return count, nil
}
