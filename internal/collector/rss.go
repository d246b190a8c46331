package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/processor"
	"github.com/LJTian/HeadlineCheck/internal/verifier"
	"github.com/gocolly/colly/v2"
)

const (
	rssThreshold      = 30
	rssDefaultSource  = "RSS Feed"
	rssMaxConcurrency = 5
)

// FeedParser 解析单个订阅源
type FeedParser interface {
	Parse(ctx context.Context, url string) (processor.Feed, error)
}

// FeedFetcher 逐个订阅源比对条目标题。单个源失败只记录日志并跳过。
type FeedFetcher struct {
	Parser FeedParser
	// Feeds 动态来源列表（通常来自数据库）；为 nil 或出错时使用 Static
	Feeds  SourceList
	Static []string
}

func (f *FeedFetcher) Name() string {
	return "rss"
}

func (f *FeedFetcher) Method() string {
	return "RSS_Feeds"
}

type feedResult struct {
	feed processor.Feed
	err  error
}

func (f *FeedFetcher) Fetch(ctx context.Context, headline string, keywords []string) verifier.Outcome {
	urls := resolveSources(ctx, f.Feeds, f.Static, "rss")
	results := f.parseAll(ctx, urls)

	var (
		out    verifier.Outcome
		failed int
	)
	for i, r := range results {
		if r.err != nil {
			log.Printf("rss: parse %s failed: %v", urls[i], r.err)
			failed++
			continue
		}

		source := r.feed.Title
		if source == "" {
			source = rssDefaultSource
		}

		checked := r.feed.Total
		if checked < len(r.feed.Entries) {
			checked = len(r.feed.Entries)
		}
		out.Checked += checked
		for _, e := range r.feed.Entries {
			sim := nlp.Similarity(headline, e.Title)
			if sim <= rssThreshold {
				continue
			}
			out.Candidates = append(out.Candidates, verifier.Candidate{
				Source:      source,
				Title:       e.Title,
				URL:         e.Link,
				PublishedAt: e.Published,
				Description: e.Summary,
				Similarity:  sim,
			})
		}
	}

	if len(urls) > 0 && failed == len(urls) {
		out.Err = fmt.Errorf("rss: all %d feeds failed", failed)
	}
	log.Printf("rss: feeds=%d failed=%d checked=%d matched=%d", len(urls), failed, out.Checked, len(out.Candidates))
	return out
}

// parseAll 并发解析，结果按输入顺序返回
func (f *FeedFetcher) parseAll(ctx context.Context, urls []string) []feedResult {
	results := make([]feedResult, len(urls))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, rssMaxConcurrency)
	)
	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if rec := recover(); rec != nil {
					results[i] = feedResult{err: fmt.Errorf("panic: %v", rec)}
				}
			}()

			feed, err := f.Parser.Parse(ctx, u)
			results[i] = feedResult{feed: feed, err: err}
		}(i, u)
	}
	wg.Wait()

	return results
}

// CollyFeedParser 用 colly 的 XPath 回调解析 RSS 0.9x/1.0/2.0 与 Atom
type CollyFeedParser struct {
	Timeout time.Duration
	Cleaner *processor.FeedCleaner
}

func NewCollyFeedParser(timeout time.Duration) *CollyFeedParser {
	return &CollyFeedParser{
		Timeout: timeoutOrDefault(timeout),
		Cleaner: processor.NewFeedCleaner(),
	}
}

func (p *CollyFeedParser) Parse(ctx context.Context, feedURL string) (processor.Feed, error) {
	if err := ctx.Err(); err != nil {
		return processor.Feed{}, err
	}

	c := colly.NewCollector(
		colly.UserAgent(botUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeoutOrDefault(p.Timeout))

	feed := processor.Feed{URL: feedURL}

	// 部分站点以 text/html 或 text/plain 返回订阅内容，统一按 XML 解析
	c.OnResponse(func(r *colly.Response) {
		if !strings.Contains(strings.ToLower(r.Headers.Get("Content-Type")), "xml") {
			r.Headers.Set("Content-Type", "application/xml")
		}
	})

	c.OnXML("//channel/title", func(e *colly.XMLElement) {
		if feed.Title == "" {
			feed.Title = strings.TrimSpace(e.Text)
		}
	})
	c.OnXML("//feed/title", func(e *colly.XMLElement) {
		if feed.Title == "" {
			feed.Title = strings.TrimSpace(e.Text)
		}
	})

	// RSS：item 在 2.0 中位于 channel 下，在 1.0 中与 channel 同级
	c.OnXML("//item", func(e *colly.XMLElement) {
		published := e.ChildText("pubDate")
		if published == "" {
			// RSS 1.0 用 dc:date 表示发布时间
			published = e.ChildText("*[local-name()='date']")
		}
		feed.Entries = append(feed.Entries, processor.Entry{
			Title:     e.ChildText("title"),
			Link:      e.ChildText("link"),
			Summary:   e.ChildText("description"),
			Published: published,
		})
	})

	c.OnXML("//feed/entry", func(e *colly.XMLElement) {
		link := e.ChildAttr("link[@rel='alternate']", "href")
		if link == "" {
			link = e.ChildAttr("link", "href")
		}
		summary := e.ChildText("summary")
		if summary == "" {
			summary = e.ChildText("content")
		}
		published := e.ChildText("published")
		if published == "" {
			published = e.ChildText("updated")
		}
		feed.Entries = append(feed.Entries, processor.Entry{
			Title:     e.ChildText("title"),
			Link:      link,
			Summary:   summary,
			Published: published,
		})
	})

	if err := c.Visit(feedURL); err != nil {
		return processor.Feed{}, fmt.Errorf("rss: visit %s: %w", feedURL, err)
	}

	if p.Cleaner != nil {
		feed = p.Cleaner.Process(feed)
	}
	return feed, nil
}
