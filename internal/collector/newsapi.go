package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/verifier"
)

const (
	newsAPIBaseURL   = "https://newsapi.org/v2/everything"
	newsAPIPageSize  = 20
	newsAPIThreshold = 35
)

// ErrRateLimited NewsAPI 返回 429，免费额度已用完
var ErrRateLimited = errors.New("newsapi: rate limited")

// Article 对应 NewsAPI /v2/everything 返回的单篇文章
type Article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type ArticleQuery struct {
	Query    string
	Language string
	SortBy   string
	PageSize int
}

// cacheKey 同一组查询参数得到同一个键
func (q ArticleQuery) cacheKey() string {
	raw := strings.Join([]string{q.Query, q.Language, q.SortBy, strconv.Itoa(q.PageSize)}, "|")
	return "newsapi:" + nlp.CacheKey(raw)
}

// ArticleSearcher 按关键词搜索文章
type ArticleSearcher interface {
	SearchArticles(ctx context.Context, q ArticleQuery) ([]Article, error)
}

// NewsAPIClient 直接调用 newsapi.org
type NewsAPIClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewNewsAPIClient(apiKey string, timeout time.Duration) *NewsAPIClient {
	return &NewsAPIClient{
		BaseURL: newsAPIBaseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeoutOrDefault(timeout)},
	}
}

type newsAPIResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

func (c *NewsAPIClient) SearchArticles(ctx context.Context, q ArticleQuery) ([]Article, error) {
	params := url.Values{}
	params.Set("q", q.Query)
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("User-Agent", botUserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("newsapi: read body: %w", err)
	}

	var out newsAPIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("newsapi: unexpected status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("newsapi: unmarshal: %w", err)
	}
	// 错误时 body 形如 {"status":"error","code":"apiKeyInvalid","message":"..."}
	if out.Status == "error" || resp.StatusCode != http.StatusOK {
		if out.Code == "rateLimited" {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("newsapi: status %d: %s: %s", resp.StatusCode, out.Code, out.Message)
	}

	return out.Articles, nil
}

// NewsAPIFetcher 用前 3 个关键词搜索 NewsAPI，并与标题逐一比对
type NewsAPIFetcher struct {
	Searcher ArticleSearcher
}

func (f *NewsAPIFetcher) Name() string {
	return "newsapi"
}

func (f *NewsAPIFetcher) Method() string {
	return "NewsAPI"
}

func (f *NewsAPIFetcher) Fetch(ctx context.Context, headline string, keywords []string) verifier.Outcome {
	query := nlp.SearchTerms(headline, keywords, searchTermCount)
	log.Printf("newsapi: search %q", query)

	articles, err := f.Searcher.SearchArticles(ctx, ArticleQuery{
		Query:    query,
		Language: "en",
		SortBy:   "relevancy",
		PageSize: newsAPIPageSize,
	})
	if err != nil {
		log.Printf("newsapi: search error: %v", err)
		return verifier.Outcome{Err: err}
	}

	out := verifier.Outcome{Checked: len(articles)}
	for _, a := range articles {
		if a.Title == "" {
			continue
		}
		sim := nlp.Similarity(headline, a.Title)
		if sim <= newsAPIThreshold {
			continue
		}
		out.Candidates = append(out.Candidates, verifier.Candidate{
			Source:      a.Source.Name,
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Description: a.Description,
			Similarity:  sim,
		})
	}

	log.Printf("newsapi: checked=%d matched=%d", out.Checked, len(out.Candidates))
	return out
}
