package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/collector"
	"github.com/LJTian/HeadlineCheck/internal/processor"
	"github.com/robfig/cron/v3"
)

const (
	warmConcurrency = 5
	warmFeedTimeout = 45 * time.Second
	// 延迟执行首轮预热，避免与服务启动争抢资源
	startupDelay = 15 * time.Second
)

// FeedRefresher 跳过缓存重新解析订阅源并回写缓存
type FeedRefresher interface {
	Refresh(ctx context.Context, url string) (processor.Feed, error)
}

// Scheduler 定时预热订阅源缓存，核查请求因此大多命中 Redis 或快照
type Scheduler struct {
	cron      *cron.Cron
	refresher FeedRefresher
	feeds     collector.SourceList
	static    []string

	timer *time.Timer
}

// New 注册预热任务；feeds 为 nil 或出错时使用 static
func New(spec string, refresher FeedRefresher, feeds collector.SourceList, static []string) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:      c,
		refresher: refresher,
		feeds:     feeds,
		static:    static,
	}

	_, err := c.AddFunc(spec, func() { s.runOnce() })
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.timer = time.AfterFunc(startupDelay, func() {
		s.runOnce()
	})
}

// Stop 停止定时任务，并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	if s.timer != nil {
		s.timer.Stop()
	}
	<-s.cron.Stop().Done()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发预热；返回成功与失败的源数
func (s *Scheduler) RunOnce() (refreshed, failed int) {
	return s.runOnce()
}

func (s *Scheduler) runOnce() (refreshed, failed int) {
	log.Println("start feed warm job...")

	urls := s.listFeeds()

	var wg sync.WaitGroup
	var okN, failN atomic.Int64
	sem := make(chan struct{}, warmConcurrency)
	for _, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(u string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("warm %s panicked: %v", u, rec)
					failN.Add(1)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), warmFeedTimeout)
			defer cancel()

			feed, err := s.refresher.Refresh(ctx, u)
			if err != nil {
				log.Printf("warm %s error: %v", u, err)
				failN.Add(1)
				return
			}
			okN.Add(1)
			log.Printf("warm %s done, entries=%d", u, len(feed.Entries))
		}(u)
	}
	wg.Wait()

	refreshed, failed = int(okN.Load()), int(failN.Load())
	log.Printf("feed warm job done (feeds=%d refreshed=%d failed=%d)", len(urls), refreshed, failed)
	return refreshed, failed
}

func (s *Scheduler) listFeeds() []string {
	if s.feeds == nil {
		return s.static
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	urls, err := s.feeds(ctx)
	if err != nil {
		log.Printf("warm: list feeds error, using static list: %v", err)
		return s.static
	}
	return urls
}
