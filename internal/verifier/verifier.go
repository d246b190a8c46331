package verifier

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/google/uuid"
)

// KeywordExtractor 由调用方注入，便于切换停用词策略
type KeywordExtractor interface {
	Extract(text string) []string
}

// Verifier 串起关键词抽取、多来源查询、评分与摘要。
// 所有依赖通过构造函数注入，没有包级可变状态。
type Verifier struct {
	extractor KeywordExtractor
	fetchers  []Fetcher

	newID func() string
	now   func() time.Time
}

// New 创建 Verifier；extractor 为 nil 时使用默认关键词规则
func New(extractor KeywordExtractor, fetchers ...Fetcher) *Verifier {
	if extractor == nil {
		extractor = nlp.Extractor{}
	}
	return &Verifier{
		extractor: extractor,
		fetchers:  fetchers,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Keywords 暴露关键词抽取，供 API 调试使用
func (v *Verifier) Keywords(headline string) []string {
	return v.extractor.Extract(headline)
}

// Verify 对标题执行完整核查。永不返回错误：
// 内部任何异常都会写入 details.error，并把结论置为 Error。
func (v *Verifier) Verify(ctx context.Context, headline string) (result *Result) {
	result = newResult(v.newID(), headline, v.now())

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("verifier: verify %q panicked: %v", headline, rec)
			result.VerificationStatus = StatusError
			result.Details.Error = fmt.Sprint(rec)
		}
	}()

	keywords := v.extractor.Extract(headline)
	log.Printf("verifier: headline=%q keywords=%v", headline, keywords)

	outcomes := v.fetchAll(ctx, headline, keywords)
	for i, f := range v.fetchers {
		merge(result, f, outcomes[i])
	}

	Score(result)
	Summarize(result)

	log.Printf("verifier: done score=%d status=%s checked=%d matching=%d",
		result.AuthenticityScore, result.VerificationStatus,
		result.Details.TotalSourcesChecked, result.Details.MatchingSources)
	return result
}

// fetchAll 并发查询所有来源，结果按注册顺序返回，保证合并顺序稳定
func (v *Verifier) fetchAll(ctx context.Context, headline string, keywords []string) []Outcome {
	outcomes := make([]Outcome, len(v.fetchers))

	var wg sync.WaitGroup
	for i, f := range v.fetchers {
		wg.Add(1)
		go func(i int, f Fetcher) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("verifier: fetcher %s panicked: %v", f.Name(), rec)
					outcomes[i] = Outcome{Err: fmt.Errorf("panic: %v", rec)}
				}
			}()
			// 关键词切片只读，复制一份避免实现方误改
			kw := append([]string(nil), keywords...)
			outcomes[i] = f.Fetch(ctx, headline, kw)
		}(i, f)
	}
	wg.Wait()

	return outcomes
}

// merge 把单个来源的产出并入结果。matching 只随候选数增加，
// checked 至少与候选数相同，保证 matching <= total。
func merge(r *Result, f Fetcher, o Outcome) {
	r.Details.VerificationMethod = append(r.Details.VerificationMethod, f.Method())

	if o.Err != nil {
		if r.Details.SourceErrors == nil {
			r.Details.SourceErrors = make(map[string]string)
		}
		r.Details.SourceErrors[f.Name()] = o.Err.Error()
	}

	checked := o.Checked
	if checked < len(o.Candidates) {
		checked = len(o.Candidates)
	}
	r.Details.TotalSourcesChecked += checked

	for _, c := range o.Candidates {
		r.SourcesFound = append(r.SourcesFound, c)
		r.SimilarHeadlines = append(r.SimilarHeadlines, SimilarHeadline{
			Title:      c.Title,
			Similarity: c.Similarity,
			Source:     c.Source,
		})
		r.Details.MatchingSources++
	}

	r.Details.FactCheckResults = append(r.Details.FactCheckResults, o.FactChecks...)
}
