package verifier

import "time"

// Status 核查结论，只由最终分数决定（Error 除外）
type Status string

const (
	StatusUnknown          Status = "Unknown"
	StatusHighlyLikelyTrue Status = "Highly Likely True"
	StatusLikelyTrue       Status = "Likely True"
	StatusPossiblyTrue     Status = "Possibly True"
	StatusQuestionable     Status = "Questionable"
	StatusLikelyFalse      Status = "Likely False or Unverified"
	StatusError            Status = "Error"
)

// Candidate 外部来源中与标题可能相关的一篇文章/条目，创建后不再修改
type Candidate struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	// 发布时间按来源原样保留，不做解析
	PublishedAt string `json:"published_at"`
	Description string `json:"description"`
	Similarity  int    `json:"similarity_score"`
}

type SimilarHeadline struct {
	Title      string `json:"title"`
	Similarity int    `json:"similarity"`
	Source     string `json:"source"`
}

// FactCheckHit 某个事实核查站点上搜到了相关内容
type FactCheckHit struct {
	Site         string `json:"site"`
	ResultsFound int    `json:"results_found"`
	Status       string `json:"status"`
}

type Summary struct {
	What  string `json:"what_happened"`
	When  string `json:"when_happened"`
	Where string `json:"where_happened"`
	Why   string `json:"why_happened"`
}

type Details struct {
	TotalSourcesChecked int            `json:"total_sources_checked"`
	MatchingSources     int            `json:"matching_sources"`
	FactCheckResults    []FactCheckHit `json:"fact_check_results"`
	VerificationMethod  []string       `json:"verification_method"`
	// 单个来源整体失败时的错误信息，key 为来源名
	SourceErrors map[string]string `json:"source_errors,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Result 贯穿整个核查流程的结果，每次 Verify 新建，不跨调用共享
type Result struct {
	ID                 string            `json:"id"`
	Headline           string            `json:"headline"`
	AuthenticityScore  int               `json:"authenticity_score"`
	VerificationStatus Status            `json:"verification_status"`
	SourcesFound       []Candidate       `json:"sources_found"`
	SimilarHeadlines   []SimilarHeadline `json:"similar_headlines"`
	Summary            Summary           `json:"summary"`
	Details            Details           `json:"details"`
	CheckedAt          time.Time         `json:"checked_at"`
}

func newResult(id, headline string, now time.Time) *Result {
	return &Result{
		ID:                 id,
		Headline:           headline,
		VerificationStatus: StatusUnknown,
		SourcesFound:       []Candidate{},
		SimilarHeadlines:   []SimilarHeadline{},
		Details: Details{
			FactCheckResults:   []FactCheckHit{},
			VerificationMethod: []string{},
		},
		CheckedAt: now,
	}
}
