package processor

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// 摘要按 rune 截断的上限，超出部分以省略号结尾
const maxSummaryRunes = 600

// Entry 是解析后的单条订阅内容
type Entry struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
}

// Feed 是一次解析得到的完整订阅源
type Feed struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
	// Total 清洗前的条目数，无标题条目被丢弃后仍计入已检查数
	Total int `json:"total"`
}

// FeedCleaner 做订阅内容的基础清洗：去 HTML、反转义、修正编码、截断摘要
type FeedCleaner struct {
	policy *bluemonday.Policy
}

func NewFeedCleaner() *FeedCleaner {
	return &FeedCleaner{policy: bluemonday.StrictPolicy()}
}

// Process 返回清洗后的副本；没有标题的条目无法参与比对，直接丢弃
func (p *FeedCleaner) Process(f Feed) Feed {
	out := Feed{
		URL:     strings.TrimSpace(f.URL),
		Title:   p.text(f.Title),
		Entries: make([]Entry, 0, len(f.Entries)),
		Total:   f.Total,
	}
	if out.Total < len(f.Entries) {
		out.Total = len(f.Entries)
	}

	for _, e := range f.Entries {
		title := p.text(e.Title)
		if title == "" {
			continue
		}
		out.Entries = append(out.Entries, Entry{
			Title:   title,
			Link:    strings.TrimSpace(e.Link),
			Summary: truncateRunes(p.text(e.Summary), maxSummaryRunes),
			// 发布时间原样保留，由调用方决定如何展示
			Published: strings.TrimSpace(e.Published),
		})
	}

	return out
}

func (p *FeedCleaner) text(s string) string {
	if s == "" {
		return ""
	}
	// 部分源混有非法字节，先规范为合法 UTF-8
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = p.policy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes 按 rune 截断，避免多字节字符被截成半个
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
