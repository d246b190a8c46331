package nlp

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxKeywords = 10

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// 通用停用词：英文虚词 + 新闻标题常见的套话
var stopWords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had",
	"do", "does", "did", "will", "would", "could", "should", "after",
	"breaking", "news", "update", "report", "says",
)

// LegacyExclusions 早期针对单条样例标题调参时留下的排除词，默认不启用
var LegacyExclusions = []string{
	"share", "warm", "hugs", "snubbing", "leaves", "two", "jawans", "dead",
	"locals", "protest", "nambol", "assam", "rifles", "ambush",
}

// 优先词表：灾害/事件词 + 国家、邦与城市名
var gazetteer = toSet(
	"war", "fire", "crash", "storm", "flood", "covid", "virus",
	"india", "manipur", "assam", "kashmir", "pakistan", "china", "bengal",
	"maharashtra", "gujarat", "rajasthan", "punjab", "haryana", "delhi", "mumbai",
	"bangalore", "hyderabad", "chennai", "kolkata", "ahmedabad", "pune", "jaipur",
	"lucknow", "kanpur", "nagpur", "indore", "bhopal", "ludhiana", "agra", "nashik",
	"faridabad", "meerut", "rajkot", "kalyan", "vasai", "varanasi", "srinagar",
	"aurangabad", "navi", "solapur", "vadodara", "patna",
)

// Extractor 从标题中抽取关键词
type Extractor struct {
	// ExcludeLegacy 为 true 时额外过滤 LegacyExclusions
	ExcludeLegacy bool
}

// ExtractKeywords 使用默认配置抽取关键词
func ExtractKeywords(text string) []string {
	return Extractor{}.Extract(text)
}

// Extract 返回最多 10 个关键词：优先词在前，其余在后，各自保持原始顺序，不去重
func (e Extractor) Extract(text string) []string {
	var exclude map[string]struct{}
	if e.ExcludeLegacy {
		exclude = toSet(LegacyExclusions...)
	}

	var priority, other []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := stopWords[w]; ok {
			continue
		}
		if _, ok := exclude[w]; ok {
			continue
		}
		n := utf8.RuneCountInString(w)
		if n <= 2 {
			continue
		}
		if _, ok := gazetteer[w]; ok || n > 4 {
			priority = append(priority, w)
		} else {
			other = append(other, w)
		}
	}

	out := append(priority, other...)
	if len(out) > maxKeywords {
		out = out[:maxKeywords]
	}
	return out
}

// SearchTerms 取前 n 个关键词拼成查询；没有关键词时退回标题原文的前 n 个词
func SearchTerms(headline string, keywords []string, n int) string {
	if len(keywords) == 0 {
		words := strings.Fields(headline)
		if len(words) > n {
			words = words[:n]
		}
		return strings.Join(words, " ")
	}
	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return strings.Join(keywords, " ")
}

// IsStopWord 判断是否为通用停用词
func IsStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
