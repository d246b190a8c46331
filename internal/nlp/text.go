package nlp

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"
)

var (
	spaceRe        = regexp.MustCompile(`\s+`)
	headlineJunk   = regexp.MustCompile(`[^a-zA-Z0-9\s\-.,!?]`)
	personRe       = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	locationRe     = regexp.MustCompile(`(?i)\b\w+\s+(?:City|State|Country|Street|Avenue|Road)\b`)
	organizationRe = regexp.MustCompile(`\b(?:[A-Z][a-zA-Z]*\s+)*(?:Ministry|Police|Army|Court|Council|Commission|Corporation|University|Party)\b`)
	dateRe         = regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
)

// CleanHeadline 合并多余空白并去掉可能干扰搜索的特殊字符
func CleanHeadline(s string) string {
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return headlineJunk.ReplaceAllString(s, "")
}

// Entities 基于正则的粗略实体抽取结果
type Entities struct {
	Persons       []string `json:"persons"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Dates         []string `json:"dates"`
}

// ExtractEntities 简化版实体识别：人名取连续两个首字母大写的词，
// 地点取 "<词> City/Street/..." 形式，日期取 "Month D, YYYY"
func ExtractEntities(text string) Entities {
	return Entities{
		Persons:       personRe.FindAllString(text, -1),
		Organizations: organizationRe.FindAllString(text, -1),
		Locations:     locationRe.FindAllString(text, -1),
		Dates:         dateRe.FindAllString(text, -1),
	}
}

// IsURLSafe 仅允许带主机名的 http/https 地址
func IsURLSafe(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CacheKey 文本的稳定哈希，用作缓存 key
func CacheKey(text string) string {
	return strconv.FormatUint(xxhash.ChecksumString64(text), 16)
}

var dateLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
}

// FormatDate 尝试常见的发布时间格式，转换为可读形式；都不匹配时原样返回
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 02, 2006 at 03:04 PM")
		}
	}
	return s
}
