package nlp

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Similarity 返回标题与候选标题的匹配强度（0–100）：
// 取 Ratio / PartialRatio / TokenSortRatio 三者的最大值。
// 标题经常被截断、调换语序或带有 "BREAKING:" 之类的前缀，单一指标过于严格。
func Similarity(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	best := Ratio(a, b)
	if p := PartialRatio(a, b); p > best {
		best = p
	}
	if t := TokenSortRatio(a, b); t > best {
		best = t
	}
	return best
}

// Ratio 基于插入/删除编辑距离的相似度：2*LCS/(len(a)+len(b))
func Ratio(a, b string) int {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) int {
	total := len(a) + len(b)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return percent(float64(2*lcsLen(a, b)) / float64(total))
}

// PartialRatio 用较短的字符串在较长字符串的每个等长窗口上计算 Ratio，取最大值
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	best := 0
	for start := 0; start+len(short) <= len(long); start++ {
		r := ratioRunes(short, long[start:start+len(short)])
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio 归一化后按词排序再比较，忽略语序差异
func TokenSortRatio(a, b string) int {
	sa := strings.Join(sortedTokens(a), " ")
	sb := strings.Join(sortedTokens(b), " ")
	return Ratio(sa, sb)
}

// TokenSetRatio 比较交集与各自差集的组合，忽略重复词和多余词
func TokenSetRatio(a, b string) int {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := Ratio(sect, combinedA)
	if r := Ratio(sect, combinedB); r > best {
		best = r
	}
	if r := Ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

// Comparison 是通用文本相似度工具的结果（不在 Verify 主流程上）
type Comparison struct {
	Overall    float64        `json:"overall_similarity"`
	Individual map[string]int `json:"individual_scores"`
}

// WeightedSimilarity 清洗后计算四种指标并按 0.4/0.2/0.2/0.2 加权
func WeightedSimilarity(a, b string) Comparison {
	a = CleanHeadline(strings.ToLower(a))
	b = CleanHeadline(strings.ToLower(b))

	scores := map[string]int{
		"ratio":            Ratio(a, b),
		"partial_ratio":    PartialRatio(a, b),
		"token_sort_ratio": TokenSortRatio(a, b),
		"token_set_ratio":  TokenSetRatio(a, b),
	}
	weighted := float64(scores["ratio"])*0.4 +
		float64(scores["partial_ratio"])*0.2 +
		float64(scores["token_sort_ratio"])*0.2 +
		float64(scores["token_set_ratio"])*0.2

	return Comparison{
		Overall:    math.Round(weighted*100) / 100,
		Individual: scores,
	}
}

// normalize 非字母数字替换为空格、转小写、去首尾空白
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

func sortedTokens(s string) []string {
	tokens := strings.Fields(normalize(s))
	sort.Strings(tokens)
	return tokens
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(normalize(s)) {
		set[t] = struct{}{}
	}
	return set
}

// lcsLen 最长公共子序列长度，滚动数组 O(len(b)) 空间
func lcsLen(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// percent 四舍六入五成双，与常见 fuzzy 库的取整一致
func percent(r float64) int {
	return int(math.RoundToEven(r * 100))
}
