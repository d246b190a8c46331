package verifier

import "strings"

var reputableSources = []string{"BBC", "Reuters", "AP", "CNN", "NPR"}

// Score 根据累计的匹配数、相似度、来源与核查命中计算 0–100 分并设置结论
func Score(r *Result) {
	score := 0

	switch m := r.Details.MatchingSources; {
	case m >= 3:
		score += 50
	case m >= 2:
		score += 35
	case m >= 1:
		score += 20
	}

	if n := len(r.SimilarHeadlines); n > 0 {
		sum := 0
		for _, h := range r.SimilarHeadlines {
			sum += h.Similarity
		}
		avg := float64(sum) / float64(n)
		score += int(avg * 0.4)
	}

	if hasReputableSource(r.SourcesFound) {
		score += 10
	}

	if len(r.Details.FactCheckResults) > 0 {
		score += 10
	}

	score = clamp(score, 0, 100)
	r.AuthenticityScore = score
	r.VerificationStatus = StatusFor(score)
}

// StatusFor 分数到结论的阶梯映射，边界值归入较高一档
func StatusFor(score int) Status {
	switch {
	case score >= 80:
		return StatusHighlyLikelyTrue
	case score >= 60:
		return StatusLikelyTrue
	case score >= 40:
		return StatusPossiblyTrue
	case score >= 20:
		return StatusQuestionable
	default:
		return StatusLikelyFalse
	}
}

func hasReputableSource(sources []Candidate) bool {
	for _, s := range sources {
		for _, rep := range reputableSources {
			if strings.Contains(s.Source, rep) {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
