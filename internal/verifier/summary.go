package verifier

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	whyMinRunes = 50
	whyMaxRunes = 200
)

var locationRe = regexp.MustCompile(`\b(?:in|at)\s+([A-Z][a-zA-Z\s]+?)(?:[,.]|\s+(?:said|reported|according))`)

// Summarize 根据相似度最高的来源生成 What/When/Where/Why；没有来源时保持为空
func Summarize(r *Result) {
	best, ok := bestCandidate(r.SourcesFound)
	if !ok {
		return
	}

	r.Summary.What = "Based on verification, the headline appears to be related to: " + best.Title

	if best.PublishedAt != "" {
		r.Summary.When = "Originally reported around: " + best.PublishedAt
	}

	desc := best.Description
	if desc != "" {
		if m := locationRe.FindStringSubmatch(desc); m != nil {
			r.Summary.Where = "Location mentioned: " + strings.TrimSpace(m[1])
		} else {
			r.Summary.Where = "Location information not clearly specified"
		}
	}

	if utf8.RuneCountInString(desc) > whyMinRunes {
		r.Summary.Why = "Context: " + firstRunes(desc, whyMaxRunes) + "..."
	} else {
		r.Summary.Why = "Additional context not available from sources"
	}
}

// bestCandidate 相似度最高者，并列时取先出现的
func bestCandidate(list []Candidate) (Candidate, bool) {
	if len(list) == 0 {
		return Candidate{}, false
	}
	best := list[0]
	for _, c := range list[1:] {
		if c.Similarity > best.Similarity {
			best = c
		}
	}
	return best, true
}

func firstRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
