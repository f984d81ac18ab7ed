package matching

import "strings"

const (
	MatchTypeExact              = "Exact match"
	MatchTypeExactNormalized    = "Exact match (normalized)"
	MatchTypeContains           = "Contains match"
	MatchTypeContainsNormalized = "Contains match (normalized)"
	MatchTypeStrongOverlap      = "Strong word overlap"
	MatchTypeGoodOverlap        = "Good word overlap"
	MatchTypePartialOverlap     = "Partial word overlap"
	MatchTypeSeniority          = "Seniority match"
	MatchTypeNone               = "No match"
	MatchTypeNoTitle            = "No job title data"
)

// seniorityKeywords 标题兜底比较使用的固定词表。
var seniorityKeywords = map[string]struct{}{
	"junior":    {},
	"mid":       {},
	"senior":    {},
	"lead":      {},
	"principal": {},
	"staff":     {},
	"associate": {},
	"entry":     {},
}

// TitleMatch 职位名称匹配结果。
type TitleMatch struct {
	Score     float64 `json:"score"`
	MatchType string  `json:"match_type"`
}

// MatchTitle 按层级比较期望职位与职位名称，先命中的层级生效：
// 完全相同 100，归一化后相同 98，原文包含 90，归一化包含 85，
// 词重叠 80/65/50，共享资历关键词 40，否则 0。
func MatchTitle(candidateTitle, jobTitle string) TitleMatch {
	ct := strings.ToLower(strings.TrimSpace(candidateTitle))
	jt := strings.ToLower(strings.TrimSpace(jobTitle))
	if ct == "" || jt == "" {
		return TitleMatch{Score: 0, MatchType: MatchTypeNoTitle}
	}
	if ct == jt {
		return TitleMatch{Score: 100, MatchType: MatchTypeExact}
	}

	nc, nj := Normalize(ct), Normalize(jt)
	if nc != "" && nc == nj {
		return TitleMatch{Score: 98, MatchType: MatchTypeExactNormalized}
	}
	if strings.Contains(ct, jt) || strings.Contains(jt, ct) {
		return TitleMatch{Score: 90, MatchType: MatchTypeContains}
	}
	if containsEither(nc, nj) {
		return TitleMatch{Score: 85, MatchType: MatchTypeContainsNormalized}
	}
	if m, ok := wordOverlap(nc, nj); ok {
		return m
	}
	if sharesSeniority(nc, nj) {
		return TitleMatch{Score: 40, MatchType: MatchTypeSeniority}
	}
	return TitleMatch{Score: 0, MatchType: MatchTypeNone}
}

func wordOverlap(candidate, job string) (TitleMatch, bool) {
	cw, jw := titleWords(candidate), titleWords(job)
	if len(cw) == 0 || len(jw) == 0 {
		return TitleMatch{}, false
	}

	jobSet := make(map[string]struct{}, len(jw))
	for _, w := range jw {
		jobSet[w] = struct{}{}
	}

	exact, partial := 0, 0
	for _, w := range cw {
		if _, ok := jobSet[w]; ok {
			exact++
			continue
		}
		for _, j := range jw {
			if containsEither(w, j) {
				partial++
				break
			}
		}
	}

	pct := float64(exact+partial) / float64(max(len(cw), len(jw))) * 100
	switch {
	case pct >= 80:
		return TitleMatch{Score: 80, MatchType: MatchTypeStrongOverlap}, true
	case pct >= 60:
		return TitleMatch{Score: 65, MatchType: MatchTypeGoodOverlap}, true
	case pct >= 40:
		return TitleMatch{Score: 50, MatchType: MatchTypePartialOverlap}, true
	}
	return TitleMatch{}, false
}

// titleWords 仅保留长度大于 2 的词。
func titleWords(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			out = append(out, f)
		}
	}
	return out
}

func sharesSeniority(a, b string) bool {
	found := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		if _, ok := seniorityKeywords[w]; ok {
			found[w] = struct{}{}
		}
	}
	for _, w := range strings.Fields(b) {
		if _, ok := found[w]; ok {
			return true
		}
	}
	return false
}
