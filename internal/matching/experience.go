package matching

import (
	"strings"

	"jobmatch/internal/model"
)

// seniorityLevels 资历等级，比标题兜底词表多收录常见缩写。
var seniorityLevels = map[string]int{
	"intern":       1,
	"graduate":     1,
	"entry":        1,
	"junior":       1,
	"jr":           1,
	"associate":    2,
	"mid":          2,
	"intermediate": 2,
	"senior":       3,
	"sr":           3,
	"lead":         4,
	"staff":        4,
	"principal":    5,
	"head":         5,
}

// seniorityLevel 取标题中出现的最高资历等级，没有时为 0。
func seniorityLevel(title string) int {
	level := 0
	for _, w := range strings.Fields(Normalize(title)) {
		if l, ok := seniorityLevels[w]; ok && l > level {
			level = l
		}
	}
	return level
}

// candidateLevel 优先看最近一份工作的标题，否则按工作年限或经历条数估算。
func candidateLevel(c model.Candidate) int {
	if len(c.WorkHistory) > 0 {
		if l := seniorityLevel(c.WorkHistory[0].Title); l > 0 {
			return l
		}
	}

	years := 0
	for _, w := range c.WorkHistory {
		years += w.Years
	}
	if years > 0 {
		switch {
		case years < 2:
			return 1
		case years < 5:
			return 2
		case years < 8:
			return 3
		default:
			return 4
		}
	}

	switch n := len(c.WorkHistory); {
	case n == 0:
		return 1
	case n <= 2:
		return 2
	case n <= 4:
		return 3
	default:
		return 4
	}
}

// experienceAlignment 职位未标明资历时给 50；等级一致 100，相差一级 60，其余 0。
func experienceAlignment(c model.Candidate, j model.Job) float64 {
	jobLevel := seniorityLevel(j.Title)
	if jobLevel == 0 {
		return 50
	}
	diff := jobLevel - candidateLevel(c)
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 100
	case 1:
		return 60
	default:
		return 0
	}
}

// categoryRelevance 取工作经历标题与职位名称的最佳匹配；
// 职位类别或子类别出现在期望职位或经历标题中时至少给 60。
func categoryRelevance(c model.Candidate, j model.Job) (float64, string) {
	best := 0.0
	reason := ""
	for _, w := range c.WorkHistory {
		if m := MatchTitle(w.Title, j.Title); m.Score > best {
			best = m.Score
			reason = "Relevant experience: " + w.Title
		}
	}
	if best >= 60 {
		return best, reason
	}

	titles := make([]string, 0, len(c.WorkHistory)+1)
	if n := Normalize(c.DreamJobTitle); n != "" {
		titles = append(titles, n)
	}
	for _, w := range c.WorkHistory {
		if n := Normalize(w.Title); n != "" {
			titles = append(titles, n)
		}
	}
	for _, label := range []string{j.SubCategory, j.Category} {
		n := Normalize(label)
		for _, t := range titles {
			if containsEither(n, t) {
				return 60, "Category experience: " + label
			}
		}
	}
	return best, reason
}
