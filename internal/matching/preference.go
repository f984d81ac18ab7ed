package matching

import "strings"

// PreferenceMatch 工作类型 / 工作环境偏好匹配结果。
type PreferenceMatch struct {
	Score   float64 `json:"score"`
	Matched string  `json:"matched,omitempty"`
}

// MatchPreference 简单成员判断：value 在偏好列表中得 100，否则 0。
// 比较忽略大小写、标点与空白，"Full-time" 与 "full time" 视为相同。
func MatchPreference(prefs []string, value string) PreferenceMatch {
	v := compact(value)
	if v == "" {
		return PreferenceMatch{}
	}
	for _, p := range prefs {
		if compact(p) == v {
			return PreferenceMatch{Score: 100, Matched: value}
		}
	}
	return PreferenceMatch{}
}

func compact(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}
