package matching

// SkillsMatch 技能匹配结果。
type SkillsMatch struct {
	Score   float64  `json:"score"`
	Matched []string `json:"matched"`
	Exact   int      `json:"exact"`
	Total   int      `json:"total"`
}

// MatchSkills 逐个检查职位技能，归一化后与任一候选人技能互相包含即视为命中
// （"React" 可命中 "React.js"）。得分 = 100 * 命中数 / 职位技能数，职位无技能时为 0。
func MatchSkills(candidateSkills, jobSkills []string) SkillsMatch {
	res := matchSkillSet(candidateSkills, jobSkills)
	if res.Total == 0 {
		return res
	}
	res.Score = 100 * float64(len(res.Matched)) / float64(res.Total)
	return res
}

// MatchSkillsWeighted 用于候选人找职位方向：完全相同记 2 分，包含关系记 1 分，
// 得分 = 100 * 总分 / (2 * 职位技能数)。
func MatchSkillsWeighted(candidateSkills, jobSkills []string) SkillsMatch {
	res := matchSkillSet(candidateSkills, jobSkills)
	if res.Total == 0 {
		return res
	}
	points := res.Exact*2 + (len(res.Matched) - res.Exact)
	res.Score = 100 * float64(points) / float64(2*res.Total)
	return res
}

func matchSkillSet(candidateSkills, jobSkills []string) SkillsMatch {
	res := SkillsMatch{Matched: []string{}}

	normalized := make([]string, 0, len(candidateSkills))
	exactSet := make(map[string]struct{}, len(candidateSkills))
	for _, skill := range candidateSkills {
		if n := Normalize(skill); n != "" {
			normalized = append(normalized, n)
			exactSet[n] = struct{}{}
		}
	}

	for _, skill := range jobSkills {
		js := Normalize(skill)
		if js == "" {
			continue
		}
		res.Total++
		if _, ok := exactSet[js]; ok {
			res.Exact++
			res.Matched = append(res.Matched, skill)
			continue
		}
		for _, cs := range normalized {
			if containsEither(js, cs) {
				res.Matched = append(res.Matched, skill)
				break
			}
		}
	}
	return res
}

// unionSkills 合并职位技能与关键词，按归一化结果去重并保留先后顺序。
func unionSkills(skills, keywords []string) []string {
	out := make([]string, 0, len(skills)+len(keywords))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{skills, keywords} {
		for _, s := range list {
			n := Normalize(s)
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
