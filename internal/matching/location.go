package matching

import "strings"

// LocationMatch 地点匹配结果。
type LocationMatch struct {
	Score     float64 `json:"score"`
	MatchType string  `json:"match_type"`
}

// MatchLocation 比较候选人所在地、意向地点列表与职位地点。
// 地点按逗号拆分，首段视为城市，末段视为国家，规则依次为：
// 完全相同 100，城市与国家均相同 95，仅城市相同 80，仅国家相同 70，
// 城市互相包含 100，国家互相包含 50；随后按顺序扫描意向地点：
// 完全相同 85，城市包含 75，国家包含 65；都不满足为 0。
func MatchLocation(candidateLocation, jobLocation string, preferred []string) LocationMatch {
	cl := strings.TrimSpace(candidateLocation)
	jl := strings.TrimSpace(jobLocation)
	if jl == "" {
		return LocationMatch{Score: 0, MatchType: "No location data"}
	}
	jobCity, jobCountry := splitLocation(jl)

	if cl != "" {
		if strings.EqualFold(cl, jl) {
			return LocationMatch{Score: 100, MatchType: "Perfect match"}
		}
		city, country := splitLocation(cl)
		sameCity := city != "" && city == jobCity
		sameCountry := country != "" && country == jobCountry
		switch {
		case sameCity && sameCountry:
			return LocationMatch{Score: 95, MatchType: "Same city and country"}
		case sameCity:
			return LocationMatch{Score: 80, MatchType: "Same city"}
		case sameCountry:
			return LocationMatch{Score: 70, MatchType: "Same country"}
		}
		if containsEither(city, jobCity) {
			return LocationMatch{Score: 100, MatchType: "Partial city match"}
		}
		if containsEither(country, jobCountry) {
			return LocationMatch{Score: 50, MatchType: "Partial country match"}
		}
	}

	for _, pref := range preferred {
		p := strings.TrimSpace(pref)
		if p == "" {
			continue
		}
		if strings.EqualFold(p, jl) {
			return LocationMatch{Score: 85, MatchType: "Preferred location match"}
		}
		city, country := splitLocation(p)
		if containsEither(city, jobCity) {
			return LocationMatch{Score: 75, MatchType: "Preferred city match"}
		}
		if containsEither(country, jobCountry) {
			return LocationMatch{Score: 65, MatchType: "Preferred country match"}
		}
	}

	return LocationMatch{Score: 0, MatchType: MatchTypeNone}
}

func splitLocation(s string) (city, country string) {
	parts := strings.Split(s, ",")
	return Normalize(parts[0]), Normalize(parts[len(parts)-1])
}
