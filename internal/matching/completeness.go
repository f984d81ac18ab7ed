package matching

import (
	"math"
	"strings"

	"jobmatch/internal/model"
)

// Completeness 档案完整度，仅用于说明与统计，不参与打分。
type Completeness struct {
	MissingFields        []string `json:"missing_fields"`
	CompletionPercentage int      `json:"completion_percentage"`
	CompletedFields      int      `json:"completed_fields"`
	TotalFields          int      `json:"total_fields"`
}

type profileCheck struct {
	name string
	ok   func(c model.Candidate) bool
}

var profileChecklist = []profileCheck{
	{"skills", func(c model.Candidate) bool { return hasAny(c.Skills) }},
	{"dreamJobTitle", func(c model.Candidate) bool { return filled(c.DreamJobTitle) }},
	{"preferredJobTypes", func(c model.Candidate) bool { return hasAny(c.PreferredJobTypes) }},
	{"workEnvPreferences", func(c model.Candidate) bool { return hasAny(c.WorkEnvPreferences) }},
	{"residentCountry", func(c model.Candidate) bool { return filled(c.ResidentCountry) }},
	{"qualification", func(c model.Candidate) bool { return filled(c.Qualification) }},
	{"brandingStatement", func(c model.Candidate) bool { return filled(c.BrandingStatement) }},
	{"resume", func(c model.Candidate) bool { return filled(c.ResumeURL) }},
	{"workHistory", func(c model.Candidate) bool { return len(c.WorkHistory) > 0 }},
	{"education", func(c model.Candidate) bool { return len(c.Education) > 0 }},
	{"achievements", func(c model.Candidate) bool { return hasAny(c.Achievements) }},
	{"licenses", func(c model.Candidate) bool { return hasAny(c.Licenses) }},
	{"hobbies", func(c model.Candidate) bool { return hasAny(c.Hobbies) }},
	{"socialLinks", func(c model.Candidate) bool { return c.SocialLinks.Any() }},
	{"emergencyContact", func(c model.Candidate) bool { return c.EmergencyContact.Present() }},
}

// AnalyzeCompleteness 按固定清单检查档案字段。
func AnalyzeCompleteness(c model.Candidate) Completeness {
	out := Completeness{MissingFields: []string{}, TotalFields: len(profileChecklist)}
	for _, check := range profileChecklist {
		if check.ok(c) {
			out.CompletedFields++
			continue
		}
		out.MissingFields = append(out.MissingFields, check.name)
	}
	out.CompletionPercentage = int(math.Round(100 * float64(out.CompletedFields) / float64(out.TotalFields)))
	return out
}

func filled(s string) bool {
	return strings.TrimSpace(s) != ""
}
