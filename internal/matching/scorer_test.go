package matching

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"jobmatch/internal/model"
)

func newTestScorer(t *testing.T, cfg Config) *Scorer {
	t.Helper()
	s, err := NewScorer(cfg, nil)
	if err != nil {
		t.Fatalf("NewScorer error: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) }
	return s
}

func backendJob() model.Job {
	return model.Job{
		ID:              "job-1",
		Title:           "Backend Engineer",
		Location:        "Sydney, Australia",
		Category:        "Engineering",
		SubCategory:     "Backend",
		WorkType:        "Full-time",
		WorkspaceOption: "Remote",
		Skills:          []string{"Go", "Postgres"},
	}
}

func perfectCandidate(id string) model.Candidate {
	return model.Candidate{
		ID:                 id,
		Skills:             []string{"Go", "Postgres"},
		DreamJobTitle:      "Backend Engineer",
		ResidentCountry:    "Sydney, Australia",
		PreferredJobTypes:  []string{"full time"},
		WorkEnvPreferences: []string{"remote"},
	}
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultJobWeights().Validate(JobToCandidates); err != nil {
		t.Fatalf("default job weights invalid: %v", err)
	}
	if err := DefaultCandidateWeights().Validate(CandidateToJobs); err != nil {
		t.Fatalf("default candidate weights invalid: %v", err)
	}

	bad := []struct {
		name string
		w    Weights
		d    Direction
	}{
		{"sum below 100", Weights{Skills: 40, Title: 25, Location: 20, WorkType: 5}, JobToCandidates},
		{"negative", Weights{Skills: 110, Title: -10}, JobToCandidates},
		{"unused field", Weights{Skills: 40, Title: 25, Location: 20, WorkType: 10, Salary: 5}, JobToCandidates},
	}
	for _, tt := range bad {
		if err := tt.w.Validate(tt.d); err == nil {
			t.Fatalf("%s: expected validation error, got nil", tt.name)
		}
	}
}

func TestNewScorerRejectsBadWeights(t *testing.T) {
	t.Parallel()

	_, err := NewScorer(Config{JobWeights: Weights{Skills: 50}}, nil)
	if err == nil {
		t.Fatalf("expected error for weights not summing to 100")
	}
}

func TestPerfectCandidateScoresFull(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	res := s.Score(JobToCandidates, perfectCandidate("c1"), backendJob())
	if res.Score != 100 {
		t.Fatalf("expected aggregate 100 when every field scores 100, got %v (%+v)", res.Score, res.Fields)
	}
	if len(res.Reasons) != 5 {
		t.Fatalf("expected 5 reasons, got %v", res.Reasons)
	}
	if res.Reasons[0] != "Skills match: 2/2 (Go, Postgres)" {
		t.Fatalf("unexpected first reason %q", res.Reasons[0])
	}
}

func TestJobToCandidatesRoundsToInteger(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	c := model.Candidate{ID: "c1", Skills: []string{"Go", "Rust", "Java"}}
	job := backendJob()
	job.Skills = []string{"Go", "Elixir", "Scala"}

	// 技能 33.33 * 0.4 = 13.33
	res := s.Score(JobToCandidates, c, job)
	if res.Score != 13 {
		t.Fatalf("expected 13, got %v", res.Score)
	}
}

func TestScoreDeterministicAndBounded(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	candidates := []model.Candidate{
		{},
		perfectCandidate("c1"),
		{ID: "c2", Skills: []string{"Go"}, WorkHistory: []model.WorkEntry{{Title: "Senior Backend Engineer"}}},
	}
	jobs := []model.Job{
		{},
		backendJob(),
		{ID: "j3", Title: "Senior Backend Engineer", IsPremium: true, HasImmediateStart: true, PostedAt: s.now(), SalaryFrom: 90000, SalaryTo: 120000,
			Skills: []string{"Go"}, Location: "Sydney, Australia", WorkType: "Full-time", WorkspaceOption: "Remote"},
	}

	for _, c := range candidates {
		for _, j := range jobs {
			for _, d := range []Direction{JobToCandidates, CandidateToJobs} {
				first := s.Score(d, c, j)
				second := s.Score(d, c, j)
				if !reflect.DeepEqual(first, second) {
					t.Fatalf("%s: results differ between calls: %+v vs %+v", d, first, second)
				}
				for name, v := range map[string]float64{
					"aggregate": first.Score,
					"skills":    first.Fields.Skills,
					"title":     first.Fields.TitleQuality,
					"location":  first.Fields.Location,
					"workType":  first.Fields.WorkType,
					"workEnv":   first.Fields.WorkEnv,
				} {
					if v < 0 || v > 100 {
						t.Fatalf("%s: %s out of bounds: %v", d, name, v)
					}
				}
			}
		}
	}
}

func TestRankCandidatesStableDescending(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	weak := model.Candidate{ID: "weak", Skills: []string{"Cobol"}}
	pool := []model.Candidate{weak, perfectCandidate("a"), perfectCandidate("b"), {ID: "no-skills"}}

	ranked := s.RankCandidates(backendJob(), pool)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked candidates, got %d", len(ranked))
	}
	got := []string{ranked[0].CandidateID, ranked[1].CandidateID, ranked[2].CandidateID}
	want := []string{"a", "b", "weak"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestRankCandidatesEmptyPool(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	ranked := s.RankCandidates(backendJob(), nil)
	if ranked == nil || len(ranked) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", ranked)
	}
}

func TestRankCandidatesNotInterestedExcluded(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	c := perfectCandidate("c1")
	c.NotInterested = []model.Exclusion{{SubCategory: "backend"}}
	other := perfectCandidate("c2")
	other.NotInterested = []model.Exclusion{{Category: "Design", SubCategory: "Backend"}}

	ranked := s.RankCandidates(backendJob(), []model.Candidate{c, other})
	if len(ranked) != 1 || ranked[0].CandidateID != "c2" {
		t.Fatalf("expected only c2 ranked, got %+v", ranked)
	}
}

func TestRankCandidatesParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	seq := newTestScorer(t, Config{ParallelThreshold: 100000})
	par := newTestScorer(t, Config{ParallelThreshold: 2, Workers: 4})

	pool := make([]model.Candidate, 0, 50)
	for i := 0; i < 50; i++ {
		c := perfectCandidate(fmt.Sprintf("c%02d", i))
		if i%3 == 0 {
			c.Skills = []string{"Go"}
		}
		if i%5 == 0 {
			c.ResidentCountry = "Paris, France"
		}
		pool = append(pool, c)
	}

	a := seq.RankCandidates(backendJob(), pool)
	b := par.RankCandidates(backendJob(), pool)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parallel ranking differs from sequential")
	}
}

func TestRecommendJobsFiltersAndLimits(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	c := perfectCandidate("c1")

	jobs := []model.Job{{ID: "irrelevant", Title: "Barista", Skills: []string{"Coffee"}}}
	for i := 0; i < 10; i++ {
		j := backendJob()
		j.ID = fmt.Sprintf("job-%d", i)
		jobs = append(jobs, j)
	}

	recs := s.RecommendJobs(c, jobs)
	if recs.LowConfidence {
		t.Fatalf("expected confident recommendations")
	}
	if len(recs.Items) != 8 {
		t.Fatalf("expected 8 items, got %d", len(recs.Items))
	}
	for _, item := range recs.Items {
		if item.Job.ID == "irrelevant" {
			t.Fatalf("irrelevant job should be filtered out")
		}
		if item.Score <= 10 {
			t.Fatalf("expected score above 10, got %v", item.Score)
		}
	}
	if recs.Items[0].Job.ID != "job-0" {
		t.Fatalf("expected ties to keep input order, got %s first", recs.Items[0].Job.ID)
	}
}

func TestRecommendJobsFallbackLowConfidence(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	c := model.Candidate{ID: "c1", Skills: []string{"Knitting"}}
	jobs := []model.Job{
		{ID: "j1", Title: "Backend Engineer", Skills: []string{"Go"}},
		{ID: "j2", Title: "Data Analyst", Skills: []string{"SQL"}},
	}

	recs := s.RecommendJobs(c, jobs)
	if !recs.LowConfidence {
		t.Fatalf("expected low confidence flag")
	}
	if len(recs.Items) != 2 {
		t.Fatalf("expected fallback to return both jobs, got %d", len(recs.Items))
	}
	for _, item := range recs.Items {
		if item.Score > 10 {
			t.Fatalf("expected weak score, got %v", item.Score)
		}
	}
}

func TestRecommendJobsExplicitZeroFloor(t *testing.T) {
	t.Parallel()

	zero := 0.0
	s := newTestScorer(t, Config{MinRecommendationScore: &zero})
	c := model.Candidate{ID: "c1", Skills: []string{"Knitting"}}
	jobs := []model.Job{
		{ID: "j1", Title: "Backend Engineer", Skills: []string{"Go"}},
		{ID: "j2", Title: "Data Analyst", Skills: []string{"SQL"}},
	}

	recs := s.RecommendJobs(c, jobs)
	if recs.LowConfidence {
		t.Fatalf("expected weak but positive scores to clear a zero floor")
	}
	if len(recs.Items) != 2 {
		t.Fatalf("expected both jobs, got %d", len(recs.Items))
	}
}

func TestNewScorerRejectsBadRecommendationFloor(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{-1, 101} {
		if _, err := NewScorer(Config{MinRecommendationScore: &v}, nil); err == nil {
			t.Fatalf("expected error for min_recommendation_score %v", v)
		}
	}
}

func TestRecommendJobsEmptyPool(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	recs := s.RecommendJobs(perfectCandidate("c1"), nil)
	if len(recs.Items) != 0 || recs.LowConfidence {
		t.Fatalf("expected empty confident result, got %+v", recs)
	}
}

func TestCandidateToJobsBonuses(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	c := model.Candidate{ID: "c1", Skills: []string{"Go"}}
	plain := model.Job{ID: "plain", Title: "Engineer", Skills: []string{"Go", "SQL"}}
	boosted := plain
	boosted.ID = "boosted"
	boosted.IsPremium = true
	boosted.HasImmediateStart = true
	boosted.PostedAt = s.now().Add(-3 * 24 * time.Hour)

	base := s.Score(CandidateToJobs, c, plain)
	got := s.Score(CandidateToJobs, c, boosted)
	if diff := got.Score - base.Score; diff < 6.99 || diff > 7.01 {
		t.Fatalf("expected +7 bonus, got %v (%v -> %v)", diff, base.Score, got.Score)
	}

	older := plain
	older.PostedAt = s.now().Add(-20 * 24 * time.Hour)
	if diff := s.Score(CandidateToJobs, c, older).Score - base.Score; diff < 0.99 || diff > 1.01 {
		t.Fatalf("expected +1 for posting within 30 days, got %v", diff)
	}
}

func TestCandidateToJobsRoundsToOneDecimal(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t, Config{})
	c := model.Candidate{ID: "c1", Skills: []string{"Go"}}
	job := model.Job{ID: "j", Title: "Engineer", Skills: []string{"Go", "SQL", "Docker"}}

	// 技能 33.33 * 0.35 + 经验 50 * 0.04 = 13.67
	res := s.Score(CandidateToJobs, c, job)
	if res.Score != 13.7 {
		t.Fatalf("expected 13.7, got %v", res.Score)
	}
}

func TestExperienceAlignment(t *testing.T) {
	t.Parallel()

	senior := model.Candidate{WorkHistory: []model.WorkEntry{{Title: "Senior Developer"}}}
	if got := experienceAlignment(senior, model.Job{Title: "Senior Go Engineer"}); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := experienceAlignment(senior, model.Job{Title: "Lead Engineer"}); got != 60 {
		t.Fatalf("expected 60, got %v", got)
	}
	if got := experienceAlignment(model.Candidate{}, model.Job{Title: "Principal Engineer"}); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := experienceAlignment(senior, model.Job{Title: "Engineer"}); got != 50 {
		t.Fatalf("expected 50 when job names no level, got %v", got)
	}
}

func TestCategoryRelevance(t *testing.T) {
	t.Parallel()

	c := model.Candidate{WorkHistory: []model.WorkEntry{{Title: "Backend Engineer"}}}
	if got, _ := categoryRelevance(c, model.Job{Title: "Backend Engineer"}); got != 100 {
		t.Fatalf("expected 100 for identical past role, got %v", got)
	}

	c = model.Candidate{DreamJobTitle: "Data Analyst"}
	got, reason := categoryRelevance(c, model.Job{Title: "Insights Specialist", SubCategory: "Data"})
	if got != 60 || reason == "" {
		t.Fatalf("expected 60 with reason for category mention, got %v %q", got, reason)
	}
}
