package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobmatch/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "jobmatch.db"))
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreJobsLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	jobs := []model.Job{
		{ID: "1", Title: "Backend Engineer", Skills: []string{"Go"}, PostedAt: first},
		{ID: "2", Title: "Frontend Engineer", Skills: []string{"React"}, PostedAt: first.Add(2 * time.Hour)},
		{ID: "3", Title: "Closed Role", Status: model.JobStatusClosed, PostedAt: first.Add(time.Hour)},
	}
	res, err := store.UpsertJobs(ctx, jobs)
	if err != nil {
		t.Fatalf("UpsertJobs error: %v", err)
	}
	if res.Created != 3 {
		t.Fatalf("expected 3 created jobs, got %d", res.Created)
	}

	again, err := store.UpsertJobs(ctx, jobs[:1])
	if err != nil {
		t.Fatalf("UpsertJobs error: %v", err)
	}
	if again.Created != 0 {
		t.Fatalf("expected no new jobs on second upsert, got %d", again.Created)
	}

	open, err := store.FindOpenJobs(ctx, JobQueryOptions{})
	if err != nil {
		t.Fatalf("FindOpenJobs error: %v", err)
	}
	if len(open) != 2 || open[0].ID != "2" {
		t.Fatalf("expected 2 open jobs newest first, got %+v", open)
	}
	if len(open[0].Skills) != 1 || open[0].Skills[0] != "React" {
		t.Fatalf("expected skills to round-trip, got %v", open[0].Skills)
	}

	total, err := store.CountJobs(ctx, JobQueryOptions{})
	if err != nil {
		t.Fatalf("CountJobs error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 jobs in total, got %d", total)
	}

	promoted, err := store.PromoteJob(ctx, "1")
	if err != nil {
		t.Fatalf("PromoteJob error: %v", err)
	}
	if !promoted.IsPremium {
		t.Fatalf("expected job to be premium after promotion")
	}

	if err := store.MarkJobMatched(ctx, "1", first); err != nil {
		t.Fatalf("MarkJobMatched error: %v", err)
	}
	pending, err := store.FindOpenJobs(ctx, JobQueryOptions{Unmatched: true})
	if err != nil {
		t.Fatalf("FindOpenJobs error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "2" {
		t.Fatalf("expected only job 2 pending, got %+v", pending)
	}
}

func TestStoreCreateJobDefaults(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	job := model.Job{Title: "Data Analyst"}
	if err := store.CreateJob(ctx, &job); err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if job.ID == "" || job.Status != model.JobStatusOpen || job.PostedAt.IsZero() {
		t.Fatalf("expected defaults to be filled, got %+v", job)
	}

	got, err := store.FindJobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("FindJobByID error: %v", err)
	}
	if got.Title != "Data Analyst" {
		t.Fatalf("expected title Data Analyst, got %s", got.Title)
	}
}

func TestStoreNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.FindJobByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindCandidateByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.PromoteJob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.AddExclusion(ctx, "missing", model.Exclusion{SubCategory: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreCandidates(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	candidates := []model.Candidate{
		{ID: "c1", Email: "a@example.com", Skills: []string{"Go"}, WorkHistory: []model.WorkEntry{{Title: "Developer"}}},
		{ID: "c2", Email: "b@example.com"},
		{ID: "c3", Email: "c@example.com", Skills: []string{" "}},
	}
	for i := range candidates {
		if err := store.UpsertCandidate(ctx, &candidates[i]); err != nil {
			t.Fatalf("UpsertCandidate error: %v", err)
		}
	}

	skilled, err := store.FindCandidatesWithSkills(ctx)
	if err != nil {
		t.Fatalf("FindCandidatesWithSkills error: %v", err)
	}
	if len(skilled) != 1 || skilled[0].ID != "c1" {
		t.Fatalf("expected only c1, got %+v", skilled)
	}

	updated := candidates[0]
	updated.DreamJobTitle = "Backend Engineer"
	if err := store.UpsertCandidate(ctx, &updated); err != nil {
		t.Fatalf("UpsertCandidate error: %v", err)
	}
	got, err := store.FindCandidateByID(ctx, "c1")
	if err != nil {
		t.Fatalf("FindCandidateByID error: %v", err)
	}
	if got.DreamJobTitle != "Backend Engineer" || len(got.WorkHistory) != 1 {
		t.Fatalf("expected updated profile, got %+v", got)
	}

	ex := model.Exclusion{SubCategory: "Sales"}
	if _, err := store.AddExclusion(ctx, "c1", ex); err != nil {
		t.Fatalf("AddExclusion error: %v", err)
	}
	c, err := store.AddExclusion(ctx, "c1", ex)
	if err != nil {
		t.Fatalf("AddExclusion error: %v", err)
	}
	if len(c.NotInterested) != 1 {
		t.Fatalf("expected duplicate exclusion ignored, got %v", c.NotInterested)
	}
}

func TestStoreMessagesAndLedger(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateSystemMessage(ctx, model.SystemMessage{
		CandidateID: "c1",
		JobID:       "j1",
		Score:       82,
		Reasons:     []string{"Skills match: 2/2 (Go, SQL)"},
		Content:     "New match",
	})
	if err != nil {
		t.Fatalf("CreateSystemMessage error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected message id")
	}

	msgs, err := store.ListSystemMessages(ctx, "c1")
	if err != nil {
		t.Fatalf("ListSystemMessages error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != id || len(msgs[0].Reasons) != 1 {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	first, err := store.MarkNotified(ctx, "j1", "c1", model.ChannelEmail)
	if err != nil {
		t.Fatalf("MarkNotified error: %v", err)
	}
	second, err := store.MarkNotified(ctx, "j1", "c1", model.ChannelEmail)
	if err != nil {
		t.Fatalf("MarkNotified error: %v", err)
	}
	other, err := store.MarkNotified(ctx, "j1", "c1", model.ChannelMessage)
	if err != nil {
		t.Fatalf("MarkNotified error: %v", err)
	}
	if !first || second || !other {
		t.Fatalf("expected true/false/true, got %v/%v/%v", first, second, other)
	}

	if err := store.Forget(ctx, "j1", "c1", model.ChannelEmail); err != nil {
		t.Fatalf("Forget error: %v", err)
	}
	again, err := store.MarkNotified(ctx, "j1", "c1", model.ChannelEmail)
	if err != nil {
		t.Fatalf("MarkNotified error: %v", err)
	}
	if !again {
		t.Fatalf("expected email notice recordable again after Forget")
	}
	stillMessaged, err := store.MarkNotified(ctx, "j1", "c1", model.ChannelMessage)
	if err != nil {
		t.Fatalf("MarkNotified error: %v", err)
	}
	if stillMessaged {
		t.Fatalf("expected Forget to leave other channels recorded")
	}
}
