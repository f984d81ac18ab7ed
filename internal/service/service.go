package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobmatch/internal/dispatch"
	"jobmatch/internal/events"
	"jobmatch/internal/matching"
	"jobmatch/internal/model"
	"jobmatch/internal/notifier"
	"jobmatch/internal/storage"

	"go.uber.org/zap"
)

// CandidateStore 候选人读取接口。
type CandidateStore interface {
	FindCandidatesWithSkills(ctx context.Context) ([]model.Candidate, error)
	FindCandidateByID(ctx context.Context, id string) (*model.Candidate, error)
}

// JobStore 职位读写接口。
type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	FindJobByID(ctx context.Context, id string) (*model.Job, error)
	FindOpenJobs(ctx context.Context, opts storage.JobQueryOptions) ([]model.Job, error)
	PromoteJob(ctx context.Context, id string) (*model.Job, error)
	MarkJobMatched(ctx context.Context, id string, at time.Time) error
}

// Mailer 发送职位提醒邮件。
type Mailer interface {
	SendBatch(ctx context.Context, job model.Job, emails []string) (notifier.BatchResult, error)
}

// MessageStore 写入站内系统消息。
type MessageStore interface {
	CreateSystemMessage(ctx context.Context, msg model.SystemMessage) (string, error)
}

// Publisher 推送匹配事件。
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// ValidationError 请求参数不合法。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Deps 构造 Service 所需依赖；Ledger 与 Publisher 可为空。
type Deps struct {
	Candidates CandidateStore
	Jobs       JobStore
	Mailer     Mailer
	Messages   MessageStore
	Ledger     notifier.Ledger
	Publisher  Publisher
	Scorer     *matching.Scorer
	Policy     *dispatch.Policy
	Logger     *zap.Logger
}

// Service 串联打分、通知策略与各协作方：职位发布或推广时通知候选人，
// 以及为候选人生成推荐。
type Service struct {
	candidates CandidateStore
	jobs       JobStore
	mailer     Mailer
	messages   MessageStore
	ledger     notifier.Ledger
	publisher  Publisher
	scorer     *matching.Scorer
	policy     *dispatch.Policy
	logger     *zap.Logger
	now        func() time.Time
}

func New(d Deps) (*Service, error) {
	if d.Candidates == nil || d.Jobs == nil || d.Mailer == nil || d.Messages == nil || d.Scorer == nil || d.Policy == nil {
		return nil, errors.New("service missing dependencies")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if !d.Policy.Dedup() {
		d.Ledger = nil
	}
	return &Service{
		candidates: d.Candidates,
		jobs:       d.Jobs,
		mailer:     d.Mailer,
		messages:   d.Messages,
		ledger:     d.Ledger,
		publisher:  d.Publisher,
		scorer:     d.Scorer,
		policy:     d.Policy,
		logger:     d.Logger,
		now:        time.Now,
	}, nil
}

// Outcome 一次职位提醒的结果。
type Outcome struct {
	JobID             string                 `json:"job_id"`
	Ranked            int                    `json:"ranked"`
	Email             notifier.BatchResult   `json:"email"`
	MessageIDs        []string               `json:"message_ids"`
	FailedMessages    int                    `json:"failed_messages"`
	SkippedDuplicates int                    `json:"skipped_duplicates"`
	TopMatches        []matching.MatchResult `json:"top_matches"`
}

const topMatchesInOutcome = 5

// PostJob 校验并保存新职位，然后执行职位提醒。
func (s *Service) PostJob(ctx context.Context, job *model.Job) (Outcome, error) {
	job.Title = strings.TrimSpace(job.Title)
	if job.Title == "" {
		return Outcome{}, &ValidationError{Field: "title", Message: "required"}
	}
	if job.SalaryFrom < 0 || job.SalaryTo < 0 || (job.SalaryTo > 0 && job.SalaryFrom > job.SalaryTo) {
		return Outcome{}, &ValidationError{Field: "salary", Message: "invalid range"}
	}
	if job.Skills == nil {
		job.Skills = []string{}
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return Outcome{}, err
	}
	return s.RunJobAlerts(ctx, *job)
}

// PromoteJob 将职位设为推广并重新通知匹配的候选人。
func (s *Service) PromoteJob(ctx context.Context, jobID string) (Outcome, error) {
	job, err := s.jobs.PromoteJob(ctx, jobID)
	if err != nil {
		return Outcome{}, err
	}
	return s.RunJobAlerts(ctx, *job)
}

// HandleJobPosted 按 ID 加载职位并执行职位提醒。
func (s *Service) HandleJobPosted(ctx context.Context, jobID string) (Outcome, error) {
	job, err := s.jobs.FindJobByID(ctx, jobID)
	if err != nil {
		return Outcome{}, err
	}
	return s.RunJobAlerts(ctx, *job)
}

// RunJobAlerts 为职位排序所有有技能的候选人，按通知策略拆分后
// 发送邮件与系统消息。候选人池为空时返回空结果。
func (s *Service) RunJobAlerts(ctx context.Context, job model.Job) (Outcome, error) {
	out := Outcome{JobID: job.ID, MessageIDs: []string{}, Email: notifier.BatchResult{FailedEmails: []string{}}}

	pool, err := s.candidates.FindCandidatesWithSkills(ctx)
	if err != nil {
		return out, fmt.Errorf("load candidate pool: %w", err)
	}
	byID := make(map[string]model.Candidate, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
	}

	ranked := s.scorer.RankCandidates(job, pool)
	out.Ranked = len(ranked)
	out.TopMatches = ranked[:min(len(ranked), topMatchesInOutcome)]
	plan := s.policy.Plan(ranked)

	emails := make([]string, 0, len(plan.Email))
	reserved := make(map[string][]string, len(plan.Email))
	for _, r := range plan.Email {
		c := byID[r.CandidateID]
		if strings.TrimSpace(c.Email) == "" {
			continue
		}
		if !s.firstNotice(ctx, job.ID, c.ID, model.ChannelEmail) {
			out.SkippedDuplicates++
			continue
		}
		emails = append(emails, c.Email)
		key := emailKey(c.Email)
		reserved[key] = append(reserved[key], c.ID)
	}
	if len(emails) > 0 {
		res, err := s.mailer.SendBatch(ctx, job, emails)
		if res.FailedEmails == nil {
			res.FailedEmails = []string{}
		}
		out.Email = res
		s.releaseFailedEmails(ctx, job.ID, res, err, reserved)
		if err != nil {
			return out, fmt.Errorf("send job alerts: %w", err)
		}
	}

	for _, r := range plan.Messages {
		if !s.firstNotice(ctx, job.ID, r.CandidateID, model.ChannelMessage) {
			out.SkippedDuplicates++
			continue
		}
		id, err := s.messages.CreateSystemMessage(ctx, model.SystemMessage{
			CandidateID: r.CandidateID,
			JobID:       job.ID,
			Score:       r.Score,
			Reasons:     r.Reasons,
			Content:     messageContent(job, r),
		})
		if err != nil {
			out.FailedMessages++
			s.logger.Warn("create system message failed",
				zap.String("job_id", job.ID),
				zap.String("candidate_id", r.CandidateID),
				zap.Error(err),
			)
			s.release(ctx, job.ID, r.CandidateID, model.ChannelMessage)
			continue
		}
		out.MessageIDs = append(out.MessageIDs, id)
	}

	if err := s.jobs.MarkJobMatched(ctx, job.ID, s.now().UTC()); err != nil {
		s.logger.Warn("mark job matched failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.publish(ctx, out, ranked)

	s.logger.Info("job alerts dispatched",
		zap.String("job_id", job.ID),
		zap.Int("pool", len(pool)),
		zap.Int("ranked", out.Ranked),
		zap.Int("emailed", out.Email.SentCount),
		zap.Int("messaged", len(out.MessageIDs)),
		zap.Int("skipped_duplicates", out.SkippedDuplicates),
	)
	return out, nil
}

// firstNotice 未启用去重时总是 true；记录失败时照常通知。
func (s *Service) firstNotice(ctx context.Context, jobID, candidateID string, ch model.Channel) bool {
	if s.ledger == nil {
		return true
	}
	ok, err := s.ledger.MarkNotified(ctx, jobID, candidateID, ch)
	if err != nil {
		s.logger.Warn("notification ledger unavailable",
			zap.String("job_id", jobID),
			zap.String("candidate_id", candidateID),
			zap.String("channel", string(ch)),
			zap.Error(err),
		)
		return true
	}
	return ok
}

// releaseFailedEmails 撤销未送达地址的通知记录；发送报错且没有成功发送时全部撤销。
func (s *Service) releaseFailedEmails(ctx context.Context, jobID string, res notifier.BatchResult, sendErr error, reserved map[string][]string) {
	if s.ledger == nil {
		return
	}
	failed := make(map[string]struct{}, len(res.FailedEmails))
	for _, addr := range res.FailedEmails {
		failed[emailKey(addr)] = struct{}{}
	}
	releaseAll := sendErr != nil && res.SentCount == 0
	for key, ids := range reserved {
		if _, ok := failed[key]; !ok && !releaseAll {
			continue
		}
		for _, id := range ids {
			s.release(ctx, jobID, id, model.ChannelEmail)
		}
	}
}

// release 撤销一条通知记录，下一轮可重新发送。
func (s *Service) release(ctx context.Context, jobID, candidateID string, ch model.Channel) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Forget(context.WithoutCancel(ctx), jobID, candidateID, ch); err != nil {
		s.logger.Warn("release notification record failed",
			zap.String("job_id", jobID),
			zap.String("candidate_id", candidateID),
			zap.String("channel", string(ch)),
			zap.Error(err),
		)
	}
}

func emailKey(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func (s *Service) publish(ctx context.Context, out Outcome, ranked []matching.MatchResult) {
	if s.publisher == nil {
		return
	}
	ev := events.Event{
		Type:       events.TypeJobMatched,
		JobID:      out.JobID,
		Ranked:     out.Ranked,
		Emailed:    out.Email.SentCount,
		Messaged:   len(out.MessageIDs),
		OccurredAt: s.now().UTC(),
	}
	if len(ranked) > 0 {
		ev.TopScore = ranked[0].Score
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish match event failed", zap.String("job_id", out.JobID), zap.Error(err))
	}
}

func messageContent(job model.Job, r matching.MatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %.0f%% match for %s", r.Score, job.Title)
	if job.Location != "" {
		fmt.Fprintf(&b, " in %s", job.Location)
	}
	b.WriteString(".")
	if len(r.Reasons) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(r.Reasons, "; "))
		b.WriteString(".")
	}
	return b.String()
}

// RecommendationResult 推荐结果附带档案完整度。
type RecommendationResult struct {
	matching.Recommendations
	Completeness matching.Completeness `json:"completeness"`
}

// Recommend 对所有开放职位打分，返回候选人的前 N 个推荐。
func (s *Service) Recommend(ctx context.Context, candidateID string) (RecommendationResult, error) {
	if strings.TrimSpace(candidateID) == "" {
		return RecommendationResult{}, &ValidationError{Field: "candidate_id", Message: "required"}
	}
	c, err := s.candidates.FindCandidateByID(ctx, candidateID)
	if err != nil {
		return RecommendationResult{}, err
	}
	jobs, err := s.jobs.FindOpenJobs(ctx, storage.JobQueryOptions{})
	if err != nil {
		return RecommendationResult{}, fmt.Errorf("load open jobs: %w", err)
	}

	recs := s.scorer.RecommendJobs(*c, jobs)
	s.logger.Debug("recommendations computed",
		zap.String("candidate_id", c.ID),
		zap.Int("jobs", len(jobs)),
		zap.Int("items", len(recs.Items)),
		zap.Bool("low_confidence", recs.LowConfidence),
	)
	return RecommendationResult{
		Recommendations: recs,
		Completeness:    matching.AnalyzeCompleteness(*c),
	}, nil
}
