package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jobmatch/internal/matching"
	"jobmatch/internal/model"
	"jobmatch/internal/profile"
	"jobmatch/internal/service"
	"jobmatch/internal/storage"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// JobStore 抽象职位列表查询。
type JobStore interface {
	ListJobs(ctx context.Context, opts storage.JobQueryOptions) ([]model.Job, error)
	CountJobs(ctx context.Context, opts storage.JobQueryOptions) (int64, error)
}

// MessageStore 查询候选人系统消息。
type MessageStore interface {
	ListSystemMessages(ctx context.Context, candidateID string) ([]model.SystemMessage, error)
}

// Matcher 职位发布、推广与推荐。
type Matcher interface {
	PostJob(ctx context.Context, job *model.Job) (service.Outcome, error)
	PromoteJob(ctx context.Context, jobID string) (service.Outcome, error)
	Recommend(ctx context.Context, candidateID string) (service.RecommendationResult, error)
}

// Profiles 候选人档案维护。
type Profiles interface {
	Save(ctx context.Context, c model.Candidate) (model.Candidate, error)
	Exclude(ctx context.Context, candidateID string, req profile.ExclusionRequest) (model.Candidate, error)
	Completeness(ctx context.Context, candidateID string) (matching.Completeness, error)
}

// Scheduler 抽象调度接口。
type Scheduler interface {
	RunOnce(ctx context.Context) (int, error)
}

// Config HTTP 服务配置。
type Config struct {
	Addr           string   `yaml:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// Deps 构造 HTTP 处理器所需依赖；Scheduler 可为空。
type Deps struct {
	Jobs      JobStore
	Messages  MessageStore
	Matcher   Matcher
	Profiles  Profiles
	Scheduler Scheduler
	Logger    *zap.Logger
}

// NewHandler 构造 HTTP 多路复用器，并包一层 CORS。
func NewHandler(d Deps, cfg Config) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &handlers{Deps: d}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/jobs", h.listJobs)
	mux.HandleFunc("POST /api/jobs", h.postJob)
	mux.HandleFunc("POST /api/jobs/{id}/promote", h.promoteJob)
	mux.HandleFunc("GET /api/recommendations", h.recommendations)
	mux.HandleFunc("PUT /api/candidates/{id}", h.saveCandidate)
	mux.HandleFunc("GET /api/candidates/{id}/completeness", h.completeness)
	mux.HandleFunc("POST /api/candidates/{id}/not-interested", h.notInterested)
	mux.HandleFunc("GET /api/candidates/{id}/messages", h.messages)
	mux.HandleFunc("POST /api/sweep", h.sweep)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
		ExposedHeaders: []string{"X-Page", "X-Limit", "X-Has-More", "X-Total"},
	})
	return c.Handler(mux)
}

type handlers struct {
	Deps
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 20
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = min(v, 100)
		}
	}
	page := 1
	if p := q.Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	opts := storage.JobQueryOptions{
		Limit:       limit + 1,
		Offset:      (page - 1) * limit,
		Status:      model.JobStatus(q.Get("status")),
		Category:    q.Get("category"),
		SubCategory: q.Get("sub_category"),
	}

	jobs, err := h.Jobs.ListJobs(r.Context(), opts)
	if err != nil {
		h.fail(w, err)
		return
	}
	total, err := h.Jobs.CountJobs(r.Context(), opts)
	if err != nil {
		h.fail(w, err)
		return
	}

	hasMore := false
	if len(jobs) > limit {
		hasMore = true
		jobs = jobs[:limit]
	}

	w.Header().Set("X-Page", strconv.Itoa(page))
	w.Header().Set("X-Limit", strconv.Itoa(limit))
	w.Header().Set("X-Has-More", strconv.FormatBool(hasMore))
	w.Header().Set("X-Total", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, jobs)
}

func (h *handlers) postJob(w http.ResponseWriter, r *http.Request) {
	var job model.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	out, err := h.Matcher.PostJob(r.Context(), &job)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"job": job, "outcome": out})
}

func (h *handlers) promoteJob(w http.ResponseWriter, r *http.Request) {
	out, err := h.Matcher.PromoteJob(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// recommendations 候选人 ID 取自 X-User-ID 请求头或 candidate_id 参数。
func (h *handlers) recommendations(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("candidate_id"))
	}
	res, err := h.Matcher.Recommend(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) saveCandidate(w http.ResponseWriter, r *http.Request) {
	var c model.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	c.ID = r.PathValue("id")
	saved, err := h.Profiles.Save(r.Context(), c)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handlers) completeness(w http.ResponseWriter, r *http.Request) {
	res, err := h.Profiles.Completeness(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) notInterested(w http.ResponseWriter, r *http.Request) {
	var req profile.ExclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	c, err := h.Profiles.Exclude(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.NotInterested)
}

func (h *handlers) messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Messages.ListSystemMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *handlers) sweep(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scheduler disabled"})
		return
	}
	processed, err := h.Scheduler.RunOnce(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": processed})
}

// fail 将领域错误映射为 HTTP 状态码。
func (h *handlers) fail(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &verr), errors.Is(err, profile.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
