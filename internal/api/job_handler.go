package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"devboard/internal/api/middleware"
	"devboard/internal/database"
	"devboard/internal/errcode"
	"devboard/internal/job"
	"devboard/internal/pagination"
)

// JobHandler 负责职位相关的 API 请求。
type JobHandler struct {
	jobs   *job.Service
	logger *slog.Logger
}

// NewJobHandler 构造 JobHandler。
func NewJobHandler(jobs *job.Service, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: logger}
}

type jobRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description" binding:"required"`
	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
	Skills           []string `json:"skills"`
	SalaryMin        int64    `json:"salary_min"`
	SalaryMax        int64    `json:"salary_max"`
	SalaryCurrency   string   `json:"salary_currency"`
	Location         string   `json:"location"`
	Type             string   `json:"type" binding:"required"`
	Experience       string   `json:"experience" binding:"required"`
	IsRemote         bool     `json:"is_remote"`
}

type jobPatchRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
	Skills           []string `json:"skills"`
	SalaryMin        *int64   `json:"salary_min"`
	SalaryMax        *int64   `json:"salary_max"`
	SalaryCurrency   *string  `json:"salary_currency"`
	Location         *string  `json:"location"`
	Type             *string  `json:"type"`
	Experience       *string  `json:"experience"`
	IsRemote         *bool    `json:"is_remote"`
}

type salaryResponse struct {
	Min      int64  `json:"min"`
	Max      int64  `json:"max"`
	Currency string `json:"currency"`
}

type jobResponse struct {
	ID               uint           `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Requirements     []string       `json:"requirements"`
	Responsibilities []string       `json:"responsibilities"`
	Skills           []string       `json:"skills"`
	Salary           salaryResponse `json:"salary"`
	Location         string         `json:"location"`
	Type             string         `json:"type"`
	Experience       string         `json:"experience"`
	IsRemote         bool           `json:"is_remote"`
	IsActive         bool           `json:"is_active"`
	PostedByID       uint           `json:"posted_by_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func newJobResponse(j *database.Job) jobResponse {
	return jobResponse{
		ID:               j.ID,
		Title:            j.Title,
		Description:      j.Description,
		Requirements:     job.DecodeList(j.Requirements),
		Responsibilities: job.DecodeList(j.Responsibilities),
		Skills:           job.DecodeSkills(j.Skills),
		Salary: salaryResponse{
			Min:      j.SalaryMin,
			Max:      j.SalaryMax,
			Currency: j.SalaryCurrency,
		},
		Location:   j.Location,
		Type:       j.Type,
		Experience: j.Experience,
		IsRemote:   j.IsRemote,
		IsActive:   j.IsActive,
		PostedByID: j.PostedByID,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}

// CreateJob 由雇主发布职位。
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	created, err := h.jobs.Create(c.Request.Context(), ident, job.SpecInput{
		Title:            req.Title,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Responsibilities: req.Responsibilities,
		Skills:           req.Skills,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		SalaryCurrency:   req.SalaryCurrency,
		Location:         req.Location,
		Type:             req.Type,
		Experience:       req.Experience,
		IsRemote:         req.IsRemote,
	})
	if err != nil {
		FromError(c, err)
		return
	}

	middleware.LoggerFromContext(c).Info("job created",
		slog.Uint64("job_id", uint64(created.ID)),
		slog.Uint64("employer_id", uint64(ident.UserID)),
	)
	c.JSON(http.StatusCreated, newJobResponse(created))
}

// ListJobs 是公开的职位检索入口。
func (h *JobHandler) ListJobs(c *gin.Context) {
	filters, err := parseJobFilters(c)
	if err != nil {
		FromError(c, err)
		return
	}
	params := pagination.Parse(c.Query("page"), c.Query("limit"))

	jobs, envelope, err := h.jobs.List(c.Request.Context(), filters, params)
	if err != nil {
		FromError(c, err)
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, newJobResponse(&jobs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": items, "pagination": envelope})
}

// GetJob 返回单个职位及投递摘要。
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := parseIDParam(c)
	if !ok {
		return
	}

	j, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		FromError(c, err)
		return
	}

	count, err := h.jobs.CountApplications(c.Request.Context(), jobID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":          newJobResponse(j),
		"applications": gin.H{"total": count},
	})
}

// UpdateJob 由所有者或管理员修改职位。
func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req jobPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	updated, err := h.jobs.Update(c.Request.Context(), ident, jobID, job.PatchInput{
		Title:            req.Title,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Responsibilities: req.Responsibilities,
		Skills:           req.Skills,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		SalaryCurrency:   req.SalaryCurrency,
		Location:         req.Location,
		Type:             req.Type,
		Experience:       req.Experience,
		IsRemote:         req.IsRemote,
	})
	if err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(updated))
}

// DeleteJob 由所有者删除职位，级联删除其投递。
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.jobs.Delete(c.Request.Context(), ident, jobID); err != nil {
		FromError(c, err)
		return
	}

	middleware.LoggerFromContext(c).Info("job deleted",
		slog.Uint64("job_id", uint64(jobID)),
		slog.Uint64("actor_id", uint64(ident.UserID)),
	)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleJobActive 翻转职位的在架标记。
func (h *JobHandler) ToggleJobActive(c *gin.Context) {
	jobID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	updated, err := h.jobs.ToggleActive(c.Request.Context(), ident, jobID)
	if err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(updated))
}

// parseJobFilters 把开放式查询参数收敛为检索条件。
// type / experience 是闭合枚举，非法取值拒绝而不是忽略。
// salary_min / salary_max 解析后刻意不参与过滤（接口兼容的空转参数）。
func parseJobFilters(c *gin.Context) (job.Filters, error) {
	f := job.Filters{
		Query:    c.Query("query"),
		Location: c.Query("location"),
	}
	if raw := c.Query("type"); raw != "" {
		t, ok := job.ParseType(raw)
		if !ok {
			return job.Filters{}, errcode.Validationf("unknown job type %q", raw)
		}
		f.Type = t
	}
	if raw := c.Query("experience"); raw != "" {
		exp, ok := job.ParseExperience(raw)
		if !ok {
			return job.Filters{}, errcode.Validationf("unknown experience level %q", raw)
		}
		f.Experience = exp
	}
	if skills := strings.TrimSpace(c.Query("skills")); skills != "" {
		f.Skills = strings.Split(skills, ",")
	}
	if remote := c.Query("is_remote"); remote != "" {
		if b, err := strconv.ParseBool(remote); err == nil {
			f.IsRemote = &b
		}
	}
	if raw := c.Query("salary_min"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.SalaryMin = &v
		}
	}
	if raw := c.Query("salary_max"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.SalaryMax = &v
		}
	}
	return f, nil
}

func parseIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}
