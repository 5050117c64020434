package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devboard/internal/api/middleware"
	"devboard/internal/application"
	"devboard/internal/database"
	"devboard/internal/pagination"
)

// ApplicationHandler 负责投递相关的 API 请求。
type ApplicationHandler struct {
	apps   *application.Service
	events *eventPublisher
	logger *slog.Logger
}

// NewApplicationHandler 构造 ApplicationHandler。
func NewApplicationHandler(apps *application.Service, events *eventPublisher, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, events: events, logger: logger}
}

type applyRequest struct {
	CoverLetter  string `json:"cover_letter" binding:"required"`
	ResumeURL    string `json:"resume_url" binding:"required"`
	PortfolioURL string `json:"portfolio_url"`
}

type applicationResponse struct {
	ID           uint      `json:"id"`
	JobID        uint      `json:"job_id"`
	ApplicantID  uint      `json:"applicant_id"`
	Status       string    `json:"status"`
	CoverLetter  string    `json:"cover_letter"`
	ResumeURL    string    `json:"resume_url"`
	PortfolioURL string    `json:"portfolio_url,omitempty"`
	AppliedAt    time.Time `json:"applied_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newApplicationResponse(app *database.Application) applicationResponse {
	return applicationResponse{
		ID:           app.ID,
		JobID:        app.JobID,
		ApplicantID:  app.ApplicantID,
		Status:       app.Status,
		CoverLetter:  app.CoverLetter,
		ResumeURL:    app.ResumeURL,
		PortfolioURL: app.PortfolioURL,
		AppliedAt:    app.AppliedAt,
		UpdatedAt:    app.UpdatedAt,
	}
}

// Apply 创建一条投递；成功后向职位雇主推送实时事件。
func (h *ApplicationHandler) Apply(c *gin.Context) {
	jobID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	app, err := h.apps.Apply(ctx, ident, jobID, application.Form{
		CoverLetter:  req.CoverLetter,
		ResumeURL:    req.ResumeURL,
		PortfolioURL: req.PortfolioURL,
	})
	if err != nil {
		FromError(c, err)
		return
	}

	middleware.LoggerFromContext(c).Info("application created",
		slog.Uint64("application_id", uint64(app.ID)),
		slog.Uint64("job_id", uint64(jobID)),
	)

	if j, err := h.apps.JobOf(ctx, app); err == nil {
		h.events.publish(ctx, j.PostedByID, applicationEvent{
			Type:          "application.received",
			ApplicationID: app.ID,
			JobID:         app.JobID,
			Status:        app.Status,
		})
	}

	c.JSON(http.StatusCreated, newApplicationResponse(app))
}

// UpdateStatus 由职位雇主推进投递状态；成功后通知投递人。
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	appID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	app, err := h.apps.UpdateStatus(ctx, ident, appID, req.Status)
	if err != nil {
		FromError(c, err)
		return
	}

	h.events.publish(ctx, app.ApplicantID, applicationEvent{
		Type:          "application.status_changed",
		ApplicationID: app.ID,
		JobID:         app.JobID,
		Status:        app.Status,
	})

	c.JSON(http.StatusOK, newApplicationResponse(app))
}

// Withdraw 由投递人撤回；成功后通知职位雇主。
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	appID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	app, err := h.apps.Withdraw(ctx, ident, appID)
	if err != nil {
		FromError(c, err)
		return
	}

	if j, err := h.apps.JobOf(ctx, app); err == nil {
		h.events.publish(ctx, j.PostedByID, applicationEvent{
			Type:          "application.withdrawn",
			ApplicationID: app.ID,
			JobID:         app.JobID,
			Status:        app.Status,
		})
	}

	c.JSON(http.StatusOK, newApplicationResponse(app))
}

// ListMine 返回当前用户的投递列表。
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	filters := parseApplicationFilters(c)
	params := pagination.Parse(c.Query("page"), c.Query("limit"))

	apps, envelope, err := h.apps.ListMine(c.Request.Context(), ident, filters, params)
	if err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": toApplicationResponses(apps), "pagination": envelope})
}

// ListForJob 返回某职位收到的投递，仅职位所有者可见。
func (h *ApplicationHandler) ListForJob(c *gin.Context) {
	jobID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	filters := parseApplicationFilters(c)
	params := pagination.Parse(c.Query("page"), c.Query("limit"))

	apps, envelope, err := h.apps.ListForJob(c.Request.Context(), ident, jobID, filters, params)
	if err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": toApplicationResponses(apps), "pagination": envelope})
}

// ListForEmployer 返回当前雇主全部职位的投递。
func (h *ApplicationHandler) ListForEmployer(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	filters := parseApplicationFilters(c)
	params := pagination.Parse(c.Query("page"), c.Query("limit"))

	apps, envelope, err := h.apps.ListForEmployer(c.Request.Context(), ident, filters, params)
	if err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": toApplicationResponses(apps), "pagination": envelope})
}

func parseApplicationFilters(c *gin.Context) application.ListFilters {
	var f application.ListFilters
	if status, ok := application.ParseStatus(c.Query("status")); ok {
		f.Status = status
	}
	return f
}

func toApplicationResponses(apps []database.Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, newApplicationResponse(&apps[i]))
	}
	return out
}
