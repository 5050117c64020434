package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"devboard/internal/api/middleware"
	"devboard/internal/database"
	"devboard/internal/identity"
	"devboard/internal/job"
	"devboard/internal/pagination"
)

// AdminHandler 承载管理端操作：全量列表、角色变更与受限删除。
// 路由层已用 RequireRole(ADMIN) 把关。
type AdminHandler struct {
	db     *gorm.DB
	jobs   *job.Service
	logger *slog.Logger
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(db *gorm.DB, jobs *job.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{db: db, jobs: jobs, logger: logger}
}

type adminUserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers 分页返回全部账号。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c.Query("page"), c.Query("limit"))
	ctx := c.Request.Context()

	var total int64
	if err := h.db.WithContext(ctx).Model(&database.User{}).Count(&total).Error; err != nil {
		Internal(c, "failed to count users")
		return
	}

	var users []database.User
	if err := h.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&users).Error; err != nil {
		Internal(c, "failed to list users")
		return
	}

	items := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, adminUserResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": items, "pagination": pagination.NewEnvelope(params, total)})
}

// ListJobs 分页返回全部职位（含下架的）。
func (h *AdminHandler) ListJobs(c *gin.Context) {
	params := pagination.Parse(c.Query("page"), c.Query("limit"))
	ctx := c.Request.Context()

	var total int64
	if err := h.db.WithContext(ctx).Model(&database.Job{}).Count(&total).Error; err != nil {
		Internal(c, "failed to count jobs")
		return
	}

	var jobs []database.Job
	if err := h.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&jobs).Error; err != nil {
		Internal(c, "failed to list jobs")
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, newJobResponse(&jobs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": items, "pagination": pagination.NewEnvelope(params, total)})
}

// ListApplications 分页返回全部投递。
func (h *AdminHandler) ListApplications(c *gin.Context) {
	params := pagination.Parse(c.Query("page"), c.Query("limit"))
	ctx := c.Request.Context()

	var total int64
	if err := h.db.WithContext(ctx).Model(&database.Application{}).Count(&total).Error; err != nil {
		Internal(c, "failed to count applications")
		return
	}

	var apps []database.Application
	if err := h.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&apps).Error; err != nil {
		Internal(c, "failed to list applications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": toApplicationResponses(apps), "pagination": pagination.NewEnvelope(params, total)})
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateUserRole 变更账号角色。角色是闭合枚举，非法取值拒绝。
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		BadRequest(c, "unknown role")
		return
	}

	ctx := c.Request.Context()
	var user database.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "user not found")
			return
		}
		Internal(c, "failed to load user")
		return
	}

	if err := h.db.WithContext(ctx).Model(&user).Update("role", string(role)).Error; err != nil {
		Internal(c, "failed to update role")
		return
	}

	middleware.LoggerFromContext(c).Info("user role changed",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", string(role)),
	)
	c.JSON(http.StatusOK, adminUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(role),
		CreatedAt: user.CreatedAt,
	})
}

// DeleteUser 删除账号。存在名下职位或投递时拒绝（引用完整性在应用层兜底）。
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var user database.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "user not found")
			return
		}
		Internal(c, "failed to load user")
		return
	}

	var jobCount int64
	if err := h.db.WithContext(ctx).Model(&database.Job{}).Where("posted_by_id = ?", userID).Count(&jobCount).Error; err != nil {
		Internal(c, "failed to count jobs")
		return
	}
	var appCount int64
	if err := h.db.WithContext(ctx).Model(&database.Application{}).Where("applicant_id = ?", userID).Count(&appCount).Error; err != nil {
		Internal(c, "failed to count applications")
		return
	}
	if jobCount > 0 || appCount > 0 {
		Conflict(c, "user still owns jobs or applications")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&user).Error; err != nil {
		Internal(c, "failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// DeleteJob 是管理端删除：存在投递时拒绝，不做级联。
func (h *AdminHandler) DeleteJob(c *gin.Context) {
	jobID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.jobs.AdminDelete(c.Request.Context(), ident, jobID); err != nil {
		FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
