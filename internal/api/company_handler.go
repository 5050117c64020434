package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"devboard/internal/database"
	"devboard/internal/identity"
)

// CompanyHandler 负责雇主公司主页的读写。
// 公司主页与雇主一对一，首次写入时惰性创建。
type CompanyHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewCompanyHandler 构造 CompanyHandler。
func NewCompanyHandler(db *gorm.DB, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{db: db, logger: logger}
}

type companyRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=255"`
	Description string `json:"description" binding:"max=4000"`
	Website     string `json:"website" binding:"max=512"`
	LogoURL     string `json:"logo_url" binding:"max=512"`
}

type companyResponse struct {
	ID          uint      `json:"id"`
	OwnerID     uint      `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newCompanyResponse(co *database.Company) companyResponse {
	return companyResponse{
		ID:          co.ID,
		OwnerID:     co.OwnerID,
		Name:        co.Name,
		Description: co.Description,
		Website:     co.Website,
		LogoURL:     co.LogoURL,
		CreatedAt:   co.CreatedAt,
		UpdatedAt:   co.UpdatedAt,
	}
}

// Upsert 写公司主页，不存在则创建。仅 EMPLOYER 可用。
func (h *CompanyHandler) Upsert(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if ident.Role != identity.RoleEmployer {
		Forbidden(c, "only employers have a company profile")
		return
	}

	ctx := c.Request.Context()

	var co database.Company
	err := h.db.WithContext(ctx).Where("owner_id = ?", ident.UserID).First(&co).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		co = database.Company{OwnerID: ident.UserID}
	case err != nil:
		Internal(c, "failed to load company")
		return
	}

	co.Name = strings.TrimSpace(req.Name)
	co.Description = strings.TrimSpace(req.Description)
	co.Website = strings.TrimSpace(req.Website)
	co.LogoURL = strings.TrimSpace(req.LogoURL)

	if err := h.db.WithContext(ctx).Save(&co).Error; err != nil {
		Internal(c, "failed to save company")
		return
	}

	c.JSON(http.StatusOK, newCompanyResponse(&co))
}

// Get 返回当前雇主的公司主页。
func (h *CompanyHandler) Get(c *gin.Context) {
	ident, ok := identityFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if ident.Role != identity.RoleEmployer {
		Forbidden(c, "only employers have a company profile")
		return
	}

	var co database.Company
	if err := h.db.WithContext(c.Request.Context()).Where("owner_id = ?", ident.UserID).First(&co).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "company profile not found")
			return
		}
		Internal(c, "failed to load company")
		return
	}
	c.JSON(http.StatusOK, newCompanyResponse(&co))
}
