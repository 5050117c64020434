package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"devboard/internal/application"
	"devboard/internal/database"
	"devboard/internal/identity"
	"devboard/internal/job"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testIdentityMiddleware 从测试专用请求头还原身份，替代真实令牌校验。
func testIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				c.Set("userID", uint(id))
				c.Set("userRole", c.GetHeader("X-Test-Role"))
			}
		}
		c.Next()
	}
}

func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobRepo := job.NewGormRepository(db)
	jobSvc := job.NewService(jobRepo)
	appSvc := application.NewService(application.NewGormRepository(db), jobRepo)

	jobHandler := NewJobHandler(jobSvc, nil)
	appHandler := NewApplicationHandler(appSvc, newEventPublisher(nil, nil), nil)

	router := gin.New()
	router.Use(testIdentityMiddleware())

	v1 := router.Group("/v1")
	v1.GET("/jobs", jobHandler.ListJobs)
	v1.GET("/jobs/:id", jobHandler.GetJob)
	v1.POST("/jobs", jobHandler.CreateJob)
	v1.PATCH("/jobs/:id", jobHandler.UpdateJob)
	v1.DELETE("/jobs/:id", jobHandler.DeleteJob)
	v1.PATCH("/jobs/:id/active", jobHandler.ToggleJobActive)
	v1.POST("/jobs/:id/applications", appHandler.Apply)
	v1.GET("/jobs/:id/applications", appHandler.ListForJob)
	v1.PATCH("/applications/:id/status", appHandler.UpdateStatus)
	v1.POST("/applications/:id/withdraw", appHandler.Withdraw)
	v1.GET("/me/applications", appHandler.ListMine)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, userID uint, role identity.Role) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
		req.Header.Set("X-Test-Role", string(role))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validJobBody() map[string]any {
	return map[string]any{
		"title":       "Backend Engineer",
		"description": "Work on the platform.",
		"skills":      []string{"go"},
		"salary_min":  80000,
		"salary_max":  120000,
		"type":        "FULL_TIME",
		"experience":  "MID",
	}
}

func createJobViaAPI(t *testing.T, router *gin.Engine, ownerID uint) uint {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/v1/jobs", validJobBody(), ownerID, identity.RoleEmployer)
	if w.Code != http.StatusCreated {
		t.Fatalf("create job: status %d body %s", w.Code, w.Body.String())
	}
	var resp jobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.ID
}

func TestCreateJob_StatusMapping(t *testing.T) {
	router := newTestRouter(t, newTestDB(t))

	// 未认证。
	w := doJSON(t, router, http.MethodPost, "/v1/jobs", validJobBody(), 0, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create = %d, want 401", w.Code)
	}

	// 错误角色。
	w = doJSON(t, router, http.MethodPost, "/v1/jobs", validJobBody(), 2, identity.RoleDeveloper)
	if w.Code != http.StatusForbidden {
		t.Errorf("developer create = %d, want 403", w.Code)
	}

	// 校验失败。
	body := validJobBody()
	body["salary_min"] = 999999
	w = doJSON(t, router, http.MethodPost, "/v1/jobs", body, 7, identity.RoleEmployer)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid salary = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/v1/jobs", validJobBody(), 7, identity.RoleEmployer)
	if w.Code != http.StatusCreated {
		t.Errorf("valid create = %d, want 201: %s", w.Code, w.Body.String())
	}
}

// 场景 C：非所有者的修改与删除均 403。
func TestNonOwnerMutations(t *testing.T) {
	router := newTestRouter(t, newTestDB(t))
	jobID := createJobViaAPI(t, router, 7)

	patch := map[string]any{"title": "hijacked"}
	w := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/v1/jobs/%d", jobID), patch, 8, identity.RoleEmployer)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign update = %d, want 403", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/jobs/%d", jobID), nil, 8, identity.RoleEmployer)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign delete = %d, want 403", w.Code)
	}

	w = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/v1/jobs/%d/active", jobID), nil, 8, identity.RoleEmployer)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign toggle = %d, want 403", w.Code)
	}
}

func TestGetJob(t *testing.T) {
	router := newTestRouter(t, newTestDB(t))
	jobID := createJobViaAPI(t, router, 7)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/jobs/%d", jobID), nil, 0, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get job = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Job          jobResponse `json:"job"`
		Applications struct {
			Total int64 `json:"total"`
		} `json:"applications"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Job.ID != jobID || resp.Applications.Total != 0 {
		t.Errorf("unexpected body: %+v", resp)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/jobs/9999", nil, 0, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing job = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/jobs/abc", nil, 0, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", w.Code)
	}
}

func TestListJobs_Envelope(t *testing.T) {
	router := newTestRouter(t, newTestDB(t))
	for i := 0; i < 5; i++ {
		createJobViaAPI(t, router, 7)
	}

	w := doJSON(t, router, http.MethodGet, "/v1/jobs?page=2&limit=2", nil, 0, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Jobs       []jobResponse `json:"jobs"`
		Pagination struct {
			CurrentPage int   `json:"currentPage"`
			TotalPages  int   `json:"totalPages"`
			Total       int64 `json:"total"`
			HasNextPage bool  `json:"hasNextPage"`
			HasPrevPage bool  `json:"hasPrevPage"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 2 || resp.Pagination.Total != 5 || resp.Pagination.TotalPages != 3 {
		t.Errorf("unexpected page: %+v", resp.Pagination)
	}
	if !resp.Pagination.HasNextPage || !resp.Pagination.HasPrevPage {
		t.Errorf("page 2 of 3 should have both neighbours: %+v", resp.Pagination)
	}
}

// type / experience 是闭合枚举：非法取值拒绝，而不是悄悄退化为全量列表。
func TestListJobs_RejectsUnknownEnumFilters(t *testing.T) {
	router := newTestRouter(t, newTestDB(t))
	createJobViaAPI(t, router, 7)

	for _, path := range []string{
		"/v1/jobs?type=BOGUS",
		"/v1/jobs?experience=GURU",
	} {
		w := doJSON(t, router, http.MethodGet, path, nil, 0, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400: %s", path, w.Code, w.Body.String())
		}
	}

	// 合法取值不受影响。
	w := doJSON(t, router, http.MethodGet, "/v1/jobs?type=FULL_TIME", nil, 0, "")
	if w.Code != http.StatusOK {
		t.Errorf("valid filter = %d: %s", w.Code, w.Body.String())
	}
}
