package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示平台账号。Role 为闭合枚举（DEVELOPER / EMPLOYER / ADMIN），
// 仅管理端操作可变更。
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	Name         string `gorm:"size:128"`
	Role         string `gorm:"size:16;index"`
	AvatarURL    string `gorm:"size:512"`
}

// Company 是雇主的可选公司主页，与所有者一对一。
// 首次写公司资料或上传 Logo 时惰性创建。
type Company struct {
	gorm.Model
	OwnerID     uint   `gorm:"uniqueIndex"`
	Owner       User   `gorm:"constraint:OnDelete:CASCADE"`
	Name        string `gorm:"size:255"`
	Description string `gorm:"size:4000"`
	Website     string `gorm:"size:512"`
	LogoURL     string `gorm:"size:512"`
}

// Job 表示一条职位。Requirements/Responsibilities 以 JSONB 存储；
// Skills 以小写逗号包裹串存储（",go,postgres,"），便于跨库的子串匹配检索。
type Job struct {
	gorm.Model
	Title            string         `gorm:"size:255"`
	Description      string         `gorm:"size:10000"`
	Requirements     datatypes.JSON `gorm:"type:jsonb"`
	Responsibilities datatypes.JSON `gorm:"type:jsonb"`
	Skills           string         `gorm:"size:2000"`
	SalaryMin        int64
	SalaryMax        int64
	SalaryCurrency   string `gorm:"size:8"`
	Location         string `gorm:"size:255"`
	Type             string `gorm:"size:32;index"`
	Experience       string `gorm:"size:32;index"`
	IsRemote         bool
	IsActive         bool `gorm:"index"`
	PostedByID       uint `gorm:"index"`
	PostedBy         User
	Applications     []Application `gorm:"constraint:OnDelete:CASCADE"`
}

// Application 表示某开发者对某职位的一次投递。
// (JobID, ApplicantID) 全局唯一：撤回不释放名额。
type Application struct {
	gorm.Model
	JobID        uint `gorm:"uniqueIndex:idx_app_job_applicant"`
	Job          Job
	ApplicantID  uint `gorm:"uniqueIndex:idx_app_job_applicant"`
	Applicant    User
	Status       string `gorm:"size:16;index"`
	CoverLetter  string `gorm:"size:8000"`
	ResumeURL    string `gorm:"size:512"`
	PortfolioURL string `gorm:"size:512"`
	AppliedAt    time.Time
}

// AllModels 供 AutoMigrate 与测试共用。
func AllModels() []any {
	return []any{&User{}, &Company{}, &Job{}, &Application{}}
}
