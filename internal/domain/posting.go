package domain

import (
	"context"
	"strings"
	"time"
)

type InternshipPost struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	EmployerProfileID uint             `gorm:"index;not null" json:"employerProfileId"`
	EmployerProfile   *EmployerProfile `gorm:"constraint:OnDelete:CASCADE" json:"employer,omitempty"`
	Title             string           `gorm:"size:200;not null" json:"title"`
	Description       string           `gorm:"type:text" json:"description"`
	City              string           `gorm:"size:100;index;not null" json:"city"`
	WorkType          string           `gorm:"size:50;index" json:"workType"`
	Duration          string           `gorm:"size:50" json:"duration"`
	Deadline          *time.Time       `json:"deadline,omitempty"`
	IsActive          bool             `gorm:"index;not null" json:"isActive"`
	CreatedDate       time.Time        `gorm:"index;not null" json:"createdDate"`

	Applications []Application `gorm:"foreignKey:InternshipPostID;constraint:OnDelete:CASCADE" json:"applications,omitempty"`
}

// CompanyName 未加载雇主时为空串
func (p *InternshipPost) CompanyName() string {
	if p.EmployerProfile == nil {
		return ""
	}
	return p.EmployerProfile.CompanyName
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationInReview ApplicationStatus = "InReview"
	ApplicationAccepted ApplicationStatus = "Accepted"
	ApplicationRejected ApplicationStatus = "Rejected"
)

// ParseReviewStatus 雇主可设置的状态（Pending 只能由投递产生）
func ParseReviewStatus(s string) (ApplicationStatus, bool) {
	for _, st := range []ApplicationStatus{ApplicationInReview, ApplicationAccepted, ApplicationRejected} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

type Application struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	InternshipPostID uint              `gorm:"not null;uniqueIndex:ux_application_post_intern,priority:1" json:"internshipPostId"`
	InternshipPost   *InternshipPost   `gorm:"constraint:OnDelete:CASCADE" json:"post,omitempty"`
	InternProfileID  uint              `gorm:"not null;uniqueIndex:ux_application_post_intern,priority:2;index" json:"internProfileId"`
	InternProfile    *InternProfile    `gorm:"constraint:OnDelete:CASCADE" json:"intern,omitempty"`
	AppliedAt        time.Time         `gorm:"not null" json:"appliedAt"`
	Status           ApplicationStatus `gorm:"size:16;not null" json:"status"`
}

// JobFilter 空字段不参与过滤；各条件 AND
type JobFilter struct {
	Text        string `form:"text"`
	City        string `form:"city"`
	WorkType    string `form:"workType"`
	CompanyName string `form:"companyName"`
}

func (f JobFilter) Normalize() JobFilter {
	return JobFilter{
		Text:        strings.TrimSpace(f.Text),
		City:        strings.TrimSpace(f.City),
		WorkType:    strings.TrimSpace(f.WorkType),
		CompanyName: strings.TrimSpace(f.CompanyName),
	}
}

// Matches 子串匹配区分大小写；city/workType 为精确匹配
func (f JobFilter) Matches(p *InternshipPost) bool {
	if f.Text != "" && !strings.Contains(p.Title, f.Text) && !strings.Contains(p.Description, f.Text) {
		return false
	}
	if f.City != "" && p.City != f.City {
		return false
	}
	if f.WorkType != "" && p.WorkType != f.WorkType {
		return false
	}
	if f.CompanyName != "" {
		if p.EmployerProfile == nil || !strings.Contains(p.EmployerProfile.CompanyName, f.CompanyName) {
			return false
		}
	}
	return true
}

type PostRepository interface {
	Create(ctx context.Context, p *InternshipPost) error
	FindByID(ctx context.Context, id uint) (*InternshipPost, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error

	ListActive(ctx context.Context, city, workType string) ([]InternshipPost, error)
	ListByEmployer(ctx context.Context, employerProfileID uint) ([]InternshipPost, error)
	List(ctx context.Context) ([]InternshipPost, error)
	Recent(ctx context.Context, n int) ([]InternshipPost, error)
	Cities(ctx context.Context) ([]string, error)
	Companies(ctx context.Context) ([]string, error)

	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *Application) error
	FindByID(ctx context.Context, id uint) (*Application, error)
	Exists(ctx context.Context, postID, internProfileID uint) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status ApplicationStatus) error
	Delete(ctx context.Context, id uint) error

	ListByPost(ctx context.Context, postID uint) ([]Application, error)
	ListByIntern(ctx context.Context, internProfileID uint) ([]Application, error)
	List(ctx context.Context) ([]Application, error)
	Count(ctx context.Context) (int64, error)
}
