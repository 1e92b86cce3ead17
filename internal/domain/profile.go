package domain

import (
	"context"
	"time"
)

type InternProfile struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        string     `gorm:"size:32;uniqueIndex;not null" json:"userId"`
	User          *User      `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	University    string     `gorm:"size:200" json:"university"`
	Department    string     `gorm:"size:200" json:"department"`
	Grade         string     `gorm:"size:32" json:"grade"`
	StudentNumber string     `gorm:"size:64" json:"studentNumber"`
	Gender        string     `gorm:"size:16" json:"gender"`
	BirthDate     *time.Time `json:"birthDate,omitempty"`
	LinkedIn      string     `gorm:"size:255" json:"linkedIn"`
	Github        string     `gorm:"size:255" json:"github"`
	PhotoPath     string     `gorm:"size:255" json:"photoPath"`
	ResumePath    string     `gorm:"size:255" json:"resumePath"`
	Skills        string     `gorm:"type:text" json:"skills"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	Experiences []Experience `gorm:"foreignKey:InternProfileID;constraint:OnDelete:CASCADE" json:"experiences,omitempty"`
}

type Experience struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	InternProfileID uint       `gorm:"index;not null" json:"internProfileId"`
	CompanyName     string     `gorm:"size:200;not null" json:"companyName"`
	Title           string     `gorm:"size:200;not null" json:"title"`
	StartDate       time.Time  `gorm:"not null" json:"startDate"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Description     string     `gorm:"type:text" json:"description"`
	TotalHours      *int       `json:"totalHours,omitempty"`
}

type EmployerProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:32;uniqueIndex;not null" json:"userId"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CompanyName string    `gorm:"size:200;not null" json:"companyName"`
	Sector      string    `gorm:"size:100" json:"sector"`
	Description string    `gorm:"type:text" json:"description"`
	Website     string    `gorm:"size:255" json:"website"`
	City        string    `gorm:"size:100" json:"city"`
	LogoPath    string    `gorm:"size:255" json:"logoPath"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProfileRepository interface {
	FindIntern(ctx context.Context, userID string) (*InternProfile, error)
	FindInternByID(ctx context.Context, id uint) (*InternProfile, error)
	SaveIntern(ctx context.Context, p *InternProfile) error

	FindEmployer(ctx context.Context, userID string) (*EmployerProfile, error)
	FindEmployerByID(ctx context.Context, id uint) (*EmployerProfile, error)
	SaveEmployer(ctx context.Context, p *EmployerProfile) error

	AddExperience(ctx context.Context, e *Experience) error
	FindExperience(ctx context.Context, id uint) (*Experience, error)
	DeleteExperience(ctx context.Context, id uint) error
}
