package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"internship-portal/internal/core/storage"
	"internship-portal/internal/domain"
)

// FileSaver 上传文件落盘
type FileSaver interface {
	Save(r io.Reader, cat storage.Category, owner, originalName string) (string, error)
}

// Upload 由传输层打开的上传文件
type Upload struct {
	Name string
	Body io.Reader
}

type ProfileService struct {
	profiles domain.ProfileRepository
	files    FileSaver
	log      *zap.Logger
}

func NewProfileService(profiles domain.ProfileRepository, files FileSaver, log *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, files: files, log: log}
}

type InternProfileInput struct {
	University    string     `form:"university" json:"university"`
	Department    string     `form:"department" json:"department"`
	Grade         string     `form:"grade" json:"grade"`
	StudentNumber string     `form:"studentNumber" json:"studentNumber"`
	Gender        string     `form:"gender" json:"gender"`
	BirthDate     *time.Time `form:"birthDate" time_format:"2006-01-02" json:"birthDate"`
	LinkedIn      string     `form:"linkedIn" json:"linkedIn"`
	Github        string     `form:"github" json:"github"`
	Skills        string     `form:"skills" json:"skills"`

	Photo  *Upload `form:"-" json:"-"`
	Resume *Upload `form:"-" json:"-"`
}

func (s *ProfileService) InternProfile(ctx context.Context, uid string) (*domain.InternProfile, error) {
	p, err := s.profiles.FindIntern(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// UpsertInternProfile 首次调用创建，之后更新；上传文件按用户覆盖
func (s *ProfileService) UpsertInternProfile(ctx context.Context, uid string, in InternProfileInput) (*domain.InternProfile, error) {
	ve := domain.NewValidationError()
	checkLen(ve, "university", in.University, 200)
	checkLen(ve, "department", in.Department, 200)
	checkLen(ve, "linkedIn", in.LinkedIn, 255)
	checkLen(ve, "github", in.Github, 255)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	p, err := s.profiles.FindIntern(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.InternProfile{UserID: uid}
	}
	p.University = strings.TrimSpace(in.University)
	p.Department = strings.TrimSpace(in.Department)
	p.Grade = strings.TrimSpace(in.Grade)
	p.StudentNumber = strings.TrimSpace(in.StudentNumber)
	p.Gender = strings.TrimSpace(in.Gender)
	p.BirthDate = in.BirthDate
	p.LinkedIn = strings.TrimSpace(in.LinkedIn)
	p.Github = strings.TrimSpace(in.Github)
	p.Skills = strings.TrimSpace(in.Skills)

	if in.Photo != nil {
		if p.PhotoPath, err = s.store(in.Photo, storage.CategoryPhoto, uid, "photo"); err != nil {
			return nil, err
		}
	}
	if in.Resume != nil {
		if p.ResumePath, err = s.store(in.Resume, storage.CategoryResume, uid, "resume"); err != nil {
			return nil, err
		}
	}
	if err := s.profiles.SaveIntern(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

type ExperienceInput struct {
	CompanyName string     `json:"companyName" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	StartDate   time.Time  `json:"startDate" binding:"required"`
	EndDate     *time.Time `json:"endDate"`
	Description string     `json:"description"`
	TotalHours  *int       `json:"totalHours"`
}

func (s *ProfileService) AddExperience(ctx context.Context, uid string, in ExperienceInput) (*domain.Experience, error) {
	ve := domain.NewValidationError()
	if strings.TrimSpace(in.CompanyName) == "" {
		ve.Add("companyName", "is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		ve.Add("title", "is required")
	}
	if in.StartDate.IsZero() {
		ve.Add("startDate", "is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		ve.Add("endDate", "must not be before startDate")
	}
	if in.TotalHours != nil && *in.TotalHours < 0 {
		ve.Add("totalHours", "must not be negative")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	p, err := s.profiles.FindIntern(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrInternProfileRequired
	}
	e := &domain.Experience{
		InternProfileID: p.ID,
		CompanyName:     strings.TrimSpace(in.CompanyName),
		Title:           strings.TrimSpace(in.Title),
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Description:     strings.TrimSpace(in.Description),
		TotalHours:      in.TotalHours,
	}
	if err := s.profiles.AddExperience(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteExperience 只能删除自己资料下的经历
func (s *ProfileService) DeleteExperience(ctx context.Context, uid string, id uint) error {
	e, err := s.profiles.FindExperience(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return domain.ErrNotFound
	}
	p, err := s.profiles.FindIntern(ctx, uid)
	if err != nil {
		return err
	}
	if p == nil || p.ID != e.InternProfileID {
		return domain.ErrForbidden
	}
	return s.profiles.DeleteExperience(ctx, id)
}

type EmployerProfileInput struct {
	CompanyName string `form:"companyName" json:"companyName"`
	Sector      string `form:"sector" json:"sector"`
	Description string `form:"description" json:"description"`
	Website     string `form:"website" json:"website"`
	City        string `form:"city" json:"city"`

	Logo *Upload `form:"-" json:"-"`
}

func (s *ProfileService) EmployerProfile(ctx context.Context, uid string) (*domain.EmployerProfile, error) {
	p, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *ProfileService) UpsertEmployerProfile(ctx context.Context, uid string, in EmployerProfileInput) (*domain.EmployerProfile, error) {
	ve := domain.NewValidationError()
	if strings.TrimSpace(in.CompanyName) == "" {
		ve.Add("companyName", "is required")
	}
	checkLen(ve, "companyName", in.CompanyName, 200)
	checkLen(ve, "sector", in.Sector, 100)
	checkLen(ve, "website", in.Website, 255)
	checkLen(ve, "city", in.City, 100)
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	p, err := s.profiles.FindEmployer(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.EmployerProfile{UserID: uid}
	}
	p.CompanyName = strings.TrimSpace(in.CompanyName)
	p.Sector = strings.TrimSpace(in.Sector)
	p.Description = strings.TrimSpace(in.Description)
	p.Website = strings.TrimSpace(in.Website)
	p.City = strings.TrimSpace(in.City)
	if in.Logo != nil {
		if p.LogoPath, err = s.store(in.Logo, storage.CategoryLogo, uid, "logo"); err != nil {
			return nil, err
		}
	}
	if err := s.profiles.SaveEmployer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) store(u *Upload, cat storage.Category, uid, field string) (string, error) {
	p, err := s.files.Save(u.Body, cat, uid, u.Name)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return "", domain.Invalid(field, "unsupported file type")
	case errors.Is(err, storage.ErrTooLarge):
		return "", domain.Invalid(field, "file too large")
	case err != nil:
		s.log.Error("store upload", zap.String("uid", uid), zap.String("category", string(cat)), zap.Error(err))
		return "", err
	}
	return p, nil
}

func checkLen(ve *domain.ValidationError, field, v string, limit int) {
	if len([]rune(strings.TrimSpace(v))) > limit {
		ve.Add(field, "is too long")
	}
}
