package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"internship-portal/internal/domain"
)

type InterviewRepo struct{ db *gorm.DB }

func NewInterviewRepo(db *gorm.DB) *InterviewRepo { return &InterviewRepo{db: db} }

func (r *InterviewRepo) Create(ctx context.Context, iv *domain.Interview) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(iv).Error
}

// FindForEmployer 只返回属于该雇主的面试；否则 nil
func (r *InterviewRepo) FindForEmployer(ctx context.Context, id, employerProfileID uint) (*domain.Interview, error) {
	var iv domain.Interview
	err := r.db.WithContext(ctx).
		Where("id = ? AND employer_profile_id = ?", id, employerProfileID).
		First(&iv).Error
	if notFound(err) {
		return nil, nil
	}
	return &iv, err
}

func (r *InterviewRepo) UpdateStatus(ctx context.Context, id uint, status domain.InterviewStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Interview{}).Where("id = ?", id).Update("status", status).Error
}

func (r *InterviewRepo) ListByEmployer(ctx context.Context, employerProfileID uint) ([]domain.Interview, error) {
	var out []domain.Interview
	err := r.db.WithContext(ctx).
		Preload("InternProfile.User").
		Preload("InternshipPost").
		Where("employer_profile_id = ?", employerProfileID).
		Order("scheduled_at desc").Find(&out).Error
	return out, err
}

func (r *InterviewRepo) ListByIntern(ctx context.Context, internProfileID uint) ([]domain.Interview, error) {
	var out []domain.Interview
	err := r.db.WithContext(ctx).
		Preload("EmployerProfile").
		Preload("InternshipPost").
		Where("intern_profile_id = ?", internProfileID).
		Order("scheduled_at desc").Find(&out).Error
	return out, err
}

var _ domain.InterviewRepository = (*InterviewRepo)(nil)
