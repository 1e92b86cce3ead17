package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"internship-portal/internal/domain"
)

type PostRepo struct{ db *gorm.DB }

func NewPostRepo(db *gorm.DB) *PostRepo { return &PostRepo{db: db} }

func (r *PostRepo) Create(ctx context.Context, p *domain.InternshipPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *PostRepo) FindByID(ctx context.Context, id uint) (*domain.InternshipPost, error) {
	var p domain.InternshipPost
	err := r.db.WithContext(ctx).Preload("EmployerProfile").First(&p, id).Error
	if notFound(err) {
		return nil, nil
	}
	return &p, err
}

func (r *PostRepo) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.InternshipPost{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete 连带投递与面试
func (r *PostRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("internship_post_id = ?", id).Delete(&domain.Application{}).Error; err != nil {
			return err
		}
		if err := tx.Where("internship_post_id = ?", id).Delete(&domain.Interview{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.InternshipPost{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ListActive city/workType 精确过滤；文本条件由调用方在内存中处理
func (r *PostRepo) ListActive(ctx context.Context, city, workType string) ([]domain.InternshipPost, error) {
	q := r.db.WithContext(ctx).Preload("EmployerProfile").Where("is_active = ?", true)
	if city != "" {
		q = q.Where("city = ?", city)
	}
	if workType != "" {
		q = q.Where("work_type = ?", workType)
	}
	var posts []domain.InternshipPost
	err := q.Order("created_date desc").Order("id desc").Find(&posts).Error
	return posts, err
}

func (r *PostRepo) ListByEmployer(ctx context.Context, employerProfileID uint) ([]domain.InternshipPost, error) {
	var posts []domain.InternshipPost
	err := r.db.WithContext(ctx).Preload("Applications").
		Where("employer_profile_id = ?", employerProfileID).
		Order("created_date desc").Order("id desc").Find(&posts).Error
	return posts, err
}

func (r *PostRepo) List(ctx context.Context) ([]domain.InternshipPost, error) {
	var posts []domain.InternshipPost
	err := r.db.WithContext(ctx).Preload("EmployerProfile").Preload("Applications").
		Order("created_date desc").Order("id desc").Find(&posts).Error
	return posts, err
}

func (r *PostRepo) Recent(ctx context.Context, n int) ([]domain.InternshipPost, error) {
	var posts []domain.InternshipPost
	err := r.db.WithContext(ctx).Preload("EmployerProfile").
		Order("created_date desc").Order("id desc").Limit(n).Find(&posts).Error
	return posts, err
}

func (r *PostRepo) Cities(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&domain.InternshipPost{}).
		Where("city <> ''").Distinct().Order("city").Pluck("city", &out).Error
	return out, err
}

func (r *PostRepo) Companies(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&domain.InternshipPost{}).
		Joins("JOIN employer_profiles ON employer_profiles.id = internship_posts.employer_profile_id").
		Distinct().Order("employer_profiles.company_name").
		Pluck("employer_profiles.company_name", &out).Error
	return out, err
}

func (r *PostRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.InternshipPost{}).Count(&n).Error
	return n, err
}

func (r *PostRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.InternshipPost{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

var _ domain.PostRepository = (*PostRepo)(nil)
