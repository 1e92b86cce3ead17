package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"internship-portal/internal/domain"
)

type ApplicationRepo struct{ db *gorm.DB }

func NewApplicationRepo(db *gorm.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// Create 唯一索引 ux_application_post_intern 冲突 → ErrAlreadyApplied
func (r *ApplicationRepo) Create(ctx context.Context, a *domain.Application) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
	if isDupKey(err) {
		return domain.ErrAlreadyApplied
	}
	return err
}

func (r *ApplicationRepo) FindByID(ctx context.Context, id uint) (*domain.Application, error) {
	var a domain.Application
	err := r.db.WithContext(ctx).
		Preload("InternshipPost").
		Preload("InternProfile.User").
		First(&a, id).Error
	if notFound(err) {
		return nil, nil
	}
	return &a, err
}

func (r *ApplicationRepo) Exists(ctx context.Context, postID, internProfileID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Application{}).
		Where("internship_post_id = ? AND intern_profile_id = ?", postID, internProfileID).
		Count(&n).Error
	return n > 0, err
}

func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id uint, status domain.ApplicationStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Application{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Application{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepo) ListByPost(ctx context.Context, postID uint) ([]domain.Application, error) {
	var out []domain.Application
	err := r.db.WithContext(ctx).
		Preload("InternProfile.User").
		Where("internship_post_id = ?", postID).
		Order("applied_at desc").Order("id desc").Find(&out).Error
	return out, err
}

func (r *ApplicationRepo) ListByIntern(ctx context.Context, internProfileID uint) ([]domain.Application, error) {
	var out []domain.Application
	err := r.db.WithContext(ctx).
		Preload("InternshipPost.EmployerProfile").
		Where("intern_profile_id = ?", internProfileID).
		Order("applied_at desc").Order("id desc").Find(&out).Error
	return out, err
}

func (r *ApplicationRepo) List(ctx context.Context) ([]domain.Application, error) {
	var out []domain.Application
	err := r.db.WithContext(ctx).
		Preload("InternshipPost.EmployerProfile").
		Preload("InternProfile.User").
		Order("applied_at desc").Order("id desc").Find(&out).Error
	return out, err
}

func (r *ApplicationRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Application{}).Count(&n).Error
	return n, err
}

var _ domain.ApplicationRepository = (*ApplicationRepo)(nil)
