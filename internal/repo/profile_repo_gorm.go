package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"internship-portal/internal/domain"
)

type ProfileRepo struct{ db *gorm.DB }

func NewProfileRepo(db *gorm.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) internQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("start_date desc") })
}

func (r *ProfileRepo) FindIntern(ctx context.Context, userID string) (*domain.InternProfile, error) {
	var p domain.InternProfile
	err := r.internQuery(ctx).First(&p, "user_id = ?", userID).Error
	if notFound(err) {
		return nil, nil
	}
	return &p, err
}

func (r *ProfileRepo) FindInternByID(ctx context.Context, id uint) (*domain.InternProfile, error) {
	var p domain.InternProfile
	err := r.internQuery(ctx).First(&p, id).Error
	if notFound(err) {
		return nil, nil
	}
	return &p, err
}

// SaveIntern ID 为 0 时插入；user_id 唯一约束兜底并发创建
func (r *ProfileRepo) SaveIntern(ctx context.Context, p *domain.InternProfile) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
	if isDupKey(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *ProfileRepo) FindEmployer(ctx context.Context, userID string) (*domain.EmployerProfile, error) {
	var p domain.EmployerProfile
	err := r.db.WithContext(ctx).Preload("User").First(&p, "user_id = ?", userID).Error
	if notFound(err) {
		return nil, nil
	}
	return &p, err
}

func (r *ProfileRepo) FindEmployerByID(ctx context.Context, id uint) (*domain.EmployerProfile, error) {
	var p domain.EmployerProfile
	err := r.db.WithContext(ctx).Preload("User").First(&p, id).Error
	if notFound(err) {
		return nil, nil
	}
	return &p, err
}

func (r *ProfileRepo) SaveEmployer(ctx context.Context, p *domain.EmployerProfile) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
	if isDupKey(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *ProfileRepo) AddExperience(ctx context.Context, e *domain.Experience) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ProfileRepo) FindExperience(ctx context.Context, id uint) (*domain.Experience, error) {
	var e domain.Experience
	err := r.db.WithContext(ctx).First(&e, id).Error
	if notFound(err) {
		return nil, nil
	}
	return &e, err
}

func (r *ProfileRepo) DeleteExperience(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Experience{}, id).Error
}

var _ domain.ProfileRepository = (*ProfileRepo)(nil)
