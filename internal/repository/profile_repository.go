package repository

import (
	"context"
	"errors"

	"sfu-globe/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository 处理用户资料持久化
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// 通过ID查找，不存在时返回 nil, nil
func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *ProfileRepository) FindByStudentID(ctx context.Context, studentID string) (*model.Profile, error) {
	return r.findOne(ctx, "student_id = ?", studentID)
}

func (r *ProfileRepository) findOne(ctx context.Context, query string, arg any) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where(query, arg).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// 只更新传入的字段
func (r *ProfileRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Updates(fields).Error
}
