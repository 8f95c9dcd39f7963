package repository

import (
	"context"
	"errors"

	"sfu-globe/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) CreateCode(ctx context.Context, code *model.AttendanceCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// 根据签到码查找，不存在时返回 nil, nil
func (r *AttendanceRepository) FindCode(ctx context.Context, code string) (*model.AttendanceCode, error) {
	var c model.AttendanceCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// 同一用户重复使用同一签到码时返回 gorm.ErrDuplicatedKey
func (r *AttendanceRepository) CreateRecord(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *AttendanceRepository) HasRecord(ctx context.Context, codeID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AttendanceRecord{}).
		Where("code_id = ? AND user_id = ?", codeID, userID).Count(&n).Error
	return n > 0, err
}

func (r *AttendanceRepository) ListRecordsByCourse(ctx context.Context, courseID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).Where("course_id = ?", courseID).
		Order("checked_in_at ASC").Find(&records).Error
	return records, err
}

func (r *AttendanceRepository) ListRecordsByUser(ctx context.Context, userID uuid.UUID) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("checked_in_at DESC").Find(&records).Error
	return records, err
}
