package model

import (
	"time"

	"github.com/google/uuid"
)

// 签到码，格式 courseId:unixMillis:random
type AttendanceCode struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	CourseID  string    `gorm:"type:varchar(50);not null;index" json:"course_id"`
	Code      string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"code"`
	IssuedBy  uuid.UUID `gorm:"type:varchar(36);not null" json:"issued_by"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type AttendanceRecord struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	CourseID    string    `gorm:"type:varchar(50);not null;index" json:"course_id"`
	UserID      uuid.UUID `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_code_user" json:"user_id"`
	CodeID      uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_code_user" json:"code_id"`
	CheckedInAt time.Time `gorm:"not null" json:"checked_in_at"`
}
