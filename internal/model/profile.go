package model

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	FullName  string    `gorm:"type:varchar(100)" json:"full_name"`
	Username  string    `gorm:"type:varchar(50)" json:"username"`
	StudentID string    `gorm:"type:varchar(30);not null;uniqueIndex" json:"student_id"`
	Major     string    `gorm:"type:varchar(100)" json:"major"`
	Batch     string    `gorm:"type:varchar(20)" json:"batch"`
	AvatarURL string    `gorm:"type:varchar(255)" json:"avatar_url"`
	Website   string    `gorm:"type:varchar(255)" json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// 消息发送者显示名：全名优先，其次用户名
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}
