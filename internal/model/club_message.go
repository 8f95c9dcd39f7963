package model

import (
	"time"

	"github.com/google/uuid"
)

// 发送者名字不落库，由客户端通过 profiles 查询
type ClubMessage struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	ClubID    uuid.UUID `gorm:"type:varchar(36);not null;index:idx_club_created" json:"club_id"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_club_created" json:"created_at"`
}
