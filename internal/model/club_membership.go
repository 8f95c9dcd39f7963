package model

import (
	"time"

	"github.com/google/uuid"
)

// (club_id, user_id) 唯一
type ClubMembership struct {
	ID       uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	ClubID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_club_user" json:"club_id"`
	UserID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_club_user;index" json:"user_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}
