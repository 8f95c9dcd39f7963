package model

import (
	"time"

	"github.com/google/uuid"
)

type Club struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;index" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Icon        string    `gorm:"type:varchar(50);not null" json:"icon"`
	Members     int       `gorm:"not null;default:0" json:"members"`
	Location    string    `gorm:"type:varchar(100);not null" json:"location"`
	MeetingTime string    `gorm:"type:varchar(100);not null" json:"meeting_time"`
	Activities  []string  `gorm:"type:text;serializer:json" json:"activities"`
	CreatedAt   time.Time `json:"created_at"`
}
