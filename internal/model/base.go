package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 所有表的主键都是 uuid，写入前生成
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error          { assignID(&p.ID); return nil }
func (c *Club) BeforeCreate(_ *gorm.DB) error             { assignID(&c.ID); return nil }
func (m *ClubMembership) BeforeCreate(_ *gorm.DB) error   { assignID(&m.ID); return nil }
func (m *ClubMessage) BeforeCreate(_ *gorm.DB) error      { assignID(&m.ID); return nil }
func (a *AttendanceCode) BeforeCreate(_ *gorm.DB) error   { assignID(&a.ID); return nil }
func (a *AttendanceRecord) BeforeCreate(_ *gorm.DB) error { assignID(&a.ID); return nil }
