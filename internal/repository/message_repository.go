package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"sfu-globe/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// 保存新消息
func (r *MessageRepository) Create(ctx context.Context, message *model.ClubMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// 重新读取一条消息，不存在时返回 nil, nil
func (r *MessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ClubMessage, error) {
	var message model.ClubMessage
	if err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// ListByClub 按创建时间升序返回消息。
// limit > 0 时只返回最近的 limit 条；since 非空时只返回之后的消息。
func (r *MessageRepository) ListByClub(ctx context.Context, clubID uuid.UUID, limit int, since *time.Time) ([]model.ClubMessage, error) {
	var messages []model.ClubMessage
	q := r.db.WithContext(ctx).Where("club_id = ?", clubID)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}

	if limit <= 0 {
		err := q.Order("created_at ASC").Order("id ASC").Find(&messages).Error
		return messages, err
	}

	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}
