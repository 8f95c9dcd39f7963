package repository

import (
	"context"
	"errors"
	"time"

	"sfu-globe/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Join 不存在时插入成员关系并把俱乐部人数加一。
// 已经是成员时返回现有记录，created 为 false。
func (r *MembershipRepository) Join(ctx context.Context, clubID, userID uuid.UUID) (*model.ClubMembership, bool, error) {
	var membership model.ClubMembership
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("club_id = ? AND user_id = ?", clubID, userID).First(&membership).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		membership = model.ClubMembership{
			ClubID:   clubID,
			UserID:   userID,
			JoinedAt: time.Now().UTC(),
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		created = true
		return tx.Model(&model.Club{}).Where("id = ?", clubID).
			UpdateColumn("members", gorm.Expr("members + ?", 1)).Error
	})

	// 并发加入时唯一索引冲突，另一个请求已经插入
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := r.Find(ctx, clubID, userID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return &membership, created, nil
}

// Leave 是成员时删除记录并把人数减一（不低于0）；不是成员时什么都不做。
func (r *MembershipRepository) Leave(ctx context.Context, clubID, userID uuid.UUID) (*model.ClubMembership, bool, error) {
	var membership model.ClubMembership
	removed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("club_id = ? AND user_id = ?", clubID, userID).First(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		res := tx.Where("id = ?", membership.ID).Delete(&model.ClubMembership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&model.Club{}).Where("id = ?", clubID).
			UpdateColumn("members", gorm.Expr("CASE WHEN members > 0 THEN members - 1 ELSE 0 END")).Error
	})
	if err != nil {
		return nil, false, err
	}
	if !removed {
		return nil, false, nil
	}
	return &membership, true, nil
}

// 查找成员关系，不存在时返回 nil, nil
func (r *MembershipRepository) Find(ctx context.Context, clubID, userID uuid.UUID) (*model.ClubMembership, error) {
	var membership model.ClubMembership
	err := r.db.WithContext(ctx).Where("club_id = ? AND user_id = ?", clubID, userID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) IsMember(ctx context.Context, clubID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ClubMembership{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).Count(&n).Error
	return n > 0, err
}

// 用户加入的全部俱乐部，按加入时间排序
func (r *MembershipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ClubMembership, error) {
	var memberships []model.ClubMembership
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("joined_at ASC").Find(&memberships).Error
	return memberships, err
}
