package repository

import (
	"context"
	"errors"
	"strings"

	"sfu-globe/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClubRepository struct {
	db *gorm.DB
}

func NewClubRepository(db *gorm.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) Create(ctx context.Context, club *model.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

// 根据ID查找俱乐部，不存在时返回 nil, nil
func (r *ClubRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Club, error) {
	var club model.Club
	if err := r.db.WithContext(ctx).First(&club, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &club, nil
}

// List 按名称排序返回俱乐部；search 非空时按名称或简介做不区分大小写的子串匹配
func (r *ClubRepository) List(ctx context.Context, search string) ([]model.Club, error) {
	var clubs []model.Club
	q := r.db.WithContext(ctx).Model(&model.Club{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	err := q.Order("name ASC").Find(&clubs).Error
	return clubs, err
}

func (r *ClubRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Club{}).Count(&n).Error
	return n, err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
