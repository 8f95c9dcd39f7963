package service

import (
	"context"
	"fmt"

	"sfu-globe/internal/model"
	"sfu-globe/internal/repository"

	"github.com/google/uuid"
)

type ProfileService struct {
	profileRepo *repository.ProfileRepository
}

func NewProfileService(profileRepo *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// PublicProfile 其他用户可见的资料，用于消息发送者名字解析
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	Major     string    `json:"major"`
	Batch     string    `json:"batch"`
}

func toPublicProfile(p *model.Profile) *PublicProfile {
	return &PublicProfile{
		ID:        p.ID,
		Name:      p.DisplayName(),
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
		Major:     p.Major,
		Batch:     p.Batch,
	}
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Username *string `json:"username" validate:"omitempty,min=3,max=30"`
	Major    *string `json:"major" validate:"omitempty,max=100"`
	Batch    *string `json:"batch" validate:"omitempty,max=20"`
	Website  *string `json:"website" validate:"omitempty,url,max=255"`
}

func (s *ProfileService) GetPublic(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	profile, err := s.GetOwn(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPublicProfile(profile), nil
}

func (s *ProfileService) GetOwn(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Update 只修改请求中出现的字段
func (s *ProfileService) Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*model.Profile, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.FullName != nil {
		fields["full_name"] = *req.FullName
	}
	if req.Username != nil {
		fields["username"] = *req.Username
	}
	if req.Major != nil {
		fields["major"] = *req.Major
	}
	if req.Batch != nil {
		fields["batch"] = *req.Batch
	}
	if req.Website != nil {
		fields["website"] = *req.Website
	}
	if len(fields) > 0 {
		if err := s.profileRepo.Update(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.GetOwn(ctx, id)
}

func (s *ProfileService) SetAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	if err := s.profileRepo.Update(ctx, id, map[string]any{"avatar_url": avatarURL}); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}
