package service

import (
	"context"
	"fmt"

	"sfu-globe/internal/interfaces"
	"sfu-globe/internal/model"
	"sfu-globe/internal/repository"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClubService struct {
	clubRepo *repository.ClubRepository
	pub      interfaces.Publisher
}

func NewClubService(clubRepo *repository.ClubRepository, pub interfaces.Publisher) *ClubService {
	return &ClubService{clubRepo: clubRepo, pub: pub}
}

type CreateClubRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Icon        string   `json:"icon" validate:"required,max=50"`
	Location    string   `json:"location" validate:"required,max=100"`
	MeetingTime string   `json:"meeting_time" validate:"required,max=100"`
	Activities  []string `json:"activities" validate:"dive,required,max=100"`
}

// List search 为空返回全部
func (s *ClubService) List(ctx context.Context, search string) ([]model.Club, error) {
	clubs, err := s.clubRepo.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	return clubs, nil
}

func (s *ClubService) Get(ctx context.Context, id uuid.UUID) (*model.Club, error) {
	club, err := s.clubRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find club: %w", err)
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	return club, nil
}

func (s *ClubService) Create(ctx context.Context, req CreateClubRequest) (*model.Club, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Activities == nil {
		req.Activities = []string{}
	}
	club := &model.Club{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Location:    req.Location,
		MeetingTime: req.MeetingTime,
		Activities:  req.Activities,
	}
	if err := s.clubRepo.Create(ctx, club); err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}
	logger.L.Info("Club created", zap.String("clubID", club.ID.String()), zap.String("name", club.Name))
	publish(s.pub, feed.ClubsTopic(), feed.TableClubs, feed.Insert, club)
	return club, nil
}

// 人数变化后推送最新的俱乐部行
func (s *ClubService) publishUpdated(ctx context.Context, id uuid.UUID) {
	club, err := s.clubRepo.FindByID(ctx, id)
	if err != nil || club == nil {
		logger.L.Warn("Failed to reload club for update event", zap.String("clubID", id.String()), zap.Error(err))
		return
	}
	publish(s.pub, feed.ClubsTopic(), feed.TableClubs, feed.Update, club)
}
