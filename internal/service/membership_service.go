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

// MembershipService 加入/退出俱乐部。每次真实变化都会在
// club_memberships:user_id=<id> 主题上推送事件，并在 clubs 主题推送新的人数。
type MembershipService struct {
	membershipRepo *repository.MembershipRepository
	clubs          *ClubService
	pub            interfaces.Publisher
	revoker        interfaces.SubscriptionRevoker
}

func NewMembershipService(membershipRepo *repository.MembershipRepository, clubs *ClubService, pub interfaces.Publisher, revoker interfaces.SubscriptionRevoker) *MembershipService {
	return &MembershipService{membershipRepo: membershipRepo, clubs: clubs, pub: pub, revoker: revoker}
}

// Join 重复加入是幂等的，不会产生新行也不会推送事件
func (s *MembershipService) Join(ctx context.Context, userID, clubID uuid.UUID) (*model.ClubMembership, bool, error) {
	if _, err := s.clubs.Get(ctx, clubID); err != nil {
		return nil, false, err
	}

	membership, created, err := s.membershipRepo.Join(ctx, clubID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to join club: %w", err)
	}
	if !created {
		return membership, false, nil
	}

	logger.L.Info("User joined club",
		zap.String("userID", userID.String()),
		zap.String("clubID", clubID.String()))
	publish(s.pub, feed.MembershipTopic(userID), feed.TableClubMemberships, feed.Insert, membership)
	s.clubs.publishUpdated(ctx, clubID)
	return membership, true, nil
}

// Leave 不是成员时什么都不做。退出后该用户在这个俱乐部消息主题上的订阅全部撤销
func (s *MembershipService) Leave(ctx context.Context, userID, clubID uuid.UUID) (bool, error) {
	if _, err := s.clubs.Get(ctx, clubID); err != nil {
		return false, err
	}

	membership, removed, err := s.membershipRepo.Leave(ctx, clubID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to leave club: %w", err)
	}
	if !removed {
		return false, nil
	}

	logger.L.Info("User left club",
		zap.String("userID", userID.String()),
		zap.String("clubID", clubID.String()))
	if s.revoker != nil {
		s.revoker.UnsubscribeUser(userID, feed.MessagesTopic(clubID))
	}
	publish(s.pub, feed.MembershipTopic(userID), feed.TableClubMemberships, feed.Delete, membership)
	s.clubs.publishUpdated(ctx, clubID)
	return true, nil
}

// ListMine 按加入时间排序
func (s *MembershipService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.ClubMembership, error) {
	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return memberships, nil
}

func (s *MembershipService) IsMember(ctx context.Context, userID, clubID uuid.UUID) (bool, error) {
	ok, err := s.membershipRepo.IsMember(ctx, clubID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}
