package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"sfu-globe/internal/interfaces"
	"sfu-globe/internal/model"
	"sfu-globe/internal/repository"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 历史消息默认条数
const DefaultHistoryLimit = 100

const (
	// 限流表超过这个大小才清理
	limiterCleanupThreshold = 500
	// 空闲超过这个时间的限流器可以清理
	limiterMaxIdle = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MessageService 俱乐部消息。Send 只写一行并推送 INSERT 事件，
// 发送方的界面通过同一个事件看到自己的消息。
type MessageService struct {
	messageRepo *repository.MessageRepository
	memberships *MembershipService
	pub         interfaces.Publisher
	cfg         config.ChatConfig

	mu       sync.Mutex
	limiters map[uuid.UUID]*limiterEntry
	now      func() time.Time
}

func NewMessageService(messageRepo *repository.MessageRepository, memberships *MembershipService, pub interfaces.Publisher, cfg config.ChatConfig) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		memberships: memberships,
		pub:         pub,
		cfg:         cfg,
		limiters:    make(map[uuid.UUID]*limiterEntry),
		now:         time.Now,
	}
}

func (s *MessageService) limiter(userID uuid.UUID) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.limiters) > limiterCleanupThreshold {
		cutoff := now.Add(-limiterMaxIdle)
		for id, e := range s.limiters {
			if e.lastSeen.Before(cutoff) {
				delete(s.limiters, id)
			}
		}
	}

	e, ok := s.limiters[userID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), s.cfg.Burst)}
		s.limiters[userID] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Send 内容去掉首尾空白后不能为空
func (s *MessageService) Send(ctx context.Context, userID, clubID uuid.UUID, content string) (*model.ClubMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > s.cfg.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	if err := s.requireMember(ctx, userID, clubID); err != nil {
		return nil, err
	}
	if s.cfg.RatePerSecond > 0 && !s.limiter(userID).Allow() {
		return nil, ErrRateLimited
	}

	message := &model.ClubMessage{
		ClubID:    clubID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		logger.L.Error("Failed to save message",
			zap.String("clubID", clubID.String()),
			zap.String("userID", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	publish(s.pub, feed.MessagesTopic(clubID), feed.TableClubMessages, feed.Insert, message)
	return message, nil
}

// History 按创建时间升序。limit<=0 时使用默认值
func (s *MessageService) History(ctx context.Context, userID, clubID uuid.UUID, limit int, since *time.Time) ([]model.ClubMessage, error) {
	if err := s.requireMember(ctx, userID, clubID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	messages, err := s.messageRepo.ListByClub(ctx, clubID, limit, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// Get 重新读取单条消息，只有该俱乐部成员可以读取
func (s *MessageService) Get(ctx context.Context, userID, messageID uuid.UUID) (*model.ClubMessage, error) {
	message, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	if err := s.requireMember(ctx, userID, message.ClubID); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *MessageService) requireMember(ctx context.Context, userID, clubID uuid.UUID) error {
	ok, err := s.memberships.IsMember(ctx, userID, clubID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}
