package service

import (
	"context"
	"errors"
	"time"

	"sfu-globe/internal/interfaces"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const frameTimeout = 5 * time.Second

// RealtimeService 处理 websocket 上的 subscribe / unsubscribe / send 帧
type RealtimeService struct {
	broker      interfaces.Broker
	memberships *MembershipService
	messages    *MessageService
}

func NewRealtimeService(broker interfaces.Broker, memberships *MembershipService, messages *MessageService) *RealtimeService {
	return &RealtimeService{broker: broker, memberships: memberships, messages: messages}
}

func (s *RealtimeService) HandleFrame(client interfaces.Client, frame *feed.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	var err error
	switch frame.Type {
	case feed.FrameSubscribe:
		err = s.subscribe(ctx, client, frame.Topic)
	case feed.FrameUnsubscribe:
		s.broker.Unsubscribe(client, canonicalTopic(frame.Topic))
	case feed.FrameSend:
		err = s.send(ctx, client, frame)
	default:
		err = errors.New("unknown frame type")
	}

	if err != nil {
		logger.L.Debug("Frame rejected",
			zap.String("userID", client.GetUserID().String()),
			zap.String("type", string(frame.Type)),
			zap.String("topic", frame.Topic),
			zap.Error(err))
		reply(client, &feed.Frame{Type: feed.FrameError, Ref: frame.Ref, Topic: frame.Topic, Error: err.Error()})
		return
	}
	reply(client, &feed.Frame{Type: feed.FrameAck, Ref: frame.Ref, Topic: frame.Topic})
}

func (s *RealtimeService) subscribe(ctx context.Context, client interfaces.Client, raw string) error {
	topic, err := feed.ParseTopic(raw)
	if err != nil {
		return err
	}
	canonical, err := s.authorize(ctx, client.GetUserID(), topic)
	if err != nil {
		return err
	}
	s.broker.Subscribe(client, canonical)
	return nil
}

// authorize 成员关系主题只能订阅自己的，消息主题只对成员开放。
// 返回与发布端一致的规范主题，uuid 统一为小写
func (s *RealtimeService) authorize(ctx context.Context, userID uuid.UUID, topic feed.Topic) (string, error) {
	switch {
	case topic.Table == feed.TableClubs && topic.Column == "":
		return feed.ClubsTopic(), nil
	case topic.Table == feed.TableClubMemberships && topic.Column == "user_id":
		id, err := uuid.Parse(topic.Value)
		if err != nil {
			return "", feed.ErrInvalidTopic
		}
		if id != userID {
			return "", ErrForbiddenTopic
		}
		return feed.MembershipTopic(id), nil
	case topic.Table == feed.TableClubMessages && topic.Column == "club_id":
		clubID, err := uuid.Parse(topic.Value)
		if err != nil {
			return "", feed.ErrInvalidTopic
		}
		ok, err := s.memberships.IsMember(ctx, userID, clubID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNotMember
		}
		return feed.MessagesTopic(clubID), nil
	case topic.Table == feed.TableAttendanceRecords && topic.Column == "course_id":
		return feed.AttendanceTopic(topic.Value), nil
	}
	return "", ErrForbiddenTopic
}

func (s *RealtimeService) send(ctx context.Context, client interfaces.Client, frame *feed.Frame) error {
	topic, err := feed.ParseTopic(frame.Topic)
	if err != nil {
		return err
	}
	if topic.Table != feed.TableClubMessages || topic.Column != "club_id" {
		return feed.ErrInvalidTopic
	}
	clubID, err := uuid.Parse(topic.Value)
	if err != nil {
		return feed.ErrInvalidTopic
	}
	_, err = s.messages.Send(ctx, client.GetUserID(), clubID, frame.Content)
	return err
}

// canonicalTopic 把 club_id / user_id 过滤值规范成小写 uuid，无法解析时原样返回
func canonicalTopic(raw string) string {
	topic, err := feed.ParseTopic(raw)
	if err != nil || (topic.Column != "club_id" && topic.Column != "user_id") {
		return raw
	}
	id, err := uuid.Parse(topic.Value)
	if err != nil {
		return raw
	}
	topic.Value = id.String()
	return topic.String()
}

func reply(client interfaces.Client, frame *feed.Frame) {
	data, err := frame.Marshal()
	if err != nil {
		logger.L.Error("Failed to marshal frame", zap.Error(err))
		return
	}
	if err := client.QueueBytes(data); err != nil {
		logger.L.Warn("Failed to queue reply frame",
			zap.String("userID", client.GetUserID().String()),
			zap.Error(err))
	}
}
