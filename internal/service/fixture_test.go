package service

import (
	"sync"
	"testing"

	"sfu-globe/internal/repository"
	"sfu-globe/internal/testutil"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 记录所有推送的事件和撤销的订阅
type recordingPublisher struct {
	mu      sync.Mutex
	events  []*feed.ChangeEvent
	revoked []string
}

func (p *recordingPublisher) UnsubscribeUser(userID uuid.UUID, topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, userID.String()+" "+topic)
}

func (p *recordingPublisher) Revoked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.revoked...)
}

func (p *recordingPublisher) Publish(event *feed.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []*feed.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*feed.ChangeEvent(nil), p.events...)
}

func (p *recordingPublisher) OnTopic(topic string) []*feed.ChangeEvent {
	var out []*feed.ChangeEvent
	for _, ev := range p.Events() {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	cfg         *config.Config
	db          *gorm.DB
	pub         *recordingPublisher
	auth        *AuthService
	profiles    *ProfileService
	clubs       *ClubService
	memberships *MembershipService
	messages    *MessageService
	attendance  *AttendanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testutil.Config(t)
	conn := testutil.NewDB(t)
	pub := &recordingPublisher{}

	profileRepo := repository.NewProfileRepository(conn)
	clubs := NewClubService(repository.NewClubRepository(conn), pub)
	memberships := NewMembershipService(repository.NewMembershipRepository(conn), clubs, pub, pub)

	return &fixture{
		cfg:         cfg,
		db:          conn,
		pub:         pub,
		auth:        NewAuthService(profileRepo, utils.NewTokenManager(cfg.JWT)),
		profiles:    NewProfileService(profileRepo),
		clubs:       clubs,
		memberships: memberships,
		messages:    NewMessageService(repository.NewMessageRepository(conn), memberships, pub, cfg.Chat),
		attendance:  NewAttendanceService(repository.NewAttendanceRepository(conn), pub, cfg.Attendance),
	}
}
