package client

import (
	"context"
	"sync"

	"sfu-globe/pkg/feed"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MembershipSync 当前用户已加入的俱乐部集合。
// 任何成员关系事件都会触发重新拉取完整列表，而不是增量修改。
type MembershipSync struct {
	api *Client
	rt  *Realtime

	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.RWMutex
	joined    map[uuid.UUID]struct{}
	listeners []func(map[uuid.UUID]struct{})
}

func NewMembershipSync(api *Client, rt *Realtime) *MembershipSync {
	return &MembershipSync{
		api:    api,
		rt:     rt,
		ready:  make(chan struct{}),
		joined: make(map[uuid.UUID]struct{}),
	}
}

// Ready 首次拉取完成并订阅成功后关闭
func (m *MembershipSync) Ready() <-chan struct{} {
	return m.ready
}

// Run 阻塞直到 ctx 结束、会话用户变化或连接断开。拉取失败只记录日志
func (m *MembershipSync) Run(ctx context.Context) error {
	user := m.api.session.User()
	if user == nil {
		return ErrNotAuthenticated
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := m.api.session.OnChange(func(p *Profile) {
		if p == nil || p.ID != user.ID {
			cancel()
		}
	})
	defer stop()

	m.refresh(ctx)

	sub, err := m.rt.Subscribe(ctx, feed.MembershipTopic(user.ID))
	if err != nil {
		return err
	}
	defer sub.Close()
	m.readyOnce.Do(func() { close(m.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return ErrRealtimeClosed
			}
			if ev.Type == feed.Insert || ev.Type == feed.Delete {
				m.refresh(ctx)
			}
		}
	}
}

func (m *MembershipSync) refresh(ctx context.Context) {
	memberships, err := m.api.MyMemberships(ctx)
	if err != nil {
		m.api.log.Error("Failed to fetch memberships", zap.Error(err))
		return
	}

	joined := make(map[uuid.UUID]struct{}, len(memberships))
	for _, ms := range memberships {
		joined[ms.ClubID] = struct{}{}
	}

	m.mu.Lock()
	m.joined = joined
	listeners := append([]func(map[uuid.UUID]struct{}){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(m.Joined())
	}
}

// Joined 返回副本
func (m *MembershipSync) Joined() map[uuid.UUID]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]struct{}, len(m.joined))
	for id := range m.joined {
		out[id] = struct{}{}
	}
	return out
}

func (m *MembershipSync) IsJoined(clubID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.joined[clubID]
	return ok
}

// OnChange 每次重新拉取成功后调用
func (m *MembershipSync) OnChange(fn func(joined map[uuid.UUID]struct{})) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Toggle 未加入时加入，已加入时退出。本地集合等事件回来后再更新
func (m *MembershipSync) Toggle(ctx context.Context, clubID uuid.UUID) error {
	var err error
	if m.IsJoined(clubID) {
		_, err = m.api.Leave(ctx, clubID)
	} else {
		_, err = m.api.Join(ctx, clubID)
	}
	return err
}
