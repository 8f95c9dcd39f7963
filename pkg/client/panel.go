package client

import (
	"context"
	"sync"

	"sfu-globe/pkg/feed"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessagingPanel 一个俱乐部的消息列表。
// 自己发送的消息也只通过 INSERT 事件出现在列表中。
type MessagingPanel struct {
	api    *Client
	rt     *Realtime
	clubID uuid.UUID

	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.RWMutex
	messages  []PanelMessage
	listeners []func(PanelMessage)
}

func NewMessagingPanel(api *Client, rt *Realtime, clubID uuid.UUID) *MessagingPanel {
	return &MessagingPanel{api: api, rt: rt, clubID: clubID, ready: make(chan struct{})}
}

// Ready 历史消息加载完成并订阅成功后关闭
func (p *MessagingPanel) Ready() <-chan struct{} {
	return p.ready
}

// Run 加载历史消息后订阅新消息，阻塞直到 ctx 结束或连接断开
func (p *MessagingPanel) Run(ctx context.Context) error {
	history, err := p.api.Messages(ctx, p.clubID, 0)
	if err != nil {
		p.api.log.Error("Failed to fetch messages", zap.String("clubID", p.clubID.String()), zap.Error(err))
	}
	// 逐条解析发送者名字
	for _, msg := range history {
		p.append(PanelMessage{Message: msg, SenderName: p.senderName(ctx, msg.UserID)})
	}

	sub, err := p.rt.Subscribe(ctx, feed.MessagesTopic(p.clubID))
	if err != nil {
		return err
	}
	defer sub.Close()
	p.readyOnce.Do(func() { close(p.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return ErrRealtimeClosed
			}
			if ev.Type != feed.Insert {
				continue
			}
			p.handleInsert(ctx, ev)
		}
	}
}

// 重新读取消息行并解析发送者
func (p *MessagingPanel) handleInsert(ctx context.Context, ev *feed.ChangeEvent) {
	var row Message
	if err := ev.DecodeRow(&row); err != nil {
		p.api.log.Warn("Failed to decode message event", zap.Error(err))
		return
	}
	msg, err := p.api.GetMessage(ctx, row.ID)
	if err != nil {
		p.api.log.Error("Failed to re-read message", zap.String("messageID", row.ID.String()), zap.Error(err))
		return
	}
	p.append(PanelMessage{Message: *msg, SenderName: p.senderName(ctx, msg.UserID)})
}

func (p *MessagingPanel) senderName(ctx context.Context, userID uuid.UUID) string {
	profile, err := p.api.GetProfile(ctx, userID)
	if err != nil || profile.Name == "" {
		return UnknownUser
	}
	return profile.Name
}

func (p *MessagingPanel) append(msg PanelMessage) {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	listeners := append([]func(PanelMessage){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(msg)
	}
}

func (p *MessagingPanel) Messages() []PanelMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]PanelMessage(nil), p.messages...)
}

// OnMessage 每条新显示的消息调用一次，包括历史消息
func (p *MessagingPanel) OnMessage(fn func(PanelMessage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Send 只插入一行，不在本地追加
func (p *MessagingPanel) Send(ctx context.Context, content string) error {
	_, err := p.api.SendMessage(ctx, p.clubID, content)
	return err
}
