package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"sfu-globe/pkg/feed"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrRealtimeClosed = errors.New("realtime connection closed")

// 每个订阅缓冲的事件数，满了丢弃
const subscriptionBuffer = 64

// Realtime 一个 websocket 连接上复用多个主题订阅
type Realtime struct {
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextRef int
	pending map[string]chan feed.Frame
	subs    map[string]map[*Subscription]struct{}
	closed  bool
	done    chan struct{}
}

// Subscription 一个主题上的事件流。连接断开或 Close 后 Events 被关闭
type Subscription struct {
	Topic  string
	events chan *feed.ChangeEvent
	rt     *Realtime
	once   sync.Once
}

func (s *Subscription) Events() <-chan *feed.ChangeEvent {
	return s.events
}

// Close 取消订阅
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.rt.remove(s)
	})
}

// Connect 使用会话令牌建立实时连接
func (c *Client) Connect(ctx context.Context) (*Realtime, error) {
	if c.session.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	wsURL, err := c.realtimeURL()
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}

	rt := &Realtime{
		conn:    conn,
		log:     c.log,
		pending: make(map[string]chan feed.Frame),
		subs:    make(map[string]map[*Subscription]struct{}),
		done:    make(chan struct{}),
	}
	go rt.readLoop()
	return rt, nil
}

// Done 连接断开后关闭
func (r *Realtime) Done() <-chan struct{} {
	return r.done
}

func (r *Realtime) Close() error {
	r.writeMu.Lock()
	_ = r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.writeMu.Unlock()
	return r.conn.Close()
}

// Subscribe 等待服务端确认后返回
func (r *Realtime) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	sub := &Subscription{
		Topic:  topic,
		events: make(chan *feed.ChangeEvent, subscriptionBuffer),
		rt:     r,
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRealtimeClosed
	}
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[*Subscription]struct{})
	}
	r.subs[topic][sub] = struct{}{}
	r.mu.Unlock()

	if _, err := r.request(ctx, feed.Frame{Type: feed.FrameSubscribe, Topic: topic}); err != nil {
		sub.once.Do(func() { r.detach(sub) })
		return nil, err
	}
	return sub, nil
}

// Send 通过 websocket 发送消息，结果仍然只通过事件回来
func (r *Realtime) Send(ctx context.Context, topic, content string) error {
	_, err := r.request(ctx, feed.Frame{Type: feed.FrameSend, Topic: topic, Content: content})
	return err
}

func (r *Realtime) Ping(ctx context.Context) error {
	_, err := r.request(ctx, feed.Frame{Type: feed.FramePing})
	return err
}

// request 发送带 ref 的帧并等待对应的 ack/error/pong
func (r *Realtime) request(ctx context.Context, frame feed.Frame) (feed.Frame, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return feed.Frame{}, ErrRealtimeClosed
	}
	r.nextRef++
	frame.Ref = strconv.Itoa(r.nextRef)
	reply := make(chan feed.Frame, 1)
	r.pending[frame.Ref] = reply
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, frame.Ref)
		r.mu.Unlock()
	}()

	if err := r.write(frame); err != nil {
		return feed.Frame{}, err
	}

	select {
	case resp := <-reply:
		if resp.Type == feed.FrameError {
			return resp, errors.New(resp.Error)
		}
		return resp, nil
	case <-r.done:
		return feed.Frame{}, ErrRealtimeClosed
	case <-ctx.Done():
		return feed.Frame{}, ctx.Err()
	}
}

func (r *Realtime) write(frame feed.Frame) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// remove 本地移除，最后一个订阅者离开时通知服务端
func (r *Realtime) remove(sub *Subscription) {
	if last := r.detach(sub); last {
		r.unsubscribeIfIdle(sub.Topic)
	}
}

// unsubscribeIfIdle 持有写锁再检查一次，期间新来的 Subscribe 的帧只能排在退订之后
func (r *Realtime) unsubscribeIfIdle(topic string) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	idle := len(r.subs[topic]) == 0 && !r.closed
	r.mu.Unlock()
	if !idle {
		return
	}
	if err := r.conn.WriteJSON(feed.Frame{Type: feed.FrameUnsubscribe, Topic: topic}); err != nil {
		r.log.Debug("Failed to unsubscribe", zap.String("topic", topic), zap.Error(err))
	}
}

func (r *Realtime) detach(sub *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.subs[sub.Topic]
	if !ok {
		return false
	}
	if _, ok := subs[sub]; !ok {
		return false
	}
	delete(subs, sub)
	close(sub.events)
	if len(subs) == 0 {
		delete(r.subs, sub.Topic)
		return !r.closed
	}
	return false
}

func (r *Realtime) readLoop() {
	defer func() {
		r.mu.Lock()
		r.closed = true
		for topic, subs := range r.subs {
			for sub := range subs {
				close(sub.events)
			}
			delete(r.subs, topic)
		}
		r.mu.Unlock()
		close(r.done)
		r.conn.Close()
	}()

	for {
		var frame feed.Frame
		if err := r.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.log.Warn("Realtime connection lost", zap.Error(err))
			}
			return
		}

		switch frame.Type {
		case feed.FrameEvent:
			if frame.Event != nil {
				r.dispatch(frame.Event)
			}
		default:
			r.mu.Lock()
			reply, ok := r.pending[frame.Ref]
			r.mu.Unlock()
			if ok {
				reply <- frame
			} else if frame.Type == feed.FrameError {
				r.log.Warn("Realtime error frame", zap.String("error", frame.Error))
			}
		}
	}
}

func (r *Realtime) dispatch(ev *feed.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub := range r.subs[ev.Topic] {
		select {
		case sub.events <- ev:
		default:
			r.log.Warn("Subscription buffer full, dropping event", zap.String("topic", ev.Topic))
		}
	}
}
