package websocket

import (
	"context"
	"errors"
	"time"

	"sfu-globe/internal/interfaces"
	"sfu-globe/internal/metrics"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type subscription struct {
	client interfaces.Client
	topic  string
}

type revocation struct {
	userID string
	topic  string
}

// Hub 单进程的变更事件分发。clients 和 topics 只由 Run 所在的 goroutine 读写
type Hub struct {
	clients map[interfaces.Client]map[string]struct{}
	topics  map[string]map[interfaces.Client]struct{}

	broadcast   chan *feed.ChangeEvent
	register    chan interfaces.Client
	unregister  chan interfaces.Client
	subscribe   chan subscription
	unsubscribe chan subscription
	revoke      chan revocation
	done        chan struct{}

	retryCount    int
	retryInterval time.Duration
	metrics       *metrics.Metrics
}

func NewHub(wsConfig config.WebSocketConfig, m *metrics.Metrics) *Hub {
	retryCount := wsConfig.MessageRetryCount
	if retryCount <= 0 {
		retryCount = 3
		logger.L.Warn("Invalid retryCount, using default", zap.Int("default", retryCount))
	}

	retryInterval := time.Duration(wsConfig.MessageRetryIntervalMs) * time.Millisecond
	if retryInterval <= 0 {
		retryInterval = 100 * time.Millisecond
		logger.L.Warn("Invalid retryInterval, using default", zap.Duration("default", retryInterval))
	}

	broadcastBufferSize := wsConfig.BroadcastBufferSize
	if broadcastBufferSize <= 0 {
		broadcastBufferSize = 256
		logger.L.Warn("Invalid BroadcastBufferSize, using default", zap.Int("default", broadcastBufferSize))
	}

	return &Hub{
		clients:       make(map[interfaces.Client]map[string]struct{}),
		topics:        make(map[string]map[interfaces.Client]struct{}),
		broadcast:     make(chan *feed.ChangeEvent, broadcastBufferSize),
		register:      make(chan interfaces.Client),
		unregister:    make(chan interfaces.Client),
		subscribe:     make(chan subscription),
		unsubscribe:   make(chan subscription),
		revoke:        make(chan revocation),
		done:          make(chan struct{}),
		retryCount:    retryCount,
		retryInterval: retryInterval,
		metrics:       m,
	}
}

func (h *Hub) Register(client interfaces.Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client interfaces.Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe 返回时订阅已经生效，之后发布的事件一定会送达
func (h *Hub) Subscribe(client interfaces.Client, topic string) {
	select {
	case h.subscribe <- subscription{client: client, topic: topic}:
	case <-h.done:
	}
}

func (h *Hub) Unsubscribe(client interfaces.Client, topic string) {
	select {
	case h.unsubscribe <- subscription{client: client, topic: topic}:
	case <-h.done:
	}
}

// UnsubscribeUser 返回时该用户所有连接上的这个主题都已退订
func (h *Hub) UnsubscribeUser(userID uuid.UUID, topic string) {
	select {
	case h.revoke <- revocation{userID: userID.String(), topic: topic}:
	case <-h.done:
	}
}

// Publish 把事件放入广播队列，队列满时丢弃并返回错误
func (h *Hub) Publish(event *feed.ChangeEvent) error {
	select {
	case h.broadcast <- event:
		h.metrics.Published(event.Table)
		logger.L.Debug("Change event queued for broadcast", zap.String("topic", event.Topic), zap.String("type", string(event.Type)))
		return nil
	default:
		logger.L.Warn("Hub broadcast channel full. Dropping change event.", zap.String("topic", event.Topic))
		return ErrHubFull
	}
}

// deliver 供 kafka/nats 消费者使用，阻塞直到放入队列或 ctx 结束
func (h *Hub) deliver(ctx context.Context, event *feed.ChangeEvent) {
	select {
	case h.broadcast <- event:
	case <-ctx.Done():
	case <-h.done:
	}
}

func (h *Hub) trySendMessage(client interfaces.Client, data []byte) bool {
	err := client.QueueBytes(data)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrClientClosed) {
		return false
	}

	for i := 0; i < h.retryCount; i++ {
		logger.L.Warn("Client send buffer full, retry attempt",
			zap.String("userID", client.GetUserID().String()),
			zap.Int("attempt", i+1))
		time.Sleep(h.retryInterval)
		if err := client.QueueBytes(data); err == nil {
			return true
		}
	}
	// 所有重试失败 关闭连接
	logger.L.Error("Client send buffer still full after retries, closing connection",
		zap.String("userID", client.GetUserID().String()),
		zap.Int("attempts", h.retryCount))
	h.removeClient(client)
	return false
}

func (h *Hub) removeSubscription(client interfaces.Client, topic string) {
	if topics, ok := h.clients[client]; ok {
		delete(topics, topic)
	}
	if subs := h.topics[topic]; subs != nil {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

func (h *Hub) revokeUser(userID, topic string) {
	for client := range h.topics[topic] {
		if client.GetUserID().String() != userID {
			continue
		}
		h.removeSubscription(client, topic)
		logger.L.Info("Subscription revoked",
			zap.String("userID", userID),
			zap.String("topic", topic))
	}
}

func (h *Hub) removeClient(client interfaces.Client) {
	topics, ok := h.clients[client]
	if !ok {
		return
	}
	for topic := range topics {
		if subs := h.topics[topic]; subs != nil {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	delete(h.clients, client)
	client.Close()
	h.metrics.ConnectionClosed()
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			h.removeClient(client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.L.Info("Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = make(map[string]struct{})
			h.metrics.ConnectionOpened()
			logger.L.Info("Client registered", zap.String("userID", client.GetUserID().String()))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.removeClient(client)
				logger.L.Info("Client unregistered", zap.String("userID", client.GetUserID().String()))
			}

		case sub := <-h.subscribe:
			topics, ok := h.clients[sub.client]
			if !ok {
				continue
			}
			topics[sub.topic] = struct{}{}
			if h.topics[sub.topic] == nil {
				h.topics[sub.topic] = make(map[interfaces.Client]struct{})
			}
			h.topics[sub.topic][sub.client] = struct{}{}

		case sub := <-h.unsubscribe:
			h.removeSubscription(sub.client, sub.topic)

		case r := <-h.revoke:
			h.revokeUser(r.userID, r.topic)

		case event := <-h.broadcast:
			// 其他节点上的退出也要撤销本节点的订阅
			if userID, topic, ok := feed.Revocation(event); ok {
				h.revokeUser(userID, topic)
			}
			subs := h.topics[event.Topic]
			if len(subs) == 0 {
				continue
			}
			// 每个事件只序列化一次
			data, err := feed.EncodeEvent(event)
			if err != nil {
				logger.L.Error("Failed to marshal change event", zap.Error(err))
				continue
			}
			for client := range subs {
				if h.trySendMessage(client, data) {
					h.metrics.Delivered()
				} else {
					h.metrics.Dropped()
				}
			}
		}
	}
}
