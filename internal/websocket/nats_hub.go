package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"sfu-globe/internal/metrics"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSHub 与 KafkaHub 相同的结构，使用 NATS core pub/sub 在节点之间转发事件
type NATSHub struct {
	*Hub
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
}

func NewNATSHub(cfg config.NATSConfig, wsConfig config.WebSocketConfig, m *metrics.Metrics) (*NATSHub, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("sfu-globe"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.L.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.L.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		logger.L.Error("Failed to connect to NATS", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSHub{
		Hub:     NewHub(wsConfig, m),
		conn:    conn,
		subject: fmt.Sprintf("%s.changes", cfg.SubjectPrefix),
	}, nil
}

func (h *NATSHub) Publish(event *feed.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := h.conn.Publish(h.subject, data); err != nil {
		logger.L.Error("Failed to publish change event to NATS", zap.String("topic", event.Topic), zap.Error(err))
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	h.metrics.Published(event.Table)
	return nil
}

func (h *NATSHub) Start(ctx context.Context) error {
	go h.Hub.Run(ctx)

	sub, err := h.conn.Subscribe(h.subject, func(msg *nats.Msg) {
		var event feed.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.L.Error("Failed to unmarshal change event from NATS", zap.Error(err))
			return
		}
		h.deliver(ctx, &event)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", h.subject, err)
	}
	h.sub = sub
	return nil
}

func (h *NATSHub) Close() error {
	if h.sub != nil {
		if err := h.sub.Unsubscribe(); err != nil {
			logger.L.Warn("Failed to unsubscribe from NATS", zap.Error(err))
		}
	}
	return h.conn.Drain()
}
