package websocket

import (
	"context"
	"errors"

	"sfu-globe/internal/interfaces"
	"sfu-globe/internal/metrics"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/logger"

	"go.uber.org/zap"
)

// CreateHub 根据配置创建相应的Hub实现
func CreateHub(cfg *config.Config, m *metrics.Metrics) (interfaces.Broker, error) {
	provider := cfg.Messaging.Provider
	logger.L.Info("Creating hub with messaging provider", zap.String("provider", provider))

	switch provider {
	case "channel":
		// 创建基于Go通道的Hub
		return NewHub(cfg.WebSocket, m), nil
	case "kafka":
		return NewKafkaHub(cfg.Messaging.Kafka, cfg.WebSocket, m)
	case "nats":
		return NewNATSHub(cfg.Messaging.NATS, cfg.WebSocket, m)
	default:
		return nil, errors.New("unsupported messaging provider")
	}
}

// 启动Hub
func StartHub(ctx context.Context, hub interfaces.Broker) error {
	switch h := hub.(type) {
	case *Hub:
		go h.Run(ctx)
		return nil
	case *KafkaHub:
		h.Start(ctx)
		return nil
	case *NATSHub:
		return h.Start(ctx)
	default:
		return errors.New("unknown hub type")
	}
}

// 关闭外部连接；channel Hub 随 ctx 结束
func CloseHub(hub interfaces.Broker) error {
	switch h := hub.(type) {
	case *KafkaHub:
		return h.Close()
	case *NATSHub:
		return h.Close()
	default:
		return nil
	}
}
