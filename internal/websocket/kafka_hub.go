package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sfu-globe/internal/metrics"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KafkaHub 多节点部署：事件先写入 Kafka，每个节点消费后交给本地 Hub 分发
type KafkaHub struct {
	*Hub
	producer sarama.SyncProducer
	consumer sarama.ConsumerGroup
	topic    string
}

// 创建一个新的KafkaHub
func NewKafkaHub(cfg config.KafkaConfig, wsConfig config.WebSocketConfig, m *metrics.Metrics) (*KafkaHub, error) {
	// 配置Kafka
	kConfig := sarama.NewConfig()
	kConfig.Producer.RequiredAcks = sarama.WaitForAll
	kConfig.Producer.Return.Successes = true
	kConfig.Producer.Retry.Max = 3
	kConfig.Consumer.Return.Errors = true
	kConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	kConfig.Version = sarama.V2_8_0_0 // 使用一个稳定版本

	// 创建生产者
	producer, err := sarama.NewSyncProducer(cfg.Brokers, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka producer", zap.Error(err))
		return nil, fmt.Errorf("failed to start Kafka producer: %w", err)
	}

	// 每个节点都要收到全部事件，消费者组名加上节点唯一后缀
	group := fmt.Sprintf("%s-%s", cfg.ConsumerGroup, uuid.NewString()[:8])
	consumer, err := sarama.NewConsumerGroup(cfg.Brokers, group, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka consumer group", zap.Error(err))
		producer.Close()
		return nil, fmt.Errorf("failed to start Kafka consumer group: %w", err)
	}

	return &KafkaHub{
		Hub:      NewHub(wsConfig, m),
		producer: producer,
		consumer: consumer,
		topic:    fmt.Sprintf("%s_changes", cfg.TopicPrefix),
	}, nil
}

// Publish 发送到 Kafka，由各节点的消费者投递给本地订阅者
func (h *KafkaHub) Publish(event *feed.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	_, _, err = h.producer.SendMessage(&sarama.ProducerMessage{
		Topic: h.topic,
		Key:   sarama.StringEncoder(event.Topic),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		logger.L.Error("Failed to send change event to Kafka", zap.String("topic", event.Topic), zap.Error(err))
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}
	h.metrics.Published(event.Table)
	return nil
}

// Start 启动本地 Hub 和消费循环
func (h *KafkaHub) Start(ctx context.Context) {
	go h.Hub.Run(ctx)
	go h.consumeMessages(ctx)
	go func() {
		for err := range h.consumer.Errors() {
			logger.L.Error("Kafka consumer error", zap.Error(err))
		}
	}()
}

// 关闭KafkaHub
func (h *KafkaHub) Close() error {
	if err := h.producer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka producer", zap.Error(err))
	}
	if err := h.consumer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka consumer group", zap.Error(err))
	}
	return nil
}

func (h *KafkaHub) consumeMessages(ctx context.Context) {
	handler := &kafkaConsumerHandler{hub: h, ctx: ctx}
	for {
		if err := h.consumer.Consume(ctx, []string{h.topic}, handler); err != nil {
			logger.L.Error("Kafka consume error", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second): // 失败时等待一段时间再重试
			}
		}
		if ctx.Err() != nil {
			logger.L.Info("Stopping Kafka consumer")
			return
		}
	}
}

// Kafka消费者处理器
type kafkaConsumerHandler struct {
	hub *KafkaHub
	ctx context.Context
}

func (h *kafkaConsumerHandler) Setup(_ sarama.ConsumerGroupSession) error {
	return nil
}

func (h *kafkaConsumerHandler) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

func (h *kafkaConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event feed.ChangeEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.L.Error("Failed to unmarshal change event from Kafka", zap.Error(err))
		} else {
			h.hub.deliver(h.ctx, &event)
		}
		// 标记消息已处理
		session.MarkMessage(message, "")
	}
	return nil
}
