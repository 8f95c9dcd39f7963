package service

import (
	"sfu-globe/internal/interfaces"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"go.uber.org/zap"
)

// publish 行已经写入数据库，推送失败只记录日志
func publish(pub interfaces.Publisher, topic, table string, typ feed.EventType, record any) {
	if pub == nil {
		return
	}
	event, err := feed.NewEvent(topic, table, typ, record)
	if err != nil {
		logger.L.Error("Failed to build change event", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := pub.Publish(event); err != nil {
		logger.L.Error("Failed to publish change event",
			zap.String("topic", topic),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}
