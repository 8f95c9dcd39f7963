package interfaces

import (
	"sfu-globe/pkg/feed"

	"github.com/google/uuid"
)

// 一个 websocket 连接。同一用户可以有多个连接
type Client interface {
	GetUserID() uuid.UUID
	QueueBytes(data []byte) error
	Close()
}

// 定义了处理客户端控制帧的接口
// service.RealtimeService实现
type FrameHandler interface {
	HandleFrame(client Client, frame *feed.Frame)
}

// 变更事件的发布方，服务层在写库之后调用
type Publisher interface {
	Publish(event *feed.ChangeEvent) error
}

// 撤销某个用户在一个主题上的全部订阅，覆盖该用户的所有连接
type SubscriptionRevoker interface {
	UnsubscribeUser(userID uuid.UUID, topic string)
}

// Broker 管理连接、订阅并把变更事件推送给订阅者
type Broker interface {
	Publisher
	SubscriptionRevoker
	Register(client Client)
	Unregister(client Client)
	Subscribe(client Client, topic string)
	Unsubscribe(client Client, topic string)
}
