package feed

import "encoding/json"

type FrameType string

// 客户端 -> 服务端
const (
	FrameSubscribe   FrameType = "subscribe"
	FrameUnsubscribe FrameType = "unsubscribe"
	FrameSend        FrameType = "send"
	FramePing        FrameType = "ping"
)

// 服务端 -> 客户端
const (
	FrameAck   FrameType = "ack"
	FrameError FrameType = "error"
	FrameEvent FrameType = "event"
	FramePong  FrameType = "pong"
)

// Frame websocket 上传输的 JSON 文本帧
type Frame struct {
	Type    FrameType    `json:"type"`
	Ref     string       `json:"ref,omitempty"`
	Topic   string       `json:"topic,omitempty"`
	Content string       `json:"content,omitempty"`
	Error   string       `json:"error,omitempty"`
	Event   *ChangeEvent `json:"event,omitempty"`
}

func (f *Frame) Marshal() ([]byte, error) {
	return json.Marshal(f)
}

// EncodeEvent 事件帧只序列化一次，供所有订阅者复用
func EncodeEvent(ev *ChangeEvent) ([]byte, error) {
	return json.Marshal(&Frame{Type: FrameEvent, Event: ev})
}
