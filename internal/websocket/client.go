package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"sfu-globe/internal/interfaces"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte

	mu      sync.Mutex
	closed  bool
	handler interfaces.FrameHandler
	broker  interfaces.Broker

	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64
}

func NewClient(userID uuid.UUID, conn *websocket.Conn, handler interfaces.FrameHandler, broker interfaces.Broker, cfg config.WebSocketConfig) *Client {
	sendBuffer := cfg.SendBufferSize
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	writeWait := time.Duration(cfg.WriteWaitSeconds) * time.Second
	if writeWait <= 0 {
		writeWait = 10 * time.Second // 写超时
	}
	pongWait := time.Duration(cfg.PongWaitSeconds) * time.Second
	if pongWait <= 0 {
		pongWait = 60 * time.Second // 等待pong的最大时间
	}
	maxMessageSize := int64(cfg.MaxMessageSize)
	if maxMessageSize <= 0 {
		maxMessageSize = 4096
	}

	return &Client{
		UserID:         userID,
		Conn:           conn,
		Send:           make(chan []byte, sendBuffer),
		handler:        handler,
		broker:         broker,
		writeWait:      writeWait,
		pongWait:       pongWait,
		pingPeriod:     (pongWait * 9) / 10, // 发送ping的周期
		maxMessageSize: maxMessageSize,
	}
}

func (c *Client) GetUserID() uuid.UUID {
	return c.UserID
}

// QueueBytes 非阻塞写入发送缓冲
func (c *Client) QueueBytes(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close 关闭发送通道，WritePump 随后发送 close 帧并退出。可重复调用
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) queueFrame(frame *feed.Frame) {
	data, err := frame.Marshal()
	if err != nil {
		logger.L.Error("Failed to marshal frame", zap.Error(err))
		return
	}
	if err := c.QueueBytes(data); err != nil {
		logger.L.Warn("Failed to queue frame", zap.String("userID", c.UserID.String()), zap.Error(err))
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.broker.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L.Warn("Unexpected websocket close", zap.String("userID", c.UserID.String()), zap.Error(err))
			} else {
				logger.L.Debug("Websocket read finished", zap.String("userID", c.UserID.String()), zap.Error(err))
			}
			break
		}

		if messageType != websocket.TextMessage {
			logger.L.Warn("Received non-text message, ignoring",
				zap.Int("messageType", messageType), zap.String("userID", c.UserID.String()))
			continue
		}

		var frame feed.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.queueFrame(&feed.Frame{Type: feed.FrameError, Error: "malformed frame"})
			continue
		}
		if frame.Type == feed.FramePing {
			c.queueFrame(&feed.Frame{Type: feed.FramePong, Ref: frame.Ref})
			continue
		}
		c.handler.HandleFrame(c, &frame)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				// Send 通道已关闭
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.L.Debug("Failed to write message", zap.String("userID", c.UserID.String()), zap.Error(err))
				return
			}

			// 顺带把缓冲里已有的帧一起写出
			n := len(c.Send)
			for range n {
				batch, ok := <-c.Send
				if !ok {
					c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, batch); err != nil {
					logger.L.Debug("Failed to write batched message", zap.String("userID", c.UserID.String()), zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.L.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
