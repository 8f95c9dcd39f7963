package websocket

import (
	"errors"

	"sfu-globe/internal/interfaces"
)

var (
	ErrSendBufferFull = errors.New("client send buffer is full")
	ErrClientClosed   = errors.New("client is closed")
	ErrHubFull        = errors.New("hub broadcast channel is full")
)

var (
	_ interfaces.Client = (*Client)(nil)
	_ interfaces.Broker = (*Hub)(nil)
	_ interfaces.Broker = (*KafkaHub)(nil)
	_ interfaces.Broker = (*NATSHub)(nil)
)
