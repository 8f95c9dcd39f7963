package api

import (
	"net/http"
	"slices"

	"sfu-globe/internal/interfaces"
	internalws "sfu-globe/internal/websocket"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	upgrader     websocket.Upgrader
	broker       interfaces.Broker
	frameHandler interfaces.FrameHandler
	wsConfig     config.WebSocketConfig
}

// allowedOrigins 为空时允许所有来源
func NewWSHandler(broker interfaces.Broker, frameHandler interfaces.FrameHandler, wsConfig config.WebSocketConfig, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		broker:       broker,
		frameHandler: frameHandler,
		wsConfig:     wsConfig,
	}
}

func (h *WSHandler) HandleConnection(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L.Error("Failed to upgrade WebSocket connection", zap.String("userID", userID.String()), zap.Error(err))
		return
	}
	logger.L.Info("WebSocket connection upgraded", zap.String("userID", userID.String()))

	client := internalws.NewClient(userID, conn, h.frameHandler, h.broker, h.wsConfig)
	h.broker.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
