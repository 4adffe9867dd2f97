package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ac-server/config"
	"ac-server/internal/model"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// Authenticator 把令牌解析为玩家标识，未绑定游戏角色的用户应返回错误
type Authenticator func(ctx context.Context, token string) (string, error)

// Announcements 连接建立时补发未读公告，客户端确认后标记已读
type Announcements interface {
	Unread(principal string) []model.Announcement
	MarkRead(ctx context.Context, id, principal string) (bool, error)
}

// clientMessage 客户端发来的消息
type clientMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Handler WebSocket 接入
type Handler struct {
	hub           *Hub
	auth          Authenticator
	announcements Announcements
	cfg           config.WebSocketConfig
	log           *zap.Logger
}

// NewHandler 创建 WebSocket 处理器
func NewHandler(hub *Hub, auth Authenticator, announcements Announcements, cfg config.WebSocketConfig, log *zap.Logger) *Handler {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 2 * cfg.PingInterval
	}
	return &Handler{hub: hub, auth: auth, announcements: announcements, cfg: cfg, log: log.Named("ws")}
}

// Serve Gin路由处理函数
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, "缺少token")
		return
	}
	principal, err := h.auth(c.Request.Context(), token)
	if err != nil {
		response.Unauthorized(c, "token无效或未绑定游戏角色")
		return
	}

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		return
	}
	defer conn.Close()

	client := NewClient(principal)
	h.hub.AddClient(client)
	defer h.hub.RemoveClient(client)

	// 写协程 + 定时发送ping心跳
	done := make(chan struct{})
	go h.writeLoop(conn, client, done)

	// 连接建立后补发未读公告
	for _, a := range h.announcements.Unread(principal) {
		if msg, err := json.Marshal(announcementEvent(a)); err == nil {
			select {
			case client.Send <- msg:
			default:
			}
		}
	}

	// 读协程：若超时未收到任何读事件则断开
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "ack_read":
			if msg.ID == "" {
				continue
			}
			if _, err := h.announcements.MarkRead(c.Request.Context(), msg.ID, principal); err != nil {
				h.log.Debug("标记公告已读失败", zap.String("id", msg.ID), zap.Error(err))
			}
		case "heartbeat":
			// 读超时已在上面刷新
		}
	}
	close(done)
}

func (h *Handler) writeLoop(conn *websocket.Conn, client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
