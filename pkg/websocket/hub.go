package websocket

import (
	"encoding/json"
	"sync"

	"ac-server/internal/model"

	"go.uber.org/zap"
)

// Client 一个WebSocket连接
// Principal: 玩家标识（游戏UUID）
// Send: 待发送消息的通道，由写协程消费
type Client struct {
	Principal string
	Send      chan []byte
}

// NewClient 创建连接，缓冲区满时新消息会被丢弃
func NewClient(principal string) *Client {
	return &Client{Principal: principal, Send: make(chan []byte, 64)}
}

// Event 推送给客户端的消息
type Event struct {
	Type         string               `json:"type"`
	Announcement *AnnouncementPayload `json:"announcement,omitempty"`
}

// AnnouncementPayload 推送的公告内容
type AnnouncementPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
	Author   string `json:"author"`
}

// EventAnnouncement 公告推送事件类型
const EventAnnouncement = "announcement"

func announcementEvent(a model.Announcement) Event {
	return Event{
		Type: EventAnnouncement,
		Announcement: &AnnouncementPayload{
			ID:       a.ID,
			Title:    a.Title,
			Content:  a.Content,
			Priority: a.Priority,
			Author:   a.Author,
		},
	}
}

// Hub 管理所有在线连接，同一玩家可以有多个连接
type Hub struct {
	clients map[string]map[*Client]struct{}
	lock    sync.RWMutex
	log     *zap.Logger
}

// NewHub 创建连接管理器
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log.Named("ws"),
	}
}

// AddClient 添加新连接
func (h *Hub) AddClient(c *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	set, ok := h.clients[c.Principal]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.Principal] = set
	}
	set[c] = struct{}{}
}

// RemoveClient 移除连接并关闭发送通道
func (h *Hub) RemoveClient(c *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	set, ok := h.clients[c.Principal]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.Principal)
	}
}

// IsOnline 玩家是否有在线连接
func (h *Hub) IsOnline(principal string) bool {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients[principal]) > 0
}

// Count 在线连接数
func (h *Hub) Count() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// SendTo 推送给指定玩家的全部连接
func (h *Hub) SendTo(principal string, msg []byte) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for c := range h.clients[principal] {
		h.deliver(c, msg)
	}
}

// Broadcast 推送给所有连接
func (h *Hub) Broadcast(msg []byte) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			h.deliver(c, msg)
		}
	}
}

// PublishAnnouncement 广播新发送的公告
func (h *Hub) PublishAnnouncement(a model.Announcement) {
	msg, err := json.Marshal(announcementEvent(a))
	if err != nil {
		h.log.Error("序列化公告失败", zap.String("id", a.ID), zap.Error(err))
		return
	}
	h.Broadcast(msg)
}

// deliver 调用方持有读锁，连接的通道不会在此期间关闭
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		// 缓冲区已满，客户端处理过慢
		h.log.Warn("推送缓冲区已满，丢弃消息", zap.String("player", c.Principal))
	}
}
