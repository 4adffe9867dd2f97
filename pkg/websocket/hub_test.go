package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ac-server/config"
	"ac-server/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubAddRemove(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a1 := NewClient("steve")
	a2 := NewClient("steve")
	b := NewClient("alex")
	hub.AddClient(a1)
	hub.AddClient(a2)
	hub.AddClient(b)

	assert.True(t, hub.IsOnline("steve"))
	assert.Equal(t, 3, hub.Count())

	hub.SendTo("steve", []byte("hi"))
	assert.Equal(t, "hi", string(<-a1.Send))
	assert.Equal(t, "hi", string(<-a2.Send))
	assert.Empty(t, b.Send)

	hub.RemoveClient(a1)
	hub.RemoveClient(a1)
	_, open := <-a1.Send
	assert.False(t, open)
	assert.True(t, hub.IsOnline("steve"))

	hub.RemoveClient(a2)
	assert.False(t, hub.IsOnline("steve"))
	assert.Equal(t, 1, hub.Count())
}

func TestHubPublishAnnouncementDropsWhenFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := NewClient("steve")
	hub.AddClient(c)

	for i := 0; i < cap(c.Send)+5; i++ {
		hub.PublishAnnouncement(model.Announcement{ID: "a1", Title: "t"})
	}
	assert.Len(t, c.Send, cap(c.Send))

	var ev Event
	require.NoError(t, json.Unmarshal(<-c.Send, &ev))
	assert.Equal(t, EventAnnouncement, ev.Type)
	require.NotNil(t, ev.Announcement)
	assert.Equal(t, "a1", ev.Announcement.ID)
}

// fakeAnnouncements 记录确认已读的公告
type fakeAnnouncements struct {
	mu     sync.Mutex
	unread []model.Announcement
	read   []string
}

func (f *fakeAnnouncements) Unread(principal string) []model.Announcement {
	return f.unread
}

func (f *fakeAnnouncements) MarkRead(ctx context.Context, id, principal string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, principal+"/"+id)
	return true, nil
}

func (f *fakeAnnouncements) readIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.read...)
}

func newWSServer(t *testing.T, hub *Hub, anns Announcements) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := func(ctx context.Context, token string) (string, error) {
		if token != "good" {
			return "", errors.New("bad token")
		}
		return "uuid-steve", nil
	}
	h := NewHandler(hub, auth, anns, config.WebSocketConfig{PingInterval: time.Second}, zap.NewNop())
	r := gin.New()
	r.GET("/ws", h.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	return ev
}

func TestHandlerPushesUnreadAndBroadcasts(t *testing.T) {
	hub := NewHub(zap.NewNop())
	anns := &fakeAnnouncements{unread: []model.Announcement{{ID: "old", Title: "旧公告"}}}
	srv := newWSServer(t, hub, anns)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=good"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	ev := readEvent(t, conn)
	assert.Equal(t, "old", ev.Announcement.ID)

	require.Eventually(t, func() bool { return hub.IsOnline("uuid-steve") }, 2*time.Second, 10*time.Millisecond)
	hub.PublishAnnouncement(model.Announcement{ID: "new", Title: "新公告", Priority: 5})
	ev = readEvent(t, conn)
	assert.Equal(t, "new", ev.Announcement.ID)
	assert.Equal(t, 5, ev.Announcement.Priority)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ack_read", "id": "new"}))
	require.Eventually(t, func() bool {
		ids := anns.readIDs()
		return len(ids) == 1 && ids[0] == "uuid-steve/new"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !hub.IsOnline("uuid-steve") }, 2*time.Second, 10*time.Millisecond)
}

func TestHandlerRejectsBadToken(t *testing.T) {
	srv := newWSServer(t, NewHub(zap.NewNop()), &fakeAnnouncements{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bad"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
}
