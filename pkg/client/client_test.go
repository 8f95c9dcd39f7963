package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"sfu-globe/internal/api"
	"sfu-globe/internal/metrics"
	"sfu-globe/internal/model"
	"sfu-globe/internal/testutil"
	internalws "sfu-globe/internal/websocket"
	"sfu-globe/pkg/feed"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	url string
	db  *gorm.DB
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testutil.Config(t)
	cfg.File.StoragePath = t.TempDir()
	conn := testutil.NewDB(t)

	m := metrics.New()
	hub := internalws.NewHub(cfg.WebSocket, m)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	svc, err := api.NewServices(cfg, conn, hub)
	require.NoError(t, err)
	server := httptest.NewServer(api.NewRouter(cfg, svc, hub, m))
	t.Cleanup(server.Close)

	return &testServer{url: server.URL, db: conn}
}

// loggedIn 注册并登录一个新用户
func (s *testServer) loggedIn(t *testing.T, name, studentID string) *Client {
	t.Helper()
	c := New(s.url)
	ctx := context.Background()
	_, err := c.Session().Register(ctx, RegisterRequest{
		Email:     name + "@sfu.ca",
		Password:  "password123",
		FullName:  name,
		StudentID: studentID,
	})
	require.NoError(t, err)
	_, err = c.Session().Login(ctx, name+"@sfu.ca", "password123")
	require.NoError(t, err)
	return c
}

func connect(t *testing.T, c *Client) *Realtime {
	t.Helper()
	rt, err := c.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func waitReady(t *testing.T, ready <-chan struct{}) {
	t.Helper()
	select {
	case <-ready:
	case <-time.After(3 * time.Second):
		t.Fatal("component did not become ready")
	}
}

func TestSession(t *testing.T) {
	srv := startServer(t)
	c := New(srv.url)
	ctx := context.Background()

	assert.False(t, c.Session().IsAuthenticated())
	_, err := c.Connect(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	var seen []*Profile
	stop := c.Session().OnChange(func(p *Profile) { seen = append(seen, p) })
	defer stop()

	_, err = c.Session().Register(ctx, RegisterRequest{
		Email: "alice@sfu.ca", Password: "password123", FullName: "Alice", StudentID: "301000001",
	})
	require.NoError(t, err)

	_, err = c.Session().Login(ctx, "alice@sfu.ca", "wrong-password")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	user, err := c.Session().Login(ctx, "alice@sfu.ca", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FullName)
	assert.True(t, c.Session().IsAuthenticated())

	token := c.Session().Token()
	c.Session().Logout()
	assert.Nil(t, c.Session().User())
	require.Len(t, seen, 2)
	assert.NotNil(t, seen[0])
	assert.Nil(t, seen[1])

	restored, err := c.Session().Restore(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, restored.ID)
}

func TestClubDirectory(t *testing.T) {
	srv := startServer(t)
	testutil.CreateClub(t, srv.db, "Computing Science Student Society")
	testutil.CreateClub(t, srv.db, "Women in Computing Science")
	dance := testutil.CreateClub(t, srv.db, "Dance Club")

	c := srv.loggedIn(t, "alice", "301000001")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := NewClubDirectory(c)
	require.NoError(t, dir.Load(ctx))
	require.Len(t, dir.Clubs(), 3)

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"Computing Science Student Society", "Dance Club", "Women in Computing Science"}},
		{"computing", []string{"Computing Science Student Society", "Women in Computing Science"}},
		{"DANCE", []string{"Dance Club"}},
		{"chess", []string{}},
	}
	for _, tt := range tests {
		t.Run("search "+tt.term, func(t *testing.T) {
			names := []string{}
			for _, club := range dir.Search(tt.term) {
				names = append(names, club.Name)
			}
			sort.Strings(names)
			assert.Equal(t, tt.want, names)
		})
	}

	rt := connect(t, c)
	go dir.Watch(ctx, rt)
	// Watch 订阅完成前的事件会丢失，重复加入直到看到人数变化
	require.Eventually(t, func() bool {
		if _, err := c.Leave(ctx, dance.ID); err != nil {
			return false
		}
		if _, err := c.Join(ctx, dance.ID); err != nil {
			return false
		}
		time.Sleep(50 * time.Millisecond)
		for _, club := range dir.Clubs() {
			if club.ID == dance.ID {
				return club.Members == 1
			}
		}
		return false
	}, 3*time.Second, 100*time.Millisecond)
}

func TestMembershipSync(t *testing.T) {
	srv := startServer(t)
	club := testutil.CreateClub(t, srv.db, "Game Development Club")
	c := srv.loggedIn(t, "alice", "301000001")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动前已经加入的俱乐部在首次拉取时出现
	preJoined := testutil.CreateClub(t, srv.db, "Photography Club")
	_, err := c.Join(ctx, preJoined.ID)
	require.NoError(t, err)

	ms := NewMembershipSync(c, connect(t, c))
	done := make(chan error, 1)
	go func() { done <- ms.Run(ctx) }()
	waitReady(t, ms.Ready())
	assert.True(t, ms.IsJoined(preJoined.ID))

	require.NoError(t, ms.Toggle(ctx, club.ID))
	require.Eventually(t, func() bool { return ms.IsJoined(club.ID) }, 3*time.Second, 20*time.Millisecond)

	// 重复加入不会产生第二行
	created, err := c.Join(ctx, club.ID)
	require.NoError(t, err)
	assert.False(t, created)
	memberships, err := c.MyMemberships(ctx)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)

	require.NoError(t, ms.Toggle(ctx, club.ID))
	require.Eventually(t, func() bool { return !ms.IsJoined(club.ID) }, 3*time.Second, 20*time.Millisecond)

	// 未加入时退出是空操作
	removed, err := c.Leave(ctx, club.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	// 登出后同步结束
	c.Session().Logout()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop after logout")
	}
}

func TestMessagingPanelEchoesOwnMessage(t *testing.T) {
	srv := startServer(t)
	club := testutil.CreateClub(t, srv.db, "Sustainability Club")
	alice := srv.loggedIn(t, "Alice", "301000001")
	bob := srv.loggedIn(t, "Bob", "301000002")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, c := range []*Client{alice, bob} {
		_, err := c.Join(ctx, club.ID)
		require.NoError(t, err)
	}

	_, err := bob.SendMessage(ctx, club.ID, "history message")
	require.NoError(t, err)

	panel := NewMessagingPanel(alice, connect(t, alice), club.ID)
	arrived := make(chan PanelMessage, 10)
	panel.OnMessage(func(m PanelMessage) { arrived <- m })
	go panel.Run(ctx)
	waitReady(t, panel.Ready())

	first := <-arrived
	assert.Equal(t, "history message", first.Content)
	assert.Equal(t, "Bob", first.SenderName)

	require.NoError(t, panel.Send(ctx, "hello from alice"))
	// Send 不在本地追加
	assert.Len(t, panel.Messages(), 1)

	select {
	case m := <-arrived:
		assert.Equal(t, "hello from alice", m.Content)
		assert.Equal(t, "Alice", m.SenderName)
	case <-time.After(3 * time.Second):
		t.Fatal("sent message was not echoed back")
	}
	assert.Len(t, panel.Messages(), 2)

	err = panel.Send(ctx, "   ")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestMessagingPanelUnknownSender(t *testing.T) {
	srv := startServer(t)
	club := testutil.CreateClub(t, srv.db, "Dance Club")
	alice := srv.loggedIn(t, "Alice", "301000001")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := alice.Join(ctx, club.ID)
	require.NoError(t, err)

	// 发送者的资料已经不存在
	ghost := uuid.New()
	require.NoError(t, srv.db.Create(&model.ClubMessage{
		ClubID:    club.ID,
		UserID:    ghost,
		Content:   "orphaned",
		CreatedAt: time.Now().UTC(),
	}).Error)

	panel := NewMessagingPanel(alice, connect(t, alice), club.ID)
	go panel.Run(ctx)
	waitReady(t, panel.Ready())

	messages := panel.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, UnknownUser, messages[0].SenderName)
}

func TestLeaveEndsClubMessageFeed(t *testing.T) {
	srv := startServer(t)
	club := testutil.CreateClub(t, srv.db, "CSSS")
	alice := srv.loggedIn(t, "alice", "301000001")
	bob := srv.loggedIn(t, "bob", "301000002")
	ctx := context.Background()

	for _, c := range []*Client{alice, bob} {
		_, err := c.Join(ctx, club.ID)
		require.NoError(t, err)
	}

	topic := feed.MessagesTopic(club.ID)
	aliceSub, err := connect(t, alice).Subscribe(ctx, topic)
	require.NoError(t, err)
	bobSub, err := connect(t, bob).Subscribe(ctx, topic)
	require.NoError(t, err)

	removed, err := alice.Leave(ctx, club.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = alice.Messages(ctx, club.ID, 0)
	assert.True(t, IsStatus(err, http.StatusForbidden))

	_, err = bob.SendMessage(ctx, club.ID, "secret plans")
	require.NoError(t, err)

	// bob 收到之后，同一事件已经分发完毕
	select {
	case ev := <-bobSub.Events():
		assert.Equal(t, feed.Insert, ev.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("member did not receive the message")
	}
	select {
	case ev, ok := <-aliceSub.Events():
		if ok {
			t.Fatalf("former member received %s", ev.Record)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestResubscribeDuringUnsubscribeKeepsFeed(t *testing.T) {
	srv := startServer(t)
	club := testutil.CreateClub(t, srv.db, "CSSS")
	alice := srv.loggedIn(t, "alice", "301000001")
	ctx := context.Background()
	_, err := alice.Join(ctx, club.ID)
	require.NoError(t, err)

	rt := connect(t, alice)
	topic := feed.MessagesTopic(club.ID)
	first, err := rt.Subscribe(ctx, topic)
	require.NoError(t, err)

	// 最后一个订阅者已摘除但退订帧还没写出时，新的订阅到达
	require.True(t, rt.detach(first))
	second, err := rt.Subscribe(ctx, topic)
	require.NoError(t, err)
	rt.unsubscribeIfIdle(topic)

	_, err = alice.SendMessage(ctx, club.ID, "still here")
	require.NoError(t, err)
	select {
	case ev := <-second.Events():
		assert.Equal(t, feed.Insert, ev.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("new subscription lost its feed")
	}
}
