package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"sfu-globe/internal/interfaces"
	"sfu-globe/internal/testutil"
	"sfu-globe/pkg/feed"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	userID uuid.UUID
	mu     sync.Mutex
	frames []feed.Frame
}

func (c *fakeClient) GetUserID() uuid.UUID { return c.userID }
func (c *fakeClient) Close()               {}

func (c *fakeClient) QueueBytes(data []byte) error {
	var f feed.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeClient) last() feed.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[len(c.frames)-1]
}

type fakeBroker struct {
	recordingPublisher
	subscribed map[string]bool
}

func (b *fakeBroker) Register(interfaces.Client)   {}
func (b *fakeBroker) Unregister(interfaces.Client) {}

func (b *fakeBroker) Subscribe(_ interfaces.Client, topic string) {
	b.subscribed[topic] = true
}

func (b *fakeBroker) Unsubscribe(_ interfaces.Client, topic string) {
	delete(b.subscribed, topic)
}

func TestRealtimeService_Subscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, f.db, "alice")
	other := testutil.CreateProfile(t, f.db, "bob")
	joined := testutil.CreateClub(t, f.db, "CSSS")
	notJoined := testutil.CreateClub(t, f.db, "WiCS")
	_, _, err := f.memberships.Join(ctx, user.ID, joined.ID)
	require.NoError(t, err)

	broker := &fakeBroker{subscribed: map[string]bool{}}
	rt := NewRealtimeService(broker, f.memberships, f.messages)
	client := &fakeClient{userID: user.ID}

	tests := []struct {
		name    string
		topic   string
		wantAck bool
	}{
		{"own memberships", feed.MembershipTopic(user.ID), true},
		{"someone else's memberships", feed.MembershipTopic(other.ID), false},
		{"joined club messages", feed.MessagesTopic(joined.ID), true},
		{"other club messages", feed.MessagesTopic(notJoined.ID), false},
		{"club list", feed.ClubsTopic(), true},
		{"attendance", feed.AttendanceTopic("CMPT276"), true},
		{"malformed", "club_messages:club_id", false},
		{"unknown table", "profiles", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt.HandleFrame(client, &feed.Frame{Type: feed.FrameSubscribe, Ref: tt.name, Topic: tt.topic})
			reply := client.last()
			assert.Equal(t, tt.name, reply.Ref)
			if tt.wantAck {
				assert.Equal(t, feed.FrameAck, reply.Type)
				assert.True(t, broker.subscribed[tt.topic])
			} else {
				assert.Equal(t, feed.FrameError, reply.Type)
				assert.NotEmpty(t, reply.Error)
				assert.False(t, broker.subscribed[tt.topic])
			}
		})
	}

	rt.HandleFrame(client, &feed.Frame{Type: feed.FrameUnsubscribe, Topic: feed.ClubsTopic()})
	assert.Equal(t, feed.FrameAck, client.last().Type)
	assert.False(t, broker.subscribed[feed.ClubsTopic()])
}

func TestRealtimeService_SubscribeCanonicalisesIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, f.db, "alice")
	club := testutil.CreateClub(t, f.db, "CSSS")
	_, _, err := f.memberships.Join(ctx, user.ID, club.ID)
	require.NoError(t, err)

	broker := &fakeBroker{subscribed: map[string]bool{}}
	rt := NewRealtimeService(broker, f.memberships, f.messages)
	client := &fakeClient{userID: user.ID}

	tests := []struct {
		name  string
		raw   string
		topic string
	}{
		{"messages", "club_messages:club_id=" + strings.ToUpper(club.ID.String()), feed.MessagesTopic(club.ID)},
		{"memberships", "club_memberships:user_id=" + strings.ToUpper(user.ID.String()), feed.MembershipTopic(user.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt.HandleFrame(client, &feed.Frame{Type: feed.FrameSubscribe, Ref: tt.name, Topic: tt.raw})
			require.Equal(t, feed.FrameAck, client.last().Type)
			assert.True(t, broker.subscribed[tt.topic])
			assert.False(t, broker.subscribed[tt.raw])

			rt.HandleFrame(client, &feed.Frame{Type: feed.FrameUnsubscribe, Topic: tt.raw})
			assert.False(t, broker.subscribed[tt.topic])
		})
	}
}

func TestRealtimeService_Send(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateProfile(t, f.db, "alice")
	club := testutil.CreateClub(t, f.db, "GameDev")
	_, _, err := f.memberships.Join(ctx, user.ID, club.ID)
	require.NoError(t, err)

	broker := &fakeBroker{subscribed: map[string]bool{}}
	rt := NewRealtimeService(broker, f.memberships, f.messages)
	client := &fakeClient{userID: user.ID}

	rt.HandleFrame(client, &feed.Frame{Type: feed.FrameSend, Ref: "1", Topic: feed.MessagesTopic(club.ID), Content: "hello"})
	assert.Equal(t, feed.FrameAck, client.last().Type)
	assert.Len(t, f.pub.OnTopic(feed.MessagesTopic(club.ID)), 1)

	rt.HandleFrame(client, &feed.Frame{Type: feed.FrameSend, Ref: "2", Topic: feed.MessagesTopic(club.ID), Content: "  "})
	assert.Equal(t, feed.FrameError, client.last().Type)
	assert.Equal(t, ErrEmptyMessage.Error(), client.last().Error)

	rt.HandleFrame(client, &feed.Frame{Type: feed.FrameSend, Ref: "3", Topic: feed.ClubsTopic(), Content: "hello"})
	assert.Equal(t, feed.FrameError, client.last().Type)

	rt.HandleFrame(client, &feed.Frame{Type: "bogus"})
	assert.Equal(t, feed.FrameError, client.last().Type)
}
