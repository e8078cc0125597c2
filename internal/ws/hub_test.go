package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/models"
)

// staticMembership scopes fan-out to a fixed user set per channel.
type staticMembership map[int64][]int64

func (m staticMembership) IsMember(channelID, userID int64) bool {
	for _, id := range m[channelID] {
		if id == userID {
			return true
		}
	}
	return false
}

func addClient(h *Hub, userID int64) *Client {
	c := &Client{hub: h, userID: userID, send: make(chan []byte, 16)}
	h.register <- c
	return c
}

func TestHub_FanOutScopedToMembers(t *testing.T) {
	h := NewHub(staticMembership{7: {1}}, zap.NewNop())
	go h.Run()

	member := addClient(h, 1)
	outsider := addClient(h, 2)

	h.MessageSent(7, models.Message{ID: 10, AuthorID: 1, Text: "hello"})

	select {
	case payload := <-member.send:
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		assert.Equal(t, "message", ev.Type)
		assert.Equal(t, int64(7), ev.ChannelID)
		assert.Equal(t, "hello", ev.Message.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("member never received the event")
	}

	select {
	case <-outsider.send:
		t.Fatal("non-member received a channel event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	h := NewHub(staticMembership{}, zap.NewNop())
	go h.Run()

	c := addClient(h, 1)
	h.unregister <- c

	select {
	case _, open := <-c.send:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("send channel never closed")
	}
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	h := NewHub(staticMembership{7: {1, 2}}, zap.NewNop())
	go h.Run()

	// The slow client's buffer is pre-filled and never drained, so the
	// hub cannot hand the event off and must take the drop path. The
	// healthy client doubles as an ordering signal: once it has received
	// the event, the hub has finished visiting every client for it.
	slow := &Client{hub: h, userID: 1, send: make(chan []byte, 1)}
	slow.send <- []byte("backlog")
	h.register <- slow
	healthy := addClient(h, 2)

	h.MessageSent(7, models.Message{ID: 1, Text: "hello"})

	select {
	case <-healthy.send:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy client never received the event")
	}

	// The stale buffered payload drains first, then the close shows.
	select {
	case payload, open := <-slow.send:
		require.True(t, open)
		assert.Equal(t, []byte("backlog"), payload)
	case <-time.After(2 * time.Second):
		t.Fatal("buffered payload was lost")
	}
	select {
	case _, open := <-slow.send:
		assert.False(t, open, "send channel should be closed after the drop")
	case <-time.After(2 * time.Second):
		t.Fatal("slow consumer was never dropped")
	}
}
