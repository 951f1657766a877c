package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/npezzotti/studyroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_queueMessage(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		res := c.queueMessage(&ServerMessage{})
		assert.True(t, res, "expected queueMessage to return true when channel is not full")

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg, "expected a message to be sent to the client")
		default:
			t.Error("expected a message to be sent to the client, but none was sent")
		}
	})
	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		c.send <- &ServerMessage{}
		res := c.queueMessage(&ServerMessage{})
		assert.False(t, res, "expected queueMessage to return false when channel is full")
	})
}

func Test_stopClient(t *testing.T) {
	c := &Client{
		stop: make(chan struct{}),
	}

	c.stopClient()
	assert.NotPanics(t, c.stopClient, "expected second stop to be a no-op")

	select {
	case <-c.stop:
		// Channel is closed as expected
	default:
		t.Error("expected stop channel to be closed")
	}
}

func Test_parseEvent(t *testing.T) {
	t.Run("valid events", func(t *testing.T) {
		cs := newTestChatServer(t)
		c := newTestClient(t, cs, "conn-1")

		msg, ok := c.parseEvent([]byte(`{"join":{"roomId":"study1","nickname":"alice","role":"host"}}`))
		require.True(t, ok)
		assert.Equal(t, c, msg.client, "expected client to be attached")
		assert.Equal(t, &Join{RoomId: "study1", Nickname: "alice", Role: "host"}, msg.Join)

		msg, ok = c.parseEvent([]byte(`{"chat_send":{"text":"hi"}}`))
		require.True(t, ok)
		assert.Equal(t, &ChatSend{Text: "hi"}, msg.ChatSend)

		msg, ok = c.parseEvent([]byte(`{"typing":{"roomId":"study1","typing":true}}`))
		require.True(t, ok)
		assert.Equal(t, &Typing{RoomId: "study1", Typing: true}, msg.Typing)

		msg, ok = c.parseEvent([]byte(`{"leave":{}}`))
		require.True(t, ok)
		assert.NotNil(t, msg.Leave)
	})

	t.Run("invalid json is dropped", func(t *testing.T) {
		cs := newTestChatServer(t)
		c := newTestClient(t, cs, "conn-1")

		_, ok := c.parseEvent([]byte(`{not json`))
		assert.False(t, ok)
		assert.Empty(t, drain(c), "expected no reply for malformed frames")
	})

	t.Run("typing over the rate limit is dropped", func(t *testing.T) {
		cs := newTestChatServer(t)
		c := newTestClient(t, cs, "conn-1")

		accepted := 0
		for range typingBurst + 5 {
			if _, ok := c.parseEvent([]byte(`{"typing":{"typing":true}}`)); ok {
				accepted++
			}
		}

		assert.GreaterOrEqual(t, accepted, typingBurst)
		assert.Less(t, accepted, typingBurst+5, "expected some typing events to be dropped")
	})

	t.Run("other events are not rate limited", func(t *testing.T) {
		cs := newTestChatServer(t)
		c := newTestClient(t, cs, "conn-1")

		for range typingBurst + 5 {
			c.parseEvent([]byte(`{"typing":{"typing":true}}`))
		}

		tcases := []string{
			`{"join":{"roomId":"study1","nickname":"alice"}}`,
			`{"chat_send":{"text":"hi"}}`,
			`{"leave":{}}`,
		}
		for range 3 {
			for _, raw := range tcases {
				_, ok := c.parseEvent([]byte(raw))
				assert.True(t, ok, "expected %s to be accepted after a typing burst", raw)
			}
		}
	})
}

func Test_eventsAfterTypingBurst(t *testing.T) {
	cs := newTestChatServer(t)
	host := newTestClient(t, cs, "conn-1")
	join(cs, host, "study1", "alice", "host")

	deliver := func(raw string) {
		msg, ok := host.parseEvent([]byte(raw))
		if ok {
			cs.handleEvent(msg)
		}
	}

	for range typingBurst + 5 {
		deliver(`{"typing":{"typing":true}}`)
	}
	drain(host)

	deliver(`{"chat_send":{"text":"still here"}}`)
	assert.Equal(t, []string{"still here"}, chatTexts(drain(host)), "expected chat to be delivered")

	deliver(`{"leave":{}}`)
	msgs := drain(host)
	require.NotEmpty(t, msgs)
	assert.Equal(t, &Left{Ok: true}, msgs[len(msgs)-1].Left, "expected leave to be acknowledged")
	_, exists := cs.registry.Get("study1")
	assert.False(t, exists, "expected empty room to be removed")
}

func Test_cleanupAfterStop(t *testing.T) {
	cs := newTestChatServer(t)
	close(cs.done)

	c := newTestClient(t, cs, "conn-1")
	assert.NotPanics(t, c.cleanup, "expected cleanup not to block once the server is done")
}

func Test_WriteFlushesOnStop(t *testing.T) {
	cs := newTestChatServer(t)
	c := newTestClient(t, cs, "conn-1")

	c.queueMessage(NewParticipants(nil))
	c.queueMessage(NewErrorMsg("room is full"))
	c.stopClient()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c.conn = conn
		c.Write()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frames []string
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "expected close frame, got %v", err)
			break
		}
		frames = append(frames, string(raw))
	}

	require.Len(t, frames, 2, "expected queued messages before the close frame")
	assert.Contains(t, frames[0], `"participants"`)
	assert.Contains(t, frames[1], `"room is full"`)
}
