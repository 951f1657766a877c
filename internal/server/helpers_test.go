package server

import (
	"testing"

	"github.com/npezzotti/studyroom/internal/stats"
	"github.com/npezzotti/studyroom/internal/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestChatServer(t *testing.T) *ChatServer {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return().Times(3)
	su.On("Incr", mock.Anything).Return().Maybe()
	su.On("Decr", mock.Anything).Return().Maybe()

	cs, err := NewChatServer(testutil.TestLogger(t), NewRegistry(), su)
	require.NoError(t, err, "failed to create test ChatServer")
	return cs
}

func newTestClient(t *testing.T, cs *ChatServer, id string) *Client {
	return &Client{
		id:         id,
		chatServer: cs,
		log:        testutil.TestLogger(t),
		send:       make(chan *ServerMessage, sendBufferSize),
		stop:       make(chan struct{}),

		typingLimiter: rate.NewLimiter(typingRate, typingBurst),
	}
}

// drain returns everything queued for c without blocking.
func drain(c *Client) []*ServerMessage {
	var msgs []*ServerMessage
	for {
		select {
		case msg := <-c.send:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func join(cs *ChatServer, c *Client, roomId, nickname, role string) {
	cs.handleEvent(&ClientMessage{
		Join:   &Join{RoomId: roomId, Nickname: nickname, Role: role},
		client: c,
	})
}

func chatSend(cs *ChatServer, c *Client, roomId, text string) {
	cs.handleEvent(&ClientMessage{
		ChatSend: &ChatSend{RoomId: roomId, Text: text},
		client:   c,
	})
}

func lastParticipants(msgs []*ServerMessage) *Participants {
	var p *Participants
	for _, msg := range msgs {
		if msg.Participants != nil {
			p = msg.Participants
		}
	}
	return p
}

func errorMessages(msgs []*ServerMessage) []string {
	var errs []string
	for _, msg := range msgs {
		if msg.ErrorMsg != nil {
			errs = append(errs, msg.ErrorMsg.Message)
		}
	}
	return errs
}

func chatTexts(msgs []*ServerMessage) []string {
	var texts []string
	for _, msg := range msgs {
		if msg.Chat != nil {
			texts = append(texts, msg.Chat.Text)
		}
	}
	return texts
}
