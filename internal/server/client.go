package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256

	typingRate  = rate.Limit(10)
	typingBurst = 20
)

type Client struct {
	id         string
	conn       *websocket.Conn
	chatServer *ChatServer
	log        zerolog.Logger
	send       chan *ServerMessage
	stop       chan struct{}
	stopOnce   sync.Once

	typingLimiter *rate.Limiter
}

func NewClient(conn *websocket.Conn, cs *ChatServer, l zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:         id,
		conn:       conn,
		chatServer: cs,
		log:        l.With().Str("conn_id", id).Logger(),
		send:       make(chan *ServerMessage, sendBufferSize),
		stop:       make(chan struct{}),

		typingLimiter: rate.NewLimiter(typingRate, typingBurst),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Debug().Msg("write exiting")
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Error().Err(err).Msg("failed to serialize message")
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			c.flush()
			c.sendMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// flush writes whatever is still queued without waiting for more.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Error().Err(err).Msg("failed to serialize message")
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Debug().Msg("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("ws read")
			}
			break
		}

		msg, ok := c.parseEvent(raw)
		if !ok {
			continue
		}

		if !c.chatServer.send(msg) {
			return
		}
	}
}

// parseEvent decodes one inbound frame. Frames that are not valid JSON are
// dropped, as are typing updates over the rate limit. Other events always go
// through.
func (c *Client) parseEvent(raw []byte) (*ClientMessage, bool) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.log.Debug().Err(err).Msg("error parsing message")
		return nil, false
	}

	if msg.Typing != nil && !c.typingLimiter.Allow() {
		c.log.Debug().Msg("typing rate exceeded, dropping event")
		return nil, false
	}

	msg.client = c
	return &msg, true
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Warn().Msg("failed to send message to client, channel is full")
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Warn().Err(err).Msg("write message")
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanup hands the connection back to the chat server as a disconnect.
func (c *Client) cleanup() {
	select {
	case c.chatServer.deRegisterChan <- c:
	case <-c.chatServer.done:
	}
	c.stopClient()
}
