package server

import (
	"context"
	"errors"

	"github.com/npezzotti/studyroom/internal/stats"
	"github.com/npezzotti/studyroom/internal/types"
	"github.com/rs/zerolog"
)

const (
	metricActiveConnections = "ActiveConnections"
	metricActiveRooms       = "ActiveRooms"
	metricMessagesSent      = "MessagesSent"
)

var ErrServerStopped = errors.New("chat server stopped")

// SessionContext is what a connection has told us about itself. It is
// replaced as a whole on every transition.
type SessionContext struct {
	RoomId   string
	Nickname string
	Role     types.Role
}

type listRoomsRequest struct {
	reply chan []types.RoomSummary
}

type createRoomResult struct {
	meta types.RoomMetadata
	err  error
}

type createRoomRequest struct {
	params CreateRoomParams
	reply  chan createRoomResult
}

// ChatServer owns the room registry. Every room mutation happens on the Run
// goroutine, so handlers run one at a time and need no locks.
type ChatServer struct {
	log            zerolog.Logger
	stats          stats.StatsProvider
	registry       *Registry
	clients        map[*Client]struct{}
	sessions       map[*Client]SessionContext
	eventChan      chan *ClientMessage
	registerChan   chan *Client
	deRegisterChan chan *Client
	listChan       chan listRoomsRequest
	createChan     chan createRoomRequest
	stop           chan struct{}
	done           chan struct{}
}

func NewChatServer(logger zerolog.Logger, registry *Registry, su stats.StatsProvider) (*ChatServer, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if su == nil {
		return nil, errors.New("stats provider is required")
	}

	su.RegisterMetric(metricActiveConnections)
	su.RegisterMetric(metricActiveRooms)
	su.RegisterMetric(metricMessagesSent)

	return &ChatServer{
		log:            logger,
		stats:          su,
		registry:       registry,
		clients:        make(map[*Client]struct{}),
		sessions:       make(map[*Client]SessionContext),
		eventChan:      make(chan *ClientMessage, 256),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		listChan:       make(chan listRoomsRequest),
		createChan:     make(chan createRoomRequest),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case msg := <-cs.eventChan:
			cs.handleEvent(msg)
		case c := <-cs.registerChan:
			cs.log.Debug().Str("conn_id", c.id).Msg("adding connection")
			cs.addClient(c)
		case c := <-cs.deRegisterChan:
			cs.log.Debug().Str("conn_id", c.id).Msg("removing connection")
			cs.handleDisconnect(c)
			cs.removeClient(c)
		case req := <-cs.listChan:
			req.reply <- cs.listRooms()
		case req := <-cs.createChan:
			meta, err := cs.createRoom(req.params)
			req.reply <- createRoomResult{meta: meta, err: err}
		case <-cs.stop:
			cs.log.Info().Int("clients", len(cs.clients)).Msg("stopping clients")
			for c := range cs.clients {
				c.stopClient()
			}

			close(cs.done)
			return
		}
	}
}

func (cs *ChatServer) handleEvent(msg *ClientMessage) {
	c := msg.client
	switch {
	case msg.Join != nil:
		cs.handleJoin(c, msg.Join)
	case msg.ChatSend != nil:
		cs.handleChatSend(c, msg.ChatSend)
	case msg.Typing != nil:
		cs.handleTyping(c, msg.Typing)
	case msg.Leave != nil:
		cs.handleLeave(c)
	default:
		cs.log.Debug().Str("conn_id", c.id).Msg("ignoring empty event")
	}
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clients[c] = struct{}{}
	cs.stats.Incr(metricActiveConnections)
}

func (cs *ChatServer) removeClient(c *Client) {
	if _, ok := cs.clients[c]; !ok {
		return
	}

	delete(cs.clients, c)
	cs.stats.Decr(metricActiveConnections)
}

func (cs *ChatServer) ensureRoom(id string) *Room {
	if _, ok := cs.registry.Get(id); !ok {
		cs.log.Info().Str("room_id", id).Msg("creating room")
		cs.stats.Incr(metricActiveRooms)
	}
	return cs.registry.EnsureRoom(id)
}

func (cs *ChatServer) deleteRoom(id string) {
	if _, ok := cs.registry.Get(id); !ok {
		return
	}

	cs.log.Info().Str("room_id", id).Msg("removing empty room")
	cs.registry.Delete(id)
	cs.stats.Decr(metricActiveRooms)
}

// Register hands a new connection to the event loop. It returns false once
// the server has stopped.
func (cs *ChatServer) Register(c *Client) bool {
	select {
	case cs.registerChan <- c:
		return true
	case <-cs.done:
		return false
	}
}

// send forwards an event to the event loop. It returns false once the server
// has stopped.
func (cs *ChatServer) send(msg *ClientMessage) bool {
	select {
	case <-cs.done:
		return false
	default:
	}

	select {
	case cs.eventChan <- msg:
		return true
	case <-cs.done:
		return false
	}
}

// ListRooms returns a summary of every room known to the server.
func (cs *ChatServer) ListRooms(ctx context.Context) ([]types.RoomSummary, error) {
	req := listRoomsRequest{reply: make(chan []types.RoomSummary, 1)}
	select {
	case cs.listChan <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-cs.done:
		return nil, ErrServerStopped
	}

	select {
	case items := <-req.reply:
		return items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CreateRoom registers a new room with the given metadata.
func (cs *ChatServer) CreateRoom(ctx context.Context, params CreateRoomParams) (types.RoomMetadata, error) {
	req := createRoomRequest{params: params, reply: make(chan createRoomResult, 1)}
	select {
	case cs.createChan <- req:
	case <-ctx.Done():
		return types.RoomMetadata{}, ctx.Err()
	case <-cs.done:
		return types.RoomMetadata{}, ErrServerStopped
	}

	select {
	case res := <-req.reply:
		return res.meta, res.err
	case <-ctx.Done():
		return types.RoomMetadata{}, ctx.Err()
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Info().Msg("received shutdown signal")
	select {
	case <-cs.stop:
	default:
		close(cs.stop)
	}

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
