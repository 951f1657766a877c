package server

import (
	"github.com/npezzotti/studyroom/internal/types"
)

const defaultMaxMembers = 6

type Room struct {
	id   string
	host *types.Participant
	// players keyed by connection id; playerOrder keeps join order for
	// participant lists
	players     map[string]types.Participant
	playerOrder []string
	chat        *ChatLog
	meta        *types.RoomMetadata
	// clients is the transport group: every connection attached to the room
	clients map[*Client]struct{}
}

func newRoom(id string) *Room {
	return &Room{
		id:      id,
		players: make(map[string]types.Participant),
		chat:    NewChatLog(maxChatLogSize),
		clients: make(map[*Client]struct{}),
	}
}

// capacity is the maximum number of players. The host is not counted.
func (r *Room) capacity() int {
	if r.meta != nil && r.meta.MaxMembers > 0 {
		return r.meta.MaxMembers
	}
	return defaultMaxMembers
}

func (r *Room) playerCount() int {
	return len(r.players)
}

func (r *Room) hasPlayer(connId string) bool {
	_, ok := r.players[connId]
	return ok
}

// participants lists the host first, then players in join order.
func (r *Room) participants() []types.Participant {
	list := make([]types.Participant, 0, len(r.players)+1)
	if r.host != nil {
		list = append(list, *r.host)
	}
	for _, id := range r.playerOrder {
		list = append(list, r.players[id])
	}
	return list
}

func (r *Room) summary() types.RoomSummary {
	s := types.RoomSummary{
		Id:          r.id,
		Title:       r.id,
		MaxMembers:  r.capacity(),
		HostPresent: r.host != nil,
		Players:     r.playerCount(),
	}

	if r.meta != nil {
		if r.meta.Title != "" {
			s.Title = r.meta.Title
		}
		s.CreatedAt = r.meta.CreatedAt
		s.StudyStart = r.meta.StudyStart
		s.StudyEnd = r.meta.StudyEnd
		s.NoteRequired = r.meta.NoteRequired
		s.IsPrivate = r.meta.IsPrivate
	}

	return s
}

func (r *Room) attach(c *Client) {
	r.clients[c] = struct{}{}
}

func (r *Room) detach(c *Client) {
	delete(r.clients, c)
}

func (r *Room) broadcast(msg *ServerMessage, skip *Client) {
	for c := range r.clients {
		if c == skip {
			continue
		}

		c.queueMessage(msg)
	}
}
