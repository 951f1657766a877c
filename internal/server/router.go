package server

import (
	"strings"

	"github.com/npezzotti/studyroom/internal/types"
)

const (
	systemSender       = "system"
	errJoinFieldsEmpty = "roomId and nickname are required"
)

func (cs *ChatServer) handleJoin(c *Client, join *Join) {
	roomId := strings.TrimSpace(join.RoomId)
	nickname := strings.TrimSpace(join.Nickname)
	role := types.NormalizeRole(join.Role)

	if roomId == "" || nickname == "" {
		c.queueMessage(NewErrorMsg(errJoinFieldsEmpty))
		return
	}

	room := cs.ensureRoom(roomId)
	p := types.Participant{
		ConnectionId: c.id,
		Nickname:     nickname,
		Role:         role,
	}

	if err := admit(room, p); err != nil {
		cs.log.Info().
			Str("room_id", roomId).
			Str("conn_id", c.id).
			Str("role", string(role)).
			Err(err).
			Msg("join rejected")
		c.queueMessage(NewErrorMsg(err.Error()))
		return
	}

	if prev := cs.sessions[c]; prev.RoomId != "" {
		if prev.RoomId != roomId {
			// joining a new room leaves the old one
			if old, ok := cs.registry.Get(prev.RoomId); ok {
				cs.vacate(c, prev, old)
			}
		} else if prev.Role != role {
			removeParticipant(room, c.id, prev.Role)
		}
	}

	room.attach(c)
	cs.sessions[c] = SessionContext{
		RoomId:   roomId,
		Nickname: nickname,
		Role:     role,
	}
	addParticipant(room, p)

	cs.log.Info().
		Str("room_id", roomId).
		Str("conn_id", c.id).
		Str("nickname", nickname).
		Str("role", string(role)).
		Msg("participant joined")

	cs.broadcastParticipants(room)
	cs.pushChat(room, systemMessage(nickname+" has joined"))

	c.queueMessage(NewChatHistory(room.chat.Recent(chatHistorySize)))
	c.queueMessage(NewJoined(roomId, nickname, role))
}

// handleChatSend drops the message without telling the client when the
// connection has no session or the room is gone.
func (cs *ChatServer) handleChatSend(c *Client, send *ChatSend) {
	sess := cs.sessions[c]
	roomId := send.RoomId
	if roomId == "" {
		roomId = sess.RoomId
	}
	if roomId == "" || sess.Nickname == "" || strings.TrimSpace(send.Text) == "" {
		return
	}

	room, ok := cs.registry.Get(roomId)
	if !ok {
		return
	}

	role := sess.Role
	if role == "" {
		role = types.RolePlayer
	}

	cs.pushChat(room, types.ChatMessage{
		Id:   nextId(),
		From: sess.Nickname,
		Role: role,
		Text: truncateText(send.Text),
		Ts:   Now(),
	})
}

func (cs *ChatServer) handleTyping(c *Client, typing *Typing) {
	sess := cs.sessions[c]
	roomId := typing.RoomId
	if roomId == "" {
		roomId = sess.RoomId
	}
	if roomId == "" || sess.Nickname == "" {
		return
	}

	room, ok := cs.registry.Get(roomId)
	if !ok {
		return
	}

	room.broadcast(NewTypingState(sess.Nickname, typing.Typing), c)
}

func (cs *ChatServer) handleLeave(c *Client) {
	sess := cs.sessions[c]
	if sess.RoomId == "" {
		return
	}

	room, ok := cs.registry.Get(sess.RoomId)
	if !ok {
		return
	}

	cs.vacate(c, sess, room)
	c.queueMessage(NewLeft())
}

// handleDisconnect cleans up after a connection that went away. Nothing is
// sent back to it.
func (cs *ChatServer) handleDisconnect(c *Client) {
	sess, ok := cs.sessions[c]
	if !ok {
		return
	}

	if sess.RoomId != "" {
		if room, ok := cs.registry.Get(sess.RoomId); ok {
			cs.vacate(c, sess, room)
		}
	}

	delete(cs.sessions, c)
}

// vacate takes c out of room, tells the remaining members and drops the room
// once nobody is left. The session keeps its nickname and role.
func (cs *ChatServer) vacate(c *Client, sess SessionContext, room *Room) {
	room.detach(c)
	cs.sessions[c] = SessionContext{
		Nickname: sess.Nickname,
		Role:     sess.Role,
	}
	removeParticipant(room, c.id, sess.Role)

	cs.log.Info().
		Str("room_id", room.id).
		Str("conn_id", c.id).
		Str("nickname", sess.Nickname).
		Msg("participant left")

	cs.broadcastParticipants(room)
	if sess.Nickname != "" {
		cs.pushChat(room, systemMessage(sess.Nickname+" has left"))
	}

	if isEmpty(room) {
		cs.deleteRoom(room.id)
	}
}

func (cs *ChatServer) broadcastParticipants(room *Room) {
	room.broadcast(NewParticipants(room.participants()), nil)
}

func (cs *ChatServer) pushChat(room *Room, msg types.ChatMessage) {
	room.chat.Append(msg)
	room.broadcast(NewChat(msg), nil)
	cs.stats.Incr(metricMessagesSent)
}

func systemMessage(text string) types.ChatMessage {
	return types.ChatMessage{
		Id:   nextId(),
		From: systemSender,
		Role: types.RoleSystem,
		Text: text,
		Ts:   Now(),
	}
}
