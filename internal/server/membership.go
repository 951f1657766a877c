package server

import (
	"errors"
	"fmt"
	"slices"

	"github.com/npezzotti/studyroom/internal/types"
)

var (
	ErrHostTaken = errors.New("room already has a host")
	ErrRoomFull  = errors.New("room is full")
)

func canJoinAsHost(r *Room, connId string) bool {
	return r.host == nil || r.host.ConnectionId == connId
}

func canJoinAsPlayer(r *Room) bool {
	return r.playerCount() < r.capacity()
}

// admit checks whether p may take its requested role in r. A connection that
// already holds a player slot is never rejected for capacity.
func admit(r *Room, p types.Participant) error {
	switch p.Role {
	case types.RoleHost:
		if !canJoinAsHost(r, p.ConnectionId) {
			return ErrHostTaken
		}
	default:
		if !r.hasPlayer(p.ConnectionId) && !canJoinAsPlayer(r) {
			return fmt.Errorf("%w (max %d players)", ErrRoomFull, r.capacity())
		}
	}
	return nil
}

func addParticipant(r *Room, p types.Participant) {
	if p.Role == types.RoleHost {
		r.host = &p
		return
	}

	if !r.hasPlayer(p.ConnectionId) {
		r.playerOrder = append(r.playerOrder, p.ConnectionId)
	}
	r.players[p.ConnectionId] = p
}

// removeParticipant is a no-op when connId does not hold the slot for role.
func removeParticipant(r *Room, connId string, role types.Role) {
	switch role {
	case types.RoleHost:
		if r.host != nil && r.host.ConnectionId == connId {
			r.host = nil
		}
	case types.RolePlayer:
		if !r.hasPlayer(connId) {
			return
		}
		delete(r.players, connId)
		if i := slices.Index(r.playerOrder, connId); i >= 0 {
			r.playerOrder = slices.Delete(r.playerOrder, i, i+1)
		}
	}
}

func isEmpty(r *Room) bool {
	return r.host == nil && len(r.players) == 0
}
