package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/studyroom/internal/server"
	"github.com/npezzotti/studyroom/internal/types"
)

// CreateRoomRequest fields are loosely typed: clients send numbers as
// strings and flags as any JSON value.
type CreateRoomRequest struct {
	Title        any `json:"title"`
	MaxMembers   any `json:"maxMembers"`
	StudyStart   any `json:"studyStart"`
	StudyEnd     any `json:"studyEnd"`
	NoteRequired any `json:"noteRequired"`
	IsPrivate    any `json:"isPrivate"`
}

type ListRoomsResponse struct {
	Items []types.RoomSummary `json:"items"`
}

func (s *StudyRoomApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("json encode")
	}
}

func (s *StudyRoomApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *StudyRoomApp) listRooms(w http.ResponseWriter, r *http.Request) {
	items, err := s.rooms.ListRooms(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list rooms")
		errResp := NewServiceUnavailableError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, ListRoomsResponse{Items: items})
}

func (s *StudyRoomApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	meta, err := s.rooms.CreateRoom(r.Context(), server.CreateRoomParams{
		Title:        looseString(req.Title),
		MaxMembers:   looseNumber(req.MaxMembers),
		StudyStart:   looseString(req.StudyStart),
		StudyEnd:     looseString(req.StudyEnd),
		NoteRequired: truthy(req.NoteRequired),
		IsPrivate:    truthy(req.IsPrivate),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("create room")
		errResp := NewServiceUnavailableError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, meta)
}

func (s *StudyRoomApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("error upgrading connection")
		return
	}

	client := server.NewClient(conn, s.cs, s.log)
	if !s.cs.Register(client) {
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}

// looseString renders a JSON value as text. Falsy values become "".
func looseString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if !v {
			return ""
		}
		return "true"
	default:
		return ""
	}
}

// looseNumber returns nil when v carries no usable number.
func looseNumber(v any) *float64 {
	switch v := v.(type) {
	case float64:
		return &v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	case bool:
		if !v {
			return nil
		}
		one := 1.0
		return &one
	default:
		return nil
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}
