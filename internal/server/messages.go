package server

import (
	"encoding/json"
	"time"

	"github.com/npezzotti/studyroom/internal/types"
)

// ClientMessage is one inbound event. Exactly one field is expected to be set.
type ClientMessage struct {
	Join     *Join     `json:"join,omitempty"`
	ChatSend *ChatSend `json:"chat_send,omitempty"`
	Typing   *Typing   `json:"typing,omitempty"`
	Leave    *Leave    `json:"leave,omitempty"`
	client   *Client   `json:"-"`
}

type Join struct {
	RoomId   string `json:"roomId"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

type ChatSend struct {
	RoomId string `json:"roomId,omitempty"`
	Text   string `json:"text"`
}

type Typing struct {
	RoomId string `json:"roomId,omitempty"`
	Typing bool   `json:"typing"`
}

type Leave struct{}

// ServerMessage is one outbound notification. Exactly one field is set.
type ServerMessage struct {
	Joined       *Joined            `json:"joined,omitempty"`
	Left         *Left              `json:"left,omitempty"`
	ErrorMsg     *ErrorMsg          `json:"error_msg,omitempty"`
	Participants *Participants      `json:"participants,omitempty"`
	ChatHistory  *ChatHistory       `json:"chat_history,omitempty"`
	Chat         *types.ChatMessage `json:"chat,omitempty"`
	TypingState  *TypingState       `json:"typing_state,omitempty"`
}

type Joined struct {
	Ok       bool       `json:"ok"`
	RoomId   string     `json:"roomId"`
	Nickname string     `json:"nickname"`
	Role     types.Role `json:"role"`
}

type Left struct {
	Ok bool `json:"ok"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}

type Participants struct {
	Participants []types.Participant `json:"participants"`
}

type ChatHistory struct {
	Items []types.ChatMessage `json:"items"`
}

type TypingState struct {
	Nickname string `json:"nickname"`
	Typing   bool   `json:"typing"`
}

func NewJoined(roomId, nickname string, role types.Role) *ServerMessage {
	return &ServerMessage{Joined: &Joined{Ok: true, RoomId: roomId, Nickname: nickname, Role: role}}
}

func NewLeft() *ServerMessage {
	return &ServerMessage{Left: &Left{Ok: true}}
}

func NewErrorMsg(message string) *ServerMessage {
	return &ServerMessage{ErrorMsg: &ErrorMsg{Message: message}}
}

func NewParticipants(p []types.Participant) *ServerMessage {
	return &ServerMessage{Participants: &Participants{Participants: p}}
}

func NewChatHistory(items []types.ChatMessage) *ServerMessage {
	return &ServerMessage{ChatHistory: &ChatHistory{Items: items}}
}

func NewChat(msg types.ChatMessage) *ServerMessage {
	return &ServerMessage{Chat: &msg}
}

func NewTypingState(nickname string, typing bool) *ServerMessage {
	return &ServerMessage{TypingState: &TypingState{Nickname: nickname, Typing: typing}}
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// Now returns the current time in unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
