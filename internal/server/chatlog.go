package server

import (
	"github.com/npezzotti/studyroom/internal/types"
	"github.com/teris-io/shortid"
)

const (
	maxChatLogSize  = 500
	chatHistorySize = 50
	maxChatTextLen  = 2000
)

// ChatLog keeps the most recent messages of a room in a ring buffer. Once
// full, each append overwrites the oldest entry.
type ChatLog struct {
	buf   []types.ChatMessage
	start int
	size  int
	limit int
}

// NewChatLog returns a log holding at most limit messages. A limit below one
// falls back to maxChatLogSize.
func NewChatLog(limit int) *ChatLog {
	if limit < 1 {
		limit = maxChatLogSize
	}
	return &ChatLog{limit: limit}
}

func (l *ChatLog) Append(msg types.ChatMessage) {
	if l.size < l.limit {
		l.buf = append(l.buf, msg)
		l.size++
		return
	}

	l.buf[l.start] = msg
	l.start = (l.start + 1) % l.limit
}

// Recent returns up to n of the newest messages, oldest first.
func (l *ChatLog) Recent(n int) []types.ChatMessage {
	if n > l.size {
		n = l.size
	}
	if n <= 0 {
		return []types.ChatMessage{}
	}

	items := make([]types.ChatMessage, n)
	first := l.size - n
	for i := range n {
		items[i] = l.buf[(l.start+first+i)%len(l.buf)]
	}
	return items
}

func (l *ChatLog) Len() int {
	return l.size
}

func nextId() string {
	return shortid.MustGenerate()
}

// truncateText cuts s to at most maxChatTextLen characters.
func truncateText(s string) string {
	if len(s) <= maxChatTextLen {
		return s
	}

	runes := []rune(s)
	if len(runes) <= maxChatTextLen {
		return s
	}
	return string(runes[:maxChatTextLen])
}
