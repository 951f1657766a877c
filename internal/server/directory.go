package server

import (
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/npezzotti/studyroom/internal/types"
)

const (
	defaultRoomTitle = "Study Room"
	minMaxMembers    = 2
	maxMaxMembers    = 12
	maxSlugLen       = 24
	roomSuffixLen    = 4
)

var (
	studyTimeRe  = regexp.MustCompile(`^\d{2}:\d{2}$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	slugStripRe  = regexp.MustCompile(`[^a-z0-9\-]`)
)

// CreateRoomParams holds a room creation request. A nil MaxMembers means the
// caller did not send a usable number.
type CreateRoomParams struct {
	Title        string
	MaxMembers   *float64
	StudyStart   string
	StudyEnd     string
	NoteRequired bool
	IsPrivate    bool
}

func (cs *ChatServer) listRooms() []types.RoomSummary {
	rooms := cs.registry.List()
	items := make([]types.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, r.summary())
	}
	return items
}

// createRoom sets metadata on a fresh room id. Membership of the room, if
// any, is left untouched.
func (cs *ChatServer) createRoom(params CreateRoomParams) (types.RoomMetadata, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = defaultRoomTitle
	}

	base := slugify(title)
	id := base + "-" + randomSuffix()
	for {
		if _, exists := cs.registry.Get(id); !exists {
			break
		}
		id = base + "-" + randomSuffix()
	}

	meta := types.RoomMetadata{
		Id:           id,
		Title:        title,
		MaxMembers:   clampMaxMembers(params.MaxMembers),
		CreatedAt:    Now(),
		StudyStart:   studyTime(params.StudyStart),
		StudyEnd:     studyTime(params.StudyEnd),
		NoteRequired: params.NoteRequired,
		IsPrivate:    params.IsPrivate,
	}

	room := cs.ensureRoom(id)
	room.meta = &meta

	cs.log.Info().
		Str("room_id", id).
		Int("max_members", meta.MaxMembers).
		Msg("room created")

	return meta, nil
}

func clampMaxMembers(v *float64) int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return defaultMaxMembers
	}

	n := math.Floor(*v)
	return int(min(maxMaxMembers, max(minMaxMembers, n)))
}

func studyTime(s string) string {
	s = strings.TrimSpace(s)
	if !studyTimeRe.MatchString(s) {
		return ""
	}
	return s
}

func slugify(title string) string {
	s := strings.ToLower(title)
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = slugStripRe.ReplaceAllString(s, "")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	if s == "" {
		return "room"
	}
	return s
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:roomSuffixLen]
}
