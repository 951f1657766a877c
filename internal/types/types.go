package types

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
	RoleSystem Role = "system"
)

// NormalizeRole maps anything other than the literal "host" to player.
func NormalizeRole(r string) Role {
	if Role(r) == RoleHost {
		return RoleHost
	}
	return RolePlayer
}

type Participant struct {
	ConnectionId string `json:"connectionId"`
	Nickname     string `json:"nickname"`
	Role         Role   `json:"role"`
}

type ChatMessage struct {
	Id   string `json:"id"`
	From string `json:"from"`
	Role Role   `json:"role"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
}

type RoomMetadata struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	MaxMembers   int    `json:"maxMembers"`
	CreatedAt    int64  `json:"createdAt"`
	StudyStart   string `json:"studyStart,omitempty"`
	StudyEnd     string `json:"studyEnd,omitempty"`
	NoteRequired bool   `json:"noteRequired"`
	IsPrivate    bool   `json:"isPrivate"`
}

type RoomSummary struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	MaxMembers   int    `json:"maxMembers"`
	HostPresent  bool   `json:"hostPresent"`
	Players      int    `json:"players"`
	CreatedAt    int64  `json:"createdAt"`
	StudyStart   string `json:"studyStart,omitempty"`
	StudyEnd     string `json:"studyEnd,omitempty"`
	NoteRequired bool   `json:"noteRequired"`
	IsPrivate    bool   `json:"isPrivate"`
}
