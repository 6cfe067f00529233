package room

import "time"

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User is the broadcast view of a live participant.
type User struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar"`
	ConnectionId string    `json:"connection_id"`
	Position     Position  `json:"position"`
	IsMuted      bool      `json:"is_muted"`
	IsOwner      bool      `json:"is_owner"`
	JoinedAt     time.Time `json:"joined_at"`
}

type MusicState struct {
	CurrentTrack  string `json:"current_track"`
	IsPlaying     bool   `json:"is_playing"`
	TrackPosition int    `json:"track_position"`
}

type ChatMessage struct {
	Id        string `json:"id"`
	UserId    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}
