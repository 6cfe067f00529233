package record

import "time"

type User struct {
	Name      string `redis:"name" json:"name"`
	Email     string `redis:"email" json:"email"`
	AvatarURL string `redis:"avatar_url" json:"avatar_url"`
}

type Room struct {
	Name         string `redis:"name" json:"name"`
	OwnerId      string `redis:"owner_id" json:"owner_id"`
	CurrentTrack string `redis:"current_track" json:"current_track"`
	CurrentUsers int    `redis:"current_users" json:"current_users"`
	MaxUsers     int    `redis:"max_users" json:"max_users"`
}

type Participant struct {
	PositionX float64 `redis:"position_x" json:"position_x"`
	PositionY float64 `redis:"position_y" json:"position_y"`
	IsMuted   bool    `redis:"is_muted" json:"is_muted"`
	JoinedAt  int64   `redis:"joined_at" json:"joined_at"`
}

type Message struct {
	Id        string    `json:"id"`
	RoomId    string    `json:"room_id"`
	UserId    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PlaylistEntry struct {
	TrackId   string `json:"track_id"`
	PlayOrder int    `json:"play_order"`
}
