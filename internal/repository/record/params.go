package record

import "time"

type UpsertParticipantParams struct {
	RoomId    string  `json:"room_id"`
	UserId    string  `json:"user_id"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	IsMuted   bool    `json:"is_muted"`
	JoinedAt  int64   `json:"joined_at"`
}

type DeleteParticipantParams struct {
	RoomId string `json:"room_id"`
	UserId string `json:"user_id"`
}

type InsertMessageParams struct {
	MessageId string    `json:"message_id"`
	RoomId    string    `json:"room_id"`
	UserId    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SetUserParams struct {
	UserId    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type SetRoomParams struct {
	RoomId       string `json:"room_id"`
	Name         string `json:"name"`
	OwnerId      string `json:"owner_id"`
	CurrentTrack string `json:"current_track"`
	MaxUsers     int    `json:"max_users"`
}

type AddPlaylistEntryParams struct {
	RoomId    string `json:"room_id"`
	TrackId   string `json:"track_id"`
	PlayOrder int    `json:"play_order"`
}
