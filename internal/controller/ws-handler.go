package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/viberoom/server/internal/service/room"
	"github.com/viberoom/server/pkg/wsrouter"
)

func (c controller) handleAlive(_ context.Context, _ *wsrouter.Conn, _ json.RawMessage) {
}

type JoinRoomInput struct {
	RoomId string `json:"room_id" validate:"required"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *wsrouter.Conn, payload json.RawMessage) {
	var input JoinRoomInput
	if !c.unmarshalOrError(ctx, conn, payload, &input) {
		return
	}

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		Identity:     c.getIdentityFromCtx(ctx),
		RoomId:       input.RoomId,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to join room", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "room-joined",
		Payload: map[string]any{
			"room_id":        joinRoomResp.RoomId,
			"users":          joinRoomResp.Users,
			"current_track":  joinRoomResp.Music.CurrentTrack,
			"is_playing":     joinRoomResp.Music.IsPlaying,
			"track_position": joinRoomResp.Music.TrackPosition,
		},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to write room joined", "error", err)
		return
	}

	if err := c.broadcast(ctx, joinRoomResp.OthersConns, &Output{
		Type: "user-joined",
		Payload: map[string]any{
			"user": joinRoomResp.JoinedUser,
		},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast user joined", "error", err)
	}
}

func (c controller) handleLeaveRoom(ctx context.Context, conn *wsrouter.Conn, _ json.RawMessage) {
	leaveRoomResp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to leave room", "error", err)
		return
	}

	// leaving while not in a room is a no-op, not an error
	if !leaveRoomResp.Left {
		return
	}

	if err := c.broadcast(ctx, leaveRoomResp.OthersConns, &Output{
		Type: "user-left",
		Payload: map[string]any{
			"user_id": leaveRoomResp.UserId,
		},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast user left", "error", err)
	}
}

type SendMessageInput struct {
	Message string `json:"message" validate:"required"`
}

func (c controller) handleSendMessage(ctx context.Context, conn *wsrouter.Conn, payload json.RawMessage) {
	var input SendMessageInput
	if !c.unmarshalOrError(ctx, conn, payload, &input) {
		return
	}

	sendMessageResp, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		Content:      input.Message,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to send message", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if err := c.broadcast(ctx, sendMessageResp.Conns, &Output{
		Type:    "new-message",
		Payload: sendMessageResp.Message,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast new message", "error", err)
	}
}

// PositionInput bounds coordinates to the canvas: positions are measured from
// the canvas origin, so negatives can only come from a broken client.
type PositionInput struct {
	X float64 `json:"x" validate:"min=0"`
	Y float64 `json:"y" validate:"min=0"`
}

type UserMoveInput struct {
	Position PositionInput `json:"position"`
}

func (c controller) handleUserMove(ctx context.Context, conn *wsrouter.Conn, payload json.RawMessage) {
	var input UserMoveInput
	if !c.unmarshalOrError(ctx, conn, payload, &input) {
		return
	}

	moveResp, err := c.roomService.Move(ctx, &room.MoveParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		Position:     room.Position{X: input.Position.X, Y: input.Position.Y},
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to move user", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if err := c.broadcast(ctx, moveResp.OthersConns, &Output{
		Type: "user-moved",
		Payload: map[string]any{
			"user_id":  moveResp.UserId,
			"position": moveResp.Position,
		},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast user moved", "error", err)
	}
}

type ToggleMuteInput struct {
	IsMuted bool `json:"is_muted"`
}

func (c controller) handleToggleMute(ctx context.Context, conn *wsrouter.Conn, payload json.RawMessage) {
	var input ToggleMuteInput
	if !c.unmarshalOrError(ctx, conn, payload, &input) {
		return
	}

	toggleMuteResp, err := c.roomService.ToggleMute(ctx, &room.ToggleMuteParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		IsMuted:      input.IsMuted,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to toggle mute", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if err := c.broadcast(ctx, toggleMuteResp.OthersConns, &Output{
		Type: "user-mute-changed",
		Payload: map[string]any{
			"user_id":  toggleMuteResp.UserId,
			"is_muted": toggleMuteResp.IsMuted,
		},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast mute changed", "error", err)
	}
}

type MusicControlInput struct {
	Action  string `json:"action" validate:"required,oneof=play pause next"`
	TrackId string `json:"track_id"`
}

func (c controller) handleMusicControl(ctx context.Context, conn *wsrouter.Conn, payload json.RawMessage) {
	var input MusicControlInput
	if !c.unmarshalOrError(ctx, conn, payload, &input) {
		return
	}

	musicControlResp, err := c.roomService.MusicControl(ctx, &room.MusicControlParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		Action:       input.Action,
		TrackId:      input.TrackId,
	})
	if err != nil {
		// a non-owner's control is dropped without a word: no broadcast, no
		// error frame
		if errors.Is(err, room.ErrNotOwner) {
			c.logger.DebugContext(ctx, "music control from non-owner ignored")
			return
		}

		c.logger.InfoContext(ctx, "failed to control music", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if err := c.broadcast(ctx, musicControlResp.Conns, &Output{
		Type:    "music-state-changed",
		Payload: musicControlResp.Music,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast music state", "error", err)
	}
}
