package redis

import (
	"context"

	"github.com/viberoom/server/internal/repository/record"
)

func (r repo) getParticipantKey(roomId, userId string) string {
	return "participant:" + roomId + ":" + userId
}

func (r repo) getParticipantListKey(roomId string) string {
	return "room:" + roomId + ":participants"
}

func (r repo) UpsertParticipant(ctx context.Context, params *record.UpsertParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	participant := record.Participant{
		PositionX: params.PositionX,
		PositionY: params.PositionY,
		IsMuted:   params.IsMuted,
		JoinedAt:  params.JoinedAt,
	}
	r.hSetStruct(ctx, pipe, r.getParticipantKey(params.RoomId, params.UserId), participant)
	pipe.SAdd(ctx, r.getParticipantListKey(params.RoomId), params.UserId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateParticipantPosition(ctx context.Context, roomId, userId string, x, y float64) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "user_id", userId)
	if err := r.rc.HSet(ctx, r.getParticipantKey(roomId, userId), "position_x", x, "position_y", y).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateParticipantIsMuted(ctx context.Context, roomId, userId string, isMuted bool) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "user_id", userId, "is_muted", isMuted)
	if err := r.rc.HSet(ctx, r.getParticipantKey(roomId, userId), "is_muted", isMuted).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) DeleteParticipant(ctx context.Context, params *record.DeleteParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	pipe.Del(ctx, r.getParticipantKey(params.RoomId, params.UserId))
	pipe.SRem(ctx, r.getParticipantListKey(params.RoomId), params.UserId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetParticipant(ctx context.Context, roomId, userId string) (record.Participant, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "user_id", userId)
	res, err := r.rc.HGetAll(ctx, r.getParticipantKey(roomId, userId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return record.Participant{}, err
	}

	if len(res) == 0 {
		r.logger.DebugContext(ctx, "returned", "error", record.ErrParticipantNotFound)
		return record.Participant{}, record.ErrParticipantNotFound
	}

	var participant record.Participant
	if err := r.rc.HGetAll(ctx, r.getParticipantKey(roomId, userId)).Scan(&participant); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return record.Participant{}, err
	}

	return participant, nil
}

func (r repo) GetParticipantIds(ctx context.Context, roomId string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	return r.rc.SMembers(ctx, r.getParticipantListKey(roomId)).Result()
}
