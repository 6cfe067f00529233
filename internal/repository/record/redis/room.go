package redis

import (
	"context"

	"github.com/viberoom/server/internal/repository/record"
)

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) GetRoom(ctx context.Context, roomId string) (record.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	res, err := r.rc.HGetAll(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return record.Room{}, err
	}

	if len(res) == 0 {
		r.logger.DebugContext(ctx, "returned", "error", record.ErrRoomNotFound)
		return record.Room{}, record.ErrRoomNotFound
	}

	var room record.Room
	if err := r.rc.HGetAll(ctx, r.getRoomKey(roomId)).Scan(&room); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return record.Room{}, err
	}

	return room, nil
}

func (r repo) SetRoom(ctx context.Context, params *record.SetRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	room := record.Room{
		Name:         params.Name,
		OwnerId:      params.OwnerId,
		CurrentTrack: params.CurrentTrack,
		MaxUsers:     params.MaxUsers,
	}
	r.hSetStruct(ctx, pipe, r.getRoomKey(params.RoomId), room)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateRoomTrack(ctx context.Context, roomId, trackId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "track_id", trackId)
	exists, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if exists == 0 {
		r.logger.DebugContext(ctx, "returned", "error", record.ErrRoomNotFound)
		return record.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, r.getRoomKey(roomId), "current_track", trackId).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateRoomUserCount(ctx context.Context, roomId string, count int) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "count", count)
	exists, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if exists == 0 {
		r.logger.DebugContext(ctx, "returned", "error", record.ErrRoomNotFound)
		return record.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, r.getRoomKey(roomId), "current_users", count).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
