package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/viberoom/server/internal/repository/record"
)

func (r repo) getPlaylistKey(roomId string) string {
	return "room:" + roomId + ":playlist"
}

func (r repo) AddPlaylistEntry(ctx context.Context, params *record.AddPlaylistEntryParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.ZAdd(ctx, r.getPlaylistKey(params.RoomId), redis.Z{
		Score:  float64(params.PlayOrder),
		Member: params.TrackId,
	}).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// GetPlaylist returns the room playlist ordered by play order.
func (r repo) GetPlaylist(ctx context.Context, roomId string) ([]record.PlaylistEntry, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	res, err := r.rc.ZRangeWithScores(ctx, r.getPlaylistKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	entries := make([]record.PlaylistEntry, 0, len(res))
	for _, z := range res {
		trackId, ok := z.Member.(string)
		if !ok {
			continue
		}

		entries = append(entries, record.PlaylistEntry{
			TrackId:   trackId,
			PlayOrder: int(z.Score),
		})
	}

	return entries, nil
}
