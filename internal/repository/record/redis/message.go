package redis

import (
	"context"
	"encoding/json"

	"github.com/viberoom/server/internal/repository/record"
)

func (r repo) getMessageListKey(roomId string) string {
	return "room:" + roomId + ":messages"
}

func (r repo) InsertMessage(ctx context.Context, params *record.InsertMessageParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	message := record.Message{
		Id:        params.MessageId,
		RoomId:    params.RoomId,
		UserId:    params.UserId,
		Content:   params.Content,
		CreatedAt: params.CreatedAt,
	}

	raw, err := json.Marshal(message)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if err := r.rc.RPush(ctx, r.getMessageListKey(params.RoomId), raw).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMessages(ctx context.Context, roomId string) ([]record.Message, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	raws, err := r.rc.LRange(ctx, r.getMessageListKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	messages := make([]record.Message, 0, len(raws))
	for _, raw := range raws {
		var message record.Message
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			r.logger.DebugContext(ctx, "returned", "error", err)
			return nil, err
		}

		messages = append(messages, message)
	}

	return messages, nil
}
