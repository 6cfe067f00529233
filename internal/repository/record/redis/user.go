package redis

import (
	"context"

	"github.com/viberoom/server/internal/repository/record"
)

func (r repo) getUserKey(userId string) string {
	return "user:" + userId
}

func (r repo) GetUser(ctx context.Context, userId string) (record.User, error) {
	r.logger.DebugContext(ctx, "called", "user_id", userId)
	res, err := r.rc.HGetAll(ctx, r.getUserKey(userId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return record.User{}, err
	}

	if len(res) == 0 {
		r.logger.DebugContext(ctx, "returned", "error", record.ErrUserNotFound)
		return record.User{}, record.ErrUserNotFound
	}

	var user record.User
	if err := r.rc.HGetAll(ctx, r.getUserKey(userId)).Scan(&user); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return record.User{}, err
	}

	return user, nil
}

func (r repo) SetUser(ctx context.Context, params *record.SetUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	user := record.User{
		Name:      params.Name,
		Email:     params.Email,
		AvatarURL: params.AvatarURL,
	}
	r.hSetStruct(ctx, pipe, r.getUserKey(params.UserId), user)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
