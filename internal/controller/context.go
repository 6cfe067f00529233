package controller

import (
	"context"

	"github.com/viberoom/server/internal/service/identity"
)

type contextKey int

const (
	connectionIdCtxKey contextKey = iota
	identityCtxKey
)

func (c controller) getConnectionIdFromCtx(ctx context.Context) string {
	connectionId, ok := ctx.Value(connectionIdCtxKey).(string)
	if !ok {
		return ""
	}

	return connectionId
}

func (c controller) getIdentityFromCtx(ctx context.Context) identity.Identity {
	ident, ok := ctx.Value(identityCtxKey).(identity.Identity)
	if !ok {
		return identity.Identity{}
	}

	return ident
}
