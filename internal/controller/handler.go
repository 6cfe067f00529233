package controller

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/viberoom/server/internal/service/room"
	"github.com/viberoom/server/pkg/ctxlogger"
	"github.com/viberoom/server/pkg/wsrouter"
)

func (c controller) getToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// serveWS authenticates the connection, upgrades it and serves its intents
// until the transport closes. A failed verification rejects the request
// before any room-scoped handler is installed.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ident, err := c.verifier.Verify(r.Context(), c.getToken(r))
	if err != nil {
		c.logger.DebugContext(r.Context(), "rejected connection", "error", err)
		http.Error(w, "authentication error", http.StatusUnauthorized)
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	// broadcasts write to this connection from other handler goroutines, so
	// every write has to go through the conn's write lock
	conn := wsrouter.NewConn(ws)
	connectionId := uuid.NewString()

	if err := c.roomService.Connect(r.Context(), &room.ConnectParams{
		Conn:         conn,
		ConnectionId: connectionId,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to register connection", "error", err)
		conn.Close()
		return
	}

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("connection_id", connectionId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", ident.Id))
	ctx = context.WithValue(ctx, connectionIdCtxKey, connectionId)
	ctx = context.WithValue(ctx, identityCtxKey, ident)

	c.logger.InfoContext(ctx, "user connected", "user_name", ident.Name)

	defer c.disconnect(ctx, conn, connectionId, ident.Name)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

// disconnect runs the deterministic leave path for a closed transport:
// the participant is removed immediately and any now-empty room is cleaned
// up, with no reconnect grace window.
func (c controller) disconnect(ctx context.Context, conn *wsrouter.Conn, connectionId, userName string) {
	resp, err := c.roomService.Disconnect(ctx, &room.DisconnectParams{ConnectionId: connectionId})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to disconnect", "error", err)
	}

	if resp.Left {
		if err := c.broadcast(ctx, resp.OthersConns, &Output{
			Type: "user-left",
			Payload: map[string]any{
				"user_id": resp.UserId,
			},
		}); err != nil {
			c.logger.InfoContext(ctx, "failed to broadcast user left", "error", err)
		}
	}

	conn.Close()
	c.logger.InfoContext(ctx, "user disconnected", "user_name", userName)
}
