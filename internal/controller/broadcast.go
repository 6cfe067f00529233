package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viberoom/server/internal/service/room"
	"github.com/viberoom/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) writeToConn(ctx context.Context, conn *wsrouter.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

// broadcast fans an output out to every given connection. A single failed
// write is logged and skipped so one dead connection cannot starve the rest
// of the room.
func (c controller) broadcast(ctx context.Context, conns []*wsrouter.Conn, output *Output) error {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		}
	}

	return nil
}

// writeError reports a failed intent to the originating connection only.
// Unexpected errors are masked behind a generic message.
func (c controller) writeError(ctx context.Context, conn *wsrouter.Conn, err error) {
	message := "internal error"
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrAlreadyInRoom),
		errors.Is(err, room.ErrNotInRoom),
		errors.Is(err, room.ErrEmptyContent):
		message = err.Error()
	}

	c.writeErrorMessage(ctx, conn, message)
}

func (c controller) writeErrorMessage(ctx context.Context, conn *wsrouter.Conn, message string) {
	if err := conn.WriteJSON(&Output{
		Type: "error",
		Payload: map[string]any{
			"message": message,
		},
	}); err != nil {
		c.logger.DebugContext(ctx, "failed to write error", "error", err)
	}
}

func (c controller) unmarshalOrError(ctx context.Context, conn *wsrouter.Conn, payload json.RawMessage, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeErrorMessage(ctx, conn, "invalid payload")
		return false
	}

	if validationErrors, ok := c.validate.Validate(v); !ok {
		c.logger.DebugContext(ctx, "payload validation failed", "errors", validationErrors)
		c.writeErrorMessage(ctx, conn, validationErrors[0].Message)
		return false
	}

	return true
}
