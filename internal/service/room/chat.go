package room

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viberoom/server/internal/repository/record"
	"github.com/viberoom/server/pkg/wsrouter"
)

// chat messages carry a short wall-clock timestamp, matching what the room
// client renders
const messageTimeLayout = "15:04"

type SendMessageParams struct {
	ConnectionId string
	Content      string
}

type SendMessageResponse struct {
	Message ChatMessage
	// Conns includes the sender: new messages echo back to their author.
	Conns []*wsrouter.Conn
}

func (s *service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	if strings.TrimSpace(params.Content) == "" {
		return SendMessageResponse{}, ErrEmptyContent
	}

	roomId, rs, err := s.roomOf(params.ConnectionId)
	if err != nil {
		return SendMessageResponse{}, err
	}

	rs.mu.Lock()
	p, ok := rs.participants[params.ConnectionId]
	if !ok {
		rs.mu.Unlock()
		return SendMessageResponse{}, ErrNotInRoom
	}
	connectionIds := rs.connectionIds("")
	rs.mu.Unlock()

	now := time.Now()
	message := ChatMessage{
		Id:        uuid.NewString(),
		UserId:    p.identity.Id,
		UserName:  p.identity.Name,
		Content:   params.Content,
		Timestamp: now.Format(messageTimeLayout),
	}

	insertParams := record.InsertMessageParams{
		MessageId: message.Id,
		RoomId:    roomId,
		UserId:    message.UserId,
		Content:   message.Content,
		CreatedAt: now,
	}
	s.reconciler.enqueue("insert message", func(ctx context.Context) error {
		return s.recordRepo.InsertMessage(ctx, &insertParams)
	})

	return SendMessageResponse{
		Message: message,
		Conns:   s.conns(ctx, connectionIds),
	}, nil
}
