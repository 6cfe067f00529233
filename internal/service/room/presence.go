package room

import (
	"context"

	"github.com/viberoom/server/pkg/wsrouter"
)

type MoveParams struct {
	ConnectionId string
	Position     Position
}

type MoveResponse struct {
	UserId      string
	Position    Position
	OthersConns []*wsrouter.Conn
}

func (s *service) Move(ctx context.Context, params *MoveParams) (MoveResponse, error) {
	roomId, rs, err := s.roomOf(params.ConnectionId)
	if err != nil {
		return MoveResponse{}, err
	}

	rs.mu.Lock()
	p, ok := rs.participants[params.ConnectionId]
	if !ok {
		rs.mu.Unlock()
		return MoveResponse{}, ErrNotInRoom
	}

	p.position = params.Position
	userId := p.identity.Id
	othersIds := rs.connectionIds(params.ConnectionId)
	rs.mu.Unlock()

	position := params.Position
	s.reconciler.enqueue("update participant position", func(ctx context.Context) error {
		return s.recordRepo.UpdateParticipantPosition(ctx, roomId, userId, position.X, position.Y)
	})

	return MoveResponse{
		UserId:      userId,
		Position:    params.Position,
		OthersConns: s.conns(ctx, othersIds),
	}, nil
}

type ToggleMuteParams struct {
	ConnectionId string
	IsMuted      bool
}

type ToggleMuteResponse struct {
	UserId      string
	IsMuted     bool
	OthersConns []*wsrouter.Conn
}

func (s *service) ToggleMute(ctx context.Context, params *ToggleMuteParams) (ToggleMuteResponse, error) {
	roomId, rs, err := s.roomOf(params.ConnectionId)
	if err != nil {
		return ToggleMuteResponse{}, err
	}

	rs.mu.Lock()
	p, ok := rs.participants[params.ConnectionId]
	if !ok {
		rs.mu.Unlock()
		return ToggleMuteResponse{}, ErrNotInRoom
	}

	p.isMuted = params.IsMuted
	userId := p.identity.Id
	othersIds := rs.connectionIds(params.ConnectionId)
	rs.mu.Unlock()

	isMuted := params.IsMuted
	s.reconciler.enqueue("update participant mute", func(ctx context.Context) error {
		return s.recordRepo.UpdateParticipantIsMuted(ctx, roomId, userId, isMuted)
	})

	return ToggleMuteResponse{
		UserId:      userId,
		IsMuted:     params.IsMuted,
		OthersConns: s.conns(ctx, othersIds),
	}, nil
}
