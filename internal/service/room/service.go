package room

import (
	"context"
	"log/slog"

	"github.com/viberoom/server/internal/repository/record"
	"github.com/viberoom/server/pkg/wsrouter"
)

type iRecordRepo interface {
	GetRoom(ctx context.Context, roomId string) (record.Room, error)
	GetPlaylist(ctx context.Context, roomId string) ([]record.PlaylistEntry, error)
	UpsertParticipant(ctx context.Context, params *record.UpsertParticipantParams) error
	UpdateParticipantPosition(ctx context.Context, roomId, userId string, x, y float64) error
	UpdateParticipantIsMuted(ctx context.Context, roomId, userId string, isMuted bool) error
	DeleteParticipant(ctx context.Context, params *record.DeleteParticipantParams) error
	InsertMessage(ctx context.Context, params *record.InsertMessageParams) error
	UpdateRoomTrack(ctx context.Context, roomId, trackId string) error
	UpdateRoomUserCount(ctx context.Context, roomId string, count int) error
}

type iConnRepo interface {
	Add(conn *wsrouter.Conn, connectionId string) error
	RemoveByConnectionId(connectionId string) error
	GetConn(connectionId string) (*wsrouter.Conn, error)
	SetRoomId(connectionId, roomId string) error
	GetRoomId(connectionId string) (string, error)
}

type service struct {
	recordRepo iRecordRepo
	connRepo   iConnRepo
	state      *stateStore
	reconciler *reconciler
	logger     *slog.Logger
}

func NewService(recordRepo iRecordRepo, connRepo iConnRepo, queueSize int, logger *slog.Logger) *service {
	s := service{
		recordRepo: recordRepo,
		connRepo:   connRepo,
		state:      newStateStore(),
		logger:     logger,
	}

	s.reconciler = newReconciler(recordRepo, queueSize, logger)

	return &s
}

// Close stops the persistence reconciler after draining its queue.
func (s *service) Close() {
	s.reconciler.close()
}

// roomOf resolves the live room the connection is currently a member of.
func (s *service) roomOf(connectionId string) (string, *roomState, error) {
	roomId, err := s.connRepo.GetRoomId(connectionId)
	if err != nil || roomId == "" {
		return "", nil, ErrNotInRoom
	}

	rs, ok := s.state.get(roomId)
	if !ok {
		return "", nil, ErrNotInRoom
	}

	return roomId, rs, nil
}

// conns resolves connection ids to live websocket connections, skipping ids
// whose connection is already gone.
func (s *service) conns(ctx context.Context, connectionIds []string) []*wsrouter.Conn {
	conns := make([]*wsrouter.Conn, 0, len(connectionIds))
	for _, connectionId := range connectionIds {
		conn, err := s.connRepo.GetConn(connectionId)
		if err != nil {
			s.logger.DebugContext(ctx, "failed to get conn", "connection_id", connectionId, "error", err)
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}
